package prompt

import (
	"fmt"
	"strings"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/taxonomy"
)

// AnalysisSystem is the system prompt for best-practice assessment calls.
const AnalysisSystem = `You are an AWS Well-Architected Framework reviewer. You assess infrastructure-as-code documents and architecture diagrams against specific best practices and respond only with JSON.`

const analysisFormat = `Respond with a single JSON object of this exact shape, with one entry per best practice in the same order they are listed above:
{"bestPractices":[{"name":"<best practice name>","applied":<true|false>,"reasonApplied":"<why it is applied>","reasonNotApplied":"<why it is not applied>","recommendations":"<how to address it>"}]}
Populate reasonApplied only when applied is true. Populate reasonNotApplied and recommendations only when applied is false. Do not add entries, drop entries, or reorder them.`

// AnalysisUser assembles the user turn for one question group. For image
// inputs the document travels as an attached image and document is left empty.
func AnalysisUser(group taxonomy.QuestionGroup, passages []string, document string, isImage bool) string {
	var b strings.Builder

	if isImage {
		b.WriteString("Review the attached architecture diagram.\n\n")
	} else {
		b.WriteString("Review the following infrastructure-as-code document:\n\n<document>\n")
		b.WriteString(document)
		b.WriteString("\n</document>\n\n")
	}

	fmt.Fprintf(&b, "Assess it against these best practices from the %s pillar, question %q:\n", group.Pillar, group.QuestionTitle)
	for i, name := range group.PracticeNames {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}

	if len(passages) > 0 {
		b.WriteString("\nSupporting guidance from the AWS Well-Architected documentation:\n<context>\n")
		for _, passage := range passages {
			b.WriteString(passage)
			b.WriteString("\n---\n")
		}
		b.WriteString("</context>\n")
	}

	b.WriteString("\n")
	b.WriteString(analysisFormat)
	return b.String()
}
