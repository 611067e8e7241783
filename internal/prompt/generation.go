package prompt

import (
	"fmt"
	"strings"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/parser"
)

// GenerationSystem is the system prompt for IaC document synthesis from an
// architecture diagram.
const GenerationSystem = `You are an expert infrastructure-as-code author. You turn architecture diagrams and Well-Architected recommendations into complete, deployable templates. You write output in ordered sections, each introduced by a header of the form "# Section <number> - <short description>".`

// GenerationUser builds the user turn for one synthesis iteration. Previously
// produced sections are replayed so the model continues instead of repeating,
// and the completion sentinel contract is restated every turn.
func GenerationUser(templateType string, recommendations []string, previous []parser.Section) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a %s template implementing the architecture in the attached diagram.\n\n", templateType)

	if len(recommendations) > 0 {
		b.WriteString("Incorporate these recommendations:\n")
		for _, rec := range recommendations {
			b.WriteString("- ")
			b.WriteString(rec)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(previous) == 0 {
		b.WriteString("Start with the first sections of the document.\n")
	} else {
		b.WriteString("These sections already exist; continue after them without repeating their content:\n\n")
		for _, section := range previous {
			fmt.Fprintf(&b, "# Section %d - %s\n%s\n\n", section.Order, section.Description, section.Content)
		}
	}

	fmt.Fprintf(&b, "\nWhen the document is fully complete, end your response with %s on its own line. Otherwise keep producing new numbered sections.", parser.DocumentSentinel)
	return b.String()
}

// DetailsSystem is the system prompt for per-practice deep-dive calls.
const DetailsSystem = `You are an AWS Well-Architected expert. You expand a single best-practice finding into detailed, actionable implementation guidance for the reviewed workload.`

// DetailsUser builds one turn of the detail-enrichment loop for a selected
// item; accumulated partial output is replayed so the model can continue.
func DetailsUser(pillar, question, practice, partial string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Provide detailed implementation guidance for the best practice %q (pillar: %s, question: %q).\n", practice, pillar, question)
	if strings.TrimSpace(partial) != "" {
		b.WriteString("\nYou already produced the following; continue from where it stops without repeating:\n\n")
		b.WriteString(partial)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nWhen the guidance for this item is complete, end your response with %s on its own line.", parser.DetailsSentinel)
	return b.String()
}
