package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Sentinels the model emits to signal that a multi-turn loop has finished.
const (
	DocumentSentinel = "<end_of_iac_document_generation>"
	DetailsSentinel  = "<end_of_details_generation>"
)

// DefaultSectionOrder is assigned when a section header carries no usable number.
const DefaultSectionOrder = 999

// Section is one ordered fragment of a generated document.
type Section struct {
	Content     string
	Order       int
	Description string
}

var sectionHeaderRe = regexp.MustCompile(`(?m)^#+\s*Section\b\s*(\d*)\s*[-:]?\s*(.*)$`)

// ParseSections splits model output on section headers and reports whether the
// completion sentinel is present. Header numbers become section orders; headers
// without a parseable number get DefaultSectionOrder.
func ParseSections(text, sentinel string) ([]Section, bool) {
	complete := strings.Contains(text, sentinel)
	if complete {
		text = strings.ReplaceAll(text, sentinel, "")
	}

	matches := sectionHeaderRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, complete
	}

	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		order := DefaultSectionOrder
		if num := text[m[2]:m[3]]; num != "" {
			if parsed, err := strconv.Atoi(num); err == nil {
				order = parsed
			}
		}
		description := strings.TrimSpace(text[m[4]:m[5]])

		bodyStart := m[1]
		bodyEnd := len(text)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		content := strings.TrimSpace(text[bodyStart:bodyEnd])
		if content == "" && description == "" {
			continue
		}

		sections = append(sections, Section{
			Content:     content,
			Order:       order,
			Description: description,
		})
	}
	return sections, complete
}

// SortSections orders sections ascending by their order field. The sort is
// stable: sections sharing an order keep their relative arrival order.
func SortSections(sections []Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})
}
