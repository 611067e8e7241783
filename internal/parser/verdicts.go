package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is one best-practice assessment extracted from a model response.
// Exactly one of ReasonApplied/ReasonNotApplied is populated, matching Applied;
// Recommendations is only present when the practice is not applied.
type Verdict struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	Applied         bool   `json:"applied"`
	ReasonApplied   string `json:"reasonApplied,omitempty"`
	ReasonNotApplied string `json:"reasonNotApplied,omitempty"`
	Recommendations string `json:"recommendations,omitempty"`
}

type verdictEnvelope struct {
	BestPractices []Verdict `json:"bestPractices"`
}

// ParseVerdicts decodes a cleaned JSON response into verdicts. The raw text is
// passed through CleanJSON first, so callers can hand over model output as-is.
func ParseVerdicts(raw string) ([]Verdict, error) {
	clean, err := CleanJSON(raw)
	if err != nil {
		return nil, err
	}

	var envelope verdictEnvelope
	if err := json.Unmarshal([]byte(clean), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(envelope.BestPractices) == 0 {
		return nil, fmt.Errorf("%w: response contains no best practices", ErrMalformed)
	}

	verdicts := envelope.BestPractices
	for i := range verdicts {
		normalizeVerdict(&verdicts[i])
	}
	return verdicts, nil
}

// normalizeVerdict enforces the reason/recommendation invariants so downstream
// consumers never see contradictory fields.
func normalizeVerdict(v *Verdict) {
	v.Name = strings.TrimSpace(v.Name)
	if v.Applied {
		v.ReasonNotApplied = ""
		v.Recommendations = ""
	} else {
		v.ReasonApplied = ""
	}
}
