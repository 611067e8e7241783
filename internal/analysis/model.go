package analysis

import "github.com/dajrodri/well-architected-iac-analyzer/internal/parser"

// Result is the assessment of one question group: every best practice under
// one taxonomy question. The result sequence of a run is append-only and
// never reordered.
type Result struct {
	Pillar        string           `json:"pillar"`
	Question      string           `json:"question"`
	QuestionID    string           `json:"questionId"`
	BestPractices []parser.Verdict `json:"bestPractices"`
}

// RunInput identifies the document and scope of one analysis run.
type RunInput struct {
	UserID     string   `json:"-"`
	WorkItemID string   `json:"workItemId"`
	WorkloadID string   `json:"workloadId,omitempty"`
	Pillars    []string `json:"pillars"`
}

// RunResult is the terminal outcome of a run. Expected failure modes surface
// through Error rather than a returned error, so callers always get whatever
// results were completed.
type RunResult struct {
	WorkItemID         string   `json:"workItemId"`
	Results            []Result `json:"results"`
	ProcessedQuestions int      `json:"processedQuestions"`
	TotalQuestions     int      `json:"totalQuestions"`
	IsCancelled        bool     `json:"isCancelled"`
	Error              string   `json:"error,omitempty"`
}
