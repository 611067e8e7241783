package generation

// RunInput identifies the diagram and scope of one IaC generation run.
type RunInput struct {
	UserID          string   `json:"-"`
	WorkItemID      string   `json:"workItemId"`
	Recommendations []string `json:"recommendations"`
	TemplateType    string   `json:"templateType"`
}

// RunResult is the terminal outcome of a generation run. Content carries the
// assembled document, complete or partial.
type RunResult struct {
	WorkItemID  string `json:"workItemId"`
	Content     string `json:"content"`
	IsCancelled bool   `json:"isCancelled"`
	Error       string `json:"error,omitempty"`
}

// SelectedItem is one best-practice finding chosen for detail enrichment.
type SelectedItem struct {
	Pillar   string `json:"pillar"`
	Question string `json:"question"`
	Practice string `json:"practice"`
}

// DetailsInput selects findings for the detail-enrichment loop.
type DetailsInput struct {
	UserID     string         `json:"-"`
	WorkItemID string         `json:"workItemId"`
	Items      []SelectedItem `json:"items"`
}

// DetailsResult aggregates the per-item guidance. Error carries a warning when
// some items failed but others produced output.
type DetailsResult struct {
	WorkItemID string `json:"workItemId"`
	Content    string `json:"content"`
	Error      string `json:"error,omitempty"`
}
