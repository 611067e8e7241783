package workitems

import "time"

// Status enumerates the lifecycle of one orchestrated process on a work item.
// The analysis and generation processes carry independent statuses.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusPartial    Status = "PARTIAL"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// WorkItem is the per-user record for one uploaded document or diagram and
// the state of the processes run against it. Orchestrators mutate it through
// the repo only; it is never authoritative in-memory state across calls.
type WorkItem struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	StorageKey string `json:"-"`
	WorkloadID string `json:"workloadId,omitempty"`

	AnalysisStatus   Status `json:"analysisStatus"`
	AnalysisProgress int    `json:"analysisProgress"`
	AnalysisError    string `json:"analysisError,omitempty"`

	IaCStatus   Status `json:"iacStatus"`
	IaCProgress int    `json:"iacProgress"`
	IaCError    string `json:"iacError,omitempty"`

	HasAnalysisResults bool   `json:"hasAnalysisResults"`
	HasIaCDocument     bool   `json:"hasIacDocument"`
	IaCExtension       string `json:"iacExtension,omitempty"`
	TemplateType       string `json:"templateType,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsImage reports whether the stored file is an architecture diagram image.
func (w WorkItem) IsImage() bool {
	return len(w.FileType) > 6 && w.FileType[:6] == "image/"
}

// Update carries partial work-item mutations; nil fields are left untouched.
type Update struct {
	WorkloadID *string

	AnalysisStatus   *Status
	AnalysisProgress *int
	AnalysisError    *string

	IaCStatus   *Status
	IaCProgress *int
	IaCError    *string

	HasAnalysisResults *bool
	HasIaCDocument     *bool
	IaCExtension       *string
	TemplateType       *string
}

// Ptr returns a pointer to v, for building Update values inline.
func Ptr[T any](v T) *T {
	return &v
}
