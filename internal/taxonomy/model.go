package taxonomy

// Entry is one row of the published best-practice taxonomy: a (pillar,
// question, best practice) triple without workload-specific identifiers.
type Entry struct {
	Pillar       string `json:"Pillar"`
	Question     string `json:"Question"`
	BestPractice string `json:"Best Practice"`
}

// Record is a taxonomy entry enriched with identifiers resolved against a
// workload's recorded answers. When a workload has no live mapping the ids
// fall back to deterministic slugs, so repeated runs stay stable.
type Record struct {
	Pillar        string `json:"pillar"`
	QuestionTitle string `json:"questionTitle"`
	QuestionID    string `json:"questionId"`
	PracticeName  string `json:"practiceName"`
	PracticeID    string `json:"practiceId"`
}

// QuestionGroup bundles every best practice under one question. The name and
// id slices are positionally aligned and form the unit of work for a single
// inference call.
type QuestionGroup struct {
	Pillar        string   `json:"pillar"`
	QuestionTitle string   `json:"questionTitle"`
	QuestionID    string   `json:"questionId"`
	PracticeNames []string `json:"bestPractices"`
	PracticeIDs   []string `json:"bestPracticeIds"`
}
