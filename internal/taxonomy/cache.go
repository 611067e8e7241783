package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable indicates the taxonomy or the workload answer listing could
// not be fetched or parsed. Fatal for analysis initialization.
var ErrUnavailable = errors.New("taxonomy unavailable")

const compositeKeySep = "|||"

// Cache resolves and memoizes the enriched taxonomy per workload for the
// process lifetime. Entries are never expired automatically; Invalidate drops
// a workload explicitly.
type Cache struct {
	source  Source
	answers AnswerLister

	mu         sync.Mutex
	byWorkload map[string][]Record
}

// NewCache builds a cache over the given taxonomy source and answer lister.
// The answer lister may be nil, in which case every id is a fallback slug.
func NewCache(source Source, answers AnswerLister) *Cache {
	return &Cache{
		source:     source,
		answers:    answers,
		byWorkload: make(map[string][]Record),
	}
}

// Resolve returns the enriched taxonomy for a workload, computing it on first
// use. Identifiers come from the workload's recorded answers; entries without
// a live mapping get deterministic slug ids, keyed by question and practice
// title so duplicate practice names across questions cannot collide.
func (c *Cache) Resolve(ctx context.Context, workloadID string) ([]Record, error) {
	c.mu.Lock()
	if cached, ok := c.byWorkload[workloadID]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	entries, err := c.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	questionIDs := make(map[string]string)
	choiceIDs := make(map[string]string)
	if c.answers != nil && workloadID != "" {
		listed, err := c.answers.ListAnswers(ctx, workloadID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		for _, answer := range listed {
			questionIDs[answer.QuestionTitle] = answer.QuestionID
			for _, choice := range answer.Choices {
				choiceIDs[answer.QuestionTitle+compositeKeySep+choice.Title] = choice.ChoiceID
			}
		}
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		questionID := questionIDs[entry.Question]
		if questionID == "" {
			questionID = GenerateFallbackID(entry.Question)
		}
		practiceID := choiceIDs[entry.Question+compositeKeySep+entry.BestPractice]
		if practiceID == "" {
			practiceID = GenerateFallbackID(entry.Question, entry.BestPractice)
		}
		records = append(records, Record{
			Pillar:        entry.Pillar,
			QuestionTitle: entry.Question,
			QuestionID:    questionID,
			PracticeName:  entry.BestPractice,
			PracticeID:    practiceID,
		})
	}

	c.mu.Lock()
	c.byWorkload[workloadID] = records
	c.mu.Unlock()
	return records, nil
}

// QuestionGroups filters the workload's taxonomy by pillar and groups the
// remaining records by question title, preserving first-seen practice order.
func (c *Cache) QuestionGroups(ctx context.Context, workloadID, pillar string) ([]QuestionGroup, error) {
	records, err := c.Resolve(ctx, workloadID)
	if err != nil {
		return nil, err
	}

	wanted := PillarSlug(pillar)
	var groups []QuestionGroup
	index := make(map[string]int)
	for _, rec := range records {
		if PillarSlug(rec.Pillar) != wanted {
			continue
		}
		i, ok := index[rec.QuestionTitle]
		if !ok {
			groups = append(groups, QuestionGroup{
				Pillar:        rec.Pillar,
				QuestionTitle: rec.QuestionTitle,
				QuestionID:    rec.QuestionID,
			})
			i = len(groups) - 1
			index[rec.QuestionTitle] = i
		}
		groups[i].PracticeNames = append(groups[i].PracticeNames, rec.PracticeName)
		groups[i].PracticeIDs = append(groups[i].PracticeIDs, rec.PracticeID)
	}
	return groups, nil
}

// Invalidate drops a workload's cached taxonomy so the next Resolve refetches.
func (c *Cache) Invalidate(workloadID string) {
	c.mu.Lock()
	delete(c.byWorkload, workloadID)
	c.mu.Unlock()
}
