package taxonomy

import (
	"context"
	"errors"
	"testing"
)

type staticSource struct {
	entries []Entry
	err     error
	loads   int
}

func (s *staticSource) Load(ctx context.Context) ([]Entry, error) {
	s.loads++
	return s.entries, s.err
}

type staticAnswers struct {
	answers []Answer
	err     error
	calls   int
}

func (s *staticAnswers) ListAnswers(ctx context.Context, workloadID string) ([]Answer, error) {
	s.calls++
	return s.answers, s.err
}

func testEntries() []Entry {
	return []Entry{
		{Pillar: "Security", Question: "How do you manage identities?", BestPractice: "Use strong sign-in"},
		{Pillar: "Security", Question: "How do you manage identities?", BestPractice: "Rely on a centralized identity provider"},
		{Pillar: "Security", Question: "How do you protect data at rest?", BestPractice: "Enforce encryption at rest"},
		{Pillar: "Reliability", Question: "How do you plan for disaster recovery?", BestPractice: "Define recovery objectives"},
	}
}

func TestResolveMergesWorkloadIDs(t *testing.T) {
	answers := &staticAnswers{answers: []Answer{
		{
			QuestionID:    "sec-q1",
			QuestionTitle: "How do you manage identities?",
			Choices: []Choice{
				{ChoiceID: "sec-q1-c1", Title: "Use strong sign-in"},
			},
		},
	}}
	cache := NewCache(&staticSource{entries: testEntries()}, answers)

	records, err := cache.Resolve(context.Background(), "wl-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	if records[0].QuestionID != "sec-q1" || records[0].PracticeID != "sec-q1-c1" {
		t.Fatalf("live ids not applied: %+v", records[0])
	}
	// No recorded choice id: deterministic slug fallback.
	if records[1].PracticeID != "how-do-you-manage-identities-rely-on-a-centralized-identity-provider" {
		t.Fatalf("fallback practice id = %q", records[1].PracticeID)
	}
	if records[3].QuestionID != "how-do-you-plan-for-disaster-recovery" {
		t.Fatalf("fallback question id = %q", records[3].QuestionID)
	}
}

func TestResolveCachesPerWorkload(t *testing.T) {
	source := &staticSource{entries: testEntries()}
	answers := &staticAnswers{}
	cache := NewCache(source, answers)

	for i := 0; i < 3; i++ {
		if _, err := cache.Resolve(context.Background(), "wl-1"); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if source.loads != 1 || answers.calls != 1 {
		t.Fatalf("loads=%d answerCalls=%d, want 1 each", source.loads, answers.calls)
	}

	cache.Invalidate("wl-1")
	if _, err := cache.Resolve(context.Background(), "wl-1"); err != nil {
		t.Fatalf("Resolve after invalidate: %v", err)
	}
	if source.loads != 2 {
		t.Fatalf("loads=%d after invalidate, want 2", source.loads)
	}
}

func TestResolveUnavailable(t *testing.T) {
	cache := NewCache(&staticSource{err: errors.New("boom")}, nil)
	if _, err := cache.Resolve(context.Background(), "wl-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}

	cache = NewCache(&staticSource{entries: testEntries()}, &staticAnswers{err: errors.New("throttled")})
	if _, err := cache.Resolve(context.Background(), "wl-1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable for answer listing failure", err)
	}
}

func TestQuestionGroupsAlignment(t *testing.T) {
	cache := NewCache(&staticSource{entries: testEntries()}, nil)

	groups, err := cache.QuestionGroups(context.Background(), "", "Security")
	if err != nil {
		t.Fatalf("QuestionGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	for _, g := range groups {
		if len(g.PracticeNames) != len(g.PracticeIDs) {
			t.Fatalf("group %q misaligned: %d names vs %d ids", g.QuestionTitle, len(g.PracticeNames), len(g.PracticeIDs))
		}
		if len(g.PracticeNames) == 0 {
			t.Fatalf("group %q has no practices", g.QuestionTitle)
		}
	}
	if groups[0].PracticeNames[0] != "Use strong sign-in" {
		t.Fatalf("first-seen order not preserved: %v", groups[0].PracticeNames)
	}

	empty, err := cache.QuestionGroups(context.Background(), "", "Cost Optimization")
	if err != nil {
		t.Fatalf("QuestionGroups empty pillar: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no groups for absent pillar, got %d", len(empty))
	}
}
