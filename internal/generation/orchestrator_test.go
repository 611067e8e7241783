package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/inference"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/parser"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/progress"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/storage/object/local"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/workitems"
)

type scriptedInvoker struct {
	responses []string
	errs      []error
	prompts   []string
	images    []*inference.Image
	onCall    func(call int)
}

func (s *scriptedInvoker) Invoke(ctx context.Context, systemPrompt, userPrompt string, image *inference.Image) (string, error) {
	call := len(s.prompts)
	s.prompts = append(s.prompts, userPrompt)
	s.images = append(s.images, image)
	if s.onCall != nil {
		s.onCall(call)
	}
	if call < len(s.errs) && s.errs[call] != nil {
		return "", s.errs[call]
	}
	if call < len(s.responses) {
		return s.responses[call], nil
	}
	return "", errors.New("no scripted response")
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n fake diagram")

func setupRun(t *testing.T, invoker inference.Invoker) (*Orchestrator, *workitems.MemoryRepo, RunInput) {
	t.Helper()
	store := local.New(t.TempDir())
	repo := workitems.NewMemoryRepo()
	svc := &workitems.Service{Repo: repo, Store: store}

	userID := "user-1"
	key := "diagrams/arch.png"
	if _, err := store.SaveWithKey(context.Background(), key, "image/png", strings.NewReader(string(pngBytes))); err != nil {
		t.Fatalf("save diagram: %v", err)
	}
	item := workitems.WorkItem{
		ID:             "item-1",
		UserID:         userID,
		FileName:       "arch.png",
		FileType:       "image/png",
		StorageKey:     key,
		AnalysisStatus: workitems.StatusPending,
		IaCStatus:      workitems.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), item); err != nil {
		t.Fatalf("create item: %v", err)
	}

	o := &Orchestrator{
		Items:     svc,
		Invoker:   invoker,
		Notifier:  progress.NopNotifier{},
		PaceDelay: time.Millisecond,
	}
	in := RunInput{
		UserID:          userID,
		WorkItemID:      item.ID,
		TemplateType:    "CloudFormation YAML",
		Recommendations: []string{"enable multi-AZ"},
	}
	return o, repo, in
}

func TestRunCompletesAcrossIterations(t *testing.T) {
	invoker := &scriptedInvoker{responses: []string{
		"# Section 1 - Networking\nVPC: {}",
		"# Section 2 - Compute\nEC2: {}\n" + parser.DocumentSentinel,
	}}
	o, repo, in := setupRun(t, invoker)

	result, err := o.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Error != "" || result.IsCancelled {
		t.Fatalf("unexpected outcome: %+v", result)
	}

	first := strings.Index(result.Content, "# Section 1 - Networking")
	second := strings.Index(result.Content, "# Section 2 - Compute")
	if first < 0 || second < 0 || second < first {
		t.Fatalf("sections missing or out of order:\n%s", result.Content)
	}

	if len(invoker.prompts) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(invoker.prompts))
	}
	if invoker.images[0] == nil || !strings.HasPrefix(invoker.images[0].DataURI, "data:image/png;base64,") {
		t.Fatalf("diagram not passed as image data uri")
	}
	if !strings.Contains(invoker.prompts[1], "VPC: {}") {
		t.Fatalf("second turn did not replay the first section")
	}

	item, err := repo.GetByID(context.Background(), in.UserID, in.WorkItemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.IaCStatus != workitems.StatusCompleted || item.IaCProgress != 100 {
		t.Fatalf("status=%s progress=%d", item.IaCStatus, item.IaCProgress)
	}
	if !item.HasIaCDocument || item.IaCExtension != "yaml" {
		t.Fatalf("document flags not set: %+v", item)
	}
}

func TestRunRejectsTextDocuments(t *testing.T) {
	o, repo, in := setupRun(t, &scriptedInvoker{})

	textItem := workitems.WorkItem{
		ID:             "item-2",
		UserID:         in.UserID,
		FileName:       "stack.yaml",
		FileType:       "text/plain",
		StorageKey:     "docs/stack.yaml",
		AnalysisStatus: workitems.StatusPending,
		IaCStatus:      workitems.StatusPending,
	}
	if err := repo.Create(context.Background(), textItem); err != nil {
		t.Fatalf("create item: %v", err)
	}

	in.WorkItemID = textItem.ID
	_, err := o.Run(context.Background(), in)
	if !errors.Is(err, workitems.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	item, _ := repo.GetByID(context.Background(), in.UserID, textItem.ID)
	if item.IaCStatus != workitems.StatusPending {
		t.Fatalf("status changed on validation failure: %s", item.IaCStatus)
	}
}

func TestRunFailsWithNothingProduced(t *testing.T) {
	invoker := &scriptedInvoker{errs: []error{errors.New("model unavailable")}}
	o, repo, in := setupRun(t, invoker)

	result, err := o.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Error == "" || result.Content != "" {
		t.Fatalf("expected bare failure, got %+v", result)
	}

	item, _ := repo.GetByID(context.Background(), in.UserID, in.WorkItemID)
	if item.IaCStatus != workitems.StatusFailed {
		t.Fatalf("status=%s", item.IaCStatus)
	}
	if item.HasIaCDocument {
		t.Fatalf("no document should be stored")
	}
}

func TestRunKeepsPartialOnMidLoopFailure(t *testing.T) {
	invoker := &scriptedInvoker{
		responses: []string{"# Section 1 - Networking\nVPC: {}", ""},
		errs:      []error{nil, errors.New("model unavailable")},
	}
	o, repo, in := setupRun(t, invoker)

	result, err := o.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Error == "" {
		t.Fatalf("expected an error message")
	}
	if !strings.Contains(result.Content, "incomplete") || !strings.Contains(result.Content, "VPC: {}") {
		t.Fatalf("partial document missing note or sections:\n%s", result.Content)
	}

	item, _ := repo.GetByID(context.Background(), in.UserID, in.WorkItemID)
	if item.IaCStatus != workitems.StatusPartial {
		t.Fatalf("status=%s", item.IaCStatus)
	}
	if !item.HasIaCDocument {
		t.Fatalf("partial document not persisted")
	}
}

func TestRunCancellationKeepsPartial(t *testing.T) {
	ctx, cancelRun := context.WithCancel(context.Background())
	invoker := &scriptedInvoker{
		responses: []string{"# Section 1 - Networking\nVPC: {}"},
		onCall: func(call int) {
			if call == 0 {
				cancelRun()
			}
		},
	}
	o, repo, in := setupRun(t, invoker)

	result, err := o.Run(ctx, in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.IsCancelled {
		t.Fatalf("expected cancelled result, got %+v", result)
	}
	if !strings.Contains(result.Content, "cancelled") || !strings.Contains(result.Content, "VPC: {}") {
		t.Fatalf("partial document missing note or sections:\n%s", result.Content)
	}

	item, _ := repo.GetByID(context.Background(), in.UserID, in.WorkItemID)
	if item.IaCStatus != workitems.StatusPartial {
		t.Fatalf("status=%s", item.IaCStatus)
	}
}

func TestRunStopsAtIterationCap(t *testing.T) {
	invoker := &scriptedInvoker{responses: []string{
		"# Section 1 - Networking\nVPC: {}",
		"# Section 2 - Compute\nEC2: {}",
	}}
	o, repo, in := setupRun(t, invoker)
	o.MaxIterations = 2

	result, err := o.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(result.Error, "2 iterations") {
		t.Fatalf("error=%q", result.Error)
	}
	if !strings.Contains(result.Content, "iteration limit") {
		t.Fatalf("partial document missing note:\n%s", result.Content)
	}

	item, _ := repo.GetByID(context.Background(), in.UserID, in.WorkItemID)
	if item.IaCStatus != workitems.StatusFailed {
		t.Fatalf("status=%s", item.IaCStatus)
	}
	if !item.HasIaCDocument {
		t.Fatalf("partial document not persisted")
	}
}

func TestRunAssemblesSectionsInOrder(t *testing.T) {
	invoker := &scriptedInvoker{responses: []string{
		"# Section 2 - Compute\nEC2: {}\n# Section 1 - Networking\nVPC: {}\n" + parser.DocumentSentinel,
	}}
	o, _, in := setupRun(t, invoker)

	result, err := o.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	first := strings.Index(result.Content, "# Section 1")
	second := strings.Index(result.Content, "# Section 2")
	if first < 0 || second < 0 || second < first {
		t.Fatalf("sections not reordered:\n%s", result.Content)
	}
}

func TestGetMoreDetailsToleratesItemFailures(t *testing.T) {
	invoker := &scriptedInvoker{
		responses: []string{
			"Use VPC endpoints.",
			"Prefer gateway endpoints for S3." + parser.DetailsSentinel,
			"",
		},
		errs: []error{nil, nil, errors.New("model unavailable")},
	}
	o, _, in := setupRun(t, invoker)

	out, err := o.GetMoreDetails(context.Background(), DetailsInput{
		UserID:     in.UserID,
		WorkItemID: in.WorkItemID,
		Items: []SelectedItem{
			{Pillar: "Security", Question: "How do you protect networks?", Practice: "Create network layers"},
			{Pillar: "Security", Question: "How do you protect data?", Practice: "Encrypt at rest"},
		},
	})
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if !strings.Contains(out.Content, "## Create network layers") {
		t.Fatalf("missing successful item:\n%s", out.Content)
	}
	if !strings.Contains(out.Content, "Prefer gateway endpoints") {
		t.Fatalf("continuation turns not concatenated:\n%s", out.Content)
	}
	if !strings.Contains(out.Error, "1 of 2") {
		t.Fatalf("warning=%q", out.Error)
	}
}

func TestGetMoreDetailsFatalWhenAllFail(t *testing.T) {
	invoker := &scriptedInvoker{errs: []error{errors.New("model unavailable")}}
	o, _, in := setupRun(t, invoker)

	_, err := o.GetMoreDetails(context.Background(), DetailsInput{
		UserID:     in.UserID,
		WorkItemID: in.WorkItemID,
		Items:      []SelectedItem{{Pillar: "Security", Question: "q", Practice: "p"}},
	})
	if err == nil {
		t.Fatalf("expected error when every item fails")
	}
}
