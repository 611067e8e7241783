package analysis

import (
	"context"
	"fmt"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/inference"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/parser"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/progress"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/prompt"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/retrieval"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/metrics"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/telemetry"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/taxonomy"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/workitems"
)

// Orchestrator drives the per-question analysis loop: taxonomy resolution,
// retrieval, inference, parsing, progress, and best-effort partial persistence
// on every failure or cancellation path.
type Orchestrator struct {
	Items    *workitems.Service
	Taxonomy *taxonomy.Cache
	Retriever retrieval.Retriever
	Invoker  inference.Invoker
	Notifier progress.Notifier
	TopK     int
}

// Run executes one analysis. Input validation failures return an error with no
// state change; every later failure mode lands in RunResult.Error with the
// work item moved out of IN_PROGRESS.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (RunResult, error) {
	if in.UserID == "" || in.WorkItemID == "" {
		return RunResult{}, fmt.Errorf("%w: user and work item ids are required", workitems.ErrInvalidInput)
	}
	if len(in.Pillars) == 0 {
		return RunResult{}, fmt.Errorf("%w: at least one pillar is required", workitems.ErrInvalidInput)
	}

	item, err := o.Items.Get(ctx, in.UserID, in.WorkItemID)
	if err != nil {
		return RunResult{}, err
	}

	content, err := o.Items.OriginalContent(ctx, in.UserID, in.WorkItemID, false)
	if err != nil {
		return RunResult{}, fmt.Errorf("load document content: %w", err)
	}

	metrics.IncAnalysisStarted()
	if err := o.Items.Update(ctx, in.UserID, in.WorkItemID, workitems.Update{
		AnalysisStatus:   workitems.Ptr(workitems.StatusInProgress),
		AnalysisProgress: workitems.Ptr(0),
		AnalysisError:    workitems.Ptr(""),
	}); err != nil {
		return RunResult{}, err
	}

	run := runState{orchestrator: o, input: in, item: item, content: content}

	// Precompute every question group up front so the total work count and
	// progress percentages are stable for the whole run.
	groups, err := run.questionGroups(ctx)
	if err != nil {
		return run.fail(ctx, fmt.Sprintf("resolve best practices: %v", err)), nil
	}
	run.total = len(groups)
	if run.total == 0 {
		return run.fail(ctx, "no questions found for the requested pillars"), nil
	}

	return run.loop(ctx, groups)
}

type runState struct {
	orchestrator *Orchestrator
	input        RunInput
	item         workitems.WorkItem
	content      workitems.Content

	results   []Result
	processed int
	total     int
}

func (r *runState) questionGroups(ctx context.Context) ([]taxonomy.QuestionGroup, error) {
	var groups []taxonomy.QuestionGroup
	for _, pillar := range r.input.Pillars {
		pillarGroups, err := r.orchestrator.Taxonomy.QuestionGroups(ctx, r.input.WorkloadID, pillar)
		if err != nil {
			return nil, err
		}
		groups = append(groups, pillarGroups...)
	}
	return groups, nil
}

func (r *runState) loop(ctx context.Context, groups []taxonomy.QuestionGroup) (RunResult, error) {
	o := r.orchestrator

	for _, group := range groups {
		// Cancellation checkpoint: observed between questions only, never
		// interrupting a completed unit of work.
		if ctx.Err() != nil {
			return r.cancelled(), nil
		}

		query := fmt.Sprintf("%s %s", group.Pillar, group.QuestionTitle)
		passages, err := o.Retriever.Retrieve(ctx, query, o.topK())
		if err != nil {
			if ctx.Err() != nil {
				return r.cancelled(), nil
			}
			return r.abort(ctx, group, fmt.Sprintf("knowledge retrieval failed: %v", err)), nil
		}

		o.Notifier.EmitAnalysisProgress(r.input.UserID, r.input.WorkItemID, progress.AnalysisEvent{
			Processed: r.processed,
			Total:     r.total,
			Pillar:    group.Pillar,
			Question:  group.QuestionTitle,
		})

		verdicts, err := r.assess(ctx, group, passages)
		if err != nil {
			if ctx.Err() != nil {
				return r.cancelled(), nil
			}
			return r.abort(ctx, group, err.Error()), nil
		}

		r.results = append(r.results, Result{
			Pillar:        group.Pillar,
			Question:      group.QuestionTitle,
			QuestionID:    group.QuestionID,
			BestPractices: verdicts,
		})
		r.processed++

		if err := o.Items.Update(ctx, r.input.UserID, r.input.WorkItemID, workitems.Update{
			AnalysisProgress: workitems.Ptr(r.progressPct()),
		}); err != nil {
			telemetry.Warn("analysis.progress_update_failed", map[string]any{
				"work_item_id": r.input.WorkItemID,
				"error":        err.Error(),
			})
		}

		o.Notifier.EmitAnalysisProgress(r.input.UserID, r.input.WorkItemID, progress.AnalysisEvent{
			Processed: r.processed,
			Total:     r.total,
			Pillar:    group.Pillar,
			Question:  group.QuestionTitle,
		})
	}

	return r.complete(ctx)
}

// assess runs one inference call for a question group and maps the verdicts
// back onto the requested practices by position. The response must echo the
// practice list exactly; a count mismatch fails the question rather than
// silently misattributing ids.
func (r *runState) assess(ctx context.Context, group taxonomy.QuestionGroup, passages []string) ([]parser.Verdict, error) {
	o := r.orchestrator

	userPrompt := prompt.AnalysisUser(group, passages, r.content.Data, r.content.IsImage)
	var image *inference.Image
	if r.content.IsImage {
		image = &inference.Image{DataURI: r.content.Data, MediaType: r.content.ContentType}
	}

	text, err := o.Invoker.Invoke(ctx, prompt.AnalysisSystem, userPrompt, image)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %v", err)
	}

	verdicts, err := parser.ParseVerdicts(text)
	if err != nil {
		return nil, fmt.Errorf("response could not be parsed: %v", err)
	}
	if len(verdicts) != len(group.PracticeIDs) {
		return nil, fmt.Errorf("response returned %d verdicts for %d requested practices", len(verdicts), len(group.PracticeIDs))
	}
	for i := range verdicts {
		verdicts[i].ID = group.PracticeIDs[i]
		if verdicts[i].Name == "" {
			verdicts[i].Name = group.PracticeNames[i]
		}
	}
	return verdicts, nil
}

func (r *runState) complete(ctx context.Context) (RunResult, error) {
	o := r.orchestrator

	if err := o.Items.StoreAnalysisResults(ctx, r.input.UserID, r.input.WorkItemID, r.results); err != nil {
		return RunResult{}, err
	}
	if err := o.Items.Update(ctx, r.input.UserID, r.input.WorkItemID, workitems.Update{
		AnalysisStatus:   workitems.Ptr(workitems.StatusCompleted),
		AnalysisProgress: workitems.Ptr(100),
		AnalysisError:    workitems.Ptr(""),
	}); err != nil {
		return RunResult{}, err
	}

	metrics.IncAnalysisCompleted()
	telemetry.Info("analysis.completed", map[string]any{
		"work_item_id": r.input.WorkItemID,
		"questions":    r.processed,
	})
	return r.result(false, ""), nil
}

// abort persists whatever was computed, moves the work item to PARTIAL with a
// descriptive error, and surfaces the error through the result.
func (r *runState) abort(ctx context.Context, group taxonomy.QuestionGroup, cause string) RunResult {
	message := fmt.Sprintf("question %q (%s): %s; completed %d of %d questions",
		group.QuestionTitle, group.Pillar, cause, r.processed, r.total)

	r.persistPartial(ctx, message)
	metrics.IncAnalysisFailed()
	telemetry.Error("analysis.aborted", map[string]any{
		"work_item_id": r.input.WorkItemID,
		"processed":    r.processed,
		"total":        r.total,
		"error":        message,
	})
	return r.result(false, message)
}

func (r *runState) cancelled() RunResult {
	// The run context is cancelled; persistence uses a fresh context so the
	// partial write still lands.
	r.persistPartial(context.WithoutCancel(context.Background()), "")
	telemetry.Info("analysis.cancelled", map[string]any{
		"work_item_id": r.input.WorkItemID,
		"processed":    r.processed,
		"total":        r.total,
	})
	return r.result(true, "")
}

func (r *runState) fail(ctx context.Context, message string) RunResult {
	update := workitems.Update{
		AnalysisStatus: workitems.Ptr(workitems.StatusFailed),
		AnalysisError:  workitems.Ptr(message),
	}
	if err := r.orchestrator.Items.Update(ctx, r.input.UserID, r.input.WorkItemID, update); err != nil {
		telemetry.Error("analysis.status_update_failed", map[string]any{
			"work_item_id": r.input.WorkItemID,
			"error":        err.Error(),
		})
	}
	metrics.IncAnalysisFailed()
	return r.result(false, message)
}

func (r *runState) persistPartial(ctx context.Context, message string) {
	o := r.orchestrator

	if len(r.results) > 0 {
		if err := o.Items.StoreAnalysisResults(ctx, r.input.UserID, r.input.WorkItemID, r.results); err != nil {
			telemetry.Error("analysis.partial_store_failed", map[string]any{
				"work_item_id": r.input.WorkItemID,
				"error":        err.Error(),
			})
		}
	}

	update := workitems.Update{
		AnalysisStatus:   workitems.Ptr(workitems.StatusPartial),
		AnalysisProgress: workitems.Ptr(r.progressPct()),
	}
	if message != "" {
		update.AnalysisError = workitems.Ptr(message)
	}
	if err := o.Items.Update(ctx, r.input.UserID, r.input.WorkItemID, update); err != nil {
		telemetry.Error("analysis.status_update_failed", map[string]any{
			"work_item_id": r.input.WorkItemID,
			"error":        err.Error(),
		})
	}
}

func (r *runState) progressPct() int {
	if r.total == 0 {
		return 0
	}
	return r.processed * 100 / r.total
}

func (r *runState) result(cancelled bool, message string) RunResult {
	return RunResult{
		WorkItemID:         r.input.WorkItemID,
		Results:            r.results,
		ProcessedQuestions: r.processed,
		TotalQuestions:     r.total,
		IsCancelled:        cancelled,
		Error:              message,
	}
}

func (o *Orchestrator) topK() int {
	if o.TopK > 0 {
		return o.TopK
	}
	return retrieval.DefaultTopK
}
