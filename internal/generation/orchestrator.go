package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/inference"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/parser"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/progress"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/prompt"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/metrics"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/telemetry"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/workitems"
)

// DefaultMaxIterations caps the multi-turn synthesis loop when no explicit
// limit is configured.
const DefaultMaxIterations = 30

// DefaultPaceDelay is the pause between synthesis iterations.
const DefaultPaceDelay = time.Second

// Orchestrator drives the multi-turn IaC synthesis loop against an
// architecture diagram. Sections accumulate across iterations until the model
// emits the completion sentinel; every failure and cancellation path persists
// whatever was produced so far.
type Orchestrator struct {
	Items         *workitems.Service
	Invoker       inference.Invoker
	Notifier      progress.Notifier
	MaxIterations int
	PaceDelay     time.Duration
}

// Run executes one generation. Input validation failures return an error with
// no state change; later failure modes land in RunResult.Error with the work
// item moved out of IN_PROGRESS.
func (o *Orchestrator) Run(ctx context.Context, in RunInput) (RunResult, error) {
	if in.UserID == "" || in.WorkItemID == "" {
		return RunResult{}, fmt.Errorf("%w: user and work item ids are required", workitems.ErrInvalidInput)
	}
	if in.TemplateType == "" {
		return RunResult{}, fmt.Errorf("%w: template type is required", workitems.ErrInvalidInput)
	}

	item, err := o.Items.Get(ctx, in.UserID, in.WorkItemID)
	if err != nil {
		return RunResult{}, err
	}
	if !item.IsImage() {
		return RunResult{}, fmt.Errorf("%w: IaC generation requires an architecture diagram image", workitems.ErrInvalidInput)
	}

	content, err := o.Items.OriginalContent(ctx, in.UserID, in.WorkItemID, false)
	if err != nil {
		return RunResult{}, fmt.Errorf("load diagram content: %w", err)
	}

	metrics.IncGenerationStarted()
	if err := o.Items.Update(ctx, in.UserID, in.WorkItemID, workitems.Update{
		IaCStatus:   workitems.Ptr(workitems.StatusInProgress),
		IaCProgress: workitems.Ptr(0),
		IaCError:    workitems.Ptr(""),
	}); err != nil {
		return RunResult{}, err
	}

	run := genState{
		orchestrator: o,
		input:        in,
		image:        &inference.Image{DataURI: content.Data, MediaType: content.ContentType},
		extension:    workitems.DeriveExtension(in.TemplateType),
	}
	return run.loop(ctx), nil
}

type genState struct {
	orchestrator *Orchestrator
	input        RunInput
	image        *inference.Image
	extension    string

	sections []parser.Section
}

func (g *genState) loop(ctx context.Context) RunResult {
	o := g.orchestrator

	for iteration := 1; ; iteration++ {
		if iteration > o.maxIterations() {
			return g.exceeded(iteration - 1)
		}
		if ctx.Err() != nil {
			return g.cancelled()
		}

		g.report(ctx, workitems.StatusInProgress, iterationProgress(iteration))

		userPrompt := prompt.GenerationUser(g.input.TemplateType, g.input.Recommendations, g.sections)
		started := time.Now()
		text, err := o.Invoker.Invoke(ctx, prompt.GenerationSystem, userPrompt, g.image)
		metrics.ObserveInferenceDurationMs(float64(time.Since(started).Milliseconds()))
		if err != nil {
			if ctx.Err() != nil {
				return g.cancelled()
			}
			return g.abort(ctx, iteration, err)
		}

		produced, complete := parser.ParseSections(text, parser.DocumentSentinel)
		g.sections = append(g.sections, produced...)
		if complete {
			return g.complete(ctx)
		}

		// Checkpoint: the partial document is written out between
		// iterations so a later crash loses at most one turn of output.
		g.persistDocument(ctx, g.assemble(""))

		select {
		case <-time.After(o.paceDelay()):
		case <-ctx.Done():
			return g.cancelled()
		}
	}
}

func (g *genState) complete(ctx context.Context) RunResult {
	o := g.orchestrator
	document := g.assemble("")

	if err := o.Items.StoreIaCDocument(ctx, g.input.UserID, g.input.WorkItemID, document, g.extension, g.input.TemplateType); err != nil {
		return g.abort(ctx, 0, fmt.Errorf("store generated document: %w", err))
	}
	if err := o.Items.Update(ctx, g.input.UserID, g.input.WorkItemID, workitems.Update{
		IaCStatus:   workitems.Ptr(workitems.StatusCompleted),
		IaCProgress: workitems.Ptr(100),
		IaCError:    workitems.Ptr(""),
	}); err != nil {
		telemetry.Error("generation.status_update_failed", map[string]any{
			"work_item_id": g.input.WorkItemID,
			"error":        err.Error(),
		})
	}

	g.report(ctx, workitems.StatusCompleted, 100)
	metrics.IncGenerationCompleted()
	telemetry.Info("generation.completed", map[string]any{
		"work_item_id": g.input.WorkItemID,
		"sections":     len(g.sections),
		"extension":    g.extension,
	})
	return RunResult{WorkItemID: g.input.WorkItemID, Content: document}
}

// abort handles an inference or storage failure mid-loop. With sections in
// hand the run degrades to PARTIAL and the annotated partial document is kept;
// with nothing produced it fails outright.
func (g *genState) abort(ctx context.Context, iteration int, cause error) RunResult {
	message := fmt.Sprintf("generation failed at iteration %d: %v", iteration, cause)

	if len(g.sections) == 0 {
		g.setFailure(ctx, workitems.StatusFailed, message, 0)
		metrics.IncGenerationFailed()
		telemetry.Error("generation.failed", map[string]any{
			"work_item_id": g.input.WorkItemID,
			"error":        message,
		})
		return RunResult{WorkItemID: g.input.WorkItemID, Error: message}
	}

	note := fmt.Sprintf("Generation was interrupted by an error. The document below is incomplete.\nError: %v", cause)
	document := g.assemble(note)
	g.persistDocument(ctx, document)
	g.setFailure(ctx, workitems.StatusPartial, message, iterationProgress(iteration))
	metrics.IncGenerationFailed()
	telemetry.Error("generation.aborted", map[string]any{
		"work_item_id": g.input.WorkItemID,
		"sections":     len(g.sections),
		"error":        message,
	})
	return RunResult{WorkItemID: g.input.WorkItemID, Content: document, Error: message}
}

func (g *genState) cancelled() RunResult {
	// The run context is gone; persistence uses a fresh context so the
	// partial write still lands.
	ctx := context.WithoutCancel(context.Background())

	var document string
	if len(g.sections) > 0 {
		document = g.assemble("Generation was cancelled before the document was complete.")
		g.persistDocument(ctx, document)
	}
	g.setFailure(ctx, workitems.StatusPartial, "", progressEstimate(len(g.sections)))
	g.report(ctx, workitems.StatusPartial, progressEstimate(len(g.sections)))
	telemetry.Info("generation.cancelled", map[string]any{
		"work_item_id": g.input.WorkItemID,
		"sections":     len(g.sections),
	})
	return RunResult{WorkItemID: g.input.WorkItemID, Content: document, IsCancelled: true}
}

func (g *genState) exceeded(iterations int) RunResult {
	ctx := context.WithoutCancel(context.Background())
	message := fmt.Sprintf("generation did not complete within %d iterations", iterations)

	var document string
	if len(g.sections) > 0 {
		document = g.assemble("Generation hit the iteration limit before the document was complete.")
		g.persistDocument(ctx, document)
	}
	g.setFailure(ctx, workitems.StatusFailed, message, 90)
	metrics.IncGenerationFailed()
	telemetry.Error("generation.exceeded_max_iterations", map[string]any{
		"work_item_id": g.input.WorkItemID,
		"iterations":   iterations,
		"sections":     len(g.sections),
	})
	return RunResult{WorkItemID: g.input.WorkItemID, Content: document, Error: message}
}

// assemble renders the accumulated sections in order. A non-empty note is
// prepended ahead of the first section.
func (g *genState) assemble(note string) string {
	ordered := append([]parser.Section(nil), g.sections...)
	parser.SortSections(ordered)

	var b strings.Builder
	if note != "" {
		b.WriteString(note)
		b.WriteString("\n\n")
	}
	for _, section := range ordered {
		fmt.Fprintf(&b, "# Section %d - %s\n%s\n\n", section.Order, section.Description, section.Content)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (g *genState) persistDocument(ctx context.Context, document string) {
	err := g.orchestrator.Items.StoreIaCDocument(ctx, g.input.UserID, g.input.WorkItemID, document, g.extension, g.input.TemplateType)
	if err != nil {
		telemetry.Error("generation.checkpoint_store_failed", map[string]any{
			"work_item_id": g.input.WorkItemID,
			"error":        err.Error(),
		})
	}
}

func (g *genState) setFailure(ctx context.Context, status workitems.Status, message string, progressPct int) {
	update := workitems.Update{
		IaCStatus:   workitems.Ptr(status),
		IaCProgress: workitems.Ptr(progressPct),
	}
	if message != "" {
		update.IaCError = workitems.Ptr(message)
	}
	if err := g.orchestrator.Items.Update(ctx, g.input.UserID, g.input.WorkItemID, update); err != nil {
		telemetry.Error("generation.status_update_failed", map[string]any{
			"work_item_id": g.input.WorkItemID,
			"error":        err.Error(),
		})
	}
}

func (g *genState) report(ctx context.Context, status workitems.Status, progressPct int) {
	o := g.orchestrator
	o.Notifier.EmitImplementationProgress(g.input.UserID, g.input.WorkItemID, progress.ImplementationEvent{
		Status:   string(status),
		Progress: progressPct,
	})
	if status == workitems.StatusInProgress {
		if err := o.Items.Update(ctx, g.input.UserID, g.input.WorkItemID, workitems.Update{
			IaCProgress: workitems.Ptr(progressPct),
		}); err != nil {
			telemetry.Warn("generation.progress_update_failed", map[string]any{
				"work_item_id": g.input.WorkItemID,
				"error":        err.Error(),
			})
		}
	}
}

// iterationProgress maps loop iterations onto a 0-90 scale; 100 is reserved
// for actual completion.
func iterationProgress(iteration int) int {
	progressPct := iteration * 10
	if progressPct > 90 {
		return 90
	}
	return progressPct
}

func progressEstimate(sections int) int {
	return iterationProgress(sections)
}

func (o *Orchestrator) maxIterations() int {
	if o.MaxIterations > 0 {
		return o.MaxIterations
	}
	return DefaultMaxIterations
}

func (o *Orchestrator) paceDelay() time.Duration {
	if o.PaceDelay > 0 {
		return o.PaceDelay
	}
	return DefaultPaceDelay
}
