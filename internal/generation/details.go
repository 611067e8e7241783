package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/parser"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/prompt"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/telemetry"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/workitems"
)

// GetMoreDetails expands the selected findings into implementation guidance,
// one multi-turn loop per item. A single failing item is skipped with a
// warning; the call fails only when no item produces output.
func (o *Orchestrator) GetMoreDetails(ctx context.Context, in DetailsInput) (DetailsResult, error) {
	if in.UserID == "" || in.WorkItemID == "" {
		return DetailsResult{}, fmt.Errorf("%w: user and work item ids are required", workitems.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return DetailsResult{}, fmt.Errorf("%w: at least one item is required", workitems.ErrInvalidInput)
	}

	var (
		parts  []string
		failed int
	)
	for _, item := range in.Items {
		if ctx.Err() != nil {
			return DetailsResult{}, ctx.Err()
		}

		guidance, err := o.detailsForItem(ctx, item)
		if err != nil {
			failed++
			telemetry.Warn("details.item_failed", map[string]any{
				"work_item_id": in.WorkItemID,
				"practice":     item.Practice,
				"error":        err.Error(),
			})
			continue
		}
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", item.Practice, guidance))
	}

	if len(parts) == 0 {
		return DetailsResult{}, fmt.Errorf("detail generation failed for all %d items", len(in.Items))
	}

	result := DetailsResult{
		WorkItemID: in.WorkItemID,
		Content:    strings.Join(parts, "\n\n"),
	}
	if failed > 0 {
		result.Error = fmt.Sprintf("detail generation failed for %d of %d items", failed, len(in.Items))
	}
	return result, nil
}

// detailsForItem runs the continuation loop for one finding until the model
// emits the details sentinel or the iteration cap is hit.
func (o *Orchestrator) detailsForItem(ctx context.Context, item SelectedItem) (string, error) {
	var partial strings.Builder

	for iteration := 1; iteration <= o.maxIterations(); iteration++ {
		userPrompt := prompt.DetailsUser(item.Pillar, item.Question, item.Practice, partial.String())
		text, err := o.Invoker.Invoke(ctx, prompt.DetailsSystem, userPrompt, nil)
		if err != nil {
			return "", err
		}

		if strings.Contains(text, parser.DetailsSentinel) {
			partial.WriteString(strings.ReplaceAll(text, parser.DetailsSentinel, ""))
			return strings.TrimSpace(partial.String()), nil
		}
		partial.WriteString(text)
	}
	return "", fmt.Errorf("guidance did not complete within %d iterations", o.maxIterations())
}
