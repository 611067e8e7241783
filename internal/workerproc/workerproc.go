package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/analysis"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/queue"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/telemetry"
)

// AnalysisRunner runs one analysis to completion.
type AnalysisRunner interface {
	Run(ctx context.Context, in analysis.RunInput) (analysis.RunResult, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrInvalidMessage indicates a message missing required fields.
type ErrInvalidMessage struct {
	Meta      MessageMeta
	RequestID string
	Reason    string
}

func (e ErrInvalidMessage) Error() string { return "invalid message: " + e.Reason }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	WorkItemID string
	RequestID  string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process analysis"
	}
	return "process analysis: " + e.Err.Error()
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.WorkItemID) == "" {
		return msg, meta, ErrInvalidMessage{Meta: meta, RequestID: msg.RequestID, Reason: "missing work item id"}
	}
	if strings.TrimSpace(msg.UserID) == "" {
		return msg, meta, ErrInvalidMessage{Meta: meta, RequestID: msg.RequestID, Reason: "missing user id"}
	}
	if len(msg.Pillars) == 0 {
		return msg, meta, ErrInvalidMessage{Meta: meta, RequestID: msg.RequestID, Reason: "missing pillars"}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a message payload. A run that
// recorded its own failure outcome on the work item counts as handled; only
// errors that left no trace are surfaced for redelivery.
func HandleMessage(ctx context.Context, runner AnalysisRunner, body string) error {
	if runner == nil {
		return errors.New("analysis runner not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	result, err := runner.Run(ctx, analysis.RunInput{
		UserID:     msg.UserID,
		WorkItemID: msg.WorkItemID,
		WorkloadID: msg.WorkloadID,
		Pillars:    msg.Pillars,
	})
	if err != nil {
		return ErrProcess{WorkItemID: msg.WorkItemID, RequestID: msg.RequestID, Err: err}
	}
	if result.Error != "" {
		telemetry.Warn("worker.analysis.degraded", map[string]any{
			"work_item_id": msg.WorkItemID,
			"request_id":   msg.RequestID,
			"processed":    result.ProcessedQuestions,
			"total":        result.TotalQuestions,
			"error":        result.Error,
		})
	}
	return nil
}
