package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/analysis"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/queue"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	_ = ctx
	_ = params
	_ = optFns
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	_ = ctx
	_ = optFns
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeRunner struct {
	err error
	in  []analysis.RunInput
}

func (f *fakeRunner) Run(ctx context.Context, in analysis.RunInput) (analysis.RunResult, error) {
	_ = ctx
	f.in = append(f.in, in)
	if f.err != nil {
		return analysis.RunResult{}, f.err
	}
	return analysis.RunResult{WorkItemID: in.WorkItemID}, nil
}

func validBody(t *testing.T) string {
	t.Helper()
	body, err := queue.EncodeMessage(queue.Message{
		WorkItemID: "item-1",
		UserID:     "user-1",
		Pillars:    []string{"Security"},
		RequestID:  "req-1",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(body)
}

func TestWorkerDeletesMessageOnSuccess(t *testing.T) {
	client := &fakeSQS{}
	runner := &fakeRunner{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m1"),
		ReceiptHandle: aws.String("r1"),
		Body:          aws.String(validBody(t)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}

	handleMessage(context.Background(), client, "queue", runner, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
	if len(runner.in) != 1 || runner.in[0].WorkItemID != "item-1" || runner.in[0].UserID != "user-1" {
		t.Fatalf("runner input: %+v", runner.in)
	}
}

func TestWorkerDoesNotDeleteOnFailure(t *testing.T) {
	client := &fakeSQS{}
	runner := &fakeRunner{err: errors.New("boom")}
	msg := sqstypes.Message{
		MessageId:     aws.String("m2"),
		ReceiptHandle: aws.String("r2"),
		Body:          aws.String(validBody(t)),
	}

	handleMessage(context.Background(), client, "queue", runner, msg)

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete, got %d", len(client.deleted))
	}
}

func TestWorkerDeletesOnInvalidJSON(t *testing.T) {
	client := &fakeSQS{}
	runner := &fakeRunner{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m3"),
		ReceiptHandle: aws.String("r3"),
		Body:          aws.String("{bad-json"),
	}

	handleMessage(context.Background(), client, "queue", runner, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
	if len(runner.in) != 0 {
		t.Fatalf("runner should not be invoked for unparseable messages")
	}
}

func TestWorkerDeletesOnMissingWorkItemID(t *testing.T) {
	client := &fakeSQS{}
	runner := &fakeRunner{}
	body, _ := queue.EncodeMessage(queue.Message{UserID: "user-1", Pillars: []string{"Security"}})
	msg := sqstypes.Message{
		MessageId:     aws.String("m4"),
		ReceiptHandle: aws.String("r4"),
		Body:          aws.String(string(body)),
	}

	handleMessage(context.Background(), client, "queue", runner, msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
}
