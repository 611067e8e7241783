package taxonomy

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/wellarchitected"
)

// Choice is one selectable best practice recorded under a workload answer.
type Choice struct {
	ChoiceID string
	Title    string
}

// Answer is a recorded workload answer: a question plus its choices.
type Answer struct {
	QuestionID    string
	QuestionTitle string
	Choices       []Choice
}

// AnswerLister returns every recorded answer for a workload. Implementations
// must return the full listing; pagination is their concern.
type AnswerLister interface {
	ListAnswers(ctx context.Context, workloadID string) ([]Answer, error)
}

const defaultLensAlias = "wellarchitected"

// WAClient lists workload answers through the AWS Well-Architected Tool API.
type WAClient struct {
	client    *wellarchitected.Client
	lensAlias string
}

// NewWAClient wraps an AWS Well-Architected service client.
func NewWAClient(client *wellarchitected.Client, lensAlias string) *WAClient {
	if lensAlias == "" {
		lensAlias = defaultLensAlias
	}
	return &WAClient{client: client, lensAlias: lensAlias}
}

// ListAnswers pages through the workload's answer summaries until exhaustion.
func (c *WAClient) ListAnswers(ctx context.Context, workloadID string) ([]Answer, error) {
	var (
		answers   []Answer
		nextToken *string
	)
	for {
		out, err := c.client.ListAnswers(ctx, &wellarchitected.ListAnswersInput{
			WorkloadId: aws.String(workloadID),
			LensAlias:  aws.String(c.lensAlias),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("list answers workload=%s: %w", workloadID, err)
		}

		for _, summary := range out.AnswerSummaries {
			answer := Answer{
				QuestionID:    aws.ToString(summary.QuestionId),
				QuestionTitle: aws.ToString(summary.QuestionTitle),
			}
			for _, choice := range summary.Choices {
				answer.Choices = append(answer.Choices, Choice{
					ChoiceID: aws.ToString(choice.ChoiceId),
					Title:    aws.ToString(choice.Title),
				})
			}
			answers = append(answers, answer)
		}

		if out.NextToken == nil || *out.NextToken == "" {
			return answers, nil
		}
		nextToken = out.NextToken
	}
}

var _ AnswerLister = (*WAClient)(nil)
