package retrieval

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
)

// KnowledgeBase retrieves passages from an Amazon Bedrock knowledge base.
type KnowledgeBase struct {
	client          *bedrockagentruntime.Client
	knowledgeBaseID string
}

// NewKnowledgeBase wraps a Bedrock agent runtime client for one KB.
func NewKnowledgeBase(client *bedrockagentruntime.Client, knowledgeBaseID string) *KnowledgeBase {
	return &KnowledgeBase{client: client, knowledgeBaseID: knowledgeBaseID}
}

// Retrieve runs a vector search and returns the passage texts in rank order.
func (k *KnowledgeBase) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	out, err := k.client.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(k.knowledgeBaseID),
		RetrievalQuery:  &types.KnowledgeBaseQuery{Text: aws.String(query)},
		RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(int32(topK)),
			},
		},
	})
	if err != nil {
		return nil, WrapError(err)
	}

	passages := make([]string, 0, len(out.RetrievalResults))
	for _, result := range out.RetrievalResults {
		if result.Content == nil {
			continue
		}
		if text := strings.TrimSpace(aws.ToString(result.Content.Text)); text != "" {
			passages = append(passages, text)
		}
	}
	return passages, nil
}

var _ Retriever = (*KnowledgeBase)(nil)
