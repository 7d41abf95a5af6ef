package oracle

import (
	"context"
	"fmt"
	"log"
	"strings"

	"mcqgen/services/docindex"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIOracle answers prompts with an OpenAI chat model over chunks
// retrieved from the document index.
type OpenAIOracle struct {
	llm      llms.Model
	docindex *docindex.Service
	index    *docindex.Index
}

func NewOpenAIOracle(apiKey string, docindexService *docindex.Service, index *docindex.Index) (*OpenAIOracle, error) {
	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &OpenAIOracle{
		llm:      llm,
		docindex: docindexService,
		index:    index,
	}, nil
}

func (o *OpenAIOracle) Answer(ctx context.Context, prompt string) (string, error) {
	chunks, err := o.docindex.Query(ctx, o.index, prompt, retrievalTopK)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve document context: %w", err)
	}

	log.Printf("[INFO] Calling LLM with %d context chunks", len(chunks))
	completion, err := llms.GenerateFromSinglePrompt(ctx, o.llm, buildAnswerPrompt(chunks, prompt), llms.WithTemperature(0.7))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return strings.TrimSpace(completion), nil
}
