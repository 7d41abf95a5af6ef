package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"mcqgen/services/docindex"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/invopop/jsonschema"
)

// AnthropicOracle answers prompts with a Claude model over chunks retrieved
// from the document index. The answer comes back through a structured tool
// call so the response carries no conversational framing.
type AnthropicOracle struct {
	client   *anthropic.Client
	docindex *docindex.Service
	index    *docindex.Index
}

type submitAnswerInput struct {
	Answer string `json:"answer" jsonschema:"required,description=The response to the request as plain text with no preamble"`
}

func NewAnthropicOracle(apiKey string, docindexService *docindex.Service, index *docindex.Index) *AnthropicOracle {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &AnthropicOracle{
		client:   &client,
		docindex: docindexService,
		index:    index,
	}
}

func (o *AnthropicOracle) Answer(ctx context.Context, prompt string) (string, error) {
	chunks, err := o.docindex.Query(ctx, o.index, prompt, retrievalTopK)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve document context: %w", err)
	}

	log.Printf("[INFO] Calling Anthropic API with %d context chunks", len(chunks))
	response, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaude4Sonnet20250514,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildAnswerPrompt(chunks, prompt))),
		},
		Tools: []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        "submit_answer",
					Description: anthropic.String("Submit the response to the request"),
					InputSchema: generateAnthropicSchema[submitAnswerInput](),
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call Anthropic API: %w", err)
	}

	var textContent string
	for _, block := range response.Content {
		switch block := block.AsAny().(type) {
		case anthropic.TextBlock:
			textContent += block.Text
		case anthropic.ToolUseBlock:
			if block.Name != "submit_answer" {
				continue
			}
			inputJSON, _ := json.Marshal(block.Input)
			var params submitAnswerInput
			if err := json.Unmarshal(inputJSON, &params); err != nil {
				return "", fmt.Errorf("failed to parse submit_answer arguments: %w", err)
			}
			if answer := strings.TrimSpace(params.Answer); answer != "" {
				return answer, nil
			}
		}
	}

	if answer := strings.TrimSpace(textContent); answer != "" {
		return answer, nil
	}

	return "", fmt.Errorf("empty answer from model")
}

func generateAnthropicSchema[T any]() anthropic.ToolInputSchemaParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
	}
}
