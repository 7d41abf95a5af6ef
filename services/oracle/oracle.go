package oracle

import (
	"context"
	"fmt"
	"strings"
)

// Oracle answers free-text prompts grounded in an indexed document.
type Oracle interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

// retrievalTopK is how many nearest chunks back each answer.
const retrievalTopK = 4

const answerPromptTemplate = `Use the following excerpts from the uploaded document to respond to the request. Base your response only on the excerpts and reply with the response text alone, no preamble.

Excerpts:
%s

Request: %s`

func buildAnswerPrompt(chunks []string, prompt string) string {
	return fmt.Sprintf(answerPromptTemplate, strings.Join(chunks, "\n\n---\n\n"), prompt)
}
