package answerer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const answerSystemPrompt = "You are a helpful assistant that answers questions about call transcripts."

// apologyReply is what the chat shows when the remote call fails; the
// failure never propagates as an error on this path.
const apologyReply = "Sorry, I wasn't able to answer that right now. Please try again."

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Ask sends the question with the full transcript as context. On any
// failure the reply carries the fixed apology text and Failed=true.
func (a *implAnswerer) Ask(ctx context.Context, question, transcriptText string) Reply {
	answer, err := a.complete(ctx, question, transcriptText)
	if err != nil {
		a.logger.Error(ctx, "Answer request failed: %v", err)
		return Reply{Question: question, Answer: apologyReply, Failed: true}
	}
	return Reply{Question: question, Answer: answer}
}

func (a *implAnswerer) complete(ctx context.Context, question, transcriptText string) (string, error) {
	userPrompt := fmt.Sprintf(
		"Here is a transcript of a call: %s\n\nHere is a user's query: %s\n\nPlease answer the user's query to the best of your ability.",
		transcriptText, question)

	requestBody := map[string]interface{}{
		"model": a.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": answerSystemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+a.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(requestBody).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("chat completion status %d: %s", resp.StatusCode(), resp.String())
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("parse completion response: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no content in completion response")
	}

	return result.Choices[0].Message.Content, nil
}
