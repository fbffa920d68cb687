package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/nguyentantai21042004/meeting-flow/internal/transcript"
)

const summarySystemPrompt = "You are a helpful assistant that summarizes transcripts."

type implClient struct {
	api   *openai.Client
	model string
}

// NewClient creates a Client backed by the OpenAI chat completions API.
func NewClient(apiKey, model string) Client {
	return &implClient{
		api:   openai.NewClient(apiKey),
		model: model,
	}
}

func (c *implClient) Summarize(ctx context.Context, lines []transcript.Entry, pastSummaries []string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(lines, pastSummaries)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildPrompt(lines []transcript.Entry, pastSummaries []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a helpful assistant that summarizes transcripts.

Summarize these %d lines of transcribed audio. Look for main ideas, speakers, and key points. Your response should be 3-4 sentences.

Transcript:
`, len(lines))
	for _, line := range lines {
		fmt.Fprintf(&b, "Speaker %d: %s\n", line.Speaker, line.Text)
	}

	if len(pastSummaries) > 0 {
		fmt.Fprintf(&b, `
Also, here are the last %d chunk(s) of summary that have already been produced. Don't re-summarize their content, but use them as context:
`, len(pastSummaries))
		for i, sum := range pastSummaries {
			fmt.Fprintf(&b, "Previous Summary %d:\n%s\n", i+1, sum)
		}
	}

	return b.String()
}
