package summarizer

import (
	"context"

	"github.com/nguyentantai21042004/meeting-flow/internal/transcript"
)

// Client produces a summary for one window of transcript lines, using the
// previously generated summaries as rolling context.
type Client interface {
	Summarize(ctx context.Context, lines []transcript.Entry, pastSummaries []string) (string, error)
}
