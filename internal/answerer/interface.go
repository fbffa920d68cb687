package answerer

import "context"

// Reply is an answer tagged with the question it responds to. Failed is
// set when the remote call did not produce an answer and Answer holds the
// fallback text instead.
type Reply struct {
	Question string
	Answer   string
	Failed   bool
}

// Answerer answers free-text questions against the transcript so far.
type Answerer interface {
	Ask(ctx context.Context, question, transcriptText string) Reply
}
