package summarizer

import (
	"context"
	"sync"
	"time"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/transcript"
)

// Summary is the output of one summarization call.
type Summary struct {
	Content     string
	WindowStart int
	WindowEnd   int
	CreatedAt   time.Time
}

// Sink receives each successfully generated summary.
type Sink func(ctx context.Context, s Summary)

// Scheduler fires at most one summarization per distinct multiple of the
// window size. The watermark advances as soon as a window is claimed, so
// observing the same line count twice never double-summarizes, and a
// failed call skips its window instead of retrying.
type Scheduler struct {
	client      Client
	logger      logger.Logger
	windowLines int
	contextSize int

	mu             sync.Mutex
	lastSummarized int
	past           []string
}

func NewScheduler(client Client, log logger.Logger, windowLines, contextSize int) *Scheduler {
	if windowLines <= 0 {
		windowLines = 20
	}
	if contextSize <= 0 {
		contextSize = 3
	}
	return &Scheduler{
		client:      client,
		logger:      log,
		windowLines: windowLines,
		contextSize: contextSize,
	}
}

// OnGrowth summarizes every window threshold newly crossed by count, the
// finalized line count the caller observed when the transcript grew. The
// caller snapshots the count synchronously with the append, so thresholds
// are never lost when growth notifications are processed late or out of
// order. The remote calls run inline; callers that must not block (the
// session event loop) invoke OnGrowth on its own goroutine.
func (s *Scheduler) OnGrowth(ctx context.Context, count int, log *transcript.Log, sink Sink) {
	for {
		s.mu.Lock()
		threshold := s.lastSummarized + s.windowLines
		if count < threshold {
			s.mu.Unlock()
			return
		}
		// Claim the threshold before calling out: the watermark advances
		// even when the call fails (skip-on-failure, no backlog buildup)
		s.lastSummarized = threshold
		past := make([]string, len(s.past))
		copy(past, s.past)
		s.mu.Unlock()

		s.summarizeWindow(ctx, threshold, log, past, sink)
	}
}

// summarizeWindow summarizes the lines [threshold-N, threshold). The log is
// append-only, so the slice is stable even when lines keep arriving while
// the remote call is in flight.
func (s *Scheduler) summarizeWindow(ctx context.Context, threshold int, log *transcript.Log, past []string, sink Sink) {
	lines := log.Lines()
	if threshold > len(lines) {
		threshold = len(lines)
	}
	start := threshold - s.windowLines
	if start < 0 {
		start = 0
	}
	window := lines[start:threshold]

	content, err := s.client.Summarize(ctx, window, past)
	if err != nil {
		s.logger.Error(ctx, "Summarization failed for lines %d-%d, window skipped: %v",
			start, threshold, err)
		return
	}

	summary := Summary{
		Content:     content,
		WindowStart: start,
		WindowEnd:   threshold,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.past = append(s.past, content)
	if len(s.past) > s.contextSize {
		s.past = s.past[len(s.past)-s.contextSize:]
	}
	s.mu.Unlock()

	if sink != nil {
		sink(ctx, summary)
	}
}

// PastSummaries returns the rolling context window of recent summaries.
func (s *Scheduler) PastSummaries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.past))
	copy(out, s.past)
	return out
}
