package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/transcript"
)

type fakeClient struct {
	calls   int
	windows [][]transcript.Entry
	pasts   [][]string
	err     error
}

func (f *fakeClient) Summarize(ctx context.Context, lines []transcript.Entry, past []string) (string, error) {
	f.calls++
	f.windows = append(f.windows, lines)
	f.pasts = append(f.pasts, past)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("summary %d", f.calls), nil
}

func growTo(log *transcript.Log, sched *Scheduler, sink Sink, upto int) {
	ctx := context.Background()
	for log.FinalLineCount() < upto {
		log.AppendLine(0, fmt.Sprintf("line %d", log.FinalLineCount()))
		sched.OnGrowth(ctx, log.FinalLineCount(), log, sink)
	}
}

func TestSchedulerFiresPerWindow(t *testing.T) {
	client := &fakeClient{}
	log := transcript.NewLog()
	sched := NewScheduler(client, logger.New("error"), 20, 3)

	var got []Summary
	sink := func(ctx context.Context, s Summary) { got = append(got, s) }

	growTo(log, sched, sink, 40)

	if client.calls != 2 {
		t.Fatalf("calls = %d, want exactly 2 (at counts 20 and 40)", client.calls)
	}
	if len(got) != 2 {
		t.Fatalf("summaries delivered = %d, want 2", len(got))
	}
	if got[0].WindowStart != 0 || got[0].WindowEnd != 20 {
		t.Errorf("first window = [%d, %d), want [0, 20)", got[0].WindowStart, got[0].WindowEnd)
	}
	if got[1].WindowStart != 20 || got[1].WindowEnd != 40 {
		t.Errorf("second window = [%d, %d), want [20, 40)", got[1].WindowStart, got[1].WindowEnd)
	}

	// The second call sees the first summary as context
	if len(client.pasts[0]) != 0 {
		t.Errorf("first call past = %v, want none", client.pasts[0])
	}
	if len(client.pasts[1]) != 1 || client.pasts[1][0] != "summary 1" {
		t.Errorf("second call past = %v, want [summary 1]", client.pasts[1])
	}

	// Window content is exactly lines 20-39
	lastWindow := client.windows[1]
	if len(lastWindow) != 20 {
		t.Fatalf("window size = %d, want 20", len(lastWindow))
	}
	if lastWindow[0].Text != "line 20" || lastWindow[19].Text != "line 39" {
		t.Errorf("window spans %q..%q, want line 20..line 39",
			lastWindow[0].Text, lastWindow[19].Text)
	}
}

func TestSchedulerCatchesUpMissedThresholds(t *testing.T) {
	client := &fakeClient{}
	log := transcript.NewLog()
	sched := NewScheduler(client, logger.New("error"), 2, 3)
	ctx := context.Background()

	var got []Summary
	sink := func(ctx context.Context, s Summary) { got = append(got, s) }

	// Growth notifications can be processed late: only the last observed
	// count reaches the scheduler. Every crossed threshold still fires.
	for i := 0; i < 10; i++ {
		log.AppendLine(0, fmt.Sprintf("line %d", i))
	}
	sched.OnGrowth(ctx, 10, log, sink)

	if client.calls != 5 {
		t.Fatalf("calls = %d, want 5 (one per crossed threshold)", client.calls)
	}
	for i, s := range got {
		if s.WindowStart != i*2 || s.WindowEnd != i*2+2 {
			t.Errorf("summary %d window = [%d, %d), want [%d, %d)",
				i, s.WindowStart, s.WindowEnd, i*2, i*2+2)
		}
	}
}

func TestSchedulerWindowStableUnderLaterAppends(t *testing.T) {
	client := &fakeClient{}
	log := transcript.NewLog()
	sched := NewScheduler(client, logger.New("error"), 20, 3)
	ctx := context.Background()

	// Lines keep arriving between the observation and the summarization
	for i := 0; i < 25; i++ {
		log.AppendLine(0, fmt.Sprintf("line %d", i))
	}
	sched.OnGrowth(ctx, 20, log, nil)

	if client.calls != 1 {
		t.Fatalf("calls = %d, want 1", client.calls)
	}
	window := client.windows[0]
	if len(window) != 20 {
		t.Fatalf("window size = %d, want 20", len(window))
	}
	if window[0].Text != "line 0" || window[19].Text != "line 19" {
		t.Errorf("window spans %q..%q, want line 0..line 19",
			window[0].Text, window[19].Text)
	}
}

func TestSchedulerIdempotentAtThreshold(t *testing.T) {
	client := &fakeClient{}
	log := transcript.NewLog()
	sched := NewScheduler(client, logger.New("error"), 20, 3)
	ctx := context.Background()

	growTo(log, sched, nil, 20)

	// Re-observing growth at the same count must not refire
	sched.OnGrowth(ctx, 20, log, nil)
	sched.OnGrowth(ctx, 20, log, nil)

	if client.calls != 1 {
		t.Errorf("calls = %d, want 1 despite repeated growth at count 20", client.calls)
	}
}

func TestSchedulerSkipsOnFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("rate limited")}
	log := transcript.NewLog()
	sched := NewScheduler(client, logger.New("error"), 10, 3)
	ctx := context.Background()

	var delivered int
	sink := func(ctx context.Context, s Summary) { delivered++ }

	growTo(log, sched, sink, 10)
	if client.calls != 1 || delivered != 0 {
		t.Fatalf("calls = %d, delivered = %d; want 1 attempt, nothing delivered", client.calls, delivered)
	}

	// The failed window is skipped, not retried at the same count
	sched.OnGrowth(ctx, 10, log, sink)
	if client.calls != 1 {
		t.Errorf("calls = %d, want still 1 (watermark advanced on failure)", client.calls)
	}

	// The next threshold fires again
	client.err = nil
	growTo(log, sched, sink, 20)
	if client.calls != 2 || delivered != 1 {
		t.Errorf("calls = %d, delivered = %d; want 2 and 1", client.calls, delivered)
	}
}

func TestSchedulerContextTrimming(t *testing.T) {
	client := &fakeClient{}
	log := transcript.NewLog()
	sched := NewScheduler(client, logger.New("error"), 5, 3)

	growTo(log, sched, nil, 25)

	if client.calls != 5 {
		t.Fatalf("calls = %d, want 5", client.calls)
	}

	// Fifth call sees only the last 3 summaries
	last := client.pasts[4]
	if len(last) != 3 {
		t.Fatalf("context size = %d, want 3", len(last))
	}
	if last[0] != "summary 2" || last[2] != "summary 4" {
		t.Errorf("context = %v, want [summary 2 summary 3 summary 4]", last)
	}
}

func TestSchedulerNoFireBelowWindow(t *testing.T) {
	client := &fakeClient{}
	log := transcript.NewLog()
	sched := NewScheduler(client, logger.New("error"), 20, 3)
	ctx := context.Background()

	// Count zero never triggers
	sched.OnGrowth(ctx, 0, log, nil)

	growTo(log, sched, nil, 19)
	if client.calls != 0 {
		t.Errorf("calls = %d, want 0 below the first threshold", client.calls)
	}
}

func TestBuildPrompt(t *testing.T) {
	lines := []transcript.Entry{
		{Kind: transcript.KindLine, Speaker: 0, Text: "good morning"},
		{Kind: transcript.KindLine, Speaker: 1, Text: "hi there"},
	}

	prompt := buildPrompt(lines, []string{"earlier summary"})

	for _, want := range []string{
		"Summarize these 2 lines",
		"Speaker 0: good morning",
		"Speaker 1: hi there",
		"Previous Summary 1:\nearlier summary",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	// No context section without past summaries
	prompt = buildPrompt(lines, nil)
	if strings.Contains(prompt, "Previous Summary") {
		t.Error("prompt should not mention previous summaries when there are none")
	}
}
