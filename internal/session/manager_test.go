package session

import (
	"context"
	"testing"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/recognition"
	"github.com/nguyentantai21042004/meeting-flow/internal/summarizer"
)

func newTestManager(t *testing.T, st *memStore) *Manager {
	t.Helper()

	origSource := newSource
	origClient := newSummaryClient
	newSource = func(cfg config.RecognitionConfig, log logger.Logger) recognition.Source {
		return newFakeSource()
	}
	newSummaryClient = func(apiKey, model string) summarizer.Client {
		return &fakeSummaryClient{}
	}
	t.Cleanup(func() {
		newSource = origSource
		newSummaryClient = origClient
	})

	cfg := &config.Config{}
	cfg.Summary.WindowLines = 20
	cfg.Summary.ContextSummaries = 3
	return NewManager(st, logger.New("error"), cfg)
}

func TestManagerOneSessionPerMeeting(t *testing.T) {
	m := newTestManager(t, newMemStore())
	ctx := context.Background()

	sess, err := m.StartSession(ctx, "m1")
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if sess.MeetingID != "m1" {
		t.Errorf("MeetingID = %q", sess.MeetingID)
	}

	if _, err := m.StartSession(ctx, "m1"); err == nil {
		t.Fatal("second StartSession for same meeting succeeded, want error")
	}

	got, ok := m.Get("m1")
	if !ok || got != sess {
		t.Error("Get did not return the live session")
	}

	if err := m.StopSession(ctx, "m1"); err != nil {
		t.Fatalf("StopSession() error = %v", err)
	}
	if _, ok := m.Get("m1"); ok {
		t.Error("session still registered after stop")
	}
}

func TestManagerStopUnknownMeeting(t *testing.T) {
	m := newTestManager(t, newMemStore())
	if err := m.StopSession(context.Background(), "missing"); err != nil {
		t.Errorf("StopSession(missing) error = %v, want nil", err)
	}
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	st := newMemStore()
	m := newTestManager(t, st)
	ctx := context.Background()

	s1, err := m.StartSession(ctx, "m1")
	if err != nil {
		t.Fatalf("StartSession(m1) error = %v", err)
	}
	s2, err := m.StartSession(ctx, "m2")
	if err != nil {
		t.Fatalf("StartSession(m2) error = %v", err)
	}

	s1.source.(*fakeSource).events <- finalEvent(0, "only in m1")

	if err := m.StopSession(ctx, "m1"); err != nil {
		t.Fatalf("StopSession(m1) error = %v", err)
	}

	entries, _ := s1.Snapshot()
	if len(entries) == 0 {
		t.Error("m1 transcript empty")
	}
	e2, _ := s2.Snapshot()
	if len(e2) != 0 {
		t.Errorf("m2 transcript = %v, want empty", e2)
	}

	if _, ok := m.Get("m2"); !ok {
		t.Error("m2 session gone after stopping m1")
	}
	m.StopAll(ctx)
	if _, ok := m.Get("m2"); ok {
		t.Error("m2 session survived StopAll")
	}
}

func TestManagerApplyConfig(t *testing.T) {
	m := newTestManager(t, newMemStore())

	next := &config.Config{}
	next.Summary.WindowLines = 5
	next.Summary.ContextSummaries = 1
	m.ApplyConfig(next)

	m.mu.Lock()
	got := m.cfg.Summary.WindowLines
	m.mu.Unlock()
	if got != 5 {
		t.Errorf("WindowLines after ApplyConfig = %d, want 5", got)
	}
}
