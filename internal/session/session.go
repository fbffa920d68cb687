package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/recognition"
	"github.com/nguyentantai21042004/meeting-flow/internal/store"
	"github.com/nguyentantai21042004/meeting-flow/internal/summarizer"
	"github.com/nguyentantai21042004/meeting-flow/internal/transcript"
)

// Frame is one live update pushed to attached clients.
type Frame struct {
	Type    string               `json:"type"`
	Entry   *transcript.Entry    `json:"entry,omitempty"`
	Interim *transcript.Interim  `json:"interim,omitempty"`
	Message *store.StoredMessage `json:"message,omitempty"`
}

const (
	FrameEntry   = "entry"
	FrameInterim = "interim"
	FrameMessage = "message"
)

// Session owns the live state of one meeting: the recognition source, the
// transcript log and consolidator, the summarization scheduler, and the
// single pending interim result. All recognition events flow through one
// goroutine in arrival order; the consolidator is never touched from
// anywhere else while the loop runs.
type Session struct {
	MeetingID string

	source recognition.Source
	log    *transcript.Log
	cons   *transcript.Consolidator
	sched  *summarizer.Scheduler
	store  store.Store
	logger logger.Logger

	mu      sync.Mutex
	interim *transcript.Interim
	subs    map[chan Frame]struct{}
	sent    int
	stopped bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a Session for one meeting. Nothing is shared between
// sessions; concurrent meetings each carry their own source and state.
func New(meetingID string, source recognition.Source, sched *summarizer.Scheduler, st store.Store, log logger.Logger) *Session {
	tlog := transcript.NewLog()
	return &Session{
		MeetingID: meetingID,
		source:    source,
		log:       tlog,
		cons:      transcript.NewConsolidator(tlog),
		sched:     sched,
		store:     st,
		logger:    log,
		subs:      make(map[chan Frame]struct{}),
		done:      make(chan struct{}),
	}
}

// Start connects the recognition source and begins the event loop.
func (s *Session) Start(ctx context.Context) error {
	if err := s.source.Start(ctx); err != nil {
		return fmt.Errorf("start recognition source: %w", err)
	}
	go s.loop(ctx)
	return nil
}

func (s *Session) loop(ctx context.Context) {
	defer close(s.done)

	events := s.source.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.dispatch(ctx, ev)
		case err := <-s.source.Errs():
			s.logger.Warn(ctx, "Meeting %s: recognition stream error: %v", s.MeetingID, err)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) dispatch(ctx context.Context, ev recognition.Event) {
	switch {
	case ev.UtteranceEnd:
		s.cons.OnUtteranceEnd(ev)
		s.rebroadcastLastLine()
		s.broadcastNew()

	case !ev.IsFinal:
		s.setInterim(&transcript.Interim{Speaker: ev.Speaker, Text: ev.Text})
		s.broadcast(Frame{Type: FrameInterim, Interim: &transcript.Interim{Speaker: ev.Speaker, Text: ev.Text}})

	default:
		line := s.cons.OnFinal(ev)
		s.setInterim(nil)
		s.broadcast(Frame{Type: FrameInterim})
		s.broadcastNew()

		if _, err := s.store.AppendLine(ctx, s.MeetingID, line.Speaker, line.Text); err != nil {
			s.logger.Warn(ctx, "Meeting %s: persist transcript line failed: %v", s.MeetingID, err)
		}

		// The count is taken here, on the loop goroutine, so every
		// threshold is observed even when the summarization goroutines
		// lag behind the event stream
		count := s.log.FinalLineCount()

		// Summarization must not stall consolidation of further events
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.sched.OnGrowth(ctx, count, s.log, s.deliverSummary)
		}()
	}
}

// deliverSummary persists one generated summary as a chat message and
// pushes it to live clients. Persist failures are logged; the summary is
// still displayed.
func (s *Session) deliverSummary(ctx context.Context, sum summarizer.Summary) {
	msg := store.StoredMessage{
		MeetingID: s.MeetingID,
		Type:      store.MessageSummary,
		Title:     fmt.Sprintf("Summary (lines %d-%d)", sum.WindowStart+1, sum.WindowEnd),
		Content:   sum.Content,
		CreatedAt: sum.CreatedAt,
	}

	stored, err := s.store.AppendMessage(ctx, s.MeetingID, store.NewMessage{
		Type:    msg.Type,
		Title:   msg.Title,
		Content: msg.Content,
	})
	if err != nil {
		s.logger.Warn(ctx, "Meeting %s: persist summary failed: %v", s.MeetingID, err)
	} else {
		msg = stored
	}

	s.broadcast(Frame{Type: FrameMessage, Message: &msg})
}

// PublishMessage pushes an externally created chat message to live
// clients, keeping open transcript views in sync with the chat panel.
func (s *Session) PublishMessage(msg store.StoredMessage) {
	s.broadcast(Frame{Type: FrameMessage, Message: &msg})
}

// SendAudio forwards one audio chunk to the recognition source.
func (s *Session) SendAudio(data []byte) error {
	return s.source.Send(data)
}

// Snapshot returns the current transcript entries and the pending interim
// result, if any.
func (s *Session) Snapshot() ([]transcript.Entry, *transcript.Interim) {
	entries := s.log.Entries()
	s.mu.Lock()
	interim := s.interim
	s.mu.Unlock()
	return entries, interim
}

// TranscriptText returns the newline-joined finalized transcript.
func (s *Session) TranscriptText() string {
	return s.log.JoinedText()
}

// Stop discards the pending interim result, stops the source, waits for
// the event loop and any in-flight summarizations, and force-flushes a
// non-empty consolidation buffer so the merged view is complete.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.interim = nil
	s.mu.Unlock()

	err := s.source.Stop()
	<-s.done
	s.wg.Wait()

	// The loop has exited; the consolidator is ours now
	s.cons.ForceFlush()
	s.broadcastNew()

	if e := s.store.EndMeeting(ctx, s.MeetingID); e != nil {
		s.logger.Warn(ctx, "Meeting %s: mark ended failed: %v", s.MeetingID, e)
	}

	s.mu.Lock()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("stop recognition source: %w", err)
	}
	return nil
}

// Subscribe attaches a live client. The returned channel is closed on
// Stop or Unsubscribe.
func (s *Session) Subscribe() chan Frame {
	ch := make(chan Frame, 32)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Session) Unsubscribe(ch chan Frame) {
	s.mu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()
}

func (s *Session) setInterim(i *transcript.Interim) {
	s.mu.Lock()
	s.interim = i
	s.mu.Unlock()
}

// broadcastNew pushes log entries not yet seen by subscribers.
func (s *Session) broadcastNew() {
	entries := s.log.Entries()

	s.mu.Lock()
	start := s.sent
	if start > len(entries) {
		start = len(entries)
	}
	s.sent = len(entries)
	s.mu.Unlock()

	for _, e := range entries[start:] {
		e := e
		s.broadcast(Frame{Type: FrameEntry, Entry: &e})
	}
}

// rebroadcastLastLine re-sends the most recent raw line after its
// utterance-end flag changed; clients replace it by sequence index.
func (s *Session) rebroadcastLastLine() {
	entries := s.log.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == transcript.KindLine {
			s.mu.Lock()
			seen := i < s.sent
			s.mu.Unlock()
			if seen {
				e := entries[i]
				s.broadcast(Frame{Type: FrameEntry, Entry: &e})
			}
			return
		}
	}
}

func (s *Session) broadcast(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- f:
		default:
			// Slow consumer: drop rather than stall the session
		}
	}
}
