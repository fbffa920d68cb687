package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/recognition"
	"github.com/nguyentantai21042004/meeting-flow/internal/store"
	"github.com/nguyentantai21042004/meeting-flow/internal/summarizer"
)

// Overridable in tests.
var (
	newSource        = recognition.NewSource
	newSummaryClient = summarizer.NewClient
)

// Manager tracks the live session of each meeting. At most one session
// exists per meeting ID.
type Manager struct {
	store  store.Store
	logger logger.Logger

	mu       sync.Mutex
	cfg      *config.Config
	sessions map[string]*Session
}

func NewManager(st store.Store, log logger.Logger, cfg *config.Config) *Manager {
	return &Manager{
		store:    st,
		logger:   log,
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// ApplyConfig swaps the config used for sessions started from now on.
// Running sessions keep the config they started with.
func (m *Manager) ApplyConfig(cfg *config.Config) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

// StartSession connects a recognition stream for the meeting and begins
// consolidating and summarizing its transcript.
func (m *Manager) StartSession(ctx context.Context, meetingID string) (*Session, error) {
	m.mu.Lock()
	if _, exists := m.sessions[meetingID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("session already active for meeting %s", meetingID)
	}
	cfg := m.cfg
	m.mu.Unlock()

	source := newSource(cfg.Recognition, m.logger)
	sched := summarizer.NewScheduler(
		newSummaryClient(cfg.Summary.APIKey, cfg.Summary.Model),
		m.logger,
		cfg.Summary.WindowLines,
		cfg.Summary.ContextSummaries,
	)

	sess := New(meetingID, source, sched, m.store, m.logger)
	if err := sess.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, exists := m.sessions[meetingID]; exists {
		m.mu.Unlock()
		sess.Stop(ctx)
		return nil, fmt.Errorf("session already active for meeting %s", meetingID)
	}
	m.sessions[meetingID] = sess
	m.mu.Unlock()

	m.logger.Info(ctx, "Meeting %s: session started", meetingID)
	return sess, nil
}

// Get returns the live session for a meeting, if one is running.
func (m *Manager) Get(meetingID string) (*Session, bool) {
	m.mu.Lock()
	sess, ok := m.sessions[meetingID]
	m.mu.Unlock()
	return sess, ok
}

// StopSession ends the meeting's live session. Stopping a meeting with no
// session is not an error.
func (m *Manager) StopSession(ctx context.Context, meetingID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[meetingID]
	delete(m.sessions, meetingID)
	m.mu.Unlock()

	if !ok {
		return nil
	}

	err := sess.Stop(ctx)
	m.logger.Info(ctx, "Meeting %s: session stopped", meetingID)
	return err
}

// StopAll ends every live session, used on shutdown.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, sess := range m.sessions {
		sessions = append(sessions, sess)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.Stop(ctx); err != nil {
			m.logger.Warn(ctx, "Meeting %s: stop failed: %v", sess.MeetingID, err)
		}
	}
}
