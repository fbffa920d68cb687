package recognition

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// keepAliveMessage keeps the vendor from closing an idle connection.
const keepAliveMessage = `{"type":"KeepAlive"}`

// Start dials the vendor websocket and begins the read and keep-alive
// loops. Transitions Idle -> Connecting -> Streaming.
func (s *implSource) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("source already started (state: %s)", state)
	}
	s.state = StateConnecting
	s.mu.Unlock()

	header := http.Header{}
	if s.cfg.APIKey != "" {
		header.Set("Authorization", "Token "+s.cfg.APIKey)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.dialURL(), header)
	if err != nil {
		s.mu.Lock()
		if s.state == StateConnecting {
			s.state = StateStopped
		}
		s.mu.Unlock()
		return fmt.Errorf("dial recognition service: %w", err)
	}

	if err := s.installConn(conn); err != nil {
		conn.Close()
		return err
	}

	s.logger.Info(ctx, "Recognition stream connected: %s", s.cfg.URL)

	go s.readLoop(ctx)
	go s.keepAliveLoop(ctx)

	return nil
}

// installConn moves a freshly dialed connection into the streaming state.
// Stop may have run while the dial was in flight; a stopped source must
// stay stopped, so the connection is rejected instead of installed.
func (s *implSource) installConn(conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConnecting {
		return fmt.Errorf("source stopped during connect")
	}
	s.conn = conn
	s.state = StateStreaming
	s.lastAudio = time.Now()
	return nil
}

func (s *implSource) dialURL() string {
	q := url.Values{}
	q.Set("model", s.cfg.Model)
	q.Set("interim_results", "true")
	q.Set("smart_format", "true")
	q.Set("filler_words", "true")
	q.Set("diarize", "true")
	q.Set("utterance_end_ms", strconv.Itoa(s.cfg.UtteranceEndMS))
	if s.cfg.Language != "" {
		q.Set("language", s.cfg.Language)
	}
	return s.cfg.URL + "?" + q.Encode()
}

// Send forwards one audio chunk to the vendor. Empty chunks are dropped.
func (s *implSource) Send(audio []byte) error {
	if len(audio) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStreaming {
		return fmt.Errorf("source not streaming (state: %s)", s.state)
	}

	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}
	s.lastAudio = time.Now()
	return nil
}

func (s *implSource) Events() <-chan Event {
	return s.events
}

func (s *implSource) Errs() <-chan error {
	return s.errs
}

func (s *implSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stop closes the connection and stops the keep-alive loop. Safe to call
// more than once and from any goroutine.
func (s *implSource) Stop() error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	prev := s.state
	s.state = StateStopped
	conn := s.conn
	s.mu.Unlock()

	close(s.done)

	if conn != nil {
		// Best effort: tell the vendor we are done before closing
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		if err := conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}

	if prev == StateIdle || prev == StateConnecting {
		// Never connected, so no read loop will close the channel. A dial
		// still in flight sees StateStopped and discards its connection.
		close(s.events)
	}
	return nil
}

func (s *implSource) readLoop(ctx context.Context) {
	defer close(s.events)

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if s.State() != StateStopped {
				select {
				case s.errs <- fmt.Errorf("read recognition stream: %w", err):
				default:
				}
			}
			return
		}

		ev, ok, err := Decode(raw)
		if err != nil {
			s.logger.Warn(ctx, "Skipping malformed recognition message: %v", err)
			continue
		}
		if !ok {
			continue
		}

		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// keepAliveLoop pings the vendor whenever no audio has been sent for the
// configured interval, independent of event consumption.
func (s *implSource) keepAliveLoop(ctx context.Context) {
	interval := time.Duration(s.cfg.KeepAliveSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			idle := time.Since(s.lastAudio) >= interval
			streaming := s.state == StateStreaming
			var err error
			if idle && streaming {
				err = s.conn.WriteMessage(websocket.TextMessage, []byte(keepAliveMessage))
			}
			s.mu.Unlock()

			if err != nil {
				s.logger.Warn(ctx, "Keep-alive failed: %v", err)
			}
		}
	}
}
