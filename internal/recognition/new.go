package recognition

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
)

type implSource struct {
	cfg    config.RecognitionConfig
	logger logger.Logger

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	lastAudio time.Time

	events chan Event
	errs   chan error
	done   chan struct{}
}

// NewSource creates a session-scoped Source for one live connection.
// Each meeting session owns its own Source; there is no shared
// connection state between sessions.
func NewSource(cfg config.RecognitionConfig, log logger.Logger) Source {
	return &implSource{
		cfg:    cfg,
		logger: log,
		state:  StateIdle,
		events: make(chan Event, 64),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
}
