package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nguyentantai21042004/meeting-flow/internal/answerer"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
	"github.com/nguyentantai21042004/meeting-flow/internal/session"
	"github.com/nguyentantai21042004/meeting-flow/internal/store"
)

// SessionHub is what the handlers need from the session manager.
type SessionHub interface {
	StartSession(ctx context.Context, meetingID string) (*session.Session, error)
	Get(meetingID string) (*session.Session, bool)
	StopSession(ctx context.Context, meetingID string) error
}

type Server struct {
	store    store.Store
	sessions SessionHub
	answerer answerer.Answerer
	logger   logger.Logger
	upgrader websocket.Upgrader
}

func New(st store.Store, hub SessionHub, ans answerer.Answerer, log logger.Logger) *Server {
	return &Server{
		store:    st,
		sessions: hub,
		answerer: ans,
		logger:   log,
		upgrader: websocket.Upgrader{
			// Browser clients connect from a separate dev origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router wires the API routes with CORS and recovery middleware.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := r.Group("/api")
	api.POST("/meetings", s.createMeeting)
	api.GET("/meetings", s.listMeetings)
	api.GET("/meetings/:meetingId/transcript", s.getTranscript)
	api.POST("/meetings/:meetingId/transcript", s.appendLine)
	api.GET("/meetings/:meetingId/messages", s.listMessages)
	api.POST("/meetings/:meetingId/messages", s.appendMessage)
	api.POST("/answer", s.answer)
	api.POST("/meetings/:meetingId/stream/start", s.startStream)
	api.POST("/meetings/:meetingId/stream/stop", s.stopStream)
	api.GET("/meetings/:meetingId/live", s.live)

	return r
}
