package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/nguyentantai21042004/meeting-flow/internal/session"
)

// live upgrades the request to a websocket and relays the session both
// ways: inbound binary frames are audio for the recognition stream,
// outbound JSON frames are transcript entries, interim updates, and chat
// messages.
func (s *Server) live(c *gin.Context) {
	meetingID := c.Param("meetingId")
	sess, ok := s.sessions.Get(meetingID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live stream for this meeting"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn(c.Request.Context(), "Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	frames := sess.Subscribe()
	defer sess.Unsubscribe(frames)

	// Catch the client up before streaming deltas. A frame broadcast in
	// between may arrive twice; clients key entries by sequence number.
	entries, interim := sess.Snapshot()
	for i := range entries {
		if err := conn.WriteJSON(session.Frame{Type: session.FrameEntry, Entry: &entries[i]}); err != nil {
			return
		}
	}
	if interim != nil {
		if err := conn.WriteJSON(session.Frame{Type: session.FrameInterim, Interim: interim}); err != nil {
			return
		}
	}

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for f := range frames {
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if err := sess.SendAudio(data); err != nil {
			s.logger.Warn(c.Request.Context(), "Meeting %s: forward audio failed: %v", meetingID, err)
			break
		}
	}

	sess.Unsubscribe(frames)
	<-writeDone
}
