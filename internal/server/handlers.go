package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nguyentantai21042004/meeting-flow/internal/store"
)

func (s *Server) createMeeting(c *gin.Context) {
	meeting, err := s.store.CreateMeeting(c.Request.Context())
	if err != nil {
		s.logger.Error(c.Request.Context(), "Create meeting failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create meeting"})
		return
	}
	c.JSON(http.StatusOK, meeting)
}

func (s *Server) listMeetings(c *gin.Context) {
	meetings, err := s.store.ListMeetings(c.Request.Context())
	if err != nil {
		s.logger.Error(c.Request.Context(), "List meetings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list meetings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

// getTranscript serves the live consolidated view while a session runs and
// the persisted lines afterwards.
func (s *Server) getTranscript(c *gin.Context) {
	meetingID := c.Param("meetingId")

	if sess, ok := s.sessions.Get(meetingID); ok {
		entries, interim := sess.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"live":    true,
			"entries": entries,
			"interim": interim,
		})
		return
	}

	lines, err := s.store.ListLines(c.Request.Context(), meetingID)
	if err != nil {
		s.logger.Error(c.Request.Context(), "List transcript failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transcript"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"live": false, "lines": lines})
}

func (s *Server) appendLine(c *gin.Context) {
	var req struct {
		Speaker int    `json:"speaker"`
		Text    string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	line, err := s.store.AppendLine(c.Request.Context(), c.Param("meetingId"), req.Speaker, req.Text)
	if err != nil {
		s.logger.Error(c.Request.Context(), "Append line failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save line"})
		return
	}
	c.JSON(http.StatusOK, line)
}

func (s *Server) listMessages(c *gin.Context) {
	messages, err := s.store.ListMessages(c.Request.Context(), c.Param("meetingId"))
	if err != nil {
		s.logger.Error(c.Request.Context(), "List messages failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (s *Server) appendMessage(c *gin.Context) {
	var req struct {
		Type          string `json:"type" binding:"required"`
		Content       string `json:"content" binding:"required"`
		Title         string `json:"title"`
		QuotedMessage string `json:"quotedMessage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type and content are required"})
		return
	}

	meetingID := c.Param("meetingId")
	msg, err := s.store.AppendMessage(c.Request.Context(), meetingID, store.NewMessage{
		Type:          req.Type,
		Content:       req.Content,
		Title:         req.Title,
		QuotedMessage: req.QuotedMessage,
	})
	if err != nil {
		s.logger.Error(c.Request.Context(), "Append message failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}

	if sess, ok := s.sessions.Get(meetingID); ok {
		sess.PublishMessage(msg)
	}
	c.JSON(http.StatusOK, msg)
}

// answer runs the question-answering path: the question is saved as a user
// message, answered against the transcript so far, and the reply saved as
// an ai message quoting the question. The reply itself never fails; the
// fallback text is returned when the model is unreachable.
func (s *Server) answer(c *gin.Context) {
	var req struct {
		MeetingID string `json:"meetingId" binding:"required"`
		Question  string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meetingId and question are required"})
		return
	}
	ctx := c.Request.Context()

	userMsg, userErr := s.store.AppendMessage(ctx, req.MeetingID, store.NewMessage{
		Type:    store.MessageUser,
		Content: req.Question,
	})
	if userErr != nil {
		s.logger.Warn(ctx, "Persist question failed: %v", userErr)
	}

	reply := s.answerer.Ask(ctx, req.Question, s.transcriptText(c, req.MeetingID))

	aiMsg, aiErr := s.store.AppendMessage(ctx, req.MeetingID, store.NewMessage{
		Type:          store.MessageAI,
		Content:       reply.Answer,
		QuotedMessage: reply.Question,
	})
	if aiErr != nil {
		s.logger.Warn(ctx, "Persist answer failed: %v", aiErr)
	}

	// Only messages that actually persisted reach live subscribers
	if sess, ok := s.sessions.Get(req.MeetingID); ok {
		if userErr == nil {
			sess.PublishMessage(userMsg)
		}
		if aiErr == nil {
			sess.PublishMessage(aiMsg)
		}
	}

	resp := gin.H{
		"question": reply.Question,
		"answer":   reply.Answer,
		"failed":   reply.Failed,
	}
	if aiErr == nil {
		resp["message"] = aiMsg
	}
	c.JSON(http.StatusOK, resp)
}

// transcriptText prefers the live in-memory transcript over stored lines.
func (s *Server) transcriptText(c *gin.Context, meetingID string) string {
	if sess, ok := s.sessions.Get(meetingID); ok {
		return sess.TranscriptText()
	}

	lines, err := s.store.ListLines(c.Request.Context(), meetingID)
	if err != nil {
		s.logger.Warn(c.Request.Context(), "Load transcript for answer failed: %v", err)
		return ""
	}
	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	return strings.Join(texts, "\n")
}

func (s *Server) startStream(c *gin.Context) {
	meetingID := c.Param("meetingId")
	if _, ok := s.sessions.Get(meetingID); ok {
		c.JSON(http.StatusConflict, gin.H{"error": "stream already running"})
		return
	}

	if _, err := s.sessions.StartSession(c.Request.Context(), meetingID); err != nil {
		s.logger.Error(c.Request.Context(), "Start stream failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to start recognition stream"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "streaming"})
}

func (s *Server) stopStream(c *gin.Context) {
	meetingID := c.Param("meetingId")
	if err := s.sessions.StopSession(c.Request.Context(), meetingID); err != nil {
		s.logger.Warn(c.Request.Context(), "Stop stream for meeting %s: %v", meetingID, err)
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}
