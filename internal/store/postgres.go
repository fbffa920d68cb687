package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type implStore struct {
	db *sql.DB
}

// New opens a Postgres-backed Store and ensures the schema exists.
func New(postgresURI string) (Store, error) {
	connStr := postgresURI
	if !strings.Contains(postgresURI, "sslmode=") {
		if strings.Contains(postgresURI, "?") {
			connStr += "&sslmode=disable"
		} else {
			connStr += "?sslmode=disable"
		}
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &implStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// The seq columns are server-assigned and strictly increasing, so reload
// order matches append order even when created_at timestamps collide.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS meetings (
		id UUID PRIMARY KEY,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS meeting_transcripts (
		id UUID PRIMARY KEY,
		seq BIGSERIAL,
		meeting_id UUID NOT NULL REFERENCES meetings(id),
		speaker INT NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meeting_transcripts_meeting
		ON meeting_transcripts (meeting_id, seq)`,
	`CREATE TABLE IF NOT EXISTS meeting_messages (
		id UUID PRIMARY KEY,
		seq BIGSERIAL,
		meeting_id UUID NOT NULL REFERENCES meetings(id),
		type VARCHAR(16) NOT NULL,
		content TEXT NOT NULL,
		title TEXT,
		quoted_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meeting_messages_meeting
		ON meeting_messages (meeting_id, seq)`,
}

const listLinesQuery = `SELECT id, meeting_id, speaker, text, created_at
	 FROM meeting_transcripts
	 WHERE meeting_id = $1
	 ORDER BY seq`

const listMessagesQuery = `SELECT id, meeting_id, type, content, COALESCE(title, ''), COALESCE(quoted_message, ''), created_at
	 FROM meeting_messages
	 WHERE meeting_id = $1
	 ORDER BY seq`

func (s *implStore) ensureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}

func (s *implStore) CreateMeeting(ctx context.Context) (Meeting, error) {
	m := Meeting{
		ID:        uuid.New().String(),
		StartTime: time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (id, start_time) VALUES ($1, $2)`,
		m.ID, m.StartTime)
	if err != nil {
		return Meeting{}, fmt.Errorf("insert meeting: %w", err)
	}
	return m, nil
}

func (s *implStore) EndMeeting(ctx context.Context, meetingID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE meetings SET end_time = NOW() WHERE id = $1 AND end_time IS NULL`,
		meetingID)
	if err != nil {
		return fmt.Errorf("end meeting: %w", err)
	}
	return nil
}

func (s *implStore) ListMeetings(ctx context.Context) ([]Meeting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_time, end_time FROM meetings ORDER BY start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	meetings := make([]Meeting, 0)
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(&m.ID, &m.StartTime, &m.EndTime); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

func (s *implStore) AppendLine(ctx context.Context, meetingID string, speaker int, text string) (StoredLine, error) {
	line := StoredLine{
		ID:        uuid.New().String(),
		MeetingID: meetingID,
		Speaker:   speaker,
		Text:      text,
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meeting_transcripts (id, meeting_id, speaker, text, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		line.ID, line.MeetingID, line.Speaker, line.Text, line.CreatedAt)
	if err != nil {
		return StoredLine{}, fmt.Errorf("insert transcript line: %w", err)
	}
	return line, nil
}

func (s *implStore) ListLines(ctx context.Context, meetingID string) ([]StoredLine, error) {
	rows, err := s.db.QueryContext(ctx, listLinesQuery, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list transcript lines: %w", err)
	}
	defer rows.Close()

	lines := make([]StoredLine, 0)
	for rows.Next() {
		var l StoredLine
		if err := rows.Scan(&l.ID, &l.MeetingID, &l.Speaker, &l.Text, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *implStore) AppendMessage(ctx context.Context, meetingID string, msg NewMessage) (StoredMessage, error) {
	m := StoredMessage{
		ID:            uuid.New().String(),
		MeetingID:     meetingID,
		Type:          msg.Type,
		Content:       msg.Content,
		Title:         msg.Title,
		QuotedMessage: msg.QuotedMessage,
		CreatedAt:     time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meeting_messages (id, meeting_id, type, content, title, quoted_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.MeetingID, m.Type, m.Content, nullable(m.Title), nullable(m.QuotedMessage), m.CreatedAt)
	if err != nil {
		return StoredMessage{}, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (s *implStore) ListMessages(ctx context.Context, meetingID string) ([]StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, listMessagesQuery, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]StoredMessage, 0)
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.ID, &m.MeetingID, &m.Type, &m.Content, &m.Title, &m.QuotedMessage, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
