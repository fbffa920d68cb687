package store

import "context"

// Store is the persistence boundary for meetings, transcript lines, and
// chat messages. Lines and messages come back ordered by creation time so
// the transcript log can be reconstructed on reload.
type Store interface {
	CreateMeeting(ctx context.Context) (Meeting, error)
	EndMeeting(ctx context.Context, meetingID string) error
	ListMeetings(ctx context.Context) ([]Meeting, error)

	AppendLine(ctx context.Context, meetingID string, speaker int, text string) (StoredLine, error)
	ListLines(ctx context.Context, meetingID string) ([]StoredLine, error)

	AppendMessage(ctx context.Context, meetingID string, msg NewMessage) (StoredMessage, error)
	ListMessages(ctx context.Context, meetingID string) ([]StoredMessage, error)
}
