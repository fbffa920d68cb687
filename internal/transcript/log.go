package transcript

import (
	"strings"
	"sync"
)

// Log is the append-only, time-ordered transcript of a meeting session.
// Raw lines and consolidated utterances share one ordered sequence; only
// the utterance-end flag of the most recent line may change after append.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	lines   int
	nextSeq int
}

func NewLog() *Log {
	return &Log{}
}

// AppendLine appends one finalized line and returns it with its assigned
// sequence index.
func (l *Log) AppendLine(speaker int, text string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Kind:    KindLine,
		Speaker: speaker,
		Text:    text,
		Seq:     l.nextSeq,
	}
	l.nextSeq++
	l.lines++
	l.entries = append(l.entries, entry)
	return entry
}

// AppendConsolidated appends one consolidated utterance.
func (l *Log) AppendConsolidated(speaker int, text string, trigger Trigger) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		Kind:    KindConsolidated,
		Speaker: speaker,
		Text:    text,
		Trigger: trigger,
	}
	l.entries = append(l.entries, entry)
	return entry
}

// MarkUtteranceEnd flags the most recently appended entry when it is a raw
// line. Returns false when the log is empty or the last entry is a
// consolidated utterance.
func (l *Log) MarkUtteranceEnd(lastWordEnd float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return false
	}
	last := &l.entries[len(l.entries)-1]
	if last.Kind != KindLine {
		return false
	}
	last.IsUtteranceEnd = true
	last.LastWordEnd = lastWordEnd
	return true
}

// Entries returns a copy of the full ordered log.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Lines returns only the raw finalized lines, in order.
func (l *Log) Lines() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.linesLocked()
}

func (l *Log) linesLocked() []Entry {
	out := make([]Entry, 0, l.lines)
	for _, e := range l.entries {
		if e.Kind == KindLine {
			out = append(out, e)
		}
	}
	return out
}

// FinalLineCount reports how many finalized lines have been appended.
func (l *Log) FinalLineCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lines
}

// JoinedText returns all finalized line texts newline-joined, the context
// shape expected by the question-answering service.
func (l *Log) JoinedText() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	texts := make([]string, 0, l.lines)
	for _, e := range l.entries {
		if e.Kind == KindLine {
			texts = append(texts, e.Text)
		}
	}
	return strings.Join(texts, "\n")
}
