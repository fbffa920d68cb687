package transcript

import (
	"strings"

	"github.com/nguyentantai21042004/meeting-flow/internal/recognition"
)

// Consolidator merges consecutive final recognition events from the same
// speaker into consolidated utterances. It reads current state from its
// own fields on every event; nothing here is captured in closures, so the
// speaker comparison always sees the latest state.
//
// Not safe for concurrent use: events must arrive in order on a single
// goroutine (the session loop).
type Consolidator struct {
	log            *Log
	currentSpeaker int
	collected      []string
}

func NewConsolidator(log *Log) *Consolidator {
	return &Consolidator{log: log}
}

// OnFinal handles one final recognition event. A speaker change flushes
// the previous speaker's buffer before the new line is appended, so the
// consolidated utterance always precedes the first line of the next
// speaker in the log.
func (c *Consolidator) OnFinal(ev recognition.Event) Entry {
	if ev.Speaker != c.currentSpeaker {
		c.flush(TriggerSpeakerChange)
		c.currentSpeaker = ev.Speaker
	}

	line := c.log.AppendLine(ev.Speaker, ev.Text)
	c.collected = append(c.collected, ev.Text)
	return line
}

// OnUtteranceEnd flags the most recent raw line with the pause boundary,
// then flushes the buffer. The speaker does not change.
func (c *Consolidator) OnUtteranceEnd(ev recognition.Event) {
	c.log.MarkUtteranceEnd(ev.LastWordEnd)
	c.flush(TriggerUtteranceEnd)
}

// ForceFlush flushes any buffered text, used when a session stops with an
// open buffer. The buffered lines are already in the log; this only adds
// the merged view.
func (c *Consolidator) ForceFlush() {
	c.flush(TriggerUtteranceEnd)
}

// flush joins the buffer into one consolidated utterance and appends it.
// An empty buffer is a no-op, so consecutive speaker changes with no text
// between them only move currentSpeaker.
func (c *Consolidator) flush(trigger Trigger) {
	if len(c.collected) == 0 {
		return
	}
	c.log.AppendConsolidated(c.currentSpeaker, strings.Join(c.collected, " "), trigger)
	c.collected = c.collected[:0]
}
