package transcript

// Kind discriminates the two entry shapes in the log.
type Kind string

const (
	KindLine         Kind = "transcript"
	KindConsolidated Kind = "consolidated"
)

// Trigger identifies what caused a consolidation flush.
type Trigger string

const (
	TriggerUtteranceEnd  Trigger = "utterance_end"
	TriggerSpeakerChange Trigger = "speaker_change"
)

// Entry is one display-ordered item in the transcript log: either a raw
// finalized line or a consolidated utterance derived from it.
//
// For KindLine, Seq is the strictly increasing line index and
// IsUtteranceEnd/LastWordEnd may be set by a later utterance-end signal.
// For KindConsolidated, Trigger records what flushed the buffer.
type Entry struct {
	Kind           Kind    `json:"type"`
	Speaker        int     `json:"speaker"`
	Text           string  `json:"text"`
	Seq            int     `json:"seq,omitempty"`
	IsUtteranceEnd bool    `json:"isUtteranceEnd,omitempty"`
	LastWordEnd    float64 `json:"lastWordEnd,omitempty"`
	Trigger        Trigger `json:"trigger,omitempty"`
}

// Interim is the single replaceable pending result shown to consumers.
// It is never appended to the log.
type Interim struct {
	Speaker int    `json:"speaker"`
	Text    string `json:"text"`
}
