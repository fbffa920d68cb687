package recognition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// resultPayload mirrors the vendor's live transcription message.
type resultPayload struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string        `json:"transcript"`
			Words      []wordPayload `json:"words"`
		} `json:"alternatives"`
	} `json:"channel"`
	LastWordEnd float64 `json:"last_word_end"`
}

type wordPayload struct {
	Word    string `json:"word"`
	Speaker *int   `json:"speaker"`
}

// Decode maps one raw vendor message to zero or one Event. It is a pure,
// stateless mapping: results with no words and unknown message types
// produce no event. The dominant speaker is the diarization label of the
// first word, defaulting to 0 when absent.
func Decode(raw []byte) (Event, bool, error) {
	var payload resultPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Event{}, false, fmt.Errorf("decode message: %w", err)
	}

	switch payload.Type {
	case "Results":
		if len(payload.Channel.Alternatives) == 0 {
			return Event{}, false, nil
		}
		words := payload.Channel.Alternatives[0].Words
		if len(words) == 0 {
			return Event{}, false, nil
		}

		speaker := 0
		if words[0].Speaker != nil {
			speaker = *words[0].Speaker
		}

		texts := make([]string, 0, len(words))
		for _, w := range words {
			texts = append(texts, w.Word)
		}

		return Event{
			IsFinal: payload.IsFinal,
			Speaker: speaker,
			Text:    strings.Join(texts, " "),
		}, true, nil

	case "UtteranceEnd":
		return Event{
			UtteranceEnd: true,
			LastWordEnd:  payload.LastWordEnd,
		}, true, nil

	default:
		// Metadata, SpeechStarted and friends carry no transcript
		return Event{}, false, nil
	}
}
