package recognition

import "context"

// Source delivers normalized recognition events from a live vendor
// connection and accepts outbound audio on the same channel.
type Source interface {
	// Start dials the vendor and begins delivering events.
	Start(ctx context.Context) error

	// Send forwards a raw audio chunk. Zero-byte chunks are dropped:
	// the vendor closes the connection on empty payloads.
	Send(audio []byte) error

	// Events returns the channel of normalized events. It is closed
	// when the connection ends.
	Events() <-chan Event

	// Errs returns the channel of connection errors.
	Errs() <-chan error

	// State reports the current connection state.
	State() State

	// Stop closes the connection and the keep-alive timer. Idempotent.
	Stop() error
}
