// Package encoder defines the position sensor attached to a lift axis.
package encoder

import "context"

// An Encoder reports an accumulated tick count for a rotating axis.
//
// A tick is one unit of rotational position from a quadrature sensor;
// counts are signed and accumulate from construction or the last Reset.
type Encoder interface {
	// Position returns the number of ticks since construction or the
	// last Reset.
	Position(ctx context.Context) (int64, error)

	// Reset makes the current position the new zero.
	Reset(ctx context.Context) error

	Close(ctx context.Context) error
}
