package pppoe

import (
	"errors"
	"time"
)

// acceptFunc decides whether a decoded frame satisfies the caller's
// criteria (spec.md §4.B). Returning false causes recvUntil to keep
// waiting against the same deadline.
type acceptFunc func(f *Frame) bool

// recvUntil implements the timed receiver of spec.md §4.C: it waits for
// one frame satisfying accept, against the absolute deadline, and returns
// (nil, false, nil) on timeout. Conn implementations are responsible for
// ensuring that a signal-interrupted wait does not consume additional
// deadline budget (spec.md §4.C, §8 property 8) -- recvUntil only arms the
// deadline once per call and trusts Conn.Recv to honor it across retries.
//
// Frames that fail to decode are wire-format errors (spec.md §7): they are
// logged and dropped, and the wait continues against the same deadline.
func recvUntil(ctx *Context, conn Conn, deadline time.Time, accept acceptFunc) (*Frame, bool, error) {
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, false, err
	}
	for {
		if !time.Now().Before(deadline) {
			return nil, false, nil
		}
		raw, err := conn.Recv()
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				return nil, false, nil
			}
			return nil, false, err
		}
		f, err := DecodeFrame(raw)
		if err != nil {
			ctx.Logger.Error().Err(err).Msg("dropping malformed PPPoE frame")
			continue
		}
		if accept(f) {
			return f, true, nil
		}
	}
}
