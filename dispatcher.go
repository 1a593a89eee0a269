package rcp

import (
	"github.com/pior/rcp/protocol"
)

// handleLine routes a classified line from the reader: notifications to
// subscribers, replies and errors to the pending queue.
func (c *Client) handleLine(s *session, line protocol.Line) {
	if line.Kind == protocol.KindNotification {
		c.stats.recordNotification()

		c.mu.Lock()
		_, dropped := c.dispatchLocked(line.Notification)
		c.mu.Unlock()

		if dropped > 0 {
			s.log.Warn().Int("dropped", dropped).Str("address", line.Notification.Address).Msg("dropped slow subscribers")
		}
		return
	}

	c.correlate(s, line)
}

func (c *Client) correlate(s *session, line protocol.Line) {
	in := newInbound(line)

	c.mu.Lock()
	idx, mismatch := c.cfg.Matcher.Match(&c.queue, in)
	if idx < 0 {
		c.mu.Unlock()
		c.stats.recordMismatch()
		s.log.Warn().Str("line", line.Raw).Msg("reply without pending call")
		return
	}

	call, skipped := c.queue.take(idx)
	late := call.abandoned

	// Counters move before the caller wakes up.
	if mismatch {
		c.stats.recordMismatch()
	}
	switch {
	case late:
		c.stats.recordLateReply()
	case line.Kind == protocol.KindError:
		c.stats.recordConsoleError()
		call.resolveLocked(Reply{}, line.Err)
	default:
		c.stats.recordReply()
		call.resolveLocked(line.Reply, nil)
	}
	if s.drained != nil && c.queue.live == 0 {
		close(s.drained)
		s.drained = nil
	}
	c.mu.Unlock()

	if skipped > 0 {
		s.log.Debug().Int("count", skipped).Msg("skipped abandoned calls without reply")
	}
	if mismatch {
		s.log.Warn().Stringer("cmd", call.cmd).Str("line", line.Raw).Msg("reply does not echo its command")
	}

	switch {
	case late:
		s.log.Debug().Stringer("cmd", call.cmd).Str("line", line.Raw).Msg("late reply discarded")
	case line.Kind == protocol.KindError:
		s.log.Debug().Stringer("cmd", call.cmd).Str("error", line.Err.Message).Msg("console error")
	default:
		s.log.Debug().Stringer("cmd", call.cmd).Dur("latency", c.cfg.Clock.Now().Sub(call.enqueued)).Msg("reply")
	}
}

func newInbound(line protocol.Line) Inbound {
	if line.Kind == protocol.KindError {
		return Inbound{Kind: line.Kind, Verb: line.Err.Verb}
	}
	return Inbound{
		Kind:        line.Kind,
		Verb:        line.Reply.Verb,
		Fingerprint: Fingerprint(line.Reply.Key()),
		Operands:    append([]string{line.Reply.Address}, line.Reply.Args...),
	}
}
