package rcp

import (
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/pior/rcp/protocol"
)

// Fingerprint hashes the "<verb> <address> <args...>" part of a command or
// reply. A reply echoes the fingerprint of the command it answers.
func Fingerprint(key string) uint64 {
	return xxh3.HashString(key)
}

// PendingEntry is a queued call as seen by a Matcher.
type PendingEntry struct {
	Verb        string
	Fingerprint uint64

	// Operands is the number of operands of the command (address and args).
	Operands int

	// Abandoned is set for calls that timed out or were cancelled after being
	// written. Their entry stays in the queue as a tombstone so a late reply
	// is absorbed instead of being attributed to the next call.
	Abandoned bool
}

// PendingQueue is the read-only view of a connection's pending calls, in
// write order.
type PendingQueue interface {
	Len() int
	At(i int) PendingEntry
}

// Inbound describes a reply or error line to attribute.
type Inbound struct {
	Kind        protocol.Kind // KindReply or KindError
	Verb        string        // may be empty for errors
	Fingerprint uint64        // zero for errors

	// Operands holds the address and args echoed by a reply.
	Operands []string
}

// Echoes reports whether the line repeats the command of e.
//
// Some verbs (prminfo, devinfo) answer with more fields than the command
// had operands; only the leading operands the command sent are compared.
func (in Inbound) Echoes(e PendingEntry) bool {
	if in.Kind == protocol.KindError {
		return (in.Verb == "" && !e.Abandoned) || in.Verb == e.Verb
	}
	if e.Operands == 0 || len(in.Operands) <= e.Operands {
		return e.Fingerprint == in.Fingerprint
	}
	if in.Verb != e.Verb {
		return false
	}
	return e.Fingerprint == Fingerprint(operandKey(in.Verb, in.Operands[:e.Operands]))
}

func operandKey(verb string, operands []string) string {
	return verb + " " + strings.Join(operands, " ")
}

// Matcher attributes an inbound reply or error to a pending call.
//
// Match returns the index of the entry the line answers, or -1 when no entry
// fits. mismatch reports that the chosen entry doesn't echo the line's
// command, which the engine logs and counts. Tombstones queued ahead of the
// returned index are discarded by the engine.
type Matcher interface {
	Match(q PendingQueue, in Inbound) (index int, mismatch bool)
}

// FIFOMatcher attributes each reply to the oldest pending call, relying on
// the console answering in command order.
//
// A tombstone at the head absorbs the line when the line echoes the abandoned
// command; otherwise the tombstone's reply is assumed lost and it is skipped.
type FIFOMatcher struct{}

func (FIFOMatcher) Match(q PendingQueue, in Inbound) (int, bool) {
	for i := range q.Len() {
		e := q.At(i)
		if e.Abandoned {
			if in.Echoes(e) {
				return i, false
			}
			continue
		}
		return i, !in.Echoes(e)
	}
	return -1, false
}

// AddressMatcher attributes a reply to the oldest pending call with the same
// fingerprint, for firmwares that answer out of order. Errors carry no
// address: they go to the oldest live call with the same verb, or the oldest
// live call when the console omits the verb.
type AddressMatcher struct{}

func (AddressMatcher) Match(q PendingQueue, in Inbound) (int, bool) {
	if in.Kind == protocol.KindReply {
		for i := range q.Len() {
			if in.Echoes(q.At(i)) {
				return i, false
			}
		}
		return -1, false
	}

	first := -1
	for i := range q.Len() {
		e := q.At(i)
		if e.Abandoned {
			continue
		}
		if in.Verb == "" || e.Verb == in.Verb {
			return i, false
		}
		if first < 0 {
			first = i
		}
	}
	return first, first >= 0
}

// pendingCall is the single-resolution slot of one Send.
// All fields but done are guarded by Client.mu.
type pendingCall struct {
	cmd         protocol.Command
	class       protocol.ReplyClass
	fingerprint uint64
	operands    int
	enqueued    time.Time

	done      chan struct{}
	reply     protocol.Reply
	err       error
	resolved  bool
	queued    bool
	abandoned bool
}

func newPendingCall(cmd protocol.Command, class protocol.ReplyClass) *pendingCall {
	return &pendingCall{
		cmd:         cmd,
		class:       class,
		fingerprint: Fingerprint(cmd.Key()),
		operands:    1 + len(cmd.Args()),
		done:        make(chan struct{}),
	}
}

// resolveLocked completes the call once; later resolutions are ignored.
func (p *pendingCall) resolveLocked(reply protocol.Reply, err error) bool {
	if p.resolved {
		return false
	}
	p.resolved = true
	p.reply = reply
	p.err = err
	close(p.done)
	return true
}

func (p *pendingCall) result() (protocol.Reply, error) {
	return p.reply, p.err
}

// pendingQueue holds the calls written on the current connection, in write
// order. Guarded by Client.mu.
type pendingQueue struct {
	calls []*pendingCall
	live  int
}

var _ PendingQueue = (*pendingQueue)(nil)

func (q *pendingQueue) Len() int { return len(q.calls) }

func (q *pendingQueue) At(i int) PendingEntry {
	p := q.calls[i]
	return PendingEntry{
		Verb:        p.cmd.Verb(),
		Fingerprint: p.fingerprint,
		Operands:    p.operands,
		Abandoned:   p.abandoned,
	}
}

func (q *pendingQueue) push(p *pendingCall) {
	p.queued = true
	q.calls = append(q.calls, p)
	q.live++
}

// abandon turns a queued call into a tombstone.
func (q *pendingQueue) abandon(p *pendingCall) {
	p.abandoned = true
	if p.queued {
		q.live--
	}
}

// evictTombstones drops the oldest tombstones until fewer than limit entries
// remain. It returns how many were dropped.
func (q *pendingQueue) evictTombstones(limit int) int {
	excess := len(q.calls) - limit + 1
	if excess <= 0 {
		return 0
	}
	evicted := 0
	kept := q.calls[:0]
	for _, p := range q.calls {
		if evicted < excess && p.abandoned {
			p.queued = false
			evicted++
			continue
		}
		kept = append(kept, p)
	}
	clear(q.calls[len(kept):])
	q.calls = kept
	return evicted
}

// take removes and returns the entry at index i along with the tombstones
// queued before it. Live calls before i (AddressMatcher) are kept.
func (q *pendingQueue) take(i int) (call *pendingCall, skipped int) {
	call = q.calls[i]
	kept := q.calls[:0]
	for j, p := range q.calls {
		switch {
		case j == i:
		case j < i && p.abandoned:
			skipped++
		default:
			kept = append(kept, p)
		}
	}
	clear(q.calls[len(kept):])
	q.calls = kept

	call.queued = false
	if !call.abandoned {
		q.live--
	}
	return call, skipped
}

// drain empties the queue and returns the live calls.
func (q *pendingQueue) drain() []*pendingCall {
	live := make([]*pendingCall, 0, q.live)
	for _, p := range q.calls {
		p.queued = false
		if !p.abandoned {
			live = append(live, p)
		}
	}
	q.calls = nil
	q.live = 0
	return live
}
