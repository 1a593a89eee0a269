package protocol

import "maps"

// ReplyClass describes what a console sends back for a verb.
type ReplyClass int

const (
	// ReplyValue: OK <verb> <address> <args...> <value>
	ReplyValue ReplyClass = iota

	// ReplyAck: OK <verb> <address> <args...>
	ReplyAck

	// ReplyNone: the console never answers; the call resolves once written.
	ReplyNone
)

func (c ReplyClass) String() string {
	switch c {
	case ReplyValue:
		return "value"
	case ReplyAck:
		return "ack"
	case ReplyNone:
		return "none"
	default:
		return "unknown"
	}
}

// Grammar maps verbs to their reply class and classifies inbound lines.
// A Grammar is immutable; With returns a modified copy. Verbs not listed
// use the fallback class (ReplyAck for DefaultGrammar), so their replies
// expose every operand as an argument.
type Grammar struct {
	classes  map[string]ReplyClass
	fallback ReplyClass
}

// DefaultGrammar returns the reply classes of the verbs known to TF, CL/QL,
// DM and Rivage PM firmwares.
func DefaultGrammar() *Grammar {
	return &Grammar{
		classes: map[string]ReplyClass{
			VerbGet:          ReplyValue,
			VerbSet:          ReplyValue,
			VerbSceneCurrent: ReplyValue,
			VerbSceneInfo:    ReplyValue,
			VerbDevInfo:      ReplyValue,
			VerbDevStatus:    ReplyValue,
			VerbParamInfo:    ReplyValue,
			VerbSceneMode:    ReplyValue,
			VerbSceneRecall:  ReplyAck,
			VerbSceneUpdate:  ReplyAck,
			VerbMeterStart:   ReplyAck,
			VerbMeterStop:    ReplyAck,
			VerbEvent:        ReplyAck,
		},
		fallback: ReplyAck,
	}
}

// With returns a copy of g with verb mapped to class.
func (g *Grammar) With(verb string, class ReplyClass) *Grammar {
	classes := maps.Clone(g.classes)
	if classes == nil {
		classes = make(map[string]ReplyClass, 1)
	}
	classes[verb] = class
	return &Grammar{classes: classes, fallback: g.fallback}
}

// ReplyClass returns the reply class of verb.
func (g *Grammar) ReplyClass(verb string) ReplyClass {
	if class, ok := g.classes[verb]; ok {
		return class
	}
	return g.fallback
}

// ExpectsReply reports whether a command with this verb produces a reply line.
func (g *Grammar) ExpectsReply(verb string) bool {
	return g.ReplyClass(verb) != ReplyNone
}
