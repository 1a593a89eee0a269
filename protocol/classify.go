package protocol

import (
	"strconv"
	"strings"
)

// Kind tags a classified inbound line.
type Kind int

const (
	KindReply Kind = iota + 1
	KindError
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindReply:
		return "reply"
	case KindError:
		return "error"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Line is a classified inbound line. Exactly one of Reply, Err or
// Notification is meaningful, selected by Kind.
type Line struct {
	Kind         Kind
	Reply        Reply
	Err          *ConsoleError
	Notification Notification
	Raw          string
}

// Reply is the parsed form of an OK / OKm line.
type Reply struct {
	Verb    string
	Address string
	Args    []string

	// Value is the unquoted trailing value. Empty for acknowledgement-only
	// replies (HasValue is false).
	Value    string
	Quoted   bool
	HasValue bool

	// Multi is set for OKm replies.
	Multi bool
}

// Key returns "<verb> <address> <args...>" as echoed by the console.
func (r Reply) Key() string {
	return joinKey(r.Verb, r.Address, r.Args)
}

// Int parses the value as a decimal integer.
func (r Reply) Int() (int, error) {
	if !r.HasValue {
		return 0, &ParseError{Message: "reply has no value", Line: r.Key()}
	}
	v, err := strconv.Atoi(r.Value)
	if err != nil {
		return 0, &ParseError{Message: "reply value is not an integer", Line: r.Value, Err: err}
	}
	return v, nil
}

// Bool interprets the value as a switch: "0" is false, any other integer is true.
func (r Reply) Bool() (bool, error) {
	v, err := r.Int()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Notification is an unsolicited line pushed by the console.
type Notification struct {
	// Verb is set for NOTIFY <verb> ... lines, empty otherwise.
	Verb    string
	Address string
	Args    []string
	Value   string
	Quoted  bool
	Raw     string
}

// Classify parses an inbound line (without terminator).
//
// Grammar:
//
//	OK  <verb> <address> <args...> [<value>]   -> KindReply
//	OKm <verb> <address> <args...> [<value>]   -> KindReply (Multi)
//	ERROR [<verb>] <message...>                -> KindError
//	NOTIFY [<verb>] <address> <args...> <value> -> KindNotification
//	anything else                               -> KindNotification
//
// Whether a reply ends with a value is decided by the verb's ReplyClass.
// A line carrying a reply marker that doesn't match the reply grammar is a
// ParseError: it is never downgraded to a notification.
// Classify depends only on the line content.
func (g *Grammar) Classify(line string) (Line, error) {
	if line == "" {
		return Line{}, &ParseError{Message: "empty line"}
	}

	marker, _, _ := strings.Cut(line, Space)
	switch marker {
	case MarkerOK, MarkerOKMulti:
		return g.classifyReply(line, marker == MarkerOKMulti)
	case MarkerError:
		return classifyError(line), nil
	case MarkerNotify:
		return classifyNotification(line, true), nil
	default:
		return classifyNotification(line, false), nil
	}
}

func (g *Grammar) classifyReply(line string, multi bool) (Line, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		return Line{}, err
	}
	if len(tokens) < 3 {
		return Line{}, &ParseError{Message: "reply without verb and address", Line: line}
	}
	if tokens[1].Quoted || ValidateVerb(tokens[1].Text) != nil {
		return Line{}, &ParseError{Message: "reply with invalid verb", Line: line}
	}
	if tokens[2].Quoted {
		return Line{}, &ParseError{Message: "reply with quoted address", Line: line}
	}

	reply := Reply{
		Verb:    tokens[1].Text,
		Address: tokens[2].Text,
		Multi:   multi,
	}
	rest := tokens[3:]

	switch g.ReplyClass(reply.Verb) {
	case ReplyValue:
		if len(rest) == 0 {
			return Line{}, &ParseError{Message: "reply to " + reply.Verb + " without value", Line: line}
		}
		last := rest[len(rest)-1]
		reply.Value = last.Text
		reply.Quoted = last.Quoted
		reply.HasValue = true
		rest = rest[:len(rest)-1]
	default:
		// Acknowledgement: everything is echoed operands.
	}

	reply.Args = make([]string, len(rest))
	for i, tok := range rest {
		reply.Args[i] = tok.Text
	}

	return Line{Kind: KindReply, Reply: reply, Raw: line}, nil
}

func classifyError(line string) Line {
	ce := &ConsoleError{Line: line}
	_, rest, _ := strings.Cut(line, Space)
	rest = strings.TrimLeft(rest, Space)
	verb, msg, found := strings.Cut(rest, Space)
	if ValidateVerb(verb) == nil {
		ce.Verb = verb
		if found {
			ce.Message = strings.TrimLeft(msg, Space)
		}
	} else {
		ce.Message = rest
	}
	return Line{Kind: KindError, Err: ce, Raw: line}
}

func classifyNotification(line string, prefixed bool) Line {
	n := Notification{Raw: line}
	tokens, err := Tokenize(line)
	if err != nil {
		// Unparseable push lines still reach subscribers in raw form.
		return Line{Kind: KindNotification, Notification: n, Raw: line}
	}
	if prefixed {
		tokens = tokens[1:]
	}
	if len(tokens) >= 2 && !tokens[0].Quoted && ValidateVerb(tokens[0].Text) == nil {
		n.Verb = tokens[0].Text
		tokens = tokens[1:]
	}
	if len(tokens) > 0 {
		n.Address = tokens[0].Text
		tokens = tokens[1:]
	}
	if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		n.Value = last.Text
		n.Quoted = last.Quoted
		tokens = tokens[:len(tokens)-1]
	}
	n.Args = make([]string, len(tokens))
	for i, tok := range tokens {
		n.Args[i] = tok.Text
	}
	return Line{Kind: KindNotification, Notification: n, Raw: line}
}
