package protocol

import (
	"strconv"
	"strings"
)

// Value is the optional trailing payload of a command.
// The zero Value means "no value".
type Value struct {
	text   string
	quoted bool
	set    bool
}

// IntValue returns a bare integer value, as used for levels and switches
// (e.g. -1000 for -10.00 dB).
func IntValue(v int) Value {
	return Value{text: strconv.Itoa(v), set: true}
}

// StringValue returns a value sent as a quoted string, as used for labels.
func StringValue(s string) Value {
	return Value{text: s, quoted: true, set: true}
}

// RawValue returns a value sent as a bare token. The token must not contain
// whitespace or quotes.
func RawValue(token string) Value {
	return Value{text: token, set: true}
}

// IsZero reports whether no value is present.
func (v Value) IsZero() bool {
	return !v.set
}

// Text returns the unquoted value.
func (v Value) Text() string {
	return v.text
}

// Quoted reports whether the value is sent as a quoted string.
func (v Value) Quoted() bool {
	return v.quoted
}

// String returns the wire form of the value.
func (v Value) String() string {
	if !v.set {
		return ""
	}
	if v.quoted {
		return QuoteString(v.text)
	}
	return v.text
}

func (v Value) validate() error {
	if !v.set {
		return nil
	}
	if v.quoted {
		if strings.ContainsAny(v.text, "\r\n") {
			return &InvalidCommandError{Field: "value", Value: v.text, Message: "contains a line break"}
		}
		return nil
	}
	if !isBareToken(v.text) {
		return &InvalidCommandError{Field: "value", Value: v.text, Message: "is not a bare token"}
	}
	return nil
}

// Command is a logical RCP command: verb, address, index arguments and an
// optional value. A Command is immutable once constructed; use NewCommand,
// Get, Set or ParseCommand to build one.
type Command struct {
	verb    string
	address string
	args    []string
	value   Value
}

// NewCommand validates and returns a command without value.
//
// The address is the first operand of the verb: a parameter path such as
// MIXER:Current/InCh/Fader/Level for get/set, a scene list for scene
// commands, an info key for devinfo.
func NewCommand(verb, address string, args ...string) (Command, error) {
	if err := ValidateVerb(verb); err != nil {
		return Command{}, err
	}
	if address == "" {
		return Command{}, &InvalidCommandError{Field: "address", Message: "is empty"}
	}
	if !isBareToken(address) {
		return Command{}, &InvalidCommandError{Field: "address", Value: address, Message: "contains whitespace or quotes"}
	}
	for _, arg := range args {
		if !isBareToken(arg) {
			return Command{}, &InvalidCommandError{Field: "arg", Value: arg, Message: "is empty or contains whitespace"}
		}
	}

	return Command{
		verb:    verb,
		address: address,
		args:    append([]string(nil), args...),
	}, nil
}

// Get builds "get <address> <indices...>".
func Get(address string, indices ...int) (Command, error) {
	return NewCommand(VerbGet, address, formatIndices(indices)...)
}

// Set builds "set <address> <indices...> <value>".
func Set(address string, value Value, indices ...int) (Command, error) {
	cmd, err := NewCommand(VerbSet, address, formatIndices(indices)...)
	if err != nil {
		return Command{}, err
	}
	if value.IsZero() {
		return Command{}, &InvalidCommandError{Field: "value", Message: "is required for set"}
	}
	return cmd.WithValue(value)
}

// WithValue returns a copy of c carrying v.
func (c Command) WithValue(v Value) (Command, error) {
	if err := v.validate(); err != nil {
		return Command{}, err
	}
	c.args = append([]string(nil), c.args...)
	c.value = v
	return c, nil
}

// ParseCommand parses a command line as typed by a user or received by a
// console. For set, the last operand is the value; for other verbs a
// trailing quoted operand is taken as the value.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, CR+LF)
	tokens, err := Tokenize(line)
	if err != nil {
		return Command{}, &InvalidCommandError{Field: "line", Value: line, Message: err.Error()}
	}
	if len(tokens) == 0 {
		return Command{}, &InvalidCommandError{Field: "line", Message: "is empty"}
	}
	if len(tokens) < 2 {
		return Command{}, &InvalidCommandError{Field: "address", Message: "is empty"}
	}
	if tokens[0].Quoted || tokens[1].Quoted {
		return Command{}, &InvalidCommandError{Field: "line", Value: line, Message: "has a quoted verb or address"}
	}

	operands := tokens[2:]
	var value Value
	if n := len(operands); n > 0 {
		last := operands[n-1]
		switch {
		case last.Quoted:
			value = StringValue(last.Text)
			operands = operands[:n-1]
		case tokens[0].Text == VerbSet:
			value = RawValue(last.Text)
			operands = operands[:n-1]
		}
	}

	args := make([]string, 0, len(operands))
	for _, tok := range operands {
		if tok.Quoted {
			return Command{}, &InvalidCommandError{Field: "arg", Value: tok.Text, Message: "is quoted"}
		}
		args = append(args, tok.Text)
	}

	cmd, err := NewCommand(tokens[0].Text, tokens[1].Text, args...)
	if err != nil {
		return Command{}, err
	}
	if value.IsZero() {
		return cmd, nil
	}
	return cmd.WithValue(value)
}

// MustParseCommand is like ParseCommand but panics on error.
// Intended for tests and static command tables.
func MustParseCommand(line string) Command {
	cmd, err := ParseCommand(line)
	if err != nil {
		panic(err)
	}
	return cmd
}

// Verb returns the command verb.
func (c Command) Verb() string { return c.verb }

// Address returns the command address.
func (c Command) Address() string { return c.address }

// Args returns a copy of the index arguments.
func (c Command) Args() []string { return append([]string(nil), c.args...) }

// Value returns the command value, zero if none.
func (c Command) Value() Value { return c.value }

// IsZero reports whether c was never constructed.
func (c Command) IsZero() bool { return c.verb == "" }

// Key returns "<verb> <address> <args...>", the part of the command a
// console echoes in its reply.
func (c Command) Key() string {
	return joinKey(c.verb, c.address, c.args)
}

// String returns the wire line without terminator.
func (c Command) String() string {
	return string(c.AppendLine(nil)[:c.lineLen()])
}

// AppendLine appends the wire line, including the LF terminator, to dst.
func (c Command) AppendLine(dst []byte) []byte {
	dst = append(dst, c.verb...)
	dst = append(dst, ' ')
	dst = append(dst, c.address...)
	for _, arg := range c.args {
		dst = append(dst, ' ')
		dst = append(dst, arg...)
	}
	if c.value.set {
		dst = append(dst, ' ')
		dst = append(dst, c.value.String()...)
	}
	return append(dst, LF...)
}

func (c Command) lineLen() int {
	n := len(c.verb) + 1 + len(c.address)
	for _, arg := range c.args {
		n += 1 + len(arg)
	}
	if c.value.set {
		n += 1 + len(c.value.String())
	}
	return n
}

// ValidateVerb checks the verb syntax: lower case letters, digits and
// underscores, starting with a letter.
func ValidateVerb(verb string) error {
	if verb == "" {
		return &InvalidCommandError{Field: "verb", Message: "is empty"}
	}
	if len(verb) > MaxVerbLength {
		return &InvalidCommandError{Field: "verb", Value: verb, Message: "is too long"}
	}
	for i := 0; i < len(verb); i++ {
		c := verb[i]
		switch {
		case c >= 'a' && c <= 'z':
		case i > 0 && (c >= '0' && c <= '9' || c == '_'):
		default:
			return &InvalidCommandError{Field: "verb", Value: verb, Message: "has invalid characters"}
		}
	}
	return nil
}

func formatIndices(indices []int) []string {
	args := make([]string, len(indices))
	for i, idx := range indices {
		args[i] = strconv.Itoa(idx)
	}
	return args
}

func joinKey(verb, address string, args []string) string {
	var sb strings.Builder
	sb.WriteString(verb)
	sb.WriteByte(' ')
	sb.WriteString(address)
	for _, arg := range args {
		sb.WriteByte(' ')
		sb.WriteString(arg)
	}
	return sb.String()
}
