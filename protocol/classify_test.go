package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyReply(t *testing.T) {
	g := DefaultGrammar()

	tests := []struct {
		name     string
		line     string
		expected Reply
	}{
		{
			name: "get with quoted value",
			line: `OK get MIXER:Lib/Title 0 0 "MainMix"`,
			expected: Reply{
				Verb: "get", Address: "MIXER:Lib/Title", Args: []string{"0", "0"},
				Value: "MainMix", Quoted: true, HasValue: true,
			},
		},
		{
			name: "set echo",
			line: "OK set MIXER:Current/InCh/Fader/Level 0 0 -1000",
			expected: Reply{
				Verb: "set", Address: "MIXER:Current/InCh/Fader/Level", Args: []string{"0", "0"},
				Value: "-1000", HasValue: true,
			},
		},
		{
			name: "quoted value with spaces",
			line: `OK get MIXER:Current/InCh/Label/Name 1 0 "CHAN 2"`,
			expected: Reply{
				Verb: "get", Address: "MIXER:Current/InCh/Label/Name", Args: []string{"1", "0"},
				Value: "CHAN 2", Quoted: true, HasValue: true,
			},
		},
		{
			name: "acknowledgement only",
			line: "OK ssrecall_ex scene_a 5",
			expected: Reply{
				Verb: "ssrecall_ex", Address: "scene_a", Args: []string{"5"},
			},
		},
		{
			name: "multi value marker",
			line: "OKm get MIXER:Current/InCh/Fader/Level 0 0 -1000",
			expected: Reply{
				Verb: "get", Address: "MIXER:Current/InCh/Fader/Level", Args: []string{"0", "0"},
				Value: "-1000", HasValue: true, Multi: true,
			},
		},
		{
			name: "devinfo",
			line: `OK devinfo productname "TF1"`,
			expected: Reply{
				Verb: "devinfo", Address: "productname", Args: []string{},
				Value: "TF1", Quoted: true, HasValue: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := g.Classify(tt.line)
			require.NoError(t, err)
			require.Equal(t, KindReply, line.Kind)
			assert.Equal(t, tt.expected, line.Reply)
			assert.Equal(t, tt.line, line.Raw)
		})
	}
}

func TestClassifyMalformedReply(t *testing.T) {
	g := DefaultGrammar()

	for _, raw := range []string{
		"OK",
		"OK get",
		"OK GET MIXER:Lib/Title 0 0 1",
		`OK get "MIXER:Lib/Title" 0 0 1`,
		"OK get MIXER:Lib/Title",
		`OK get MIXER:Lib/Title 0 0 "unterminated`,
		`OK get MIXER:Lib/Title 0 0 "x"y`,
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := g.Classify(raw)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.True(t, ShouldReconnect(err))
		})
	}
}

func TestClassifyError(t *testing.T) {
	g := DefaultGrammar()

	tests := []struct {
		line    string
		verb    string
		message string
	}{
		{"ERROR set InvalidArgument", "set", "InvalidArgument"},
		{"ERROR get UnknownAddress MIXER:Foo", "get", "UnknownAddress MIXER:Foo"},
		{"ERROR UnknownCommand", "", "UnknownCommand"},
		{"ERROR", "", ""},
		{`ERROR set WrongFormat "x"`, "set", `WrongFormat "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			line, err := g.Classify(tt.line)
			require.NoError(t, err)
			require.Equal(t, KindError, line.Kind)
			require.NotNil(t, line.Err)
			assert.Equal(t, tt.verb, line.Err.Verb)
			assert.Equal(t, tt.message, line.Err.Message)
			assert.Equal(t, tt.line, line.Err.Line)
			assert.False(t, ShouldReconnect(line.Err))
		})
	}
}

func TestClassifyNotification(t *testing.T) {
	g := DefaultGrammar()

	tests := []struct {
		name     string
		line     string
		expected Notification
	}{
		{
			name: "notify without verb",
			line: `NOTIFY MIXER:Lib/Title 0 0 "Renamed"`,
			expected: Notification{
				Address: "MIXER:Lib/Title", Args: []string{"0", "0"}, Value: "Renamed", Quoted: true,
			},
		},
		{
			name: "notify set",
			line: "NOTIFY set MIXER:Current/InCh/Fader/Level 0 0 -1000",
			expected: Notification{
				Verb: "set", Address: "MIXER:Current/InCh/Fader/Level", Args: []string{"0", "0"}, Value: "-1000",
			},
		},
		{
			name: "notify scene change",
			line: "NOTIFY sscurrent_ex scene_a 5",
			expected: Notification{
				Verb: "sscurrent_ex", Address: "scene_a", Args: []string{}, Value: "5",
			},
		},
		{
			name: "bare line",
			line: "MIXER:Current/InCh/Fader/On 3 0 1",
			expected: Notification{
				Address: "MIXER:Current/InCh/Fader/On", Args: []string{"3", "0"}, Value: "1",
			},
		},
		{
			name:     "unparseable push line",
			line:     `NOTIFY MIXER:Lib/Title 0 0 "broken`,
			expected: Notification{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := g.Classify(tt.line)
			require.NoError(t, err)
			require.Equal(t, KindNotification, line.Kind)
			tt.expected.Raw = tt.line
			assert.Equal(t, tt.expected, line.Notification)
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	g := DefaultGrammar()
	lines := []string{
		`OK get MIXER:Lib/Title 0 0 "MainMix"`,
		"ERROR set InvalidArgument",
		`NOTIFY MIXER:Lib/Title 0 0 "Renamed"`,
	}

	var first []Line
	for _, raw := range lines {
		line, err := g.Classify(raw)
		require.NoError(t, err)
		first = append(first, line)
	}
	// Same input in reverse order yields identical results
	for i := len(lines) - 1; i >= 0; i-- {
		line, err := g.Classify(lines[i])
		require.NoError(t, err)
		assert.Equal(t, first[i], line)
	}
}

func TestClassifyEmptyLine(t *testing.T) {
	_, err := DefaultGrammar().Classify("")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestGrammarReplyClasses(t *testing.T) {
	g := DefaultGrammar()
	assert.Equal(t, ReplyValue, g.ReplyClass(VerbGet))
	assert.Equal(t, ReplyAck, g.ReplyClass(VerbSceneRecall))
	assert.Equal(t, ReplyAck, g.ReplyClass("someverb"))
	assert.True(t, g.ExpectsReply("someverb"))

	custom := g.With("fire", ReplyNone).With(VerbSceneRecall, ReplyValue)
	assert.False(t, custom.ExpectsReply("fire"))
	assert.Equal(t, ReplyValue, custom.ReplyClass(VerbSceneRecall))

	// The original is unchanged
	assert.True(t, g.ExpectsReply("fire"))
	assert.Equal(t, ReplyAck, g.ReplyClass(VerbSceneRecall))

	// Ack replies expose every operand once the class changes
	line, err := custom.Classify("OK ssrecall_ex scene_a 5")
	require.NoError(t, err)
	assert.Equal(t, "5", line.Reply.Value)
	assert.Empty(t, line.Reply.Args)
}

func TestEncodeThenClassifyRoundTrip(t *testing.T) {
	g := DefaultGrammar()

	values := []Value{
		IntValue(-1000),
		IntValue(0),
		StringValue("MainMix"),
		StringValue("with spaces and \"quotes\""),
		StringValue(""),
		RawValue("ON"),
	}

	for _, v := range values {
		t.Run(v.String(), func(t *testing.T) {
			cmd, err := Set("MIXER:Current/InCh/Label/Name", v, 4, 0)
			require.NoError(t, err)

			// Console echoes the command line after the OK marker
			line, err := g.Classify(MarkerOK + Space + cmd.String())
			require.NoError(t, err)
			require.Equal(t, KindReply, line.Kind)
			assert.Equal(t, v.Text(), line.Reply.Value)
			assert.Equal(t, v.Quoted(), line.Reply.Quoted)
			assert.Equal(t, cmd.Key(), line.Reply.Key())
		})
	}
}

func TestReplyValueDecoding(t *testing.T) {
	g := DefaultGrammar()

	line, err := g.Classify("OK get MIXER:Current/InCh/Fader/Level 0 0 -1000")
	require.NoError(t, err)
	level, err := line.Reply.Int()
	require.NoError(t, err)
	assert.Equal(t, -1000, level)

	line, err = g.Classify("OK get MIXER:Current/InCh/Fader/On 0 0 0")
	require.NoError(t, err)
	on, err := line.Reply.Bool()
	require.NoError(t, err)
	assert.False(t, on)

	line, err = g.Classify(`OK get MIXER:Lib/Title 0 0 "MainMix"`)
	require.NoError(t, err)
	_, err = line.Reply.Int()
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)

	line, err = g.Classify("OK ssrecall_ex scene_a 5")
	require.NoError(t, err)
	_, err = line.Reply.Bool()
	require.ErrorAs(t, err, &parseErr)
}
