package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandEncoding(t *testing.T) {
	tests := []struct {
		name     string
		build    func() (Command, error)
		expected string
	}{
		{
			name:     "get with indices",
			build:    func() (Command, error) { return Get("MIXER:Current/InCh/Fader/Level", 0, 0) },
			expected: "get MIXER:Current/InCh/Fader/Level 0 0\n",
		},
		{
			name: "set with int value",
			build: func() (Command, error) {
				return Set("MIXER:Current/InCh/Fader/Level", IntValue(-1000), 3, 0)
			},
			expected: "set MIXER:Current/InCh/Fader/Level 3 0 -1000\n",
		},
		{
			name: "set with string value",
			build: func() (Command, error) {
				return Set("MIXER:Current/InCh/Label/Name", StringValue("CHAN 2"), 1, 0)
			},
			expected: "set MIXER:Current/InCh/Label/Name 1 0 \"CHAN 2\"\n",
		},
		{
			name: "set with escaped string",
			build: func() (Command, error) {
				return Set("MIXER:Lib/Title", StringValue(`say "hi" \o/`), 0, 0)
			},
			expected: "set MIXER:Lib/Title 0 0 \"say \\\"hi\\\" \\\\o/\"\n",
		},
		{
			name:     "action command",
			build:    func() (Command, error) { return NewCommand(VerbSceneRecall, "scene_a", "5") },
			expected: "ssrecall_ex scene_a 5\n",
		},
		{
			name:     "no args",
			build:    func() (Command, error) { return NewCommand(VerbDevInfo, "productname") },
			expected: "devinfo productname\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := tt.build()
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, WriteCommand(&buf, cmd))
			assert.Equal(t, tt.expected, buf.String())
			assert.Equal(t, tt.expected[:len(tt.expected)-1], cmd.String())
		})
	}
}

func TestCommandValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Command, error)
		field string
	}{
		{"empty verb", func() (Command, error) { return NewCommand("", "MIXER:Lib/Title") }, "verb"},
		{"upper case verb", func() (Command, error) { return NewCommand("GET", "MIXER:Lib/Title") }, "verb"},
		{"verb with space", func() (Command, error) { return NewCommand("g et", "MIXER:Lib/Title") }, "verb"},
		{"verb starting with digit", func() (Command, error) { return NewCommand("1get", "MIXER:Lib/Title") }, "verb"},
		{"empty address", func() (Command, error) { return Get("") }, "address"},
		{"address with space", func() (Command, error) { return Get("MIXER:Lib Title") }, "address"},
		{"address with newline", func() (Command, error) { return Get("MIXER:Lib/Title\nget x") }, "address"},
		{"arg with space", func() (Command, error) { return NewCommand(VerbGet, "MIXER:Lib/Title", "0 0") }, "arg"},
		{"empty arg", func() (Command, error) { return NewCommand(VerbGet, "MIXER:Lib/Title", "") }, "arg"},
		{"set without value", func() (Command, error) { return Set("MIXER:Lib/Title", Value{}, 0, 0) }, "value"},
		{"string value with newline", func() (Command, error) {
			return Set("MIXER:Lib/Title", StringValue("a\nb"), 0, 0)
		}, "value"},
		{"raw value with space", func() (Command, error) {
			return Set("MIXER:Lib/Title", RawValue("a b"), 0, 0)
		}, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)

			var invalid *InvalidCommandError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.field, invalid.Field)
			assert.False(t, ShouldReconnect(err))
		})
	}
}

func TestCommandImmutable(t *testing.T) {
	args := []string{"0", "0"}
	cmd, err := NewCommand(VerbGet, "MIXER:Lib/Title", args...)
	require.NoError(t, err)

	args[0] = "9"
	assert.Equal(t, []string{"0", "0"}, cmd.Args())

	got := cmd.Args()
	got[1] = "7"
	assert.Equal(t, "get MIXER:Lib/Title 0 0", cmd.String())

	withValue, err := cmd.WithValue(StringValue("x"))
	require.NoError(t, err)
	assert.True(t, cmd.Value().IsZero())
	assert.Equal(t, "x", withValue.Value().Text())
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		verb    string
		address string
		args    []string
		value   string
		quoted  bool
	}{
		{"get MIXER:Current/InCh/Fader/Level 0 0", "get", "MIXER:Current/InCh/Fader/Level", []string{"0", "0"}, "", false},
		{"set MIXER:Current/InCh/Fader/Level 0 0 -1000", "set", "MIXER:Current/InCh/Fader/Level", []string{"0", "0"}, "-1000", false},
		{`set MIXER:Current/InCh/Label/Name 0 0 "CH 1"`, "set", "MIXER:Current/InCh/Label/Name", []string{"0", "0"}, "CH 1", true},
		{"ssrecall_ex scene_a 5\n", "ssrecall_ex", "scene_a", []string{"5"}, "", false},
		{`scpmode sstype "text"`, "scpmode", "sstype", nil, "text", true},
		{"  get   MIXER:Lib/Title  0 0 ", "get", "MIXER:Lib/Title", []string{"0", "0"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.verb, cmd.Verb())
			assert.Equal(t, tt.address, cmd.Address())
			assert.Equal(t, tt.args, cmd.Args())
			assert.Equal(t, tt.value, cmd.Value().Text())
			assert.Equal(t, tt.quoted, cmd.Value().Quoted())
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"get",
		`get "MIXER:Lib/Title" 0 0`,
		`set MIXER:Lib/Title 0 0 "unterminated`,
		`get MIXER:Lib/Title "0" 0`,
		"GET MIXER:Lib/Title 0 0",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseCommand(line)
			var invalid *InvalidCommandError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestParseCommandRoundTrip(t *testing.T) {
	for _, line := range []string{
		"get MIXER:Current/InCh/Fader/Level 0 0",
		"set MIXER:Current/InCh/Fader/Level 12 0 -32768",
		`set MIXER:Current/InCh/Label/Name 0 0 "with \"quotes\""`,
		"ssrecall_ex scene_b 12",
	} {
		cmd, err := ParseCommand(line)
		require.NoError(t, err)
		assert.Equal(t, line, cmd.String())
	}
}

func TestMustParseCommandPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseCommand("") })
	assert.NotPanics(t, func() { MustParseCommand("get MIXER:Lib/Title 0 0") })
}
