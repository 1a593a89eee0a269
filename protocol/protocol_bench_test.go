package protocol

import (
	"io"
	"strings"
	"testing"
)

func BenchmarkClassify(b *testing.B) {
	g := DefaultGrammar()

	tests := []struct {
		name  string
		input string
	}{
		{"IntReply", "OK get MIXER:Current/InCh/Fader/Level 0 0 -1000"},
		{"StringReply", `OK get MIXER:Current/InCh/Label/Name 12 0 "Lead Vocal"`},
		{"Ack", "OK ssrecall_ex scene_a 5"},
		{"Error", "ERROR set InvalidArgument"},
		{"Notify", `NOTIFY set MIXER:Current/InCh/Fader/Level 0 0 -1000`},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			for b.Loop() {
				_, _ = g.Classify(tt.input)
			}
		})
	}
}

func BenchmarkWriteCommand(b *testing.B) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"Get", MustParseCommand("get MIXER:Current/InCh/Fader/Level 0 0")},
		{"SetInt", MustParseCommand("set MIXER:Current/InCh/Fader/Level 0 0 -1000")},
		{"SetString", MustParseCommand(`set MIXER:Current/InCh/Label/Name 0 0 "Lead Vocal"`)},
	}

	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			for b.Loop() {
				_ = WriteCommand(io.Discard, tt.cmd)
			}
		})
	}
}

func BenchmarkLineReader(b *testing.B) {
	input := strings.Repeat("NOTIFY set MIXER:Current/InCh/Fader/Level 0 0 -1000\r\n", 100)

	for b.Loop() {
		lr := NewLineReader(strings.NewReader(input), 0)
		for {
			if _, err := lr.ReadLine(); err != nil {
				break
			}
		}
	}
}
