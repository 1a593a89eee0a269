package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const (
	historyFileName = ".rcpctl_history"
	historySize     = 500
)

// lineEditor reads commands with readline on a terminal and line by line
// from a pipe, so rcpctl can replay a script of commands.
type lineEditor struct {
	interactive bool
	rl          *readline.Instance
	scanner     *bufio.Scanner
}

// Readline owns the terminal, so only os.Stdin can be interactive.
func newLineEditor(in io.Reader, historyFile string) *lineEditor {
	if in != os.Stdin || !term.IsTerminal(int(os.Stdin.Fd())) {
		return &lineEditor{scanner: bufio.NewScanner(in)}
	}

	if historyFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			historyFile = filepath.Join(home, historyFileName)
		}
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyFile,
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline unavailable (%v), using basic input\n", err)
		return &lineEditor{scanner: bufio.NewScanner(in)}
	}

	return &lineEditor{interactive: true, rl: rl}
}

// GetLine returns the next line, or io.EOF at the end of input or on Ctrl-C.
func (le *lineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		le.rl.SetPrompt(prompt)
		line, err := le.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				return "", io.EOF
			}
			return "", err
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			le.rl.SaveToHistory(trimmed)
		}
		return line, nil
	}

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return le.scanner.Text(), nil
}

func (le *lineEditor) IsInteractive() bool {
	return le.interactive
}

func (le *lineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}
