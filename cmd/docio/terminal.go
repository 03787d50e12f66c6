package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dshills/docio/internal/docio"
	"github.com/dshills/docio/internal/vfs"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// progressReporter returns a ProgressFunc that redraws one status line on
// w, or nil when w is not a terminal.
func progressReporter(w io.Writer, label string) docio.ProgressFunc {
	if !isTerminal(w) {
		return nil
	}
	return func(done, total int64) {
		if total > 0 {
			fmt.Fprintf(w, "\r%s %3d%% (%d/%d bytes)", label, done*100/total, done, total)
		} else {
			fmt.Fprintf(w, "\r%s %d bytes", label, done)
		}
	}
}

// endProgress clears the status line drawn by progressReporter.
func endProgress(w io.Writer) {
	if isTerminal(w) {
		fmt.Fprint(w, "\r\033[K")
	}
}

// terminalMount asks for credentials on the controlling terminal.
type terminalMount struct {
	prompt io.Writer
}

func newTerminalMount(prompt io.Writer) vfs.MountOperationFactory {
	return func() vfs.MountOperation {
		return &terminalMount{prompt: prompt}
	}
}

func (m *terminalMount) AskPassword(ctx context.Context, loc vfs.Location, message string) (string, string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", "", errors.New("no terminal available to ask for credentials")
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	fmt.Fprintln(m.prompt, message)
	fmt.Fprint(m.prompt, "User: ")
	user, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("reading user name: %w", err)
	}
	fmt.Fprint(m.prompt, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(m.prompt)
	if err != nil {
		return "", "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(user), string(password), nil
}
