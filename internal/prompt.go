package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// LineConfirmer asks yes/no questions on a line-oriented stream.
type LineConfirmer struct {
	In  *bufio.Reader
	Out io.Writer
	// Default is returned for an empty answer.
	Default bool
}

// NewLineConfirmer wraps in/out for yes/no prompts
func NewLineConfirmer(in io.Reader, out io.Writer, def bool) *LineConfirmer {
	return &LineConfirmer{In: bufio.NewReader(in), Out: out, Default: def}
}

// Confirm prints the prompt and reads a y/n answer. EOF counts as "no".
func (c *LineConfirmer) Confirm(prompt string) (bool, error) {
	hint := "[y/N]"
	if c.Default {
		hint = "[Y/n]"
	}
	for {
		fmt.Fprintf(c.Out, "%s %s ", prompt, hint)
		line, err := c.In.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "":
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.Out)
				return false, nil
			}
			return c.Default, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		fmt.Fprintln(c.Out, "Please answer y or n.")
	}
}

// GumConfirmer delegates to `gum confirm` and falls back to a LineConfirmer
// when gum is missing or stdin is not a terminal.
type GumConfirmer struct {
	Fallback *LineConfirmer
}

// NewTerminalConfirmer returns the best confirmer for the current terminal
func NewTerminalConfirmer() *GumConfirmer {
	return &GumConfirmer{Fallback: NewLineConfirmer(os.Stdin, os.Stdout, true)}
}

// Confirm asks the operator a yes/no question
func (c *GumConfirmer) Confirm(prompt string) (bool, error) {
	if !isTerminal(os.Stdin) || !gumAvailable() {
		return c.Fallback.Confirm(prompt)
	}
	cmd := exec.Command("gum", "confirm", prompt)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return c.Fallback.Confirm(prompt)
}
