package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	banner  = "Google Calendar Assistant is active. Type 'exit' to quit.\n\n"
	prompt  = "You: "
	goodbye = "Goodbye!\n"
)

// maxLineSize is the longest user message accepted on one line.
const maxLineSize = 1 << 20

// IsExit reports whether input ends the session.
func IsExit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return true
	}
	return false
}

// Run reads user messages line by line from in and writes replies to out
// until the user types exit or quit, in is exhausted or ctx is cancelled.
// Failures of a single turn are reported on out and do not end the session.
func (l *Loop) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	if _, err := io.WriteString(out, banner); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(out, prompt); err != nil {
			return err
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			_, err := io.WriteString(out, "\n"+goodbye)
			return err
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if IsExit(input) {
			_, err := io.WriteString(out, goodbye)
			return err
		}

		reply, err := l.Turn(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, werr := fmt.Fprintf(out, "\nError: %v\n\n", err); werr != nil {
				return werr
			}
			continue
		}
		if _, err := fmt.Fprintf(out, "\nAssistant: %s\n\n", reply); err != nil {
			return err
		}
	}
}
