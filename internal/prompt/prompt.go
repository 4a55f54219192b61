package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Confirmer asks a yes/no question. def is returned for an empty answer.
type Confirmer interface {
	Confirm(question string, def bool) (bool, error)
}

// Selector asks the operator to pick one of items and returns its index.
type Selector interface {
	Select(question string, items []string) (int, error)
}

// ErrNoChoices is returned by Select for an empty list.
var ErrNoChoices = errors.New("nothing to choose from")

// Terminal reads answers line by line from r and writes questions to w.
type Terminal struct {
	reader *bufio.Reader
	w      io.Writer
}

// NewTerminal returns a Terminal over r and w, typically stdin and stdout.
func NewTerminal(r io.Reader, w io.Writer) *Terminal {
	return &Terminal{reader: bufio.NewReader(r), w: w}
}

// Confirm prints "? question (Y/n) " or "(y/N)" and reads one line. End of
// input counts as an empty answer.
func (t *Terminal) Confirm(question string, def bool) (bool, error) {
	hint := "(y/N)"
	if def {
		hint = "(Y/n)"
	}
	for {
		fmt.Fprintf(t.w, "? %s %s ", question, hint)

		line, err := t.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("reading answer: %w", err)
		}
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(t.w)
			return def, nil
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if errors.Is(err, io.EOF) {
			return def, nil
		}
		fmt.Fprintln(t.w, "  Please answer y or n.")
	}
}

// Select presents a numbered list and returns the selected index.
func (t *Terminal) Select(question string, items []string) (int, error) {
	if len(items) == 0 {
		return 0, ErrNoChoices
	}

	fmt.Fprintf(t.w, "\n%s\n", question)
	for i, item := range items {
		fmt.Fprintf(t.w, "  %d) %s\n", i+1, item)
	}
	fmt.Fprintf(t.w, "Enter number [1-%d]: ", len(items))

	line, err := t.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return 0, fmt.Errorf("reading selection: %w", err)
	}

	num, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || num < 1 || num > len(items) {
		return 0, fmt.Errorf("invalid selection %q: choose 1-%d", strings.TrimSpace(line), len(items))
	}
	return num - 1, nil
}

// Defaults answers every question with its default. It stands in for a
// terminal when input is not interactive.
type Defaults struct{}

func (Defaults) Confirm(_ string, def bool) (bool, error) { return def, nil }

// Scripted replays fixed answers in order and records the questions asked.
// Once the answers run out, the default is returned.
type Scripted struct {
	Answers []bool
	Asked   []string
}

func (s *Scripted) Confirm(question string, def bool) (bool, error) {
	s.Asked = append(s.Asked, question)
	if len(s.Answers) == 0 {
		return def, nil
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, nil
}
