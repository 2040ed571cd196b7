package capture

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter is a blocking read of one line of operator input.
type Prompter interface {
	Prompt(text string) (string, error)
}

// TermPrompter prompts on a terminal: the text is written to out, one line
// is read from in.
type TermPrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewTermPrompter creates a prompter over the given reader and writer.
func NewTermPrompter(in io.Reader, out io.Writer) *TermPrompter {
	return &TermPrompter{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Prompt writes text and blocks until the operator enters a line.
func (p *TermPrompter) Prompt(text string) (string, error) {
	fmt.Fprint(p.out, text)
	line, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
