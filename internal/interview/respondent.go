package interview

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Respondent is the candidate side of the interview.
type Respondent interface {
	// Say delivers an interviewer utterance that expects no answer.
	Say(ctx context.Context, text string) error
	// Ask delivers a question and blocks until the candidate answers.
	Ask(ctx context.Context, question string) (string, error)
}

// IsExit reports whether answer asks to end the interview.
func IsExit(answer string) bool {
	a := strings.TrimSpace(answer)
	return a == "结束" || strings.EqualFold(a, "quit") || strings.EqualFold(a, "exit")
}

type line struct {
	text string
	err  error
}

// Console talks to the candidate over a terminal.
type Console struct {
	out io.Writer
	in  *bufio.Reader

	start sync.Once
	lines chan line
	mu    sync.Mutex
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out, lines: make(chan line)}
}

func (c *Console) Say(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "\n面试官：%s\n", text)
	return err
}

func (c *Console) Ask(ctx context.Context, question string) (string, error) {
	if err := c.Say(ctx, question); err != nil {
		return "", err
	}
	c.mu.Lock()
	fmt.Fprint(c.out, "我：")
	c.mu.Unlock()

	c.start.Do(func() { go c.read() })
	select {
	case l, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// read feeds input lines to Ask so a blocked read never outlives a
// cancelled question.
func (c *Console) read() {
	for {
		text, err := c.in.ReadString('\n')
		text = strings.TrimRight(text, "\r\n")
		if err != nil {
			if text != "" {
				c.lines <- line{text: text}
			}
			c.lines <- line{err: err}
			close(c.lines)
			return
		}
		c.lines <- line{text: text}
	}
}
