// Package session drives the interactive read-answer loop on a terminal.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/harunnryd/tooloop/pkg/agent"
	"github.com/harunnryd/tooloop/pkg/errorsx"
	"github.com/harunnryd/tooloop/pkg/redact"
)

const (
	DefaultPrompt         = "You: "
	DefaultAssistantLabel = "Assistant"

	Farewell    = "Goodbye! Thanks for chatting!"
	Interrupted = "Interrupted. Goodbye!"
	Hint        = "Type 'quit', 'exit', or 'bye' to end the conversation."
	LineTooLong = "That message is too long to send. Please shorten it and try again."

	// DefaultMaxLineBytes caps one input line; longer lines are discarded
	// and reported, and the session continues.
	DefaultMaxLineBytes = 1 << 20
)

var exitWords = map[string]struct{}{"quit": {}, "exit": {}, "bye": {}}

// Runner answers one query with a fresh conversation.
type Runner interface {
	Run(ctx context.Context, query string) (agent.Outcome, error)
}

type Config struct {
	In             io.Reader
	Out            io.Writer
	Runner         Runner
	Logger         *slog.Logger
	Prompt         string
	AssistantLabel string
	MaxLineBytes   int
	NoColor        bool
}

// Session reads one query per line until an exit word, end of input or
// context cancellation.
type Session struct {
	in      io.Reader
	out     io.Writer
	runner  Runner
	logger  *slog.Logger
	prompt  string
	label   string
	maxLine int

	promptColor *color.Color
	answerColor *color.Color
	errorColor  *color.Color
	infoColor   *color.Color
}

func New(cfg Config) (*Session, error) {
	if cfg.In == nil || cfg.Out == nil {
		return nil, errors.New("session: input and output are required")
	}
	if cfg.Runner == nil {
		return nil, errors.New("session: runner is required")
	}
	s := &Session{
		in:          cfg.In,
		out:         cfg.Out,
		runner:      cfg.Runner,
		logger:      cfg.Logger,
		prompt:      cfg.Prompt,
		label:       cfg.AssistantLabel,
		maxLine:     cfg.MaxLineBytes,
		promptColor: color.New(color.FgCyan, color.Bold),
		answerColor: color.New(color.FgGreen),
		errorColor:  color.New(color.FgRed),
		infoColor:   color.New(color.FgHiBlack),
	}
	if s.prompt == "" {
		s.prompt = DefaultPrompt
	}
	if s.label == "" {
		s.label = DefaultAssistantLabel
	}
	if s.maxLine <= 0 {
		s.maxLine = DefaultMaxLineBytes
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if cfg.NoColor {
		for _, c := range []*color.Color{s.promptColor, s.answerColor, s.errorColor, s.infoColor} {
			c.DisableColor()
		}
	}
	return s, nil
}

// Run blocks until the user leaves. Query failures are reported on the
// output and do not end the session.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, readErr := s.readLines(ctx)
	s.infoColor.Fprintln(s.out, Hint)

	for {
		s.promptColor.Fprint(s.out, s.prompt)
		var (
			line inputLine
			ok   bool
		)
		select {
		case <-ctx.Done():
			s.interrupted()
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(s.out)
			s.logger.Info("session_input_closed")
			if err := <-readErr; err != nil {
				return err
			}
			return nil
		}

		if line.tooLong {
			s.logger.Warn("session_line_too_long", "limit_bytes", s.maxLine)
			s.errorColor.Fprintln(s.out, LineTooLong)
			continue
		}
		query := strings.TrimSpace(line.text)
		if query == "" {
			continue
		}
		if _, exit := exitWords[strings.ToLower(query)]; exit {
			s.logger.Info("session_exit", "word", strings.ToLower(query))
			s.infoColor.Fprintln(s.out, Farewell)
			return nil
		}

		s.logger.Info("user_query", "query", redact.Text(query))
		out, err := s.runner.Run(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				s.interrupted()
				return nil
			}
			s.logger.Warn("query_failed", "trace_id", out.TraceID, "reason", errorsx.Reason(err), "error", redact.Secrets(err.Error()))
			s.errorColor.Fprintln(s.out, errorsx.UserMessage(err))
			continue
		}
		fmt.Fprintf(s.out, "%s %s\n", s.promptColor.Sprint(s.label+":"), s.answerColor.Sprint(out.Answer))
	}
}

func (s *Session) interrupted() {
	fmt.Fprintln(s.out)
	s.logger.Info("session_interrupted")
	s.infoColor.Fprintln(s.out, Interrupted)
}

// inputLine is one line of input; tooLong lines carry no text.
type inputLine struct {
	text    string
	tooLong bool
}

// readLines reads input on its own goroutine so a pending read never blocks
// cancellation. The lines channel closes at end of input; readErr then
// carries the read error, if any.
func (s *Session) readLines(ctx context.Context) (<-chan inputLine, <-chan error) {
	lines := make(chan inputLine)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		r := bufio.NewReaderSize(s.in, 64*1024)
		for {
			line, err := readLine(r, s.maxLine)
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
	}()
	return lines, readErr
}

// readLine returns the next line without its terminator. A line longer than
// max is consumed to its end and reported as tooLong.
func readLine(r *bufio.Reader, max int) (inputLine, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return inputLine{}, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > max {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return inputLine{text: string(buf), tooLong: tooLong}, nil
		}
	}
}
