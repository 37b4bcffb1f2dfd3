package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/HugeFrog24/gpt-video-studio/internal/apperr"
	"github.com/HugeFrog24/gpt-video-studio/internal/httpapi"
)

var errTruncated = errors.New("completion stream ended without a done event")

// Stream reads the server-sent events of a completion. Recv follows the
// completion.Stream contract: fragments, then io.EOF or a terminal error.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	err     error
}

func newStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	return &Stream{body: body, scanner: scanner}
}

func (s *Stream) Recv() (string, error) {
	for s.err == nil {
		event, data, err := s.next()
		if err != nil {
			s.fail(err)
			break
		}
		switch event {
		case httpapi.EventToken:
			var tok httpapi.TokenEvent
			if err := json.Unmarshal([]byte(data), &tok); err != nil {
				s.fail(fmt.Errorf("decode token event: %w", err))
				break
			}
			if tok.Text != "" {
				return tok.Text, nil
			}
		case httpapi.EventError:
			var e httpapi.ErrorEvent
			_ = json.Unmarshal([]byte(data), &e)
			s.fail(&apperr.Error{Kind: apperr.KindProvider, Message: e.Error})
		case httpapi.EventDone:
			s.fail(io.EOF)
		}
	}
	return "", s.err
}

func (s *Stream) fail(err error) {
	s.err = err
	s.body.Close()
}

// Close releases the connection. Later Recv calls return io.EOF.
func (s *Stream) Close() error {
	if s.err == nil {
		s.err = io.EOF
	}
	return s.body.Close()
}

// next returns the next dispatched event. Comment lines and unknown fields
// are skipped.
func (s *Stream) next() (event, data string, err error) {
	var lines []string
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			if event == "" && lines == nil {
				continue
			}
			if event == "" {
				event = "message"
			}
			return event, strings.Join(lines, "\n"), nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			lines = append(lines, value)
		}
	}
	if err := s.scanner.Err(); err != nil {
		return "", "", err
	}
	return "", "", errTruncated
}
