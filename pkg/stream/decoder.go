package stream

import (
	"bufio"
	"io"
	"strings"
)

const (
	// dataPrefix marks a payload line inside an event frame.
	dataPrefix = "data:"
	// doneSentinel is the terminal payload; it ends the sub-frame without
	// emitting a domain event.
	doneSentinel = "[DONE]"

	// maxLineSize bounds a single payload line. Tool outputs can carry
	// whole documents, so this is well above the bufio default.
	maxLineSize = 1024 * 1024
)

// Decoder turns the raw transport stream into a lazy, non-restartable
// sequence of events. Frames are separated by blank lines and payload
// lines carry the "data:" marker; anything else on the wire is discarded.
// A payload that fails structural parsing is treated as noise and skipped.
type Decoder struct {
	scanner *bufio.Scanner
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next decoded event. It returns io.EOF once the
// transport closes, and the transport's error verbatim on a failed read so
// the caller can tell cancellation from genuine failure.
func (d *Decoder) Next() (Event, error) {
	for d.scanner.Scan() {
		line := strings.TrimRight(d.scanner.Text(), "\r")
		if line == "" {
			// Frame delimiter.
			continue
		}
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == "" || payload == doneSentinel {
			continue
		}
		ev, err := parseEvent([]byte(payload))
		if err != nil {
			continue
		}
		return ev, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}
