package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedScript is wrapped by every parse failure in a session script
var ErrMalformedScript = errors.New("malformed session script")

// ScriptLine is one line of a JSON-lines session script.
// Exactly one field is set.
type ScriptLine struct {
	Point   *PointEvent     `json:"point,omitempty"`
	Command *ControlCommand `json:"command,omitempty"`
	Drag    *DragEvent      `json:"drag,omitempty"`
}

// Apply dispatches a single script line
func (e *Engine) Apply(line ScriptLine) error {
	switch {
	case line.Point != nil:
		return e.HandlePoint(*line.Point)
	case line.Command != nil:
		return e.HandleCommand(*line.Command)
	case line.Drag != nil:
		_, err := e.HandleDrag(*line.Drag)
		return err
	}
	return fmt.Errorf("%w: empty event", ErrMalformedScript)
}

// Replay feeds a session script to the engine in order and returns how many
// events were applied. Blank lines and lines starting with '#' are skipped.
// Rejected events are reported through the status stream and do not stop
// the replay; malformed lines and cancellation do.
func (e *Engine) Replay(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	applied := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}

		line, err := parseLine(raw)
		if err != nil {
			return applied, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := e.Apply(line); err != nil {
			e.log.Debug("replay event rejected", "line", lineNo, "error", err)
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		return applied, fmt.Errorf("failed to read script: %w", err)
	}
	return applied, nil
}

func parseLine(raw []byte) (ScriptLine, error) {
	var line ScriptLine
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&line); err != nil {
		return ScriptLine{}, fmt.Errorf("%w: %v", ErrMalformedScript, err)
	}
	set := 0
	for _, present := range []bool{line.Point != nil, line.Command != nil, line.Drag != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return ScriptLine{}, fmt.Errorf("%w: expected exactly one of point, command or drag", ErrMalformedScript)
	}
	return line, nil
}
