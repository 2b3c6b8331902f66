// Package iojson writes indented JSON for command line output.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Error is the JSON shape written when output cannot be produced.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// marshalFailure renders an Error by hand so it can never fail itself.
func marshalFailure(msg string, err error) string {
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(err.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, errBytes)
}

// WriteWith writes obj as indented JSON to w. When obj cannot be marshaled
// an Error is written to ew instead and the marshal error is returned.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintln(ew, marshalFailure("error marshaling output", err))
		return fmt.Errorf("marshal output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// Write calls WriteWith with [os.Stdout] and [os.Stderr].
func Write(obj any) error {
	return WriteWith(os.Stdout, os.Stderr, obj)
}

// WriteError writes an Error with msg and data to ew.
func WriteError(ew io.Writer, msg string, data map[string]any) error {
	return WriteWith(ew, ew, Error{Message: msg, Data: data})
}
