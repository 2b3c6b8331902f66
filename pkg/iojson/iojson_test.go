package iojson

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]int{"posted": 2}))
	assert.Equal(t, "{\n  \"posted\": 2\n}\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteWith_MarshalFailure(t *testing.T) {
	var out, errOut bytes.Buffer

	err := WriteWith(&out, &errOut, map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Empty(t, out.String())

	var e Error
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &e))
	assert.Equal(t, "error marshaling output", e.Message)
	assert.Contains(t, e.Data, "json_error")
}

func TestWriteError(t *testing.T) {
	var errOut bytes.Buffer

	require.NoError(t, WriteError(&errOut, "review pass failed", map[string]any{"review_id": "CR-1"}))

	var e Error
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &e))
	assert.Equal(t, "review pass failed", e.Message)
	assert.Equal(t, "CR-1", e.Data["review_id"])
}
