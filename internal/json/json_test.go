package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Offset int    `json:"offset"`
	Tag    string `json:"tag"`
	Size   int    `json:"size,omitempty"`
}

func TestMarshalUnmarshal(t *testing.T) {
	data, err := Marshal(record{Offset: 5, Tag: "Array"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"offset":5,"tag":"Array"}`, string(data))

	var got record
	require.NoError(t, Unmarshal([]byte(`{"offset":9,"tag":"Map","size":3}`), &got))
	assert.Equal(t, record{Offset: 9, Tag: "Map", Size: 3}, got)

	assert.Error(t, Unmarshal([]byte(`{"offset":`), &got))
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(map[string]int{"a": 1}, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(data))
	assert.True(t, Valid(data))
	assert.False(t, Valid([]byte("{")))
}
