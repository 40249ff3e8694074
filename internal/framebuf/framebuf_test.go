package framebuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndCompact(t *testing.T) {
	buf := New(8)
	require.NoError(t, buf.Append([]byte{1, 2, 3}))
	assert.Equal(t, 3, buf.Len())

	buf.Compact(2)
	assert.Equal(t, []byte{3}, buf.Bytes())
}

func TestAppendOverflowErrors(t *testing.T) {
	buf := New(2)
	assert.Error(t, buf.Append([]byte{1, 2, 3}))
}

func TestCompactPastLenEmptiesBuffer(t *testing.T) {
	buf := New(4)
	require.NoError(t, buf.Append([]byte{1, 2}))
	buf.Compact(10)
	assert.Equal(t, 0, buf.Len())
}

func TestResetEmptiesBuffer(t *testing.T) {
	buf := New(4)
	require.NoError(t, buf.Append([]byte{1, 2}))
	buf.Reset()
	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 4, buf.Space())
}
