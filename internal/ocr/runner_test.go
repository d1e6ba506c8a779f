package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCappedBuffer(t *testing.T) {
	b := &cappedBuffer{max: 5}
	n, err := b.Write([]byte("abc"))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = b.Write([]byte("defgh"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n, "writers must see a full write")
	assert.Equal(t, "abcde", string(b.Bytes()))
	assert.Equal(t, "abcde...(truncated)", b.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.True(t, strings.HasPrefix(truncate(strings.Repeat("x", 20), 4), "xxxx..."))
}
