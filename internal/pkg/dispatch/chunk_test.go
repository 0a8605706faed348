package dispatch

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	names := make([]string, 500)
	for i := range names {
		names[i] = fmt.Sprintf("logstash-2019.10.01-%03d", i)
	}
	assert.True(t, csvLen(names) > MaxChunkLen)
	assert.Equal(t, len(strings.Join(names, ",")), csvLen(names))

	chunks := Chunk(names, MaxChunkLen)
	assert.True(t, len(chunks) > 1)
	var union []string
	for _, c := range chunks {
		assert.True(t, len(strings.Join(c, ",")) <= MaxChunkLen)
		union = append(union, c...)
	}
	assert.Equal(t, names, union)

	// Chunks are as full as they can be.
	for _, c := range chunks[:len(chunks)-1] {
		assert.True(t, len(strings.Join(c, ","))+1+len(names[0]) > MaxChunkLen)
	}
}

func TestChunk_edges(t *testing.T) {
	assert.Nil(t, Chunk(nil, 10))
	assert.Equal(t, [][]string{{"a"}}, Chunk([]string{"a"}, 10))
	assert.Equal(t, [][]string{{"aaaa", "bbbb"}}, Chunk([]string{"aaaa", "bbbb"}, 9))
	assert.Equal(t, [][]string{{"aaaa"}, {"bbbb"}}, Chunk([]string{"aaaa", "bbbb"}, 8))
	assert.Equal(t,
		[][]string{{"a"}, {"toolongname"}, {"b", "c"}},
		Chunk([]string{"a", "toolongname", "b", "c"}, 4),
	)
}

func TestChunk_appendDoesNotOverwrite(t *testing.T) {
	names := []string{"aaaa", "bbbb", "cccc"}
	chunks := Chunk(names, 4)
	_ = append(chunks[0], "x")
	assert.Equal(t, []string{"aaaa", "bbbb", "cccc"}, names)
}
