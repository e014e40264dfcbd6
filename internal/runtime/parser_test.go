package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectChunks(t *testing.T, fragments []string) []Chunk {
	t.Helper()
	var got []Chunk
	p := newFenceParser(func(c Chunk) bool {
		got = append(got, c)
		return true
	})
	for _, f := range fragments {
		require.True(t, p.feed(f))
	}
	require.True(t, p.finish())
	return got
}

func TestParserStreamsProseEagerly(t *testing.T) {
	got := collectChunks(t, []string{"Hel", "lo\n"})

	require.Len(t, got, 4)
	assert.True(t, got[0].StartOfMessage)
	assert.Equal(t, "Hel", got[1].Message)
	assert.Equal(t, "lo\n", got[2].Message)
	assert.True(t, got[3].EndOfMessage)
}

func TestParserFenceSplitAcrossFragments(t *testing.T) {
	got := collectChunks(t, []string{
		"Here:\n``",
		"`python\nprint(1)\n`",
		"``\nDone\n",
	})

	want := []Chunk{
		{StartOfMessage: true},
		{Message: "Here:\n"},
		{EndOfMessage: true},
		{StartOfCode: true},
		{Language: "python"},
		{Code: "print(1)\n"},
		{EndOfCode: true},
		{StartOfMessage: true},
		{Message: "Done\n"},
		{EndOfMessage: true},
	}
	assert.Equal(t, want, got)
}

func TestParserDefaultLanguage(t *testing.T) {
	got := collectChunks(t, []string{"```\nx = 1\n```\n"})

	require.GreaterOrEqual(t, len(got), 2)
	assert.True(t, got[0].StartOfCode)
	assert.Equal(t, "python", got[1].Language)
}

func TestParserClosesUnterminatedCode(t *testing.T) {
	got := collectChunks(t, []string{"```sh\necho hi\n"})

	last := got[len(got)-1]
	assert.True(t, last.EndOfCode)
}

func TestParserSkipsBlankLinesBetweenBlocks(t *testing.T) {
	got := collectChunks(t, []string{"```sh\nls\n```\n\n\n"})

	for _, c := range got {
		assert.Empty(t, c.Message)
		assert.False(t, c.StartOfMessage)
	}
}

func TestParserAbortStopsFeeding(t *testing.T) {
	calls := 0
	p := newFenceParser(func(c Chunk) bool {
		calls++
		return false
	})
	assert.False(t, p.feed("hello"))
	assert.Equal(t, 1, calls)
}
