package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripReasoningMarkers(t *testing.T) {
	t.Run("should pass plain text through unchanged", func(t *testing.T) {
		assert.Equal(t, "Hej svar", StripReasoningMarkers("Hej svar"))
	})

	t.Run("should remove a think span", func(t *testing.T) {
		assert.Equal(t, "", StripReasoningMarkers("<think>skip</think>"))
	})

	t.Run("should remove thinking variant and keep surrounding text", func(t *testing.T) {
		out := StripReasoningMarkers("before<thinking>hidden</thinking>after")
		assert.Equal(t, "beforeafter", out)
	})

	t.Run("should be case insensitive and span newlines", func(t *testing.T) {
		out := StripReasoningMarkers("a<THINK>line one\nline two</THINK>b")
		assert.Equal(t, "ab", out)
	})

	t.Run("should remove multiple spans", func(t *testing.T) {
		out := StripReasoningMarkers("<think>x</think>mid<think>y</think>")
		assert.Equal(t, "mid", out)
	})

	t.Run("should leave an unterminated marker alone", func(t *testing.T) {
		assert.Equal(t, "<think>open", StripReasoningMarkers("<think>open"))
	})
}

func TestContainsReasoningMarker(t *testing.T) {
	assert.True(t, ContainsReasoningMarker("a<think>b</think>c"))
	assert.False(t, ContainsReasoningMarker("no markers here"))
}
