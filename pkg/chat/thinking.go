package chat

import "regexp"

// Some models leak chain-of-thought wrapped in <think>/<thinking> tags into
// the visible text channel. Those spans never belong in the render view;
// reasoning arrives separately on its own event stream.
var thinkRegex = regexp.MustCompile(`(?is)<think(?:ing)?>.*?</think(?:ing)?>`)

// StripReasoningMarkers removes hidden-reasoning spans from a text delta.
// A delta that consists only of such spans reduces to the empty string.
func StripReasoningMarkers(text string) string {
	if !ContainsReasoningMarker(text) {
		return text
	}
	return thinkRegex.ReplaceAllString(text, "")
}

// ContainsReasoningMarker reports whether the text carries at least one
// complete hidden-reasoning span.
func ContainsReasoningMarker(text string) bool {
	return thinkRegex.MatchString(text)
}
