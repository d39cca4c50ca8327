package usecase

import "regexp"

// fencedResponse matches a fenced block that closes at the end of the reply.
// An optional language tag follows the opening fence and the body starts on
// the next line, so an inline ```span``` is never taken for a block. A single
// trailing newline after the closing fence is tolerated; any other trailing
// text is not a match.
var fencedResponse = regexp.MustCompile("(?s)```[\\w+#.-]*(\\n.*?)```\\n?\\z")

// extract returns the body of the closing fenced block, or text unchanged
// when the model followed the instruction to omit fences.
func extract(text string) string {
	code, _ := extractCode(text)
	return code
}

func extractCode(text string) (string, bool) {
	m := fencedResponse.FindStringSubmatch(text)
	if m == nil {
		return text, false
	}
	return m[1], true
}
