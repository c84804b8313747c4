package formula

import "strings"

// labels are stripped from the front of a candidate, first match only.
var labels = []string{"Formula:", "Assistant:", "Result:", "="}

// fences are removed wherever they occur; tagged fences come before the
// bare fence so the language tag goes with it.
var fences = []string{"```javascript", "```js", "```"}

// Normalize reduces raw generated text to a single candidate expression.
// It keeps the first line that has content once code fences are ignored,
// drops one leading label, removes fence markers and trims whitespace.
// Normalize only strips presentation artifacts and is idempotent on its
// own output.
func Normalize(raw string) string {
	line := firstContentLine(raw)

	for _, label := range labels {
		if strings.HasPrefix(line, label) {
			line = strings.TrimSpace(line[len(label):])
			break
		}
	}

	return stripFences(line)
}

func firstContentLine(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if stripFences(line) != "" {
			return line
		}
	}
	return ""
}

func stripFences(s string) string {
	for _, f := range fences {
		s = strings.ReplaceAll(s, f, "")
	}
	return strings.TrimSpace(s)
}
