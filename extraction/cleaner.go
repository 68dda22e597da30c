package extraction

import "strings"

// CleanModelResponse normalizes raw model output so it can be parsed as
// JSON: literal code-fence markers are removed wherever they appear and
// surrounding whitespace is trimmed. The prompt tells the model not to emit
// fences, but it does not always comply.
func CleanModelResponse(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
