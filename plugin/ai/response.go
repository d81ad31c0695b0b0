package ai

import "strings"

// StripCodeFence removes a surrounding markdown code block (```json ... ```)
// that models often wrap around JSON answers.
func StripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```JSON")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
