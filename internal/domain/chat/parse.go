package chat

import (
	"regexp"
	"strings"
)

// Result is a parsed generation reply.
type Result struct {
	Code        string `json:"output"`
	Explanation string `json:"explanation"`
}

// placeholderExplanation is returned when a reply does not follow the
// structured output contract.
const placeholderExplanation = "No explanation provided."

// structuredReply matches the CODE/EXPLANATION output contract. The
// separator must be a line of exactly three dashes; dashes embedded in the
// code itself do not split the reply.
var structuredReply = regexp.MustCompile(`(?is)code:\s*(.*?)\n\s*---\s*\nexplanation:\s*(.*)`)

// ParseReply splits a raw reply into code and explanation. Structured
// replies are split on their markers; anything else is returned whole as
// code with a placeholder explanation.
func ParseReply(raw string) Result {
	if m := structuredReply.FindStringSubmatch(raw); m != nil {
		return Result{
			Code:        strings.TrimSpace(m[1]),
			Explanation: strings.TrimSpace(m[2]),
		}
	}
	return Result{
		Code:        strings.TrimSpace(raw),
		Explanation: placeholderExplanation,
	}
}
