package ai

import (
	"strings"

	"github.com/zhouzirui/yoda-bot/backend/internal/model/persona"
)

// BuildPrompt wraps the user's text in the role tags the model was tuned on.
func BuildPrompt(format persona.PromptFormat, userText string) string {
	var b strings.Builder
	b.WriteString(format.StartToken)
	b.WriteString(format.UserTag)
	b.WriteString(" ")
	b.WriteString(userText)
	b.WriteString(format.SepToken)
	b.WriteString(format.AssistantTag)
	return b.String()
}

// ExtractReply keeps the text after the last assistant tag, cut at the first
// end-of-text marker and trimmed.
func ExtractReply(raw string, format persona.PromptFormat) string {
	var markers []string
	for _, m := range []string{format.StartToken, format.SepToken} {
		if m != "" {
			markers = append(markers, m, "")
		}
	}
	text := raw
	if len(markers) > 0 {
		text = strings.NewReplacer(markers...).Replace(text)
	}

	if tag := format.AssistantTag; tag != "" {
		if idx := strings.LastIndex(text, tag); idx >= 0 {
			text = text[idx+len(tag):]
		}
	}
	text = strings.TrimSpace(text)

	if eos := format.EndToken; eos != "" {
		if idx := strings.Index(text, eos); idx >= 0 {
			text = strings.TrimSpace(text[:idx])
		}
	}
	return text
}
