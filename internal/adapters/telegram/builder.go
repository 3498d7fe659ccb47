package telegram

import (
	"RetailPulse/internal/core/ports"
	"strings"
)

// markdownV2Special lists the characters Telegram requires escaping in MarkdownV2.
const markdownV2Special = "_*[]()~`>#+-=|{}.!\\"

// Builder helps construct SendMessageParams.
type Builder struct {
	params ports.SendMessageParams
}

// NewBuilder creates a new message builder.
func NewBuilder(chatID int64) *Builder {
	return &Builder{
		params: ports.SendMessageParams{
			ChatID:    chatID,
			ParseMode: "MarkdownV2", // Default to Markdown
		},
	}
}

// WithText sets the message text. The caller is responsible for escaping.
func (b *Builder) WithText(text string) *Builder {
	b.params.Text = text
	return b
}

// Build returns the final params.
func (b *Builder) Build() ports.SendMessageParams {
	return b.params
}

// EscapeMarkdownV2 escapes user-controlled text such as product names.
func EscapeMarkdownV2(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Special, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
