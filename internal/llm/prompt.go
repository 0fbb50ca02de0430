package llm

import (
	"strings"
)

const maxPromptText = 12000

// BuildPrompt asks for the flat record Normalize understands. Per-item keys
// must be arrays with one entry per product line, in document order.
func BuildPrompt() string {
	scalars := make([]string, 0, len(scalarFields))
	for _, f := range scalarFields {
		scalars = append(scalars, "'"+f.Key+"'")
	}
	items := make([]string, 0, len(itemFields))
	for _, f := range itemFields {
		items = append(items, "'"+f.Key+"'")
	}

	parts := []string{
		"You are an invoice parser. Return ONLY one JSON object, no commentary and no code fences.",
		"Scalar keys (strings): " + strings.Join(scalars, ", ") + ".",
		"Per-item keys (arrays of strings, one entry per product line, same order and same length): " + strings.Join(items, ", ") + ".",
		"'Party name' is the customer being billed; 'Company name' is the seller.",
		"Write amounts as plain numbers without currency symbols or thousands separators.",
		"'Tax rate' is a percentage number. 'Price with tax' is the line total including its tax.",
		"Use ISO-8601 dates (YYYY-MM-DD) when the date is unambiguous.",
		"If a value is not present use \"unknown\" for text and \"0\" for numbers. Never output null.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt appends the document text, truncated, when the request
// carries no binary document.
func BuildUserPrompt(req GenerateRequest) string {
	var b strings.Builder
	if fn := strings.TrimSpace(req.Filename); fn != "" {
		b.WriteString("Filename: ")
		b.WriteString(fn)
		b.WriteString("\n")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		b.WriteString("The invoice document is attached.\n")
		return b.String()
	}
	b.WriteString("\nInvoice text:\n")
	if len(text) > maxPromptText {
		b.WriteString(text[:maxPromptText])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}
