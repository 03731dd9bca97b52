package domain

import "fmt"

// MessageQuoteAndStyleRequired is the client-facing message for missing input.
const MessageQuoteAndStyleRequired = "Quote and style are required"

// promptTemplate is the instruction sent to the text generator.
// Both values are inserted verbatim.
const promptTemplate = "Translate the following quote into %s style: '%s'"

// ErrQuoteAndStyleRequired is returned when either field is empty.
var ErrQuoteAndStyleRequired = NewValidationError("", MessageQuoteAndStyleRequired)

// Transformation is a request to restate a quote in a given style.
// It lives for a single request and is never persisted.
type Transformation struct {
	// Quote is the text to restate.
	Quote string

	// Style is a free-form label such as "pirate" or "formal".
	Style string
}

// Validate reports ErrQuoteAndStyleRequired unless both fields are non-empty.
// Whitespace counts as content.
func (t Transformation) Validate() error {
	if t.Quote == "" || t.Style == "" {
		return ErrQuoteAndStyleRequired
	}

	return nil
}

// Prompt builds the natural-language instruction for the generator.
func (t Transformation) Prompt() string {
	return fmt.Sprintf(promptTemplate, t.Style, t.Quote)
}
