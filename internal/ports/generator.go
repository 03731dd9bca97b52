// Package ports declares what the application needs from the outside world.
// Adapters under internal/adapters implement these interfaces; the app
// package only sees them.
package ports

import "context"

// TextGenerator turns one prompt into text with a generative-language
// model.
//
// Every failure, whether transport, credentials, quota, a blocked or empty
// candidate list, or an undecodable body, comes back wrapping
// domain.ErrUnavailable. Implementations honour ctx and do not retry on
// their own.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
