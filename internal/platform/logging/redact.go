package logging

import (
	"context"
	"log/slog"
	"regexp"
	"slices"

	"github.com/m-mizutani/masq"
)

// sensitiveFields are attribute and struct field names whose values are
// always masked. The Gemini key appears as the x-goog-api-key header and as
// GeneratorConfig.APIKey.
var sensitiveFields = []string{
	"api_key", "apiKey", "apikey", "APIKey",
	"x-goog-api-key", "X-Goog-Api-Key",
	"authorization", "Authorization",
	"password", "secret", "token",
	"access_token", "refresh_token",
	"credential", "credentials",
	"cookie", "session",
}

// sensitivePrefixes mask any field starting with these.
var sensitivePrefixes = []string{"secret", "private"}

// sensitiveValues match credentials regardless of the attribute name.
var sensitiveValues = []*regexp.Regexp{
	// Google API keys.
	regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`),
	// JWTs.
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	// Authorization header schemes.
	regexp.MustCompile(`(?i)^(bearer|basic)\s+.+$`),
}

// DefaultRedactOptions returns the masq options applied to every handler.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(sensitiveFields)+len(sensitivePrefixes)+len(sensitiveValues))

	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}
	for _, prefix := range sensitivePrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}
	for _, re := range sensitiveValues {
		opts = append(opts, masq.WithRegex(re))
	}

	return opts
}

// NewReplaceAttr returns a slog ReplaceAttr func that redacts secrets.
// Extra options extend the defaults.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}

// redactingHandler runs a ReplaceAttr func in front of a handler that has
// no hook for one, such as the charm pretty handler.
type redactingHandler struct {
	next    slog.Handler
	replace func(groups []string, a slog.Attr) slog.Attr
	groups  []string
}

func newRedactingHandler(next slog.Handler, replace func(groups []string, a slog.Attr) slog.Attr) slog.Handler {
	if replace == nil {
		return next
	}

	return &redactingHandler{next: next, replace: replace}
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(h.groups, a))
		return true
	})

	return h.next.Handle(ctx, out)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.redact(h.groups, a)
	}

	return &redactingHandler{next: h.next.WithAttrs(redacted), replace: h.replace, groups: h.groups}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &redactingHandler{
		next:    h.next.WithGroup(name),
		replace: h.replace,
		groups:  append(slices.Clip(h.groups), name),
	}
}

// redact applies replace to a leaf attr, descending into groups.
func (h *redactingHandler) redact(groups []string, a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() != slog.KindGroup {
		return h.replace(groups, a)
	}

	inner := groups
	if a.Key != "" {
		inner = append(slices.Clip(groups), a.Key)
	}

	members := a.Value.Group()
	redacted := make([]slog.Attr, len(members))
	for i, m := range members {
		redacted[i] = h.redact(inner, m)
	}

	return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
}
