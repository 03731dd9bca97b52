// Package acl is the anti-corruption layer between the Gemini REST API and
// the domain.
//
// Wire types (request envelopes, candidates, Google error bodies) stay
// unexported in this package. Callers see only a generated string or a
// domain error:
//
//   - transport failures, an open breaker and every non-2xx status become
//     [domain.ErrUnavailable], with an [*APIError] in the chain when the
//     API returned an error body
//   - a response with no usable candidate text (blocked prompt, empty
//     candidate list, malformed JSON) is also [domain.ErrUnavailable]
//
// No downstream status is ever turned into a client input error: a 400 from
// the API is a failure of this service, not of the caller.
package acl
