package dto

import "github.com/jsamuelsen/quote-translator/internal/domain"

// TransformQuoteRequest is the body of POST /transform_quote.
// Both fields are required and must be JSON strings; values are used verbatim.
type TransformQuoteRequest struct {
	Quote string `json:"quote" validate:"required"`
	Style string `json:"style" validate:"required"`
}

// ToDomain converts the request to the domain value.
func (r TransformQuoteRequest) ToDomain() domain.Transformation {
	return domain.Transformation{Quote: r.Quote, Style: r.Style}
}

// TransformQuoteResponse is the success body of POST /transform_quote.
type TransformQuoteResponse struct {
	TransformedQuote string `json:"transformed_quote"`
}
