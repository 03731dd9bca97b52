package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-translator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-translator/internal/app"
)

// QuoteHandler handles quote-related HTTP endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// TransformQuote handles POST /transform_quote.
// Rewrites the quote in the requested style using the text generator.
//
// @Summary Transform a quote
// @Description Rewrites a quote in the given style
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body dto.TransformQuoteRequest true "Quote and style"
// @Success 200 {object} dto.TransformQuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /transform_quote [post]
func (h *QuoteHandler) TransformQuote(c *gin.Context) {
	var req dto.TransformQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleError(c, err)
		return
	}

	text, err := h.service.TransformQuote(c.Request.Context(), req.Quote, req.Style)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransformQuoteResponse{TransformedQuote: text})
}

// RegisterQuoteRoutes registers the versioned quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.POST("/transform", h.TransformQuote)
}
