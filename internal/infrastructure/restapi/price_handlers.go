package restapi

import (
	"net/http"

	"portfolio_engine/internal/app/port"
	"portfolio_engine/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// APIPriceResponse is the envelope for single-price endpoints.
type APIPriceResponse struct {
	Data          entity.TokenPrice `json:"data"`
	StatusMessage string            `json:"status_message"`
}

// APIPriceQueryRequest is the body of the batch price endpoint.
type APIPriceQueryRequest struct {
	TokenIDs []string `json:"tokenIds" binding:"required,min=1"`
}

// APIPriceQueryResponse is the envelope for the batch price endpoint.
type APIPriceQueryResponse struct {
	Data          map[string]entity.TokenPrice `json:"data"`
	StatusMessage string                       `json:"status_message"`
}

// PriceHandler handles HTTP requests for token prices.
type PriceHandler struct {
	priceService port.PriceService
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(ps port.PriceService) *PriceHandler {
	return &PriceHandler{priceService: ps}
}

// GetAlphPriceHandler returns the native coin price.
func (h *PriceHandler) GetAlphPriceHandler(c *gin.Context) {
	price := h.priceService.GetTokenPrice(c.Request.Context(), entity.AlphTokenID)
	c.JSON(http.StatusOK, APIPriceResponse{
		Data:          price,
		StatusMessage: statusForPrice(price),
	})
}

// GetTokenPriceHandler returns the price for one token id. Resolution never
// fails outright; degraded answers are flagged by source and confidence.
func (h *PriceHandler) GetTokenPriceHandler(c *gin.Context) {
	tokenID := c.Param("tokenId")
	price := h.priceService.GetTokenPrice(c.Request.Context(), tokenID)
	c.JSON(http.StatusOK, APIPriceResponse{
		Data:          price,
		StatusMessage: statusForPrice(price),
	})
}

// QueryPricesHandler resolves a batch of token ids in one call.
func (h *PriceHandler) QueryPricesHandler(c *gin.Context) {
	var req APIPriceQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must carry a non-empty tokenIds array"})
		return
	}

	prices := h.priceService.GetMultipleTokenPrices(c.Request.Context(), req.TokenIDs)

	estimated := 0
	for _, p := range prices {
		if p.Source == entity.SourceEstimate {
			estimated++
		}
	}
	message := "Prices resolved successfully."
	if estimated > 0 {
		message = "Prices resolved. Some tokens had no upstream data and carry zero-price estimates."
	}
	c.JSON(http.StatusOK, APIPriceQueryResponse{
		Data:          prices,
		StatusMessage: message,
	})
}

func statusForPrice(price entity.TokenPrice) string {
	if price.Source == entity.SourceEstimate {
		return "No upstream price data; zero-price estimate returned."
	}
	if price.Confidence == entity.ConfidenceLow {
		return "Upstream providers unavailable; stale cached price returned."
	}
	return "Price resolved successfully."
}
