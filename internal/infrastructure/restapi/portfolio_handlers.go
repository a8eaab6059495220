package restapi

import (
	"net/http"

	"portfolio_engine/internal/app/port"
	"portfolio_engine/internal/domain/entity"

	"github.com/gin-gonic/gin"
)

// APIPortfolioResponse is the envelope for the portfolio endpoint.
type APIPortfolioResponse struct {
	Data          *entity.PortfolioSnapshot `json:"data"`
	ServiceErrors []entity.PortfolioError   `json:"service_errors,omitempty"`
	StatusMessage string                    `json:"status_message"`
}

// PortfolioHandler handles HTTP requests for the consolidated portfolio.
type PortfolioHandler struct {
	portfolioService port.PortfolioService
	walletProvider   port.WalletProvider
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(ps port.PortfolioService, wp port.WalletProvider) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: ps,
		walletProvider:   wp,
	}
}

// GetPortfolioHandler returns the consolidated snapshot over every tracked
// wallet. Inside the refresh cooldown this serves the cached snapshot.
func (h *PortfolioHandler) GetPortfolioHandler(c *gin.Context) {
	wallets, err := h.walletProvider.GetWallets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tracked wallet list"})
		return
	}
	if len(wallets) == 0 {
		c.JSON(http.StatusOK, APIPortfolioResponse{
			Data:          &entity.PortfolioSnapshot{},
			StatusMessage: "No wallets are tracked. Check the wallet list configuration.",
		})
		return
	}

	snapshot := h.portfolioService.Aggregate(c.Request.Context(), wallets)

	response := APIPortfolioResponse{
		Data:          snapshot,
		ServiceErrors: snapshot.Errors,
	}
	switch {
	case len(snapshot.Errors) > 0 && len(snapshot.Holdings) == 0:
		response.StatusMessage = "Failed to retrieve any wallet data due to service errors."
	case len(snapshot.Errors) > 0:
		response.StatusMessage = "Portfolio retrieved. Some wallets encountered errors and were excluded."
	default:
		response.StatusMessage = "Portfolio retrieved successfully."
	}
	c.JSON(http.StatusOK, response)
}
