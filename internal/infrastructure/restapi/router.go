package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures and returns the Gin router.
func SetupRouter(priceHandler *PriceHandler, portfolioHandler *PortfolioHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/prices/alph", priceHandler.GetAlphPriceHandler)
		v1.GET("/prices/:tokenId", priceHandler.GetTokenPriceHandler)
		v1.POST("/prices/query", priceHandler.QueryPricesHandler)
		v1.GET("/portfolio", portfolioHandler.GetPortfolioHandler)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
