package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/handlers"
	"github.com/akylbek/loan-system/loan-orchestrator/internal/telemetry"
)

func NewRouter(loans handlers.LoanService, callbacks handlers.CallbackService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "loan-orchestrator"})
	})

	// Loan routes
	loanHandler := handlers.NewLoanHandler(loans)
	callbackHandler := handlers.NewCallbackHandler(callbacks)

	r.POST("/loan", loanHandler.SubmitLoan)
	r.GET("/loan/:id/status", loanHandler.GetStatus)
	r.GET("/loan/:id/history", loanHandler.GetHistory)
	r.POST("/loan/:id/cheque", loanHandler.UploadCheque)
	r.POST("/loan/:id/sync", callbackHandler.SyncFromBank)

	// Bank callbacks
	r.POST("/callback", callbackHandler.ReceiveVerdict)

	return r
}
