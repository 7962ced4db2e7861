package stubs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/models"
)

type graphQLRequest struct {
	Query     string `json:"query"`
	Variables struct {
		LoanAmount *float64 `json:"loanAmount"`
		ClientInfo *string  `json:"clientInfo"`
	} `json:"variables"`
}

// RiskProfile answers the riskProfile query: high risk from 20000 upwards.
func RiskProfile(c *gin.Context) {
	var req graphQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"message": "invalid request body"}}})
		return
	}
	if req.Variables.LoanAmount == nil || req.Variables.ClientInfo == nil {
		c.JSON(http.StatusOK, gin.H{
			"data":   nil,
			"errors": []gin.H{{"message": "loanAmount and clientInfo are required"}},
		})
		return
	}

	level := models.RiskAcceptable
	if *req.Variables.LoanAmount >= models.HighRiskThreshold.InexactFloat64() {
		level = models.RiskHigh
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"riskProfile": level}})
}
