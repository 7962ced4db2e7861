package stubs

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fundRequest struct {
	LoanAmount json.Number `json:"loan_amount"`
	ClientID   string      `json:"client_id"`
}

func CreateFundTransfer(c *gin.Context) {
	var req fundRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LoanAmount == "" || req.ClientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "message": "loan_amount and client_id are required"})
		return
	}

	id := uuid.NewString()
	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Fonds de %s transférés pour le client %s", req.LoanAmount, req.ClientID),
		"links": gin.H{
			"self":   "/fundTransfers/" + id,
			"status": "/fundTransfers/" + id + "/status",
		},
	})
}

func FundTransferStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": "completed"})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
