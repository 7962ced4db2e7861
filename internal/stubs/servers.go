package stubs

import (
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"github.com/akylbek/loan-system/loan-orchestrator/internal/adapters/amountcheck"
)

func NewCeilingServer(ceiling float64) *grpc.Server {
	s := grpc.NewServer(grpc.ForceServerCodec(amountcheck.Codec{}))
	amountcheck.RegisterCeilingServer(s, CeilingService{Ceiling: ceiling})
	return s
}

func NewRiskRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/graphql", RiskProfile)
	return r
}

func NewBankRouter(bank *Bank) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/soap", bank.Handle)
	return r
}

func NewFundRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", Health)
	r.POST("/fundTransfers", CreateFundTransfer)
	r.GET("/fundTransfers/:id/status", FundTransferStatus)
	return r
}
