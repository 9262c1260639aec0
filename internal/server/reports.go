package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetTrialBalance(c *gin.Context) {
	asOf, err := parseOptionalDate(c.Query("as_of"))
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "invalid as_of"))
		return
	}

	resp, err := s.reportSvc.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newTrialBalanceView(*resp)})
}

func (s *Server) GetProfitLoss(c *gin.Context) {
	start, err := parseOptionalDate(c.Query("start_date"))
	if err != nil || start == nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "start_date is required"))
		return
	}
	end, err := parseOptionalDate(c.Query("end_date"))
	if err != nil || end == nil {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "end_date is required"))
		return
	}

	resp, err := s.reportSvc.ProfitLoss(c.Request.Context(), *start, *end)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newProfitLossView(*resp)})
}

func (s *Server) GetBalanceSheet(c *gin.Context) {
	asOf, err := parseOptionalDate(c.Query("as_of"))
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "invalid as_of"))
		return
	}

	resp, err := s.reportSvc.BalanceSheet(c.Request.Context(), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newBalanceSheetView(*resp)})
}

func (s *Server) GetAccountsPayable(c *gin.Context) {
	resp, err := s.reportSvc.AccountsPayable(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newCounterpartyReportView(*resp)})
}

func (s *Server) GetAccountsReceivable(c *gin.Context) {
	resp, err := s.reportSvc.AccountsReceivable(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newCounterpartyReportView(*resp)})
}
