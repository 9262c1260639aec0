package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	journaldomain "github.com/smallbiznis/goldbook/internal/journal/domain"
)

// moneyMovementRequest carries a signed amount: positive for money received,
// negative for money paid out.
type moneyMovementRequest struct {
	AccountID        string          `json:"account_id"`
	CounterAccountID string          `json:"counter_account_id"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
	TransactionDate  string          `json:"transaction_date"`
	ReferenceNumber  *string         `json:"reference_number"`
	CounterpartyType string          `json:"counterparty_type"`
	CounterpartyID   *int64          `json:"counterparty_id"`
}

type recordMovementFunc func(ctx context.Context, req journaldomain.MoneyMovementRequest) (*journaldomain.JournalEntry, error)

func (s *Server) RecordCashTransaction(c *gin.Context) {
	s.recordMovement(c, s.journalSvc.RecordCashTransaction)
}

func (s *Server) RecordBankTransaction(c *gin.Context) {
	s.recordMovement(c, s.journalSvc.RecordBankTransaction)
}

func (s *Server) recordMovement(c *gin.Context, record recordMovementFunc) {
	var req moneyMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	accountID, err := parseOptionalSnowflakeID(req.AccountID)
	if err != nil {
		AbortWithError(c, newValidationError("account_id", "invalid_money_account", "invalid account_id"))
		return
	}
	counterID, err := parseSnowflakeParam(req.CounterAccountID)
	if err != nil {
		AbortWithError(c, newValidationError("counter_account_id", "invalid_counter_account", "invalid counter_account_id"))
		return
	}
	date, err := parseOptionalDate(req.TransactionDate)
	if err != nil || date == nil {
		AbortWithError(c, newValidationError("transaction_date", "invalid_entry_date", "transaction_date must be a date"))
		return
	}

	movement := journaldomain.MoneyMovementRequest{
		CounterAccountID: counterID,
		Amount:           req.Amount,
		Description:      req.Description,
		TransactionDate:  *date,
		ReferenceNumber:  req.ReferenceNumber,
		CounterpartyType: strings.TrimSpace(req.CounterpartyType),
		CounterpartyID:   req.CounterpartyID,
	}
	if accountID != nil {
		movement.AccountID = *accountID
	}

	resp, err := record(c.Request.Context(), movement)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newJournalEntryView(*resp)})
}
