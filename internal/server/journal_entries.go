package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	journaldomain "github.com/smallbiznis/goldbook/internal/journal/domain"
	"github.com/smallbiznis/goldbook/pkg/db/pagination"
)

type createJournalEntryRequest struct {
	EntryDate       string                          `json:"entry_date"`
	ReferenceNumber *string                         `json:"reference_number"`
	Description     string                          `json:"description"`
	Lines           []createJournalEntryLineRequest `json:"lines"`
}

type createJournalEntryLineRequest struct {
	AccountID        string          `json:"account_id"`
	DebitAmount      decimal.Decimal `json:"debit_amount"`
	CreditAmount     decimal.Decimal `json:"credit_amount"`
	Description      *string         `json:"description"`
	CounterpartyType string          `json:"counterparty_type"`
	CounterpartyID   *int64          `json:"counterparty_id"`
}

func (s *Server) CreateJournalEntry(c *gin.Context) {
	var req createJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	entryDate, err := parseOptionalDate(req.EntryDate)
	if err != nil || entryDate == nil {
		AbortWithError(c, newValidationError("entry_date", "invalid_entry_date", "entry_date must be a date"))
		return
	}

	lines := make([]journaldomain.CreateJournalEntryLineRequest, 0, len(req.Lines))
	for _, line := range req.Lines {
		accountID, err := parseSnowflakeParam(line.AccountID)
		if err != nil {
			AbortWithError(c, newValidationError("lines", "unknown_account", "line account_id is invalid"))
			return
		}
		lines = append(lines, journaldomain.CreateJournalEntryLineRequest{
			AccountID:        accountID,
			DebitAmount:      line.DebitAmount,
			CreditAmount:     line.CreditAmount,
			Description:      line.Description,
			CounterpartyType: strings.TrimSpace(line.CounterpartyType),
			CounterpartyID:   line.CounterpartyID,
		})
	}

	resp, err := s.journalSvc.Create(c.Request.Context(), journaldomain.CreateJournalEntryRequest{
		EntryDate:       *entryDate,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
		Source:          journaldomain.SourceManual,
		Lines:           lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newJournalEntryView(*resp)})
}

func (s *Server) ListJournalEntries(c *gin.Context) {
	var query struct {
		pagination.Pagination
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, err := parseOptionalDate(query.From)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalDate(query.To)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.journalSvc.List(c.Request.Context(), journaldomain.ListJournalEntryRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		From: from,
		To:   to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]journalEntryView, 0, len(resp.JournalEntries))
	for _, entry := range resp.JournalEntries {
		views = append(views, newJournalEntryView(entry))
	}
	c.JSON(http.StatusOK, gin.H{"data": views, "page_info": resp.PageInfo})
}

func (s *Server) GetJournalEntryByID(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.journalSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newJournalEntryView(*resp)})
}

func (s *Server) GetJournalEntryLines(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	lines, err := s.journalSvc.GetLines(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]journalLineView, 0, len(lines))
	for _, line := range lines {
		views = append(views, newJournalLineView(line))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}
