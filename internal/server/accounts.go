package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/goldbook/internal/account/domain"
)

type createAccountRequest struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	ParentAccountID *string `json:"parent_account_id"`
}

// updateAccountRequest distinguishes an absent parent_account_id from an
// explicit null, which detaches the account from its parent.
type updateAccountRequest struct {
	Code            *string         `json:"code"`
	Name            *string         `json:"name"`
	ParentAccountID optionalIDField `json:"parent_account_id"`
}

func (s *Server) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	parent, err := parseOptionalSnowflakeID(derefString(req.ParentAccountID))
	if err != nil {
		AbortWithError(c, newValidationError("parent_account_id", "invalid_parent_account_id", "invalid parent_account_id"))
		return
	}

	resp, err := s.accountSvc.Create(c.Request.Context(), accountdomain.CreateAccountRequest{
		Code:            strings.TrimSpace(req.Code),
		Name:            strings.TrimSpace(req.Name),
		Type:            strings.TrimSpace(req.Type),
		ParentAccountID: parent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newAccountView(*resp)})
}

func (s *Server) ListAccounts(c *gin.Context) {
	accounts, err := s.accountSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, acc := range accounts {
		views = append(views, newAccountView(acc))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (s *Server) GetAccountByID(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.accountSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newAccountView(*resp)})
}

func (s *Server) UpdateAccount(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := accountdomain.UpdateAccountRequest{
		ID:   id,
		Code: req.Code,
		Name: req.Name,
	}
	if req.ParentAccountID.Set {
		if req.ParentAccountID.Value == nil {
			update.ClearParent = true
		} else {
			parent, err := parseSnowflakeParam(*req.ParentAccountID.Value)
			if err != nil {
				AbortWithError(c, newValidationError("parent_account_id", "invalid_parent_account_id", "invalid parent_account_id"))
				return
			}
			update.ParentAccountID = &parent
		}
	}

	resp, err := s.accountSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newAccountView(*resp)})
}

func (s *Server) DeactivateAccount(c *gin.Context) {
	id, err := parseSnowflakeParam(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	resp, err := s.accountSvc.Deactivate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newAccountView(*resp)})
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
