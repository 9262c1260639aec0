package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "Asset"
	AccountTypeLiability AccountType = "Liability"
	AccountTypeEquity    AccountType = "Equity"
	AccountTypeRevenue   AccountType = "Revenue"
	AccountTypeExpense   AccountType = "Expense"
)

type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

var accountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// ParseAccountType accepts the canonical names case-insensitively.
func ParseAccountType(raw string) (AccountType, bool) {
	value := strings.TrimSpace(raw)
	for _, t := range accountTypes {
		if strings.EqualFold(value, string(t)) {
			return t, true
		}
	}
	return "", false
}

func (t AccountType) Valid() bool {
	for _, v := range accountTypes {
		if t == v {
			return true
		}
	}
	return false
}

// NormalBalance is the side on which increases are recorded.
func (t AccountType) NormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

type Account struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	Code            string        `gorm:"type:varchar(32);not null;uniqueIndex:ux_accounts_code" json:"code"`
	Name            string        `gorm:"type:varchar(255);not null" json:"name"`
	Type            AccountType   `gorm:"type:varchar(16);not null" json:"type"`
	ParentAccountID *snowflake.ID `gorm:"index" json:"parent_account_id,omitempty"`
	IsActive        bool          `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }
