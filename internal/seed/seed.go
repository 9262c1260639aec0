package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/goldbook/internal/account/domain"
	"github.com/smallbiznis/goldbook/internal/clock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type chartAccount struct {
	Code       string
	Name       string
	Type       accountdomain.AccountType
	ParentCode string
}

// defaultChart is the starting chart for a jewelry shop. Parents come
// before their children.
var defaultChart = []chartAccount{
	{"1000", "Cash on Hand", accountdomain.AccountTypeAsset, ""},
	{"1100", "Bank", accountdomain.AccountTypeAsset, ""},
	{"1200", "Accounts Receivable", accountdomain.AccountTypeAsset, ""},
	{"1300", "Inventory", accountdomain.AccountTypeAsset, ""},
	{"1310", "Gold Inventory", accountdomain.AccountTypeAsset, "1300"},
	{"1320", "Silver Inventory", accountdomain.AccountTypeAsset, "1300"},
	{"1330", "Gemstone Inventory", accountdomain.AccountTypeAsset, "1300"},
	{"1500", "Shop Equipment and Fixtures", accountdomain.AccountTypeAsset, ""},

	{"2000", "Accounts Payable", accountdomain.AccountTypeLiability, ""},
	{"2100", "Customer Deposits", accountdomain.AccountTypeLiability, ""},
	{"2200", "Tax Payable", accountdomain.AccountTypeLiability, ""},

	{"3000", "Owner Capital", accountdomain.AccountTypeEquity, ""},
	{"3100", "Retained Earnings", accountdomain.AccountTypeEquity, ""},

	{"4000", "Sales Revenue", accountdomain.AccountTypeRevenue, ""},
	{"4100", "Jewelry Sales", accountdomain.AccountTypeRevenue, "4000"},
	{"4200", "Repair and Custom Work", accountdomain.AccountTypeRevenue, "4000"},

	{"5000", "Cost of Goods Sold", accountdomain.AccountTypeExpense, ""},
	{"6000", "Operating Expenses", accountdomain.AccountTypeExpense, ""},
	{"6100", "Rent", accountdomain.AccountTypeExpense, "6000"},
	{"6200", "Salaries", accountdomain.AccountTypeExpense, "6000"},
	{"6300", "Utilities", accountdomain.AccountTypeExpense, "6000"},
}

// EnsureDefaultChart inserts the default accounts whose codes are not in
// use yet and returns how many it created. Existing accounts are never
// modified.
func EnsureDefaultChart(db *gorm.DB, node *snowflake.Node, clk clock.Clock) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}
	if node == nil {
		return 0, errors.New("seed id generator is required")
	}
	if clk == nil {
		clk = clock.New()
	}

	created := 0
	ctx := context.Background()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]snowflake.ID, len(defaultChart))
		for _, a := range defaultChart {
			now := clk.Now().UTC()
			account := accountdomain.Account{
				ID:        node.Generate(),
				Code:      a.Code,
				Name:      a.Name,
				Type:      a.Type,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if a.ParentCode != "" {
				if parentID, ok := ids[a.ParentCode]; ok {
					account.ParentAccountID = &parentID
				}
			}

			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoNothing: true,
			}).Create(&account)
			if res.Error != nil {
				return res.Error
			}
			created += int(res.RowsAffected)

			var stored accountdomain.Account
			if err := tx.Where("code = ?", a.Code).Take(&stored).Error; err != nil {
				return err
			}
			ids[a.Code] = stored.ID
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
