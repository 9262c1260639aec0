package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idPtr(id snowflake.ID) *snowflake.ID { return &id }

func sampleChart() *Chart {
	return NewChart([]Account{
		{ID: 1, Code: "1000", Name: "Assets", Type: AccountTypeAsset},
		{ID: 2, Code: "1100", Name: "Cash", Type: AccountTypeAsset, ParentAccountID: idPtr(1)},
		{ID: 3, Code: "1110", Name: "Petty Cash", Type: AccountTypeAsset, ParentAccountID: idPtr(2)},
		{ID: 4, Code: "1200", Name: "Bank", Type: AccountTypeAsset, ParentAccountID: idPtr(1)},
		{ID: 5, Code: "4000", Name: "Sales", Type: AccountTypeRevenue},
	})
}

func TestChartAncestors(t *testing.T) {
	chart := sampleChart()

	ancestors, ok := chart.Ancestors(3)
	require.True(t, ok)
	assert.Equal(t, []snowflake.ID{2, 1}, ancestors)

	ancestors, ok = chart.Ancestors(5)
	assert.True(t, ok)
	assert.Empty(t, ancestors)
}

func TestChartWouldCycle(t *testing.T) {
	chart := sampleChart()

	assert.True(t, chart.WouldCycle(1, 1), "self parent")
	assert.True(t, chart.WouldCycle(1, 3), "grandchild as parent")
	assert.True(t, chart.WouldCycle(2, 3), "child as parent")
	assert.False(t, chart.WouldCycle(3, 4))
	assert.False(t, chart.WouldCycle(5, 1))
}

func TestChartAncestorsTerminatesOnCorruptLoop(t *testing.T) {
	chart := NewChart([]Account{
		{ID: 1, Code: "A", ParentAccountID: idPtr(2)},
		{ID: 2, Code: "B", ParentAccountID: idPtr(1)},
		{ID: 3, Code: "C"},
	})

	_, ok := chart.Ancestors(1)
	assert.False(t, ok)
	assert.True(t, chart.WouldCycle(3, 1))
	assert.ElementsMatch(t, []snowflake.ID{2}, chart.Descendants(1))
}

func TestChartDescendantsAndOrder(t *testing.T) {
	chart := sampleChart()

	assert.Equal(t, []snowflake.ID{2, 4, 3}, chart.Descendants(1))
	assert.Equal(t, []snowflake.ID{2, 3}, chart.Subtree(2))
	assert.Empty(t, chart.Descendants(5))

	codes := make([]string, 0, chart.Len())
	for _, acc := range chart.Accounts() {
		codes = append(codes, acc.Code)
	}
	assert.Equal(t, []string{"1000", "1100", "1110", "1200", "4000"}, codes)

	acc, ok := chart.FindByCode("1200")
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(4), acc.ID)
}

func TestAccountTypes(t *testing.T) {
	parsed, ok := ParseAccountType(" expense ")
	require.True(t, ok)
	assert.Equal(t, AccountTypeExpense, parsed)

	_, ok = ParseAccountType("Income")
	assert.False(t, ok)

	assert.Equal(t, NormalBalanceDebit, AccountTypeAsset.NormalBalance())
	assert.Equal(t, NormalBalanceDebit, AccountTypeExpense.NormalBalance())
	assert.Equal(t, NormalBalanceCredit, AccountTypeLiability.NormalBalance())
	assert.Equal(t, NormalBalanceCredit, AccountTypeEquity.NormalBalance())
	assert.Equal(t, NormalBalanceCredit, AccountTypeRevenue.NormalBalance())

	assert.True(t, AccountTypeRevenue.Valid())
	assert.False(t, AccountType("revenue").Valid())
}
