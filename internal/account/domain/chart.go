package domain

import (
	"sort"

	"github.com/bwmarrin/snowflake"
)

// Chart is an in-memory snapshot of the chart of accounts keyed by id.
// Parent links are plain ids, so traversals never follow pointers and
// every upward walk is bounded by the number of accounts.
type Chart struct {
	accounts map[snowflake.ID]Account
	children map[snowflake.ID][]snowflake.ID
	order    []snowflake.ID
}

func NewChart(accounts []Account) *Chart {
	c := &Chart{
		accounts: make(map[snowflake.ID]Account, len(accounts)),
		children: make(map[snowflake.ID][]snowflake.ID),
		order:    make([]snowflake.ID, 0, len(accounts)),
	}
	for _, acc := range accounts {
		if _, dup := c.accounts[acc.ID]; dup {
			continue
		}
		c.accounts[acc.ID] = acc
		c.order = append(c.order, acc.ID)
	}
	sort.SliceStable(c.order, func(i, j int) bool {
		return c.accounts[c.order[i]].Code < c.accounts[c.order[j]].Code
	})
	for _, id := range c.order {
		acc := c.accounts[id]
		if acc.ParentAccountID != nil {
			c.children[*acc.ParentAccountID] = append(c.children[*acc.ParentAccountID], id)
		}
	}
	return c
}

func (c *Chart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.accounts)
}

func (c *Chart) Get(id snowflake.ID) (Account, bool) {
	if c == nil {
		return Account{}, false
	}
	acc, ok := c.accounts[id]
	return acc, ok
}

// FindByCode returns the account with the given code.
func (c *Chart) FindByCode(code string) (Account, bool) {
	if c == nil {
		return Account{}, false
	}
	for _, id := range c.order {
		if acc := c.accounts[id]; acc.Code == code {
			return acc, true
		}
	}
	return Account{}, false
}

// Accounts returns every account ordered by code.
func (c *Chart) Accounts() []Account {
	if c == nil {
		return nil
	}
	out := make([]Account, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.accounts[id])
	}
	return out
}

// Ancestors lists parent, grandparent, ... of id. The walk stops after
// Len() steps so a corrupted parent loop cannot hang the caller; in that
// case ok is false.
func (c *Chart) Ancestors(id snowflake.ID) (ancestors []snowflake.ID, ok bool) {
	acc, found := c.Get(id)
	if !found {
		return nil, true
	}
	for steps := 0; acc.ParentAccountID != nil; steps++ {
		if steps >= c.Len() {
			return ancestors, false
		}
		parentID := *acc.ParentAccountID
		ancestors = append(ancestors, parentID)
		acc, found = c.Get(parentID)
		if !found {
			break
		}
	}
	return ancestors, true
}

// WouldCycle reports whether making parentID the parent of id would put id
// among its own ancestors.
func (c *Chart) WouldCycle(id, parentID snowflake.ID) bool {
	if id == parentID {
		return true
	}
	ancestors, ok := c.Ancestors(parentID)
	if !ok {
		return true
	}
	for _, ancestor := range ancestors {
		if ancestor == id {
			return true
		}
	}
	return false
}

// Children returns the direct children of id ordered by code.
func (c *Chart) Children(id snowflake.ID) []snowflake.ID {
	if c == nil {
		return nil
	}
	return append([]snowflake.ID(nil), c.children[id]...)
}

// Descendants returns every account below id, breadth first.
func (c *Chart) Descendants(id snowflake.ID) []snowflake.ID {
	if c == nil {
		return nil
	}
	seen := map[snowflake.ID]struct{}{id: {}}
	queue := c.Children(id)
	out := make([]snowflake.ID, 0, len(queue))
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if _, visited := seen[next]; visited {
			continue
		}
		seen[next] = struct{}{}
		out = append(out, next)
		queue = append(queue, c.children[next]...)
	}
	return out
}

// Subtree returns id followed by its descendants.
func (c *Chart) Subtree(id snowflake.ID) []snowflake.ID {
	return append([]snowflake.ID{id}, c.Descendants(id)...)
}
