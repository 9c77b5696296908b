package reward

import (
	"fmt"
	"sort"
	"strings"

	"mine_economy/internal/domain"
)

// Case is a purchasable loot case: pay Cost gold, receive one draw from Rewards.
type Case struct {
	ID      string `json:"id"`
	Cost    int64  `json:"cost"`
	Rewards Table  `json:"rewards"`
}

// Catalog is an immutable set of cases keyed by id.
type Catalog struct {
	cases map[string]Case
	order []string
}

// NewCatalog validates every case and builds a catalog.
func NewCatalog(cases ...Case) (*Catalog, error) {
	c := &Catalog{cases: make(map[string]Case, len(cases))}
	for _, cs := range cases {
		if cs.ID == "" {
			return nil, fmt.Errorf("%w: case without id", domain.ErrInvalidRewardTable)
		}
		if cs.Cost <= 0 {
			return nil, fmt.Errorf("%w: case %q has cost %d", domain.ErrInvalidRewardTable, cs.ID, cs.Cost)
		}
		if err := cs.Rewards.Validate(); err != nil {
			return nil, fmt.Errorf("case %q: %w", cs.ID, err)
		}
		if _, dup := c.cases[cs.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate case %q", domain.ErrInvalidRewardTable, cs.ID)
		}
		rewards := make(Table, len(cs.Rewards))
		copy(rewards, cs.Rewards)
		cs.Rewards = rewards
		c.cases[cs.ID] = cs
		c.order = append(c.order, cs.ID)
	}
	sort.SliceStable(c.order, func(i, j int) bool {
		return c.cases[c.order[i]].Cost < c.cases[c.order[j]].Cost
	})
	return c, nil
}

// DefaultCatalog returns the stock common, rare and legendary cases.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Case{ID: "common", Cost: 50, Rewards: Table{{10, 0.5}, {20, 0.3}, {30, 0.2}}},
		Case{ID: "rare", Cost: 100, Rewards: Table{{50, 0.4}, {100, 0.3}, {150, 0.2}, {200, 0.1}}},
		Case{ID: "legendary", Cost: 200, Rewards: Table{{100, 0.3}, {200, 0.2}, {300, 0.3}, {500, 0.2}}},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the case with the given id. Ids with a "_case" suffix
// (common_case, rare_case) resolve to the bare id.
func (c *Catalog) Lookup(id string) (Case, error) {
	cs, ok := c.cases[id]
	if !ok {
		cs, ok = c.cases[strings.TrimSuffix(id, "_case")]
	}
	if !ok {
		return Case{}, fmt.Errorf("%w: %q", domain.ErrUnknownCase, id)
	}
	return cs, nil
}

// List returns all cases, cheapest first.
func (c *Catalog) List() []Case {
	out := make([]Case, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cases[id])
	}
	return out
}
