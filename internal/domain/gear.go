package domain

import (
	"fmt"
	"strings"
)

// GearKind names one of the four independently upgradeable items.
type GearKind string

const (
	GearPickaxe GearKind = "pickaxe"
	GearHelmet  GearKind = "helmet"
	GearGloves  GearKind = "gloves"
	GearBoots   GearKind = "boots"
)

// GearKinds lists every kind in display order.
var GearKinds = []GearKind{GearPickaxe, GearHelmet, GearGloves, GearBoots}

func ParseGearKind(s string) (GearKind, error) {
	switch k := GearKind(strings.ToLower(strings.TrimSpace(s))); k {
	case GearPickaxe, GearHelmet, GearGloves, GearBoots:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGearKind, s)
}

// Column is the storage column holding the level of this kind.
func (k GearKind) Column() string {
	return string(k) + "_level"
}

// GearSet holds the equipment tiers of one user.
type GearSet struct {
	UserID  int64 `db:"user_id" json:"user_id"`
	Pickaxe int   `db:"pickaxe_level" json:"pickaxe"`
	Helmet  int   `db:"helmet_level" json:"helmet"`
	Gloves  int   `db:"gloves_level" json:"gloves"`
	Boots   int   `db:"boots_level" json:"boots"`
}

func (g *GearSet) Level(k GearKind) int {
	switch k {
	case GearPickaxe:
		return g.Pickaxe
	case GearHelmet:
		return g.Helmet
	case GearGloves:
		return g.Gloves
	case GearBoots:
		return g.Boots
	}
	return 0
}

func (g *GearSet) SetLevel(k GearKind, level int) {
	switch k {
	case GearPickaxe:
		g.Pickaxe = level
	case GearHelmet:
		g.Helmet = level
	case GearGloves:
		g.Gloves = level
	case GearBoots:
		g.Boots = level
	}
}
