package inventory

import (
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
)

// Rarity is an item's value band.
type Rarity string

const (
	Common    Rarity = "common"
	Rare      Rarity = "rare"
	Epic      Rarity = "epic"
	Legendary Rarity = "legendary"
)

// Rarities lists every rarity from lowest to highest.
var Rarities = []Rarity{Common, Rare, Epic, Legendary}

// ParseRarity resolves a rarity name.
//
// Postcondition: returns a configuration error for unknown names.
func ParseRarity(s string) (Rarity, error) {
	for _, r := range Rarities {
		if string(r) == s {
			return r, nil
		}
	}
	return "", gameerr.Configf("unknown rarity %q", s)
}

// Rank returns the position of r in Rarities, or -1 when r is unknown.
func (r Rarity) Rank() int {
	for i, x := range Rarities {
		if x == r {
			return i
		}
	}
	return -1
}
