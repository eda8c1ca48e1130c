// Package inventory holds the item catalog, the player's owned item
// instances, and the acquisition history.
package inventory

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/starcase/internal/game/gameerr"
)

// Item is an immutable catalog entry.
type Item struct {
	ID       string          `yaml:"id" json:"id"`
	Name     string          `yaml:"name" json:"name"`
	ImageRef string          `yaml:"image" json:"image"`
	Value    decimal.Decimal `yaml:"value" json:"value"`
	Rarity   Rarity          `yaml:"rarity" json:"rarity"`
}

// Validate checks that the Item satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (it *Item) Validate() error {
	var errs []error
	if it.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if it.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !it.Value.IsPositive() {
		errs = append(errs, fmt.Errorf("value must be positive, got %s", it.Value))
	}
	if it.Rarity.Rank() < 0 {
		errs = append(errs, fmt.Errorf("unknown rarity %q", it.Rarity))
	}
	if len(errs) > 0 {
		return gameerr.Configf("item %q: %v", it.ID, errors.Join(errs...))
	}
	return nil
}

type itemFile struct {
	Items []*Item `yaml:"items"`
}

// LoadItems parses the YAML file at path and returns its validated items.
//
// Precondition: path names a readable file with a top-level "items" list.
// Postcondition: returns all items or the first encountered error.
func LoadItems(path string) ([]*Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
	}
	var f itemFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
	}
	for _, it := range f.Items {
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("LoadItems: %q: %w", path, err)
		}
	}
	return f.Items, nil
}
