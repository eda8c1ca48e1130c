// Package shop holds purchasable offers priced in stars or gems.
package shop

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/starcase/internal/game/economy"
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
)

// Currency is what an offer is priced in.
type Currency string

const (
	Stars Currency = "stars"
	Gems  Currency = "gems"
)

// Grant is what a purchase delivers. Any combination may be set.
type Grant struct {
	Stars decimal.Decimal `yaml:"stars" json:"stars,omitzero"`
	Gems  int64           `yaml:"gems" json:"gems,omitempty"`
	Item  string          `yaml:"item" json:"item,omitempty"`
}

// Offer is one shop listing.
type Offer struct {
	ID       string          `yaml:"id" json:"id"`
	Name     string          `yaml:"name" json:"name"`
	Currency Currency        `yaml:"currency" json:"currency"`
	Price    decimal.Decimal `yaml:"price" json:"price"`
	Grants   Grant           `yaml:"grants" json:"grants"`
}

// Validate checks the offer against catalog.
func (o *Offer) Validate(catalog *inventory.Catalog) error {
	var errs []error
	if o.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	switch o.Currency {
	case Stars:
	case Gems:
		if !o.Price.Equal(o.Price.Truncate(0)) {
			errs = append(errs, fmt.Errorf("gem price must be whole, got %s", o.Price))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown currency %q", o.Currency))
	}
	if !o.Price.IsPositive() {
		errs = append(errs, fmt.Errorf("price must be positive, got %s", o.Price))
	}
	if o.Grants.Stars.IsNegative() || o.Grants.Gems < 0 {
		errs = append(errs, errors.New("grants must not be negative"))
	}
	if o.Grants.Stars.IsZero() && o.Grants.Gems == 0 && o.Grants.Item == "" {
		errs = append(errs, errors.New("offer grants nothing"))
	}
	if o.Grants.Item != "" {
		if _, ok := catalog.Item(o.Grants.Item); !ok {
			errs = append(errs, fmt.Errorf("unknown item %q", o.Grants.Item))
		}
	}
	if len(errs) > 0 {
		return gameerr.Configf("shop offer %q: %v", o.ID, errors.Join(errs...))
	}
	return nil
}

// Purchase records a completed buy.
type Purchase struct {
	OfferID string    `json:"offer_id"`
	At      time.Time `json:"at"`
}

// Receipt describes what a Buy changed.
type Receipt struct {
	Offer *Offer           `json:"offer"`
	Item  *inventory.Entry `json:"item,omitempty"`
}

// Catalog is the set of offers in declared order.
type Catalog struct {
	offers []*Offer
	byID   map[string]*Offer
	items  *inventory.Catalog
}

// NewCatalog validates offers against items.
func NewCatalog(items *inventory.Catalog, offers ...*Offer) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Offer, len(offers)), items: items}
	for _, o := range offers {
		if err := o.Validate(items); err != nil {
			return nil, err
		}
		if _, dup := c.byID[o.ID]; dup {
			return nil, gameerr.Configf("duplicate shop offer %q", o.ID)
		}
		c.byID[o.ID] = o
		c.offers = append(c.offers, o)
	}
	return c, nil
}

// Offers returns every offer in declared order.
func (c *Catalog) Offers() []*Offer { return c.offers }

// Offer looks up an offer by id.
func (c *Catalog) Offer(id string) (*Offer, error) {
	o, ok := c.byID[id]
	if !ok {
		return nil, gameerr.Validationf(gameerr.ErrUnknownItem, "shop offer %q", id)
	}
	return o, nil
}

// Buy charges the offer's price to ledger and delivers its grants.
//
// Postcondition: on error nothing is charged or delivered.
func (c *Catalog) Buy(id string, ledger *economy.Ledger, inv *inventory.Inventory, at time.Time) (Receipt, error) {
	o, err := c.Offer(id)
	if err != nil {
		return Receipt{}, err
	}
	var item *inventory.Item
	if o.Grants.Item != "" {
		var ok bool
		if item, ok = c.items.Item(o.Grants.Item); !ok {
			return Receipt{}, gameerr.Configf("offer %q grants unknown item %q", id, o.Grants.Item)
		}
	}

	if err := charge(o, ledger); err != nil {
		return Receipt{}, fmt.Errorf("buying %q: %w", id, err)
	}
	if err := deliver(o.Grants, ledger); err != nil {
		if rerr := refund(o, ledger); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return Receipt{}, fmt.Errorf("delivering %q: %w", id, err)
	}
	r := Receipt{Offer: o}
	if item != nil {
		e := inv.Add(item, at)
		r.Item = &e
	}
	return r, nil
}

func charge(o *Offer, ledger *economy.Ledger) error {
	if o.Currency == Gems {
		return ledger.DebitGems(o.Price.IntPart())
	}
	return ledger.Debit(o.Price)
}

func refund(o *Offer, ledger *economy.Ledger) error {
	if o.Currency == Gems {
		return ledger.CreditGems(o.Price.IntPart())
	}
	return ledger.Credit(o.Price)
}

// deliver credits the currency grants. On error nothing was credited.
func deliver(g Grant, ledger *economy.Ledger) error {
	if g.Gems != 0 {
		if err := ledger.CreditGems(g.Gems); err != nil {
			return err
		}
	}
	if g.Stars.IsZero() {
		return nil
	}
	if err := ledger.Credit(g.Stars); err != nil {
		if g.Gems != 0 {
			if rerr := ledger.DebitGems(g.Gems); rerr != nil {
				return errors.Join(err, rerr)
			}
		}
		return err
	}
	return nil
}

type offerFile struct {
	Offers []*Offer `yaml:"offers"`
}

// LoadCatalog parses the YAML file at path and validates it against items.
func LoadCatalog(path string, items *inventory.Catalog) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: cannot read file %q: %w", path, err)
	}
	var f offerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("LoadCatalog: cannot parse file %q: %w", path, err)
	}
	c, err := NewCatalog(items, f.Offers...)
	if err != nil {
		return nil, fmt.Errorf("LoadCatalog: %q: %w", path, err)
	}
	return c, nil
}
