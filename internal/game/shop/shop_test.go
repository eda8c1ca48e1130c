package shop_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/starcase/internal/game/economy"
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/shop"
)

func items(t *testing.T) *inventory.Catalog {
	t.Helper()
	list, err := inventory.LoadItems("../../../content/items.yaml")
	require.NoError(t, err)
	c, err := inventory.BuildCatalog(list)
	require.NoError(t, err)
	return c
}

func TestLoadCatalog(t *testing.T) {
	c, err := shop.LoadCatalog("../../../content/shop.yaml", items(t))
	require.NoError(t, err)
	assert.Len(t, c.Offers(), 4)
}

func TestBuyWithStars(t *testing.T) {
	c, err := shop.LoadCatalog("../../../content/shop.yaml", items(t))
	require.NoError(t, err)
	l := economy.NewLedger(economy.DefaultSettings())

	_, err = c.Buy("gems_small", l, inventory.New(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "750", l.Balance().String())
	assert.Equal(t, int64(5), l.Gems())
}

func TestBuyWithGemsGrantsItem(t *testing.T) {
	c, err := shop.LoadCatalog("../../../content/shop.yaml", items(t))
	require.NoError(t, err)
	l := economy.NewLedger(economy.DefaultSettings())
	require.NoError(t, l.CreditGems(25))
	inv := inventory.New()

	r, err := c.Buy("mystery_item", l, inv, time.Now())
	require.NoError(t, err)
	require.NotNil(t, r.Item)
	assert.Equal(t, "emerald", r.Item.Item.ID)
	assert.Equal(t, int64(5), l.Gems())
	assert.Equal(t, 1, inv.Len())
}

func TestBuyInsufficientGemsChangesNothing(t *testing.T) {
	c, err := shop.LoadCatalog("../../../content/shop.yaml", items(t))
	require.NoError(t, err)
	l := economy.NewLedger(economy.DefaultSettings())
	inv := inventory.New()

	_, err = c.Buy("stars_pack", l, inv, time.Now())
	assert.True(t, errors.Is(err, gameerr.ErrInsufficientFunds))
	assert.Equal(t, "1250", l.Balance().String())
	assert.Equal(t, 0, inv.Len())
}

func offer(t *testing.T, c *shop.Catalog, id string) *shop.Offer {
	t.Helper()
	o, err := c.Offer(id)
	require.NoError(t, err)
	return o
}

func TestBuyRefundsWhenGrantFails(t *testing.T) {
	c, err := shop.LoadCatalog("../../../content/shop.yaml", items(t))
	require.NoError(t, err)
	offer(t, c, "gems_small").Grants.Gems = -1
	l := economy.NewLedger(economy.DefaultSettings())

	_, err = c.Buy("gems_small", l, inventory.New(), time.Now())
	require.Error(t, err)
	assert.Equal(t, "1250", l.Balance().String())
	assert.Zero(t, l.Gems())
}

func TestBuyRefundsGemsWhenStarGrantFails(t *testing.T) {
	c, err := shop.LoadCatalog("../../../content/shop.yaml", items(t))
	require.NoError(t, err)
	o := offer(t, c, "gems_small")
	o.Grants.Stars = decimal.NewFromInt(-10)
	l := economy.NewLedger(economy.DefaultSettings())

	_, err = c.Buy("gems_small", l, inventory.New(), time.Now())
	require.Error(t, err)
	assert.Equal(t, "1250", l.Balance().String())
	assert.Zero(t, l.Gems())
}

func TestBuyUnknownGrantedItemChargesNothing(t *testing.T) {
	c, err := shop.LoadCatalog("../../../content/shop.yaml", items(t))
	require.NoError(t, err)
	offer(t, c, "mystery_item").Grants.Item = "unobtainium"
	l := economy.NewLedger(economy.DefaultSettings())
	require.NoError(t, l.CreditGems(25))
	inv := inventory.New()

	_, err = c.Buy("mystery_item", l, inv, time.Now())
	assert.True(t, errors.Is(err, gameerr.ErrConfiguration))
	assert.Equal(t, int64(25), l.Gems())
	assert.Equal(t, 0, inv.Len())
}

func TestBuyUnknownOffer(t *testing.T) {
	c, err := shop.NewCatalog(items(t))
	require.NoError(t, err)
	_, err = c.Buy("nope", economy.NewLedger(economy.DefaultSettings()), inventory.New(), time.Now())
	assert.True(t, errors.Is(err, gameerr.ErrValidation))
}

func TestOfferValidate(t *testing.T) {
	o := &shop.Offer{ID: "x", Currency: "coins", Price: decimal.NewFromInt(0)}
	err := o.Validate(items(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, gameerr.ErrConfiguration))
	assert.Contains(t, err.Error(), "unknown currency")
	assert.Contains(t, err.Error(), "grants nothing")
}

func TestOfferUnknownItem(t *testing.T) {
	o := &shop.Offer{ID: "x", Currency: shop.Stars, Price: decimal.NewFromInt(1), Grants: shop.Grant{Item: "unobtainium"}}
	assert.Error(t, o.Validate(items(t)))
}
