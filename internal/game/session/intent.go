package session

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/cory-johannsen/starcase/internal/game/crash"
	"github.com/cory-johannsen/starcase/internal/game/economy"
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/round"
	"github.com/cory-johannsen/starcase/internal/game/shop"
	"github.com/cory-johannsen/starcase/internal/game/upgrade"
)

// IntentKind names a player action.
type IntentKind string

const (
	OpenCase          IntentKind = "openCase"
	PickUpgradeSource IntentKind = "pickUpgradeSource"
	PickUpgradeTarget IntentKind = "pickUpgradeTarget"
	ConfirmUpgrade    IntentKind = "confirmUpgrade"
	PlaceBet          IntentKind = "placeBet"
	ResolveChoice     IntentKind = "resolveChoice"
	Cashout           IntentKind = "cashout"
	SellInventoryItem IntentKind = "sellInventoryItem"
	EnterCrash        IntentKind = "enterCrash"
	LeaveCrash        IntentKind = "leaveCrash"
	ClaimAchievement  IntentKind = "claimAchievement"
	ClaimTask         IntentKind = "claimTask"
	BuyShopOffer      IntentKind = "buyShopOffer"
)

// Amount is a bet as entered by the player. It accepts a JSON number or
// string so that malformed input reaches bet validation instead of failing
// the decode.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(data)
	return nil
}

// Intent is one inbound player action. Only the fields its Kind reads are
// meaningful.
type Intent struct {
	Kind       IntentKind `json:"kind"`
	Tier       string     `json:"tier,omitempty"`
	Quantity   int        `json:"quantity,omitempty"`
	InstanceID string     `json:"instance_id,omitempty"`
	ItemID     string     `json:"item_id,omitempty"`
	Game       round.Game `json:"game,omitempty"`
	Amount     Amount     `json:"amount,omitempty"`
	Choice     string     `json:"choice,omitempty"`
	Options    BetOptions `json:"options,omitzero"`
	// ID names the achievement, task or shop offer to act on.
	ID string `json:"id,omitempty"`
}

// Reply carries whatever an intent produced, plus the ledger after it.
type Reply struct {
	Kind     IntentKind        `json:"kind"`
	Items    []inventory.Entry `json:"items,omitempty"`
	Attempt  *upgrade.Attempt  `json:"attempt,omitempty"`
	Upgrade  *UpgradeResult    `json:"upgrade,omitempty"`
	Result   *round.Result     `json:"result,omitempty"`
	Crash    *crash.State      `json:"crash,omitempty"`
	Credited decimal.Decimal   `json:"credited,omitzero"`
	Receipt  *shop.Receipt     `json:"receipt,omitempty"`
	Ledger   economy.State     `json:"ledger"`
}

// Apply dispatches in to the matching operation.
func (s *Session) Apply(in Intent) (Reply, error) {
	reply := Reply{Kind: in.Kind}
	var err error
	switch in.Kind {
	case OpenCase:
		qty := in.Quantity
		if qty == 0 {
			qty = 1
		}
		reply.Items, err = s.OpenCase(in.Tier, qty)
	case PickUpgradeSource:
		reply.Attempt, err = s.PickUpgradeSource(in.InstanceID)
	case PickUpgradeTarget:
		reply.Attempt, err = s.PickUpgradeTarget(in.ItemID)
	case ConfirmUpgrade:
		var res UpgradeResult
		if res, err = s.ConfirmUpgrade(); err == nil {
			reply.Upgrade = &res
		}
	case PlaceBet:
		var bet decimal.Decimal
		if bet, err = round.ParseBet(string(in.Amount)); err == nil {
			reply.Result, err = s.PlaceBet(in.Game, bet, in.Options)
		}
	case ResolveChoice:
		reply.Result, err = s.ResolveChoice(in.Game, in.Choice)
	case Cashout:
		reply.Result, err = s.Cashout(in.Game)
	case SellInventoryItem:
		reply.Credited, err = s.SellItem(in.InstanceID)
	case EnterCrash:
		st := s.EnterCrash()
		reply.Crash = &st
	case LeaveCrash:
		st := s.LeaveCrash()
		reply.Crash = &st
	case ClaimAchievement:
		reply.Credited, err = s.ClaimAchievement(in.ID)
	case ClaimTask:
		reply.Credited, err = s.ClaimTask(in.ID)
	case BuyShopOffer:
		var r shop.Receipt
		if r, err = s.BuyOffer(in.ID); err == nil {
			reply.Receipt = &r
		}
	default:
		err = gameerr.Validationf(gameerr.ErrValidation, "unknown intent %q", in.Kind)
	}
	if err != nil {
		return Reply{}, err
	}
	if in.Kind == PlaceBet && in.Game == round.Crash {
		st := s.crashState()
		reply.Crash = &st
	}
	reply.Ledger = s.ledgerState()
	return reply, nil
}

func (s *Session) ledgerState() economy.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.State()
}

func (s *Session) crashState() crash.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crash.Snapshot()
}
