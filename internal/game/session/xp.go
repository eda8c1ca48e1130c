package session

import (
	"github.com/cory-johannsen/starcase/internal/game/round"
	"github.com/cory-johannsen/starcase/internal/game/slots"
)

// Experience awarded per action.
const (
	xpPerCase      = 10
	xpUpgrade      = 5
	xpCoinflipWin  = 10
	xpRPSWin       = 15
	xpSlotsJackpot = 25
	xpSlotsPair    = 15
	xpCrashCashout = 10
	xpBlackjack    = 15
	xpLadderWin    = 15
	xpConsolation  = 5
)

// roundExperience returns the experience a resolved round earns.
func roundExperience(res round.Result) int64 {
	switch res.Game {
	case round.Coinflip:
		if res.Outcome == round.Win {
			return xpCoinflipWin
		}
	case round.RPS:
		if res.Outcome == round.Win {
			return xpRPSWin
		}
	case round.Slots:
		if sr, ok := res.State.(slots.Result); ok {
			switch sr.Kind {
			case slots.Jackpot:
				return xpSlotsJackpot
			case slots.Pair:
				return xpSlotsPair
			}
		}
	case round.Crash:
		if res.Outcome == round.Win {
			return xpCrashCashout
		}
	case round.Blackjack:
		return xpBlackjack
	case round.Miner, round.Tower:
		if res.Outcome == round.Win {
			return xpLadderWin
		}
	}
	return xpConsolation
}
