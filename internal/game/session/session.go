package session

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/blackjack"
	"github.com/cory-johannsen/starcase/internal/game/clock"
	"github.com/cory-johannsen/starcase/internal/game/crash"
	"github.com/cory-johannsen/starcase/internal/game/economy"
	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/miner"
	"github.com/cory-johannsen/starcase/internal/game/progress"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/round"
	"github.com/cory-johannsen/starcase/internal/game/shop"
	"github.com/cory-johannsen/starcase/internal/game/tower"
	"github.com/cory-johannsen/starcase/internal/observability"
)

// Options are the per-session collaborators.
type Options struct {
	Clock  clock.Clock
	Source rng.Source
	Sink   event.Sink
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clock.NewWall()
	}
	if o.Source == nil {
		o.Source = rng.NewCryptoSource()
	}
	if o.Sink == nil {
		o.Sink = event.Discard
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Session is one player's profile plus the in-flight state of every game.
//
// Invariant: every exported method holds mu for its whole duration, so at
// most one intent or crash tick mutates the profile at a time.
type Session struct {
	mu       sync.Mutex
	player   string
	content  *Content
	settings Settings
	clock    clock.Clock
	src      rng.Source
	sink     event.Sink
	logger   *zap.Logger

	ledger    *economy.Ledger
	inv       *inventory.Inventory
	history   *inventory.History
	stats     *progress.Stats
	progress  *progress.Progress
	purchases []shop.Purchase
	tasksDay  string

	upgradeSource *inventory.Entry
	upgradeTarget *inventory.Item

	blackjack *blackjack.Game
	miner     *miner.Game
	tower     *tower.Game
	crash     *crash.Game

	crashAttached bool
	crashTimer    clock.Timer
	crashGen      int
	closed        bool
}

// New creates a fresh profile for player.
//
// Precondition: player is non-empty; content is fully loaded.
func New(player string, content *Content, settings Settings, opts Options) *Session {
	s := newSession(player, content, settings, opts)
	s.ledger = economy.NewLedger(settings.Economy)
	s.inv = inventory.New()
	s.history = inventory.NewHistory()
	s.stats = progress.NewStats()
	s.progress = content.Tracker.NewProgress()
	s.tasksDay = settings.day(s.clock.Now())
	return s
}

func newSession(player string, content *Content, settings Settings, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		player:    player,
		content:   content,
		settings:  settings,
		clock:     opts.Clock,
		src:       opts.Source,
		sink:      opts.Sink,
		logger:    observability.Player(opts.Logger, player),
		blackjack: blackjack.New(),
		miner:     miner.New(),
		tower:     tower.New(),
		crash:     crash.New(),
	}
}

// Player returns the owning player id.
func (s *Session) Player() string { return s.player }

// Close stops the crash loop. In-flight rounds are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopCrashTimer()
}

func (s *Session) emit(kind event.Kind, payload any) {
	s.sink.Publish(event.Event{Kind: kind, Player: s.player, At: s.clock.Now(), Payload: payload})
}

func (s *Session) emitBalance() {
	st := s.ledger.State()
	s.emit(event.BalanceChanged, event.Balance{
		Balance:          st.Balance,
		Gems:             st.Gems,
		Level:            st.Level,
		Experience:       st.Experience,
		ExperienceToNext: st.ExperienceToNext,
	})
}

// debit charges amount, publishing insufficient_funds on a shortfall.
//
// Postcondition: on error the ledger is unchanged.
func (s *Session) debit(amount decimal.Decimal) error {
	have := s.ledger.Balance()
	if err := s.ledger.Debit(amount); err != nil {
		if errors.Is(err, gameerr.ErrInsufficientFunds) {
			s.emit(event.InsufficientFunds, event.Shortfall{Need: amount, Have: have})
		}
		return err
	}
	return nil
}

func (s *Session) credit(amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	if err := s.ledger.Credit(amount); err != nil {
		s.logger.Error("credit failed", zap.String("amount", amount.String()), zap.Error(err))
	}
}

// addExperience applies n experience, crediting the level-up bonus once per
// level gained.
func (s *Session) addExperience(n int64) {
	start := s.ledger.Level()
	gained := s.ledger.AddExperience(n)
	for i := 1; i <= gained; i++ {
		s.credit(s.settings.LevelUpBonus)
		s.emit(event.LevelUp, event.Level{Level: start + i, Bonus: s.settings.LevelUpBonus})
	}
	if gained > 0 {
		s.logger.Info("level up", zap.Int("level", s.ledger.Level()))
	}
}

// settle credits a resolved round and runs every side effect that follows
// it: stats, tasks, experience, events and achievements.
func (s *Session) settle(res round.Result) {
	s.credit(res.Payout)
	s.stats.RecordRound(res)
	s.emit(event.RoundResolved, res)
	s.advanceTasks(progress.GamesPlayed, 1)
	if res.Outcome == round.Win {
		s.advanceTasks(progress.GamesWon, 1)
	}
	s.addExperience(roundExperience(res))
	s.emitBalance()
	s.evaluateAchievements()
	s.logger.Debug("round resolved",
		zap.String("game", string(res.Game)),
		zap.String("outcome", string(res.Outcome)),
		zap.String("bet", res.Bet.String()),
		zap.String("payout", res.Payout.String()),
	)
}

func (s *Session) advanceTasks(kind progress.TaskKind, n int64) {
	s.rollTasks()
	for _, d := range s.content.Tracker.Advance(s.progress, kind, n) {
		s.emit(event.TaskCompleted, event.Reward{ID: d.ID, Name: d.Name, Reward: d.Reward})
	}
}

func (s *Session) evaluateAchievements() {
	facts := s.stats.Facts(progress.Profile{
		Balance:       s.ledger.Balance(),
		Gems:          s.ledger.Gems(),
		Level:         s.ledger.Level(),
		InventorySize: s.inv.Len(),
	})
	for _, d := range s.content.Tracker.Evaluate(s.progress, facts, s.clock.Now()) {
		s.emit(event.AchievementUnlocked, event.Reward{ID: d.ID, Name: d.Name, Reward: d.Reward})
		s.logger.Info("achievement unlocked", zap.String("achievement", d.ID))
	}
}
