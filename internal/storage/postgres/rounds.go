package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/round"
)

// RoundRow is one resolved round in the audit trail.
type RoundRow struct {
	ID         uuid.UUID
	Player     string
	Game       round.Game
	Outcome    round.Outcome
	Bet        string
	Payout     string
	Multiplier float64
	ResolvedAt time.Time
}

// RoundRecorder is an event.Sink that appends every resolved round to the
// game_rounds table. Publish never blocks: rows are queued for a background
// writer and dropped with a warning when the queue is full.
type RoundRecorder struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	queue  chan event.Event
	done   chan struct{}
	once   sync.Once
}

// NewRoundRecorder creates a RoundRecorder and starts its writer.
//
// Precondition: db must be a valid, open connection pool.
// Postcondition: Close must be called to flush queued rows.
func NewRoundRecorder(db *pgxpool.Pool, logger *zap.Logger, queueSize int) *RoundRecorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &RoundRecorder{
		db:     db,
		logger: logger,
		queue:  make(chan event.Event, queueSize),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Publish queues round_resolved events and ignores the rest.
func (r *RoundRecorder) Publish(ev event.Event) {
	if ev.Kind != event.RoundResolved {
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.logger.Warn("dropping round record", zap.String("player", ev.Player))
	}
}

func (r *RoundRecorder) run() {
	defer close(r.done)
	for ev := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.insert(ctx, ev); err != nil {
			r.logger.Error("recording round", zap.String("player", ev.Player), zap.Error(err))
		}
		cancel()
	}
}

func (r *RoundRecorder) insert(ctx context.Context, ev event.Event) error {
	res, ok := ev.Payload.(round.Result)
	if !ok {
		return fmt.Errorf("unexpected payload %T", ev.Payload)
	}
	var state []byte
	if res.State != nil {
		var err error
		if state, err = json.Marshal(res.State); err != nil {
			return fmt.Errorf("encoding round state: %w", err)
		}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO game_rounds (id, player_id, game, outcome, bet, payout, multiplier, state, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), ev.Player, string(res.Game), string(res.Outcome),
		res.Bet.String(), res.Payout.String(), res.Multiplier, state, ev.At,
	)
	if err != nil {
		return fmt.Errorf("inserting round: %w", err)
	}
	return nil
}

// Close stops accepting rows and waits for the queue to drain.
//
// Postcondition: Publish must not be called after Close.
func (r *RoundRecorder) Close() {
	r.once.Do(func() { close(r.queue) })
	<-r.done
}

// Recent returns the player's latest rounds, newest first.
func (r *RoundRecorder) Recent(ctx context.Context, player string, limit int) ([]RoundRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, game, outcome, bet::text, payout::text, multiplier, resolved_at
		FROM game_rounds WHERE player_id = $1
		ORDER BY resolved_at DESC LIMIT $2`, player, limit)
	if err != nil {
		return nil, fmt.Errorf("listing rounds: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (RoundRow, error) {
		var rr RoundRow
		var game, outcome string
		err := row.Scan(&rr.ID, &rr.Player, &game, &outcome, &rr.Bet, &rr.Payout, &rr.Multiplier, &rr.ResolvedAt)
		rr.Game, rr.Outcome = round.Game(game), round.Outcome(outcome)
		return rr, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning rounds: %w", err)
	}
	return out, nil
}
