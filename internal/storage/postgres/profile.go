package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/starcase/internal/game/session"
)

// ErrNewerProfile is returned by Save when the stored row was written with a
// newer snapshot version than the one being saved.
var ErrNewerProfile = errors.New("stored profile has a newer version")

// ProfileStore keeps each player's snapshot as a JSONB document, with the
// headline ledger figures mirrored into columns for reporting.
type ProfileStore struct {
	db *pgxpool.Pool
}

// NewProfileStore creates a ProfileStore backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProfileStore(db *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{db: db}
}

// Load returns the stored snapshot for player.
//
// Postcondition: returns session.ErrProfileNotFound if no row exists.
func (s *ProfileStore) Load(ctx context.Context, player string) (*session.Snapshot, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT snapshot FROM player_profiles WHERE player_id = $1`, player,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrProfileNotFound
		}
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding profile %q: %w", player, err)
	}
	if snap.Version > session.SnapshotVersion {
		return nil, fmt.Errorf("profile %q has unsupported version %d", player, snap.Version)
	}
	return &snap, nil
}

// Save upserts the snapshot for player. A row written with a newer snapshot
// version is never overwritten.
//
// Precondition: snap must be non-nil.
// Postcondition: returns ErrNewerProfile when the stored version is newer.
func (s *ProfileStore) Save(ctx context.Context, player string, snap *session.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding profile %q: %w", player, err)
	}
	tag, err := s.db.Exec(ctx, `
		INSERT INTO player_profiles (player_id, version, balance, gems, level, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (player_id) DO UPDATE SET
			version    = EXCLUDED.version,
			balance    = EXCLUDED.balance,
			gems       = EXCLUDED.gems,
			level      = EXCLUDED.level,
			snapshot   = EXCLUDED.snapshot,
			updated_at = NOW()
		WHERE player_profiles.version <= EXCLUDED.version`,
		player, snap.Version, snap.Ledger.Balance.String(), snap.Ledger.Gems, snap.Ledger.Level, raw,
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("saving profile %q at version %d: %w", player, snap.Version, ErrNewerProfile)
	}
	return nil
}

// Players returns the stored player ids in sorted order.
func (s *ProfileStore) Players(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT player_id FROM player_profiles ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning profiles: %w", err)
	}
	return ids, nil
}
