package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/clock"
	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/gameerr"
	"github.com/cory-johannsen/starcase/internal/game/rng"
)

// ManagerConfig wires a Manager.
type ManagerConfig struct {
	Content  *Content
	Settings Settings
	Store    Store
	Clock    clock.Clock
	Sink     event.Sink
	Logger   *zap.Logger
	// NewSource returns the RNG for a newly loaded session. Defaults to the
	// crypto source.
	NewSource func(player string) rng.Source
}

// Manager tracks the live session of every player and persists profiles
// after each successful intent. All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      ManagerConfig
	logger   *zap.Logger
}

// NewManager creates an empty Manager.
//
// Precondition: cfg.Content and cfg.Store must be non-nil.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewWall()
	}
	if cfg.Sink == nil {
		cfg.Sink = event.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NewSource == nil {
		cfg.NewSource = func(string) rng.Source { return rng.NewCryptoSource() }
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		logger:   cfg.Logger,
	}
}

// Get returns the player's live session, loading it from the store or
// creating a fresh profile on first sight.
func (m *Manager) Get(ctx context.Context, player string) (*Session, error) {
	if player == "" {
		return nil, gameerr.Validationf(gameerr.ErrValidation, "player id must not be empty")
	}
	m.mu.RLock()
	sess, ok := m.sessions[player]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[player]; ok {
		return sess, nil
	}
	opts := Options{
		Clock:  m.cfg.Clock,
		Source: m.cfg.NewSource(player),
		Sink:   m.cfg.Sink,
		Logger: m.logger,
	}
	snap, err := m.cfg.Store.Load(ctx, player)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		sess = New(player, m.cfg.Content, m.cfg.Settings, opts)
		m.logger.Info("profile created", zap.String("player", player))
	case err != nil:
		return nil, fmt.Errorf("loading profile %q: %w", player, err)
	default:
		sess = Restore(snap, m.cfg.Content, m.cfg.Settings, opts)
		m.logger.Debug("profile loaded", zap.String("player", player))
	}
	m.sessions[player] = sess
	return sess, nil
}

// Apply runs in against the player's session and saves the profile.
//
// Postcondition: a rejected intent is not saved; a save failure is returned
// alongside the reply of the applied intent.
func (m *Manager) Apply(ctx context.Context, player string, in Intent) (Reply, error) {
	sess, err := m.Get(ctx, player)
	if err != nil {
		return Reply{}, err
	}
	reply, err := sess.Apply(in)
	if err != nil {
		return Reply{}, err
	}
	if err := m.save(ctx, sess); err != nil {
		return reply, err
	}
	return reply, nil
}

// View returns the player's visible state.
func (m *Manager) View(ctx context.Context, player string) (View, error) {
	sess, err := m.Get(ctx, player)
	if err != nil {
		return View{}, err
	}
	return sess.View(), nil
}

// Save persists the player's live session, if any.
func (m *Manager) Save(ctx context.Context, player string) error {
	m.mu.RLock()
	sess, ok := m.sessions[player]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("player %q not loaded", player)
	}
	return m.save(ctx, sess)
}

func (m *Manager) save(ctx context.Context, sess *Session) error {
	if err := m.cfg.Store.Save(ctx, sess.Player(), sess.Snapshot()); err != nil {
		m.logger.Error("saving profile", zap.String("player", sess.Player()), zap.Error(err))
		return fmt.Errorf("saving profile %q: %w", sess.Player(), err)
	}
	return nil
}

// Remove saves, closes and forgets the player's session.
func (m *Manager) Remove(ctx context.Context, player string) error {
	m.mu.Lock()
	sess, ok := m.sessions[player]
	delete(m.sessions, player)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("player %q not loaded", player)
	}
	sess.Close()
	return m.save(ctx, sess)
}

// Players returns the loaded player ids in sorted order.
func (m *Manager) Players() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for p := range m.sessions {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of loaded sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) live() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// ResetDailyTasks resets the tasks of every loaded session and saves them.
// Profiles not loaded roll over lazily when next touched.
//
// Postcondition: returns the number of sessions reset and every save error.
func (m *Manager) ResetDailyTasks(ctx context.Context) (int, error) {
	var errs []error
	sessions := m.live()
	for _, s := range sessions {
		s.ResetDailyTasks()
		if err := m.save(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	m.logger.Info("daily tasks reset", zap.Int("sessions", len(sessions)))
	return len(sessions), errors.Join(errs...)
}

// SaveAll persists every loaded session, picking up crash settlements that
// happened between intents.
//
// Postcondition: returns the number of sessions saved and every save error.
func (m *Manager) SaveAll(ctx context.Context) (int, error) {
	var errs []error
	saved := 0
	for _, s := range m.live() {
		if err := m.save(ctx, s); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}

// Close saves and closes every session.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		s.Close()
		if err := m.save(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
