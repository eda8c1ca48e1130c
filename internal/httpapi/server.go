// Package httpapi exposes the casino to the Telegram Mini App as a JSON API
// with a Server-Sent Events stream.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/inventory"
	"github.com/cory-johannsen/starcase/internal/game/loot"
	"github.com/cory-johannsen/starcase/internal/game/progress"
	"github.com/cory-johannsen/starcase/internal/game/round"
	"github.com/cory-johannsen/starcase/internal/game/session"
	"github.com/cory-johannsen/starcase/internal/game/shop"
)

// Casino is the part of session.Manager the API drives.
type Casino interface {
	Apply(ctx context.Context, player string, in session.Intent) (session.Reply, error)
	View(ctx context.Context, player string) (session.View, error)
}

// Options configure a Handler.
type Options struct {
	AllowedOrigins []string
	// Heartbeat is the SSE keep-alive interval. Defaults to 15s.
	Heartbeat time.Duration
	// LogLevel, when set, is mounted at /debug/loglevel.
	LogLevel http.Handler
}

// Catalog is the static content served to clients.
type Catalog struct {
	Items        []*inventory.Item          `json:"items"`
	Cases        []*loot.Tier               `json:"cases"`
	Offers       []*shop.Offer              `json:"offers"`
	Achievements []*progress.AchievementDef `json:"achievements"`
	Tasks        []*progress.TaskDef        `json:"tasks"`
}

// NewCatalog flattens content for the catalog endpoint.
func NewCatalog(c *session.Content) Catalog {
	return Catalog{
		Items:        c.Items.All(),
		Cases:        c.Tiers.All(),
		Offers:       c.Shop.Offers(),
		Achievements: c.Tracker.Achievements(),
		Tasks:        c.Tracker.Tasks(),
	}
}

// Handler serves the Mini App API.
type Handler struct {
	casino  Casino
	catalog Catalog
	bus     *event.Bus
	logger  *zap.Logger
	opts    Options
}

// NewHandler creates a Handler.
//
// Precondition: casino, bus and logger must be non-nil.
func NewHandler(casino Casino, catalog Catalog, bus *event.Bus, logger *zap.Logger, opts Options) *Handler {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}
	return &Handler{casino: casino, catalog: catalog, bus: bus, logger: logger, opts: opts}
}

// Router builds the chi router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.opts.LogLevel != nil {
		r.Method(http.MethodGet, "/debug/loglevel", h.opts.LogLevel)
		r.Method(http.MethodPut, "/debug/loglevel", h.opts.LogLevel)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", h.getCatalog)
		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/profile", h.getProfile)
			r.Get("/events", h.streamEvents)
			r.Post("/intents", h.intent(nil))

			r.Post("/cases/{tier}/open", h.intent(func(in *session.Intent, r *http.Request) {
				in.Kind = session.OpenCase
				in.Tier = chi.URLParam(r, "tier")
			}))
			r.Post("/upgrade/source", h.intent(kind(session.PickUpgradeSource)))
			r.Post("/upgrade/target", h.intent(kind(session.PickUpgradeTarget)))
			r.Post("/upgrade/confirm", h.intent(kind(session.ConfirmUpgrade)))
			r.Post("/inventory/{instanceID}/sell", h.intent(func(in *session.Intent, r *http.Request) {
				in.Kind = session.SellInventoryItem
				in.InstanceID = chi.URLParam(r, "instanceID")
			}))

			r.Route("/games/{game}", func(r chi.Router) {
				r.Post("/bet", h.intent(game(session.PlaceBet)))
				r.Post("/choice", h.intent(game(session.ResolveChoice)))
				r.Post("/cashout", h.intent(game(session.Cashout)))
			})
			r.Post("/crash/enter", h.intent(kind(session.EnterCrash)))
			r.Post("/crash/leave", h.intent(kind(session.LeaveCrash)))

			r.Post("/achievements/{id}/claim", h.intent(byID(session.ClaimAchievement)))
			r.Post("/tasks/{id}/claim", h.intent(byID(session.ClaimTask)))
			r.Post("/shop/{id}/buy", h.intent(byID(session.BuyShopOffer)))
		})
	})
	return r
}

// binder fills the route-derived fields of an intent.
type binder func(in *session.Intent, r *http.Request)

func kind(k session.IntentKind) binder {
	return func(in *session.Intent, _ *http.Request) { in.Kind = k }
}

func game(k session.IntentKind) binder {
	return func(in *session.Intent, r *http.Request) {
		in.Kind = k
		in.Game = round.Game(chi.URLParam(r, "game"))
	}
}

func byID(k session.IntentKind) binder {
	return func(in *session.Intent, r *http.Request) {
		in.Kind = k
		in.ID = chi.URLParam(r, "id")
	}
}

func (h *Handler) getCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.casino.View(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// intent decodes an optional JSON body into a session.Intent, applies bind,
// and dispatches it.
func (h *Handler) intent(bind binder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in session.Intent
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body", Code: "bad_request"})
			return
		}
		if bind != nil {
			bind(&in, r)
		}
		reply, err := h.casino.Apply(r.Context(), chi.URLParam(r, "playerID"), in)
		if err != nil && reply.Kind == "" {
			h.writeError(w, r, err)
			return
		}
		if err != nil {
			// The intent applied but persisting it failed.
			h.logger.Error("intent applied without save", zap.String("kind", string(in.Kind)), zap.Error(err))
		}
		writeJSON(w, http.StatusOK, reply)
	}
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
