// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"net/http"

	"github.com/ardanlabs/blockminer/app/services/miner/handlers/v1/public"
	"github.com/ardanlabs/blockminer/business/web/mid"
	"github.com/ardanlabs/blockminer/foundation/blockchain/state"
	"github.com/ardanlabs/blockminer/foundation/events"
	"github.com/ardanlabs/blockminer/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Cors("*", http.MethodGet),
	)

	// Accept CORS 'OPTIONS' preflight requests. The Cors middleware answers
	// them, the route only has to exist.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h)

	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/status", pbl.Status)
	app.Handle(http.MethodGet, version, "/block", pbl.Block)

	return app
}
