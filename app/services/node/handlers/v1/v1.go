// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/shardlab/powshard/app/services/node/handlers/v1/public"
	"github.com/shardlab/powshard/business/core/network"
	"github.com/shardlab/powshard/foundation/events"
	"github.com/shardlab/powshard/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	Network *network.Network
	Evts    *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:     cfg.Log,
		Network: cfg.Network,
		WS:      websocket.Upgrader{},
		Evts:    cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/shards/:shard/tx/submit", pbl.SubmitShardedTransaction)
	app.Handle(http.MethodPost, version, "/tx/validate", pbl.ValidateTransaction)
	app.Handle(http.MethodPost, version, "/shards/:shard/tx/validate", pbl.ValidateTransaction)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/shards/:shard/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/shards/:shard/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/shards/count", pbl.ShardCount)
	app.Handle(http.MethodGet, version, "/shards/:shard/valid", pbl.ValidShard)
	app.Handle(http.MethodGet, version, "/stats", pbl.Stats)
	app.Handle(http.MethodGet, version, "/shards/:shard/stats", pbl.Stats)
	app.Handle(http.MethodPost, version, "/bench", pbl.Bench)
}
