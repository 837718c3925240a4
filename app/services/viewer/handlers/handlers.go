// Package handlers contains the full set of handler functions and routes
// supported by the web api.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/shardlab/powshard/business/web/mid"
	"github.com/shardlab/powshard/foundation/web"
	"go.uber.org/zap"
)

// UIConfig contains all the mandatory systems required by the viewer.
type UIConfig struct {
	Shutdown  chan os.Signal
	Log       *zap.SugaredLogger
	AssetsDir string
	NodeHost  string
}

// UIMux constructs an http.Handler with all application routes defined.
func UIMux(cfg UIConfig) (*web.App, error) {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Panics(),
		mid.Cors("*"),
	)

	// Register the index page for the website.
	ig, err := newIndex(cfg.AssetsDir, cfg.NodeHost)
	if err != nil {
		return nil, fmt.Errorf("loading index template: %w", err)
	}
	app.Handle(http.MethodGet, "", "/", ig.handler)

	// Register the assets.
	fs := http.FileServer(http.Dir(cfg.AssetsDir))
	fs = http.StripPrefix("/assets/", fs)
	f := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		fs.ServeHTTP(w, r)
		return nil
	}
	app.Handle(http.MethodGet, "", "/assets/*", f)

	return app, nil
}
