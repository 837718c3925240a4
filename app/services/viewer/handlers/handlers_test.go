package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shardlab/powshard/app/services/viewer/handlers"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Index(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "views"), 0755); err != nil {
		t.Fatalf("\t%s\tShould be able to create the views folder: %v", failed, err)
	}
	page := `<script>const node = "{{.NodeHost}}";</script>`
	if err := os.WriteFile(filepath.Join(dir, "views", "index.html"), []byte(page), 0644); err != nil {
		t.Fatalf("\t%s\tShould be able to write the index page: %v", failed, err)
	}

	app, err := handlers.UIMux(handlers.UIConfig{
		Shutdown:  make(chan os.Signal, 1),
		Log:       zap.NewNop().Sugar(),
		AssetsDir: dir,
		NodeHost:  "node:8080",
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the mux: %v", failed, err)
	}

	t.Log("Given the need to serve the viewer page.")
	{
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a status code of 200: got %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould receive a status code of 200.", success)

		body, _ := io.ReadAll(w.Body)
		if !strings.Contains(string(body), "node:8080") {
			t.Fatalf("\t%s\tShould render the node host into the page: %s", failed, body)
		}
		t.Logf("\t%s\tShould render the node host into the page.", success)
	}
}
