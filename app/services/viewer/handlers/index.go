package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
)

type index struct {
	page []byte
}

// newIndex renders the index page once with the node the browser should
// connect to for block events.
func newIndex(assetsDir string, nodeHost string) (*index, error) {
	tmpl, err := template.ParseFiles(filepath.Join(assetsDir, "views", "index.html"))
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}

	data := struct {
		NodeHost string
	}{
		NodeHost: nodeHost,
	}

	var b bytes.Buffer
	if err := tmpl.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("render index page: %w", err)
	}

	return &index{page: b.Bytes()}, nil
}

func (ig *index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(ig.page)
	return err
}
