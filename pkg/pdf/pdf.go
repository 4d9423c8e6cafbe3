// Package pdf renders HTML documents to PDF through an external headless
// converter and stores the output on local disk.
package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bridgesphysio/bridges_backend/config"
)

// ErrNotConfigured is returned when no renderer URL is configured.
var ErrNotConfigured = errors.New("pdf renderer not configured")

// Document is a stored render result.
type Document struct {
	Path string
	URL  string
}

type Renderer struct {
	rendererURL string
	outputDir   string
	client      *http.Client
}

func New(cfg config.PDFConfig) *Renderer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "generated"
	}
	return &Renderer{
		rendererURL: cfg.RendererURL,
		outputDir:   outputDir,
		client:      &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a converter endpoint exists.
func (r *Renderer) Configured() bool { return r.rendererURL != "" }

type renderRequest struct {
	HTML string `json:"html"`
}

// Render converts html to PDF bytes via the converter endpoint.
func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	if r.rendererURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(renderRequest{HTML: html})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.rendererURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("renderer returned %d: %s", resp.StatusCode, string(msg))
	}

	pdf, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read rendered pdf: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("renderer returned empty document")
	}
	return pdf, nil
}

// RenderAndStore converts html and writes the result under the output
// directory as <name>.pdf. The returned URL is the serving path for the
// static file handler.
func (r *Renderer) RenderAndStore(ctx context.Context, html, name string) (Document, error) {
	data, err := r.Render(ctx, html)
	if err != nil {
		return Document{}, err
	}
	return r.Store(data, name)
}

// Store writes PDF bytes to disk.
func (r *Renderer) Store(data []byte, name string) (Document, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return Document{}, fmt.Errorf("create output dir: %w", err)
	}

	filename := filepath.Base(name) + ".pdf"
	path := filepath.Join(r.outputDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Document{}, fmt.Errorf("write pdf: %w", err)
	}

	return Document{
		Path: path,
		URL:  "/generated/" + filename,
	}, nil
}

// ReadStored loads a previously stored document from disk.
func (r *Renderer) ReadStored(path string) ([]byte, error) {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) {
		return nil, errors.New("absolute pdf paths are not served")
	}
	return os.ReadFile(clean)
}
