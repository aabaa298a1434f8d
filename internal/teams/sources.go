package teams

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/derekprior/roundrobin/internal/config"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxDocumentBytes   = 1 << 20
)

// File reads a JSON team document from disk.
type File struct {
	Path string
}

func (f File) Load(ctx context.Context) ([]Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Source: f.Path, Err: err}
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, &LoadError{Source: f.Path, Err: err}
	}
	defer fh.Close()
	return Decode(io.LimitReader(fh, maxDocumentBytes), f.Path)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTP fetches a JSON team document with a GET request.
type HTTP struct {
	URL    string
	Client httpDoer
}

func (h HTTP) Load(ctx context.Context) ([]Team, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, &LoadError{Source: h.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client().Do(req)
	if err != nil {
		return nil, &LoadError{Source: h.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &LoadError{Source: h.URL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return Decode(io.LimitReader(resp.Body, maxDocumentBytes), h.URL)
}

func (h HTTP) client() httpDoer {
	if h.Client != nil {
		return h.Client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// FromConfig picks the team source named by the config. A URL wins over a
// file, and a file wins over the inline list.
func FromConfig(cfg *config.Config) Provider {
	switch {
	case cfg.TeamsURL != "":
		return HTTP{URL: cfg.TeamsURL}
	case cfg.TeamsFile != "":
		return File{Path: cfg.TeamsFile}
	}
	list := make([]Team, len(cfg.Teams))
	for i, t := range cfg.Teams {
		list[i] = Team{ID: t.ID, Title: t.Title}
	}
	return Static{Teams: list}
}
