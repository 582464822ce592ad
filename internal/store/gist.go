package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lox/pointcast/internal/httputil"
)

// GistStore persists documents as files in a GitHub data gist. Each document
// name maps to a gist filename; writes replace the whole file via the gists
// REST API.
type GistStore struct {
	gistID string
	token  string
	client *http.Client
	apiURL string
}

func NewGistStore(gistID, token string) *GistStore {
	return &GistStore{
		gistID: gistID,
		token:  token,
		client: httputil.NewClient(),
		apiURL: "https://api.github.com",
	}
}

type gistResponse struct {
	Files map[string]struct {
		Content   string `json:"content"`
		Truncated bool   `json:"truncated"`
		RawURL    string `json:"raw_url"`
	} `json:"files"`
}

func (g *GistStore) ReadDocument(ctx context.Context, name string) ([]byte, error) {
	req, err := httputil.NewRequest(fmt.Sprintf("%s/gists/%s", g.apiURL, g.gistID))
	if err != nil {
		return nil, err
	}
	g.authorize(req)

	resp, err := g.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("read gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrDocumentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("read gist: status %d: %s", resp.StatusCode, string(body))
	}

	var gist gistResponse
	if err := json.NewDecoder(resp.Body).Decode(&gist); err != nil {
		return nil, fmt.Errorf("decode gist: %w", err)
	}

	file, ok := gist.Files[name]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	if file.Truncated {
		return g.fetchRaw(ctx, file.RawURL)
	}
	return []byte(file.Content), nil
}

// fetchRaw pulls large file content the gists API truncates inline.
func (g *GistStore) fetchRaw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := httputil.NewRequest(rawURL)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch raw gist file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch raw gist file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (g *GistStore) WriteDocument(ctx context.Context, name string, content []byte) error {
	payload := map[string]any{
		"files": map[string]any{
			name: map[string]string{"content": string(content)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal gist patch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/gists/%s", g.apiURL, g.gistID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", httputil.UserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	g.authorize(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("write gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("write gist: status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

func (g *GistStore) authorize(req *http.Request) {
	if g.token != "" {
		req.Header.Set("Authorization", "token "+g.token)
	}
}
