package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/harunnryd/tooloop/pkg/errorsx"
)

// ListModels returns the models installed on the server.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	endpoint := c.baseURL + tagsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &errorsx.ConnectionError{Endpoint: endpoint, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, endpoint, c.checkTimeout, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &errorsx.HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	var payload tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &errorsx.ProtocolError{Detail: "decode tags response", Err: err}
	}
	return payload.Models, nil
}

// HasModelMatching reports whether any installed model name contains hint,
// compared case-insensitively.
func HasModelMatching(models []ModelInfo, hint string) bool {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return len(models) > 0
	}
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.Name), hint) {
			return true
		}
	}
	return false
}

// ModelNames extracts the names of a model listing.
func ModelNames(models []ModelInfo) []string {
	out := make([]string, 0, len(models))
	for _, m := range models {
		out = append(out, m.Name)
	}
	return out
}
