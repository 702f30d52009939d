package provideradapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chainsentinel/orchestrator/internal/model"
)

// HTTPTransport is the default Transport: a plain JSON-over-HTTP GET
// against a configured base URL, with the subject key and kind passed
// as query parameters and an optional bearer-style auth header.
type HTTPTransport struct {
	httpClient *http.Client
	baseURL    string
	authHeader string
	authToken  string
}

// NewHTTPTransport builds an HTTPTransport. authHeader names the
// header carrying authToken (e.g. "Authorization"); either may be
// empty for a source that requires no auth.
func NewHTTPTransport(baseURL, authHeader, authToken string) *HTTPTransport {
	return &HTTPTransport{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		authHeader: authHeader,
		authToken:  authToken,
	}
}

func (t *HTTPTransport) Fetch(ctx context.Context, subject model.Subject) (map[string]interface{}, error) {
	key := subjectKey(subject)

	u, err := url.Parse(t.baseURL)
	if err != nil {
		return nil, fmt.Errorf("provideradapter: invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("kind", subject.Kind)
	q.Set("key", key)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if t.authHeader != "" && t.authToken != "" {
		req.Header.Set(t.authHeader, t.authToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provideradapter: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provideradapter: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("provideradapter: upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("provideradapter: decode response: %w", err)
	}
	return payload, nil
}
