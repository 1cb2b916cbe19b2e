package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// NewSessionClient returns an HTTP client for one source run. The transport
// keeps a single connection per host, so a run never has two requests to the
// source in flight. Call CloseIdleConnections when the run ends.
func NewSessionClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = 1
	transport.MaxIdleConnsPerHost = 1
	return &http.Client{Timeout: timeout, Transport: transport}
}

// getBody issues a GET and returns the response body. Any status other than
// 200 is returned as a *model.HTTPError.
func getBody(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the single session connection can be reused.
		io.Copy(io.Discard, resp.Body)
		return nil, &model.HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}
