package fetch

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/mmcdole/daisy/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Daisy/1.0"
	acceptEncoding = "br, gzip, deflate"
)

// Web reads resources below a base URL.
type Web struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWeb checks that baseURL answers and returns a fetcher for it.
// A 403 on the base counts as reachable: many servers forbid directory listings.
func NewWeb(baseURL string, timeout time.Duration, logger *slog.Logger) (*Web, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	w := &Web{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}

	status, err := w.status(http.MethodGet, baseURL)
	if err != nil || (status != http.StatusOK && status != http.StatusForbidden) {
		logger.Error("book location unreachable", "url", baseURL, "status", status, "error", err)
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, baseURL)
	}
	return w, nil
}

func (w *Web) Location() string {
	return w.baseURL
}

func (w *Web) Available(name string) bool {
	status, err := w.status(http.MethodHead, w.baseURL+name)
	return err == nil && status == http.StatusOK
}

func (w *Web) Fetch(name string) ([]byte, error) {
	return w.get(w.baseURL + name)
}

// get downloads url, mapping every failure to domain.ErrNotFound
func (w *Web) get(url string) ([]byte, error) {
	resp, err := w.do(http.MethodGet, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNotFound, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		w.logger.Debug("resource request failed", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrNotFound, url, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		w.logger.Error("failed to read response", "url", url, "error", err)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNotFound, url, err)
	}
	w.logger.Debug("fetched resource", "url", url, "bytes", len(body))
	return body, nil
}

func (w *Web) status(method, url string) (int, error) {
	resp, err := w.do(method, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (w *Web) do(method, url string) (*http.Response, error) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if method == http.MethodGet {
		// Set by hand, so the transport leaves decoding to readBody
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	w.logger.Debug("http request", "method", method, "url", url)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.logger.Error("http request failed", "url", url, "error", err)
		return nil, err
	}
	return resp, nil
}

// readBody reads the response body, decoding it by Content-Encoding.
// Supports gzip, deflate, and brotli (br) encodings.
func readBody(resp *http.Response) ([]byte, error) {
	encoding := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Encoding"), ",")[0])

	var reader io.Reader
	switch strings.ToLower(encoding) {
	case "", "identity":
		reader = resp.Body
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(resp.Body)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
	return io.ReadAll(reader)
}
