package tile

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Version is reported to tile providers in the User-Agent header.
const Version = "0.1.0"

// DefaultUserAgent identifies GeoTiler to tile providers.
const DefaultUserAgent = "GeoTiler/" + Version

// Downloader turns one descriptor into a Result. Implementations must not
// panic on network failures and must not modify the descriptor; failures
// are reported through Failed.
type Downloader interface {
	Download(ctx context.Context, d Descriptor) Result
}

// DownloaderFunc adapts a function to the Downloader interface.
type DownloaderFunc func(ctx context.Context, d Descriptor) Result

// Download calls f(ctx, d).
func (f DownloaderFunc) Download(ctx context.Context, d Descriptor) Result {
	return f(ctx, d)
}

// Options configures the HTTP downloader.
type Options struct {
	// UserAgent is sent with every request.
	// Default: DefaultUserAgent
	UserAgent string

	// Header holds extra headers sent with every request, e.g. an API key
	// some providers require. User-Agent set here is overridden by UserAgent.
	Header http.Header

	// Timeout for individual requests.
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 16
	MaxIdleConnsPerHost int

	// Client replaces the client built from the options above.
	Client *http.Client
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:           DefaultUserAgent,
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 16,
	}
}

// HTTPDownloader retrieves tiles with plain HTTP GET requests.
type HTTPDownloader struct {
	client *http.Client
	header http.Header
}

// NewHTTPDownloader creates a downloader with the given options. Zero
// fields fall back to DefaultOptions.
func NewHTTPDownloader(opts Options) *HTTPDownloader {
	def := DefaultOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
				MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: opts.Timeout,
		}
	}

	header := opts.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("User-Agent", opts.UserAgent)

	return &HTTPDownloader{client: client, header: header}
}

// Header returns a copy of the headers attached to every request.
func (h *HTTPDownloader) Header() http.Header {
	return h.header.Clone()
}

// Download fetches d.URL and returns the whole response body as the tile
// image. Non-2xx responses yield a *StatusError, everything else a
// *TransportError.
func (h *HTTPDownloader) Download(ctx context.Context, d Descriptor) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return Failed(d, &TransportError{URL: d.URL, Err: err})
	}
	for k, v := range h.header {
		req.Header[k] = append([]string(nil), v...)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Failed(d, &TransportError{URL: d.URL, Err: err})
	}
	defer resp.Body.Close()

	if err := checkStatusCode(d.URL, resp.StatusCode); err != nil {
		// drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Failed(d, err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failed(d, &TransportError{URL: d.URL, Err: err})
	}
	return Succeeded(d, body)
}
