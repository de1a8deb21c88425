package tile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPDownloaderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("expected User-Agent %q, got %q", DefaultUserAgent, ua)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("tile-bytes"))
	}))
	defer server.Close()

	d := New(1, 1, 1, server.URL+"/1/1/1.png")
	r := NewHTTPDownloader(DefaultOptions()).Download(context.Background(), d)

	if !r.OK() {
		t.Fatalf("Download: %v", r.Err())
	}
	if string(r.Image()) != "tile-bytes" {
		t.Errorf("expected 'tile-bytes', got %q", r.Image())
	}
	if r.Descriptor != d {
		t.Errorf("expected descriptor %v, got %v", d, r.Descriptor)
	}
}

func TestHTTPDownloaderExtraHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("expected X-Api-Key 'secret', got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "custom/1.0" {
			t.Errorf("expected custom User-Agent, got %q", got)
		}
		w.Write([]byte("x"))
	}))
	defer server.Close()

	header := make(http.Header)
	header.Set("X-Api-Key", "secret")
	header.Set("User-Agent", "ignored")

	dl := NewHTTPDownloader(Options{UserAgent: "custom/1.0", Header: header})
	if r := dl.Download(context.Background(), New(0, 0, 0, server.URL)); !r.OK() {
		t.Fatalf("Download: %v", r.Err())
	}
	if header.Get("User-Agent") != "ignored" {
		t.Error("options header was modified")
	}
}

func TestHTTPDownloaderNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such tile", http.StatusNotFound)
	}))
	defer server.Close()

	url := server.URL + "/9/9/9.png"
	r := NewHTTPDownloader(DefaultOptions()).Download(context.Background(), New(9, 9, 9, url))

	if r.OK() {
		t.Fatal("expected failure")
	}
	if r.Image() != nil {
		t.Error("expected no image")
	}
	if !errors.Is(r.Err(), ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", r.Err())
	}
	msg := r.Err().Error()
	if !strings.Contains(msg, url) || !strings.Contains(msg, "404") {
		t.Errorf("expected error to mention url and 404, got %q", msg)
	}
}

func TestHTTPDownloaderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	r := NewHTTPDownloader(DefaultOptions()).Download(context.Background(), New(0, 0, 0, server.URL))

	var se *StatusError
	if !errors.As(r.Err(), &se) {
		t.Fatalf("expected StatusError, got %v", r.Err())
	}
	if se.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", se.StatusCode)
	}
	if !errors.Is(r.Err(), ErrServerError) {
		t.Errorf("expected ErrServerError, got %v", r.Err())
	}
}

func TestHTTPDownloaderConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	r := NewHTTPDownloader(DefaultOptions()).Download(context.Background(), New(0, 0, 0, url))

	var te *TransportError
	if !errors.As(r.Err(), &te) {
		t.Fatalf("expected TransportError, got %v", r.Err())
	}
	if te.URL != url {
		t.Errorf("expected url %s, got %s", url, te.URL)
	}
}

func TestHTTPDownloaderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	dl := NewHTTPDownloader(Options{Timeout: 50 * time.Millisecond})
	r := dl.Download(context.Background(), New(0, 0, 0, server.URL))

	var te *TransportError
	if !errors.As(r.Err(), &te) {
		t.Fatalf("expected TransportError, got %v", r.Err())
	}
}

func TestHTTPDownloaderMalformedURL(t *testing.T) {
	r := NewHTTPDownloader(DefaultOptions()).Download(context.Background(), New(0, 0, 0, "://bad"))

	var te *TransportError
	if !errors.As(r.Err(), &te) {
		t.Fatalf("expected TransportError, got %v", r.Err())
	}
}

func TestHTTPDownloaderEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewHTTPDownloader(DefaultOptions()).Download(context.Background(), New(0, 0, 0, server.URL))
	if !errors.Is(r.Err(), ErrEmptyTile) {
		t.Errorf("expected ErrEmptyTile, got %v", r.Err())
	}
}
