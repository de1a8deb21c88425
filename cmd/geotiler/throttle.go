package main

import (
	"context"
	"time"

	"github.com/RoninZc/geotiler/tile"
)

// throttledDownloader starts at most one request per interval, across all
// workers of the fetcher.
type throttledDownloader struct {
	next   tile.Downloader
	ticker *time.Ticker
}

func newThrottledDownloader(next tile.Downloader, interval time.Duration) *throttledDownloader {
	return &throttledDownloader{next: next, ticker: time.NewTicker(interval)}
}

func (t *throttledDownloader) Download(ctx context.Context, d tile.Descriptor) tile.Result {
	select {
	case <-t.ticker.C:
	case <-ctx.Done():
		return tile.Failed(d, &tile.TransportError{URL: d.URL, Err: ctx.Err()})
	}
	return t.next.Download(ctx, d)
}

func (t *throttledDownloader) Stop() {
	t.ticker.Stop()
}
