package tile

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// DefaultFailureThreshold only reports batches where every tile failed.
const DefaultFailureThreshold = 1.0

// DefaultWorkers is the pool size used when none is configured. Fetching
// tiles is network bound, so the pool is larger than the CPU count.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0) * 4
}

// Fetcher downloads batches of tiles on a bounded pool of goroutines.
// A Fetcher holds no per-batch state and is safe for concurrent use.
type Fetcher struct {
	downloader Downloader
	workers    int
	log        logrus.FieldLogger
	onResult   func(Result)
	threshold  float64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithWorkers sets the number of tiles retrieved at the same time.
func WithWorkers(n int) Option {
	return func(f *Fetcher) { f.workers = n }
}

// WithLogger sets the logger receiving failed tile warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// WithOnResult registers a hook called once per settled tile, as soon as
// it settles. The hook runs on the worker goroutines and must be safe for
// concurrent use.
func WithOnResult(fn func(Result)) Option {
	return func(f *Fetcher) { f.onResult = fn }
}

// WithFailureThreshold sets the failure rate, in (0, 1], at or above which
// a batch additionally logs one aggregate error entry. A rate <= 0 turns
// the aggregate entry off.
func WithFailureThreshold(rate float64) Option {
	return func(f *Fetcher) { f.threshold = rate }
}

// NewFetcher returns a Fetcher retrieving tiles through d.
func NewFetcher(d Downloader, opts ...Option) *Fetcher {
	f := &Fetcher{
		downloader: d,
		workers:    DefaultWorkers(),
		log:        logrus.StandardLogger(),
		threshold:  DefaultFailureThreshold,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Workers returns the pool size.
func (f *Fetcher) Workers() int { return f.workers }

// FetchAll retrieves every descriptor and returns the results in input
// order, len(results) == len(ds). Tile failures are logged at warning level
// and stored in the corresponding Result; they never fail the call.
//
// An error is returned only when the pool cannot be set up
// (ErrPoolUnavailable) or ctx is done before every tile was dispatched.
// In both cases no results are returned, and tiles already dispatched have
// settled before FetchAll returns.
func (f *Fetcher) FetchAll(ctx context.Context, ds []Descriptor) ([]Result, error) {
	if f.downloader == nil {
		return nil, fmt.Errorf("%w: no downloader", ErrPoolUnavailable)
	}
	if f.workers < 1 {
		return nil, fmt.Errorf("%w: invalid worker count %d", ErrPoolUnavailable, f.workers)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch tiles: %w", err)
	}

	f.log.Debugf("fetching %d tiles with %d workers...", len(ds), f.workers)

	results := make([]Result, len(ds))
	sem := semaphore.NewWeighted(int64(f.workers))
	var wg sync.WaitGroup

	for i := range ds {
		err := ctx.Err()
		if err == nil {
			err = sem.Acquire(ctx, 1)
		}
		if err != nil {
			wg.Wait()
			return nil, fmt.Errorf("fetch tiles: %w", err)
		}
		wg.Add(1)
		go func(i int) {
			defer func() {
				sem.Release(1)
				wg.Done()
			}()
			results[i] = f.download(ctx, ds[i])
			if f.onResult != nil {
				f.onResult(results[i])
			}
		}(i)
	}
	wg.Wait()

	f.log.Debugf("fetching %d tiles done", len(ds))

	for _, r := range results {
		if r.err != nil {
			f.log.WithFields(logrus.Fields{
				"tile": r.String(),
				"url":  r.URL,
			}).Warnf("cannot download a tile due to error: %v", r.err)
		}
	}

	s := Summarize(results)
	if f.threshold > 0 && s.Total > 0 && s.FailureRate() >= f.threshold {
		f.log.WithFields(logrus.Fields{
			"total":  s.Total,
			"failed": s.Failed,
		}).Errorf("%d of %d tiles failed, the provider may be unavailable", s.Failed, s.Total)
	}

	return results, nil
}

// download runs the downloader for one descriptor, turning a panic into a
// failed result for that tile only.
func (f *Fetcher) download(ctx context.Context, d Descriptor) (r Result) {
	defer func() {
		if v := recover(); v != nil {
			r = Failed(d, &PanicError{URL: d.URL, Value: v})
		}
	}()

	r = f.downloader.Download(ctx, d)
	// a result must belong to the descriptor it was asked for
	r.Descriptor = d
	if r.err == nil && len(r.img) == 0 {
		r = Succeeded(d, nil)
	}
	return r
}

// FetchAll retrieves ds through d with a default Fetcher.
func FetchAll(ctx context.Context, ds []Descriptor, d Downloader) ([]Result, error) {
	return NewFetcher(d).FetchAll(ctx, ds)
}

// Summary counts the outcome of a batch.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Summarize counts succeeded and failed results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// FailureRate returns Failed/Total, or 0 for an empty batch.
func (s Summary) FailureRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.Total)
}
