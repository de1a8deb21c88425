package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/RoninZc/geotiler/cache"
	"github.com/RoninZc/geotiler/grid"
	"github.com/RoninZc/geotiler/provider"
	"github.com/RoninZc/geotiler/tile"
)

func InitTask(ctx context.Context) error {
	start := time.Now()

	p, err := loadProvider()
	if err != nil {
		return err
	}
	// 初始化断点
	if err := InitBreakPoint(p); err != nil {
		return err
	}
	layers, err := loadLayers()
	if err != nil {
		return err
	}
	if len(layers) == 0 {
		return errors.New("no layers configured")
	}

	var dl tile.Downloader = tile.NewHTTPDownloader(tile.Options{
		UserAgent: conf.Tm.UserAgent,
		Timeout:   time.Duration(conf.Task.Timeout) * time.Second,
	})
	//设置请求发送间隔时间
	if conf.Task.Timedelay > 0 {
		td := newThrottledDownloader(dl, time.Duration(conf.Task.Timedelay)*time.Millisecond)
		SafeExitInst.Register(td.Stop)
		dl = td
	}

	store, err := cache.Open(conf.Cache.Kind, conf.Cache.Path, conf.Cache.Size, p.Extension)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if store != nil {
		SafeExitInst.Register(func() {
			if err := store.Close(); err != nil {
				log.Errorf("close cache error: %v", err)
			}
		})
		dl = cache.NewDownloader(store, dl, log)
	}

	task := NewTask(layers, p)
	if err := task.SetupOutput(ctx); err != nil {
		return err
	}
	SafeExitInst.Register(task.CloseOutput)

	workers := conf.Task.Workers
	if workers <= 0 {
		workers = p.Limit
	}
	task.fetcher = tile.NewFetcher(dl,
		tile.WithWorkers(workers),
		tile.WithLogger(log),
		tile.WithFailureThreshold(conf.Task.FailureRate),
		tile.WithOnResult(task.onResult),
	)

	// 开始下载
	err = task.Download(ctx)

	secs := time.Since(start).Seconds()
	log.Printf("%.3fs finished, %d tiles fetched, %d failed, %d skipped",
		secs, task.Stats.Succeeded, task.Stats.Failed, task.Skipped)
	return err
}

// Layer 级别&瓦片数
type Layer struct {
	Zoom       int
	Count      int64
	Collection orb.Collection
	Bound      *orb.Bound
}

// Tiles returns the tiles of the layer in row-major order.
func (l Layer) Tiles() []maptile.Tile {
	if l.Bound != nil {
		return grid.Bound(*l.Bound, maptile.Zoom(l.Zoom))
	}
	return grid.Collection(l.Collection, maptile.Zoom(l.Zoom))
}

func (l Layer) String() string {
	return fmt.Sprintf("zoom %d (%d tiles)", l.Zoom, l.Count)
}

// Task 下载任务
type Task struct {
	ID       string
	Name     string
	Min      int
	Max      int
	Layers   []Layer
	Provider *provider.Provider
	Total    int64
	Stats    tile.Summary
	Skipped  int64
	Bar      *pb.ProgressBar

	fetcher *tile.Fetcher
	output  cache.Store
	batch   int
}

// NewTask 创建下载任务
func NewTask(layers []Layer, p *provider.Provider) *Task {
	id, _ := shortid.Generate()

	task := &Task{
		ID:       id,
		Name:     p.ID,
		Layers:   layers,
		Provider: p,
		Min:      layers[0].Zoom,
		Max:      layers[0].Zoom,
		batch:    conf.Task.Batch,
	}
	if task.batch <= 0 {
		task.batch = 256
	}

	for i := range task.Layers {
		l := &task.Layers[i]
		if l.Bound != nil {
			l.Count = int64(len(l.Tiles()))
		} else {
			l.Count = grid.Count(l.Collection, maptile.Zoom(l.Zoom))
		}
		if l.Zoom < task.Min {
			task.Min = l.Zoom
		}
		if l.Zoom > task.Max {
			task.Max = l.Zoom
		}
		log.Printf("zoom: %d, tiles: %d", l.Zoom, l.Count)
		task.Total += l.Count
	}
	return task
}

// SetupOutput opens the store the fetched tiles are saved to.
func (task *Task) SetupOutput(ctx context.Context) error {
	var path string
	switch conf.Output.Format {
	case cache.KindMBTiles:
		path = filepath.Join(conf.Output.Directory, task.Name+".mbtiles")
	case cache.KindDir:
		path = filepath.Join(conf.Output.Directory, task.Name)
	default:
		return fmt.Errorf("unsupported output format %q", conf.Output.Format)
	}

	out, err := cache.Open(conf.Output.Format, path, 0, task.Provider.Extension)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	task.output = out

	if mb, ok := out.(*cache.MBTilesStore); ok {
		md := map[string]string{
			"name":        task.Provider.Name,
			"format":      task.Provider.Extension,
			"minzoom":     strconv.Itoa(task.Min),
			"maxzoom":     strconv.Itoa(task.Max),
			"attribution": task.Provider.Attribution,
			"type":        "baselayer",
		}
		for k, v := range md {
			if err := mb.SetMetadata(ctx, k, v); err != nil {
				return err
			}
		}
	}
	log.Infof("Task %s saving tiles to %s", task.ID, path)
	return nil
}

// CloseOutput 结束任务
func (task *Task) CloseOutput() {
	if task.output != nil {
		if err := task.output.Close(); err != nil {
			log.Errorf("close output error: %v", err)
		}
	}
}

// Download 开启下载任务
func (task *Task) Download(ctx context.Context) error {
	for _, layer := range task.Layers {
		if err := task.downloadLayer(ctx, layer); err != nil {
			return err
		}
	}
	return nil
}

func (task *Task) onResult(tile.Result) {
	if task.Bar != nil {
		task.Bar.Increment()
	}
}

// downloadLayer 下载指定层级
func (task *Task) downloadLayer(ctx context.Context, layer Layer) error {
	log.Infof("Task %s layer: %s starting", task.ID, layer)
	tiles := layer.Tiles()

	bar := pb.New(len(tiles)).Prefix(fmt.Sprintf("Zoom %d : ", layer.Zoom)).Postfix("\n")
	bar.SetRefreshRate(time.Second)
	bar.Start()
	task.Bar = bar

	pending := make([]maptile.Tile, 0, len(tiles))
	for _, t := range tiles {
		// 如果已经在成功列表里
		if BreakPointInst.IsSuccessed(t) {
			task.Skipped++
			bar.Increment()
			continue
		}
		pending = append(pending, t)
	}

	for start := 0; start < len(pending); start += task.batch {
		end := start + task.batch
		if end > len(pending) {
			end = len(pending)
		}

		results, err := task.fetcher.FetchAll(ctx, task.Provider.Descriptors(pending[start:end]))
		if err != nil {
			bar.Finish()
			task.Bar = nil
			if errors.Is(err, context.Canceled) {
				log.Infof("Task %s got canceled.", task.ID)
			}
			return err
		}

		s := tile.Summarize(results)
		task.Stats.Total += s.Total
		task.Stats.Succeeded += s.Succeeded
		task.Stats.Failed += s.Failed

		for _, r := range results {
			if r.OK() {
				task.saveTile(ctx, r)
			}
		}
	}

	bar.FinishPrint(fmt.Sprintf("Task %s Zoom %d finished ~", task.ID, layer.Zoom))
	task.Bar = nil
	return nil
}

// saveTile 保存瓦片
func (task *Task) saveTile(ctx context.Context, r tile.Result) {
	data := r.Image()
	if task.Provider.Extension == tile.PBF {
		var err error
		if data, err = gzipTile(data); err != nil {
			log.Errorf("compress %s tile error ~ %s", r, err)
			return
		}
	}
	if err := task.output.Put(ctx, r.Tile, data); err != nil {
		log.Errorf("save %s tile error ~ %s", r, err)
		return
	}
	if !BreakPointInst.SetSuccessed(r.Tile) {
		log.Debugf("break point closed, tile %s not recorded", r)
	}
	log.Debugf("tile %s, %.2f kb, %s", r, float32(len(data))/1024.0, r.URL)
}
