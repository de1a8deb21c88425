package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/paulmach/orb/maptile"

	"github.com/RoninZc/geotiler/provider"
)

var BreakPointInst *BreakPoint

// InitBreakPoint opens the resume file of the resolved provider, so a
// record always matches the output store the tiles were written to.
func InitBreakPoint(p *provider.Provider) error {
	b, err := OpenBreakPoint(conf.BreakPoint.SaveFilePath, p.ID)
	if err != nil {
		return fmt.Errorf("break point file open error: %w", err)
	}
	BreakPointInst = b
	log.Infof("断点记录已加载, %d 个瓦片已完成", len(b.successMap))

	SafeExitInst.Register(BreakPointInst.BreakPointSafeFun)
	return nil
}

// BreakPoint records finished tiles in a file so an interrupted task can
// resume without fetching them again.
type BreakPoint struct {
	file       *os.File
	saveChan   chan maptile.Tile
	successMap map[string]struct{}
	wg         sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// OpenBreakPoint opens dir/name.log, loads the tiles recorded so far and
// starts the writer goroutine.
func OpenBreakPoint(dir, name string) (*BreakPoint, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.log", name))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	// 获取断点记录
	successMap, err := getBackPoint(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	b := &BreakPoint{
		file:       file,
		saveChan:   make(chan maptile.Tile, 256),
		successMap: successMap,
	}
	b.wg.Add(1)
	// 开始断点任务
	go b.Start()
	return b, nil
}

// 初始化断点文件
func getBackPoint(file *os.File) (map[string]struct{}, error) {
	res := make(map[string]struct{})

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			res[line] = struct{}{}
		}
	}
	return res, sc.Err()
}

func breakPointKey(tile maptile.Tile) string {
	return fmt.Sprintf("%d-%d-%d", tile.X, tile.Y, tile.Z)
}

// IsSuccessed reports whether tile was recorded before this run started.
func (b *BreakPoint) IsSuccessed(tile maptile.Tile) bool {
	_, ok := b.successMap[breakPointKey(tile)]
	return ok
}

// SetSuccessed records tile. Tiles settled after BreakPointSafeFun are
// dropped and fetched again on the next run.
func (b *BreakPoint) SetSuccessed(tile maptile.Tile) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.saveChan <- tile
	return true
}

func (b *BreakPoint) Start() {
	defer b.wg.Done()
	w := bufio.NewWriter(b.file)
	for tile := range b.saveChan {
		w.WriteString(breakPointKey(tile) + "\n")
		if len(b.saveChan) == 0 {
			w.Flush()
		}
	}
	w.Flush()
}

// BreakPointSafeFun flushes and closes the resume file. It is safe to call
// while other goroutines are still recording tiles.
func (b *BreakPoint) BreakPointSafeFun() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.saveChan)
	b.mu.Unlock()

	b.wg.Wait()
	if err := b.file.Close(); err != nil && log != nil {
		log.Errorf("close break point file error: %v", err)
		return
	}
	if log != nil {
		log.Infof("断点记录任务已安全退出")
	}
}
