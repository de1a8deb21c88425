package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var SafeExitInst *SafeExit

// InitSafeExit returns the context of the run; it is canceled on the first
// termination signal. A second signal exits immediately.
func InitSafeExit() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	SafeExitInst = &SafeExit{cancel: cancel}
	go SafeExitInst.ListenSignal()
	return ctx
}

type SafeExit struct {
	funcs  []func()
	cancel context.CancelFunc
	mu     sync.Mutex
	done   bool
}

func (s *SafeExit) Register(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funcs = append(s.funcs, f)
}

// Cleanup runs the registered functions once, last registered first.
func (s *SafeExit) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return
	}
	s.done = true
	for i := len(s.funcs) - 1; i >= 0; i-- {
		s.funcs[i]()
	}
}

func (s *SafeExit) ListenSignal() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	stopping := false
	for sig := range sigs {
		if stopping {
			fmt.Fprintf(os.Stderr, "收到系统信号 %v, 强制退出\n", sig)
			s.Cleanup()
			os.Exit(1)
		}
		stopping = true
		fmt.Fprintf(os.Stderr, "收到系统信号 %v, 正在停止任务, 请稍后\n", sig)
		s.cancel()
	}
}
