package main

import (
	"fmt"
	"os"
)

func main() {
	// 初始化控制台
	InitFlag()
	// 开始安全退出任务
	ctx := InitSafeExit()
	// 初始化配置
	InitConf(configPath)
	// 初始化日志
	if err := InitLog(); err != nil {
		fmt.Fprintf(os.Stderr, "init log error: %v\n", err)
		os.Exit(1)
	}
	// 开始任务
	err := InitTask(ctx)
	SafeExitInst.Cleanup()
	if err != nil {
		log.Errorf("task failed: %v", err)
		os.Exit(1)
	}
}
