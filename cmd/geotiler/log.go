package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
)

var log *logrus.Logger

// InitLog 初始化日志
func InitLog() error {
	level, err := resolveLevel(logLevel, conf.Output.LogLevel)
	if err != nil {
		return err
	}
	w, err := logWriter(conf.Output.LogDir, conf.Output.OutputTerminal, time.Now())
	if err != nil {
		return err
	}

	log = logrus.New()
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	log.SetOutput(ansicolor.NewAnsiColorWriter(w))
	log.SetLevel(level)
	return nil
}

// resolveLevel picks the -l flag over output.logLevel, info when both are
// empty.
func resolveLevel(flagLevel, confLevel string) (logrus.Level, error) {
	name := flagLevel
	if name == "" {
		name = confLevel
	}
	if name == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// logWriter joins the daily file under dir with stdout. Stdout is always
// used when no dir is configured.
func logWriter(dir string, terminal bool, day time.Time) (io.Writer, error) {
	var ws []io.Writer
	if dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		filename := filepath.Join(dir, day.Format("2006-01-02.log"))
		file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return nil, fmt.Errorf("日志文件打开失败: %w", err)
		}
		ws = append(ws, file)
	}
	if terminal || len(ws) == 0 {
		ws = append(ws, os.Stdout)
	}
	return io.MultiWriter(ws...), nil
}
