package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

var conf *Conf

type Conf struct {
	App struct {
		Version string `toml:"version"`
		Title   string `toml:"title"`
	} `toml:"app"`
	Output struct {
		Directory      string `toml:"directory"`
		Format         string `toml:"format"`
		LogDir         string `toml:"logDir"`
		LogLevel       string `toml:"logLevel"`
		OutputTerminal bool   `toml:"outputTerminal"`
	} `toml:"output"`
	Task struct {
		Workers   int `toml:"workers"`
		Timeout   int `toml:"timeout"`
		Timedelay int `toml:"timedelay"`
		Batch     int `toml:"batch"`
		// FailureRate is the share of failed tiles in a batch that is
		// reported as a provider outage.
		FailureRate float64 `toml:"failureRate"`
	} `toml:"task"`
	Cache struct {
		Kind string `toml:"kind"`
		Path string `toml:"path"`
		Size int    `toml:"size"`
	} `toml:"cache"`
	BreakPoint struct {
		SaveFilePath string `toml:"saveFilePath"`
	} `toml:"breakPoint"`
	Tm struct {
		ID         string   `toml:"id"`
		Name       string   `toml:"name"`
		File       string   `toml:"file"`
		Format     string   `toml:"format"`
		URL        string   `toml:"url"`
		Subdomains []string `toml:"subdomains"`
		Limit      int      `toml:"limit"`
		UserAgent  string   `toml:"userAgent"`
	} `toml:"tm"`
	Lrs []struct {
		Min     int       `toml:"min"`
		Max     int       `toml:"max"`
		Geojson string    `toml:"geojson"`
		Bbox    []float64 `toml:"bbox"`
	} `toml:"lrs"`
}

// InitConf 初始化配置
func InitConf(cfgFile string) {
	if cfgFile == "" {
		cfgFile = "conf.toml"
	}
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("config file(%s) not exist\n", cfgFile)
		os.Exit(1)
	}
	viper.SetConfigType("toml")
	viper.SetConfigFile(cfgFile)
	viper.AutomaticEnv() // read in environment variables that match
	err := viper.ReadInConfig()
	if err != nil {
		fmt.Printf("read config file(%s) error, details: %s\n", viper.ConfigFileUsed(), err)
	}
	// 设置默认值
	viper.SetDefault("app.version", "v 0.1.0")
	viper.SetDefault("app.title", "GeoTiler")
	viper.SetDefault("output.format", "dir")
	viper.SetDefault("output.directory", "output")
	viper.SetDefault("output.outputTerminal", true)
	viper.SetDefault("output.logLevel", "info")
	viper.SetDefault("task.workers", 0)
	viper.SetDefault("task.timeout", 30)
	viper.SetDefault("task.timedelay", 0)
	viper.SetDefault("task.batch", 256)
	viper.SetDefault("task.failureRate", 1.0)
	viper.SetDefault("cache.kind", "none")
	viper.SetDefault("breakPoint.saveFilePath", "breakpoint")
	viper.SetDefault("tm.id", "osm")

	err = viper.Unmarshal(&conf)
	if err != nil {
		panic("配置文件解析失败")
	}
	if providerID != "" {
		conf.Tm.ID = providerID
		conf.Tm.URL = ""
		conf.Tm.File = ""
	}
}
