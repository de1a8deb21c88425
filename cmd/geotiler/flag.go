package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/RoninZc/geotiler/tile"
)

var (
	hf         bool
	configPath string
	logLevel   string
	providerID string
)

func InitFlag() {
	flag.BoolVar(&hf, "h", false, "print usage and exit")
	flag.StringVar(&configPath, "c", "./conf/conf.toml", "TOML config `file`")
	flag.StringVar(&logLevel, "l", "", "override output.logLevel from the config `level`")
	flag.StringVar(&providerID, "p", "", "use builtin map `provider` instead of the configured one")
	flag.Usage = usage
	flag.Parse()

	if hf {
		flag.Usage()
		os.Exit(0)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `geotiler %s, downloads map tiles of the configured layers
Usage: geotiler [-h] [-c file] [-l level] [-p provider]
`, tile.DefaultUserAgent)
	flag.PrintDefaults()
}
