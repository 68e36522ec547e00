package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/juruen/inkmath/config"
	"github.com/juruen/inkmath/log"
	"github.com/juruen/inkmath/server"
	"github.com/juruen/inkmath/shell"

	_ "github.com/juruen/inkmath/classifier/cvnet"
	_ "github.com/juruen/inkmath/classifier/linear"
)

func main() {
	configPath := flag.String("config", "", "settings file (default $INKMATH_CONFIG or the user config dir)")
	serverPort := flag.String("server", "", "run the HTTP API on this port")
	flag.Parse()

	log.InitLog()

	path := *configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			log.Error.Fatalf("can't locate settings: %v", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// an unavailable recognizer still serves clustering and previews
	r, _ := cfg.NewRecognizer()

	if *serverPort != "" {
		if err := server.Run(*serverPort, server.NewApiServer(r, cfg.MinStrokeDivisor)); err != nil {
			log.Error.Fatalf("Server failed: %v", err)
		}
		return
	}

	ctx := &shell.ShellCtxt{
		Config:     cfg,
		ConfigPath: path,
		Recognizer: r,
	}
	if err := shell.RunShell(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
