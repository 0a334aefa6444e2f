package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/engine"
	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/server/reldbwire"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "path to yaml config (empty = defaults)")
		addr    = flag.String("addr", "", "listen address (overrides config)")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if cfg.Server.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		log.Fatalf("data dir: %v", err)
	}
	dbPath := filepath.Join(cfg.Storage.DataDir, cfg.Storage.Database+".json")

	db, err := engine.Open(dbPath, cfg.Storage.Database, cfg.Storage.BTreeDegree)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	if err := reldbwire.Run(reldbwire.ServerConfig{Addr: cfg.Server.Addr, DB: db}); err != nil {
		log.Fatalf("server: %v", err)
	}
}
