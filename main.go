package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"time-ledger/internal/config"
	"time-ledger/internal/database"
	"time-ledger/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	// load configuration (TL_CONFIG overrides the path)
	cfg, err := config.Load(os.Getenv("TL_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	dataDir := filepath.Dir(cfg.Database.Path)
	if err := ensureDir(dataDir); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	if err := ensureDir(filepath.Dir(cfg.Log.File)); err != nil {
		log.Fatalf("create log dir: %v", err)
	}
	if err := ensureDir(cfg.Backup.Dir); err != nil {
		log.Fatalf("create backup dir: %v", err)
	}

	// application and access logs go to stdout and the log file
	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	defer logFile.Close()
	out := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(out)
	gin.DefaultWriter = out
	gin.DefaultErrorWriter = out

	// one server per data directory
	lock := flock.New(filepath.Join(dataDir, "time-ledger.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("acquire lock: %v", err)
	}
	if !locked {
		log.Fatalf("another time-ledger server is using %s", dataDir)
	}
	defer lock.Unlock()

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer database.Close(db)

	// schema and data migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// setup router
	r := router.SetupRouter(cfg, db)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s (timezone %s)", addr, cfg.Location())
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
