// Web server for go-pugblog
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	prof "github.com/go-while/go-cpu-mem-profiler"
	"github.com/go-while/go-pugblog/internal/config"
	"github.com/go-while/go-pugblog/internal/database"
	"github.com/go-while/go-pugblog/internal/web"
	"github.com/joho/godotenv"
)

var Prof *prof.Profiler

var appVersion = "-unset-"

var (
	// command-line flags
	webport     int
	webssl      bool
	webcertFile string
	webkeyFile  string
	dataDir     string
	withPprof   string
)

func main() {
	config.AppVersion = appVersion

	// Load optional .env file before reading config from environment
	if err := godotenv.Load(); err == nil {
		log.Printf("[WEB]: Loaded environment from .env")
	}

	flag.IntVar(&webport, "webport", 0, "Web server port (default: 11980)")
	flag.BoolVar(&webssl, "webssl", false, "Enable SSL")
	flag.StringVar(&webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	flag.StringVar(&webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	flag.StringVar(&dataDir, "datadir", "", "Directory for the SQLite database and uploads")
	flag.StringVar(&withPprof, "pprof", "", "Enable pprof web server on this address (e.g. :51111)")
	flag.Parse()

	mainConfig := config.NewDefaultConfig()
	log.Printf("Starting go-pugblog web server (version: %s)", appVersion)

	webConfig := mainConfig.Web

	// Override config with command-line flags if provided
	if webport > 0 {
		webConfig.ListenPort = webport
		log.Printf("[WEB]: Overriding listen port with command-line flag: %d", webConfig.ListenPort)
	}
	if webssl {
		webConfig.SSL = true
		log.Printf("[WEB]: SSL enabled via command-line flag")
	}
	if webcertFile != "" {
		webConfig.CertFile = webcertFile
	}
	if webkeyFile != "" {
		webConfig.KeyFile = webkeyFile
	}
	if dataDir != "" {
		mainConfig.Database.DataDir = dataDir
	}

	// Validate port
	if webConfig.ListenPort < 1024 || webConfig.ListenPort > 65535 {
		log.Fatalf("[WEB]: Invalid port number: %d (must be between 1024 and 65535)", webConfig.ListenPort)
	}

	// Optional profiler
	if withPprof != "" {
		Prof = prof.NewProf()
		go Prof.PprofWeb(withPprof)
		log.Printf("[WEB]: pprof web server listening on %s", withPprof)
	}

	// Initialize database
	dbConfig := database.DefaultDBConfig()
	dbConfig.DataDir = mainConfig.Database.DataDir
	db, err := database.OpenDatabase(dbConfig)
	if err != nil {
		log.Fatalf("[WEB]: Failed to initialize database: %v", err)
	}

	// Start web server
	server := web.NewServer(db, webConfig)
	server.StartSessionCleanup()
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("[WEB]: Web server failed: %v", err)
		}
	}()

	protocol := "http"
	if webConfig.SSL {
		protocol = "https"
	}
	log.Printf("[WEB]: go-pugblog listening on %s://localhost:%d", protocol, webConfig.ListenPort)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("[WEB]: Received signal %v, shutting down", sig)

	server.PageCache.Stop()
	if err := db.Shutdown(); err != nil {
		log.Printf("[WEB]: Error closing database: %v", err)
	}
	log.Printf("[WEB]: Shutdown complete")
}
