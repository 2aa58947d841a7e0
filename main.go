package main

import (
	"context"
	"embed"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/vehicle.count/internal/api"
	"github.com/banshee-data/vehicle.count/internal/counting"
	"github.com/banshee-data/vehicle.count/internal/db"
	"github.com/banshee-data/vehicle.count/internal/detect"
	"github.com/banshee-data/vehicle.count/internal/monitoring"
	"github.com/banshee-data/vehicle.count/internal/track"
	"github.com/banshee-data/vehicle.count/internal/version"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode   = flag.Bool("dev", false, "Run in dev mode")
	listen    = flag.String("listen", ":8080", "Listen address")
	dbFile    = flag.String("db", "vehicle_count.db", "SQLite database path")
	interval  = flag.Duration("interval", 2*time.Second, "Tick interval")
	fixtures  = flag.String("fixtures", "", "Detection fixture file (JSON lines); implies replay source")
	seed      = flag.Int64("seed", 1, "Seed for the simulated detection source")
	autostart = flag.Bool("autostart", true, "Start detection immediately")
	verbose   = flag.Bool("verbose", false, "Log per-tick detail")
)

func main() {
	flag.Parse()
	monitoring.Verbose = *verbose

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	log.Print(version.String())

	engine, err := track.NewEngine(track.DefaultEngineConfig(), nil)
	if err != nil {
		log.Fatalf("failed to create tracking engine: %v", err)
	}

	// Camera acquisition and inference run outside this process. In dev mode
	// detections replay from fixtures; otherwise a seeded simulator feeds
	// the engine.
	var source detect.Source
	if *fixtures != "" {
		data, err := os.ReadFile(*fixtures)
		if err != nil {
			log.Fatalf("failed to open fixtures file: %v", err)
		}
		source, err = detect.NewReplaySource(data)
		if err != nil {
			log.Fatalf("failed to parse fixtures: %v", err)
		}
	} else {
		source = detect.NewSimSource(track.DefaultEngineConfig().Classes, *seed)
	}
	defer source.Close()

	countDB, err := db.New(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer countDB.Close()

	monitor, err := counting.NewMonitor(engine, source, countDB, nil, counting.Config{
		Interval:      *interval,
		HourlyBuckets: counting.DefaultConfig().HourlyBuckets,
	})
	if err != nil {
		log.Fatalf("failed to create monitor: %v", err)
	}
	if *autostart {
		monitor.Start()
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the tick loop that feeds detections into the tracking engine
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := monitor.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("monitor loop error: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or
		// over Tailscale)
		if err := countDB.AttachAdminRoutes(mux); err != nil {
			log.Printf("failed to attach admin routes: %v", err)
		}

		apiMux := api.NewServer(monitor).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))

		// read static files from the embedded filesystem in production or
		// from the local ./static in dev for easier iteration without
		// restarting the server
		var staticHandler http.Handler
		if *devMode {
			staticHandler = http.FileServer(http.Dir("./static"))
		} else {
			staticHandler = http.FileServer(http.FS(staticFiles))
		}
		mux.Handle("/", staticHandler)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
