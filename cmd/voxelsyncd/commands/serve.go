package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/voxelsync/voxelsync/chunk"
	"github.com/voxelsync/voxelsync/config"
	"github.com/voxelsync/voxelsync/generator"
	"github.com/voxelsync/voxelsync/metrics"
	"github.com/voxelsync/voxelsync/observer"
	"github.com/voxelsync/voxelsync/rpcauthority"
	"github.com/voxelsync/voxelsync/scheduler"
	"github.com/voxelsync/voxelsync/storage"
	"github.com/voxelsync/voxelsync/streamer"
	"github.com/voxelsync/voxelsync/world"
)

var (
	serveWorldName string
	serveDataDir   string
	serveSeed      uint64
	serveHilly     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host a world authoritatively and expose it over the RPC authority server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveWorldName, "world", "overworld", "name of the world to host")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "directory for LevelDB chunk storage (default: in-memory storage)")
	serveCmd.Flags().Uint64Var(&serveSeed, "seed", 1, "terrain generation seed")
	serveCmd.Flags().BoolVar(&serveHilly, "hills", true, "use the hills generator instead of flat terrain")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	uc, err := config.LoadUserConfig(configFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err := uc.Config(log)
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	if serveHilly {
		chunk.RegisterGenerator(generator.Hills{Seed: serveSeed, BaseHeight: 64, Amplitude: 12, SolidID: 1, SurfaceID: 2}, log)
	} else {
		chunk.RegisterGenerator(generator.Flat{GroundHeight: 64, SolidID: 1}, log)
	}

	registry := world.NewRegistry(log)
	w, err := registry.Register(serveWorldName, 15)
	if err != nil {
		return fmt.Errorf("register world: %w", err)
	}

	var store storage.WorldStorage
	if serveDataDir != "" {
		db, err := storage.NewLevelDB(serveDataDir)
		if err != nil {
			return fmt.Errorf("open chunk storage: %w", err)
		}
		defer db.Close()
		store = db
	} else {
		store = storage.NewMemory()
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	sched := scheduler.New(scheduler.Config{
		NumWorkers:   cfg.UpdateThreadNumber,
		TickInterval: time.Duration(cfg.TickInterval_ms) * time.Millisecond,
		Logger:       log,
		Metrics:      m,
	})

	strm := streamer.New(streamer.Config{
		LoadRange:       cfg.LoadDistance,
		Logger:          log,
		Metrics:         m,
		Storage:         store,
		RetentionWindow: time.Duration(cfg.RetentionSeconds) * time.Second,
	})

	obs := observer.New(mglOrigin(), observer.Hitbox{HalfWidth: 0.3, Height: 1.8})
	strm.Register(sched, w, obs)
	sched.AddRegularReadTask(func() {
		obs.Kinematics(cfg.RotationInertia, cfg.MouseSensitivity, solidProbe(w))
	})

	authority := newLocalAuthority(registry, sched)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.RPCPort),
		Handler: rpcauthority.NewServer(authority, log),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: ":9100", Handler: metricsMux}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		log.Info("rpc authority listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("rpc authority server failed", "err", err)
		}
	}()
	go func() {
		log.Info("metrics listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "err", err)
		}
	}()

	schedDone := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(schedDone)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info("voxelsyncd serving", "world", w.Name(), "load_distance", cfg.LoadDistance)
	select {
	case <-sigCh:
		log.Info("shutdown signal received")
	case <-schedDone:
		log.Warn("scheduler stopped unexpectedly")
	}

	cancel()
	<-schedDone
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	return nil
}
