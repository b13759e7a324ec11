package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxelsync/voxelsync/config"
	"github.com/voxelsync/voxelsync/observer"
	"github.com/voxelsync/voxelsync/rpcauthority"
	"github.com/voxelsync/voxelsync/scheduler"
	"github.com/voxelsync/voxelsync/streamer"
	"github.com/voxelsync/voxelsync/world"
)

var (
	connectAddr      string
	connectWorldName string
	connectWorldID   uint32
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Stream chunks from a remote authoritative instance",
	RunE:  runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&connectAddr, "addr", "http://127.0.0.1:19132", "base URL of the remote RPC authority")
	connectCmd.Flags().StringVar(&connectWorldName, "world", "overworld", "local name to give the mirrored world")
	connectCmd.Flags().Uint32Var(&connectWorldID, "world-id", 0, "remote numeric world id to mirror")
}

func runConnect(cmd *cobra.Command, args []string) error {
	log := slog.Default()

	uc, err := config.LoadUserConfig(configFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg, err := uc.Config(log)
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	client := rpcauthority.NewClient(connectAddr, nil, log)
	info, err := client.WorldInfo(connectWorldID)
	if err != nil {
		return fmt.Errorf("fetch remote world info: %w", err)
	}
	log.Info("connected to remote authority", "addr", connectAddr, "remote_world", info["name"])

	registry := world.NewRegistry(log)
	w, err := registry.Register(connectWorldName, 15)
	if err != nil {
		return fmt.Errorf("register local world: %w", err)
	}

	sched := scheduler.New(scheduler.Config{
		NumWorkers:   cfg.UpdateThreadNumber,
		TickInterval: time.Duration(cfg.TickInterval_ms) * time.Millisecond,
		Logger:       log,
	})

	fetcher := streamer.NewRemoteChunkFetcher(client, connectWorldID, log, nil)
	strm := streamer.New(streamer.Config{
		LoadRange:       cfg.LoadDistance,
		Logger:          log,
		Fetcher:         fetcher,
		RetentionWindow: time.Duration(cfg.RetentionSeconds) * time.Second,
	})

	obs := observer.New(mglOrigin(), observer.Hitbox{HalfWidth: 0.3, Height: 1.8})
	strm.Register(sched, w, obs)
	sched.AddRegularReadTask(func() {
		obs.Kinematics(cfg.RotationInertia, cfg.MouseSensitivity, solidProbe(w))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	schedDone := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(schedDone)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info("voxelsyncd mirroring remote world", "world", w.Name(), "load_distance", cfg.LoadDistance)
	select {
	case <-sigCh:
		log.Info("shutdown signal received")
	case <-schedDone:
		log.Warn("scheduler stopped unexpectedly")
	}

	cancel()
	<-schedDone
	return nil
}
