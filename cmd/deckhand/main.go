package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deckhand-io/deckhand/pkg/api"
	"github.com/deckhand-io/deckhand/pkg/config"
	"github.com/deckhand-io/deckhand/pkg/hub"
	"github.com/deckhand-io/deckhand/pkg/log"
	"github.com/deckhand-io/deckhand/pkg/monitor"
	"github.com/deckhand-io/deckhand/pkg/service"
	"github.com/deckhand-io/deckhand/pkg/storage"
	"github.com/deckhand-io/deckhand/pkg/tracker"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deckhand",
	Short: "Deckhand - real-time deployment dashboard",
	Long: `Deckhand tracks deployment jobs and streams their state, host
resource metrics and container statistics to connected viewers in
near-real time.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Deckhand version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		listenAddr, _ := cmd.Flags().GetString("listen-addr")
		dataDir, _ := cmd.Flags().GetString("data-dir")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}

		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().String("listen-addr", "", "HTTP listen address")
	serveCmd.Flags().String("data-dir", "", "Directory for the job database")
}

func serve(cfg *config.Config) error {
	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data dir: %v", err)
	}

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open job store: %v", err)
	}
	defer store.Close()

	dockerSource, err := monitor.NewDockerSource(cfg.DockerHost)
	if err != nil {
		return fmt.Errorf("failed to connect to docker: %v", err)
	}
	defer dockerSource.Close()

	source := monitor.NewAdapter(
		monitor.NewSystemSampler(cfg.DiskPath),
		dockerSource,
		monitor.NewDeploymentSource(store),
	)

	trk := tracker.New(store, tracker.WithStepDelay(cfg.StepDelay.Duration))
	h := hub.New(source, trk, cfg.HubConfig())
	svc := service.New(trk, h)

	h.StartPublishing()
	defer h.StopPublishing()

	server := api.NewServer(svc, h, source)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.ListenAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info(fmt.Sprintf("received signal %v, shutting down", sig))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(ctx)
}
