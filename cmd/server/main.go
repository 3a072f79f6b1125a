package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"logicgrid/core"
	"logicgrid/internal/save"
	"logicgrid/internal/session"
	"logicgrid/internal/statusapi"
	"logicgrid/pkg/config"
	"logicgrid/pkg/utils"
)

const defaultAddr = "127.0.0.1:10000"

func main() {
	root := serverCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [address [world_file]]",
		Short: "run the logicgrid world server",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := defaultAddr
			if len(args) > 0 {
				addr = args[0]
			}
			var worldFile string
			if len(args) > 1 {
				worldFile = args[1]
			}
			return run(addr, worldFile)
		},
	}
}

func run(addr, worldFile string) error {
	_ = godotenv.Load()

	log := logrus.New()
	level, err := logrus.ParseLevel(utils.EnvOrDefault("LOG", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.WithError(err).Warn("no config file found, using defaults")
		cfg = &config.Config{}
	}
	if cfg.Server.ListenAddr != "" && addr == defaultAddr {
		addr = cfg.Server.ListenAddr
	}
	if worldFile == "" {
		worldFile = cfg.Server.WorldFile
	}
	if cfg.Simulation.TickIntervalMS == 0 {
		cfg.Simulation.TickIntervalMS = 50
	}
	if cfg.Simulation.AutosaveIntervalSec == 0 {
		cfg.Simulation.AutosaveIntervalSec = 30
	}
	if cfg.Server.SavePath == "" {
		cfg.Server.SavePath = save.DefaultPath("./generated")
	}

	var scene *core.Scene
	if worldFile != "" {
		scene, err = save.Load(worldFile)
		if err != nil {
			return fmt.Errorf("load world file %q: %w", worldFile, err)
		}
		log.WithField("file", worldFile).Info("loaded world")
	} else {
		scene = core.NewScene()
	}

	dispatcher := session.NewDispatcher(scene, session.Config{
		TickInterval:     utils.EnvOrDefaultDuration("LOGICGRID_TICK_INTERVAL", time.Duration(cfg.Simulation.TickIntervalMS)*time.Millisecond),
		AutosaveInterval: utils.EnvOrDefaultDuration("LOGICGRID_AUTOSAVE_INTERVAL", time.Duration(cfg.Simulation.AutosaveIntervalSec)*time.Second),
		SavePath:         cfg.Server.SavePath,
	}, log)

	go dispatcher.Run()

	if cfg.Status.Enabled {
		statusAddr := cfg.Status.ListenAddr
		if statusAddr == "" {
			statusAddr = "127.0.0.1:10001"
		}
		go func() {
			log.WithField("addr", statusAddr).Info("serving status endpoint")
			if err := http.ListenAndServe(statusAddr, statusapi.Router(dispatcher, log)); err != nil {
				log.WithError(err).Error("status server stopped")
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := session.Listen(addr, dispatcher, log); err != nil {
			log.WithError(err).Error("listener stopped")
		}
	}()

	<-sig
	log.Info("interrupt received, shutting down")
	dispatcher.Shutdown()
	return nil
}
