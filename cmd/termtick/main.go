package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/termtick/app"
	"github.com/lixenwraith/termtick/audio"
	"github.com/lixenwraith/termtick/config"
	"github.com/lixenwraith/termtick/session"
	"github.com/lixenwraith/termtick/status"
	"github.com/lixenwraith/termtick/terminal"
	"github.com/lixenwraith/termtick/terminal/tcelldrv"
)

var (
	configFlag  = flag.String("config", "", "Path to YAML config file")
	tickFlag    = flag.Duration("tick", 0, "Tick interval (overrides config)")
	driverFlag  = flag.String("driver", "", "Terminal driver: ansi, tcell (overrides config)")
	debugFlag   = flag.Bool("debug", false, "Write debug log to logs/termtick.log")
	soundFlag   = flag.Bool("sound", false, "Play audio cues")
	noMouseFlag = flag.Bool("no-mouse", false, "Do not capture the mouse")
)

func main() {
	os.Exit(run())
}

func run() int {
	defer func() { app.HandleCrash(recover()) }()

	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termtick: config: %v\n", err)
		return 2
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "termtick: %v\n", err)
		return 2
	}

	if logFile := setupLogging(cfg.Log.Debug, cfg.Log.Dir, cfg.MaxLogBytes()); logFile != nil {
		defer logFile.Close()
	}

	drv, err := newDriver(cfg.Driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termtick: %v\n", err)
		return 1
	}

	var player *audio.Player
	if cfg.Sound {
		player = audio.NewPlayer()
		if err := player.Init(); err != nil {
			log.Printf("audio disabled: %v", err)
		}
		defer player.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := status.NewRegistry()
	mc := cfg.Mux()
	mc.Logger = log.Default()
	mc.Status = reg

	var opts []session.Option
	if !cfg.Mouse {
		opts = append(opts, session.WithoutMouse())
	}

	start := time.Now()
	err = app.Run(ctx, drv, mc, newPanel(reg, player, mc.TickInterval), opts...)
	log.Printf("termtick: exit after %v, err=%v", time.Since(start), err)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termtick: %v\n", err)
		return 1
	}
	return 0
}

// applyFlags overrides config values with flags given explicitly on the command line
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tick":
			cfg.TickInterval = *tickFlag
		case "driver":
			cfg.Driver = *driverFlag
		case "debug":
			cfg.Log.Debug = *debugFlag
		case "sound":
			cfg.Sound = *soundFlag
		case "no-mouse":
			cfg.Mouse = !*noMouseFlag
		}
	})
}

func newDriver(name string) (terminal.Driver, error) {
	switch name {
	case config.DriverTcell:
		d, err := tcelldrv.New()
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return terminal.New(), nil
	}
}
