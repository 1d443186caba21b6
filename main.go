package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/soocke/pixel-recorder-go/app"
	"github.com/soocke/pixel-recorder-go/config"
	"github.com/soocke/pixel-recorder-go/debug"
)

func main() {
	cfgPath := flag.String("config", "pixel-recorder.json", "Path to the JSON config file")
	saveConfig := flag.Bool("save-config", false, "Write the effective config back to -config and exit")
	debugFlag := flag.Bool("debug", false, "Log runtime and capture stats periodically")
	level := flag.String("log-level", "", "Log level: debug, info, warn, error")
	format := flag.String("log-format", "", "Log format: json or text")
	source := flag.String("source", "", "Capture source: screen or webcam")
	interval := flag.Int("interval", 0, "Capture interval in milliseconds")
	fixed := flag.Bool("fixed", false, "Stamp every frame with the configured interval")
	left := flag.Int("left", -1, "Capture region left")
	top := flag.Int("top", -1, "Capture region top")
	width := flag.Int("width", 0, "Capture region width")
	height := flag.Int("height", 0, "Capture region height")
	scale := flag.Float64("dpi-scale", 0, "Display scale factor of the captured monitor")
	temp := flag.String("temp", "", "Folder for recordings and projects")
	webcamCmd := flag.String("webcam-cmd", "", "Command producing raw BGRA frames on stdout")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config %s: %v (using defaults)\n", *cfgPath, err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Debug = *debugFlag
		case "log-level":
			cfg.LogLevel = *level
		case "log-format":
			cfg.LogFormat = *format
		case "source":
			cfg.Source = *source
		case "interval":
			cfg.IntervalMs = *interval
		case "fixed":
			cfg.FixedFrameRate = *fixed
		case "left":
			cfg.RegionLeft = *left
		case "top":
			cfg.RegionTop = *top
		case "width":
			cfg.RegionWidth = *width
		case "height":
			cfg.RegionHeight = *height
		case "dpi-scale":
			cfg.DPIScale = *scale
		case "temp":
			cfg.TempFolder = *temp
		case "webcam-cmd":
			cfg.WebcamCommand = *webcamCmd
		}
	})
	_ = cfg.Validate()

	if *saveConfig {
		if err := cfg.Save(*cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "save config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(cfg.LogLevel))
	logger := NewLogger(os.Stderr, cfg.LogFormat, levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := app.BuildContainer(cfg, logger)
	if cfg.Debug {
		debug.StartStatsLogger(ctx, time.Duration(cfg.StatsIntervalSeconds)*time.Second, logger, c.Recorder.Stats)
	}

	con := &console{rec: c.Recorder, level: levelVar, out: os.Stdout}
	if err := con.run(ctx, os.Stdin); err != nil {
		logger.Error("read commands", "error", err)
	}
	if rec, err := c.Recorder.Stop(); err != nil {
		logger.Error("capture ended with error", "error", err)
	} else if rec != nil {
		logger.Info("recording kept", "path", rec.CacheRootPath)
	}
}
