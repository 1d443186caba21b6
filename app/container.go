package app

import (
	"log/slog"

	"github.com/soocke/pixel-recorder-go/config"
	"github.com/soocke/pixel-recorder-go/domain/capture"
	"github.com/soocke/pixel-recorder-go/domain/input"
	"github.com/soocke/pixel-recorder-go/domain/project"
)

// AppContainer assembles services and the recorder.
type AppContainer struct {
	Config    *config.Config
	Logger    *slog.Logger
	Converter *project.Converter
	Recorder  *Recorder
}

// BuildContainer constructs all components. No resources are acquired until
// a recording starts.
func BuildContainer(cfg *config.Config, logger *slog.Logger) *AppContainer {
	c := &AppContainer{Config: cfg, Logger: logger}
	c.Converter = project.NewConverter(logger, cfg.TempFolder)
	c.Recorder = NewRecorder(cfg, logger, NewBackendFactory(cfg), func() input.Hook {
		return input.NewHook(logger)
	}, c.Converter)
	return c
}

// NewBackendFactory picks the capture device for the configured source.
func NewBackendFactory(cfg *config.Config) BackendFactory {
	if cfg.Source == config.SourceWebcam {
		open := capture.CommandStream(cfg.WebcamCommand)
		return func(opts capture.Options) capture.Backend {
			return capture.NewWebcamBackend(open, opts)
		}
	}
	return capture.NewScreenBackend
}
