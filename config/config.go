package config

import (
	"encoding/json"
	"os"
	"strings"
)

// Config holds runtime configuration for capture and app behavior.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug     bool   `json:"debug"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	// Capture parameters
	IntervalMs         int     `json:"interval_ms"`
	FixedFrameRate     bool    `json:"fixed_frame_rate"`
	PreventBlackFrames bool    `json:"prevent_black_frames"`
	ShowCursor         bool    `json:"show_cursor"`
	CaptureInput       bool    `json:"capture_input"`
	Source             string  `json:"source"`
	DPIScale           float64 `json:"dpi_scale"`
	// Use CAPTUREBLT only outside remote sessions.
	RemoteSessionImprovement bool `json:"remote_session_improvement"`

	// Capture region in logical screen units.
	RegionLeft   int `json:"region_left"`
	RegionTop    int `json:"region_top"`
	RegionWidth  int `json:"region_width"`
	RegionHeight int `json:"region_height"`

	// Webcam stream
	WebcamCommand string `json:"webcam_command"`
	WebcamWidth   int    `json:"webcam_width"`
	WebcamHeight  int    `json:"webcam_height"`

	TempFolder           string `json:"temp_folder"`
	StatsIntervalSeconds int    `json:"stats_interval_seconds"`
}

const (
	SourceScreen = "screen"
	SourceWebcam = "webcam"
)

// DefaultWebcamCommand reads raw BGRA frames from the first video device.
const DefaultWebcamCommand = "ffmpeg -loglevel error -f v4l2 -video_size {width}x{height} -i /dev/video0 -f rawvideo -pix_fmt bgra -"

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:                false,
		LogLevel:             "info",
		LogFormat:            "json",
		IntervalMs:           66,
		FixedFrameRate:       false,
		PreventBlackFrames:   true,
		ShowCursor:           true,
		CaptureInput:         true,
		Source:               SourceScreen,
		DPIScale:             1,
		RegionLeft:           0,
		RegionTop:            0,
		RegionWidth:          800,
		RegionHeight:         600,
		WebcamCommand:        DefaultWebcamCommand,
		WebcamWidth:          640,
		WebcamHeight:         480,
		TempFolder:           os.TempDir(),
		StatsIntervalSeconds: 5,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(c.LogLevel)
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	c.LogFormat = strings.ToLower(c.LogFormat)
	if c.LogFormat != "text" {
		c.LogFormat = "json"
	}
	if c.IntervalMs <= 0 {
		c.IntervalMs = 66
	}
	if c.IntervalMs > 1000 {
		c.IntervalMs = 1000
	}
	c.Source = strings.ToLower(c.Source)
	if c.Source != SourceWebcam {
		c.Source = SourceScreen
	}
	if c.DPIScale <= 0 || c.DPIScale > 4 {
		c.DPIScale = 1
	}
	if c.RegionWidth <= 0 {
		c.RegionWidth = 800
	}
	if c.RegionHeight <= 0 {
		c.RegionHeight = 600
	}
	if c.WebcamCommand == "" {
		c.WebcamCommand = DefaultWebcamCommand
	}
	if c.WebcamWidth <= 0 {
		c.WebcamWidth = 640
	}
	if c.WebcamHeight <= 0 {
		c.WebcamHeight = 480
	}
	if c.TempFolder == "" {
		c.TempFolder = os.TempDir()
	}
	if c.StatsIntervalSeconds <= 0 {
		c.StatsIntervalSeconds = 5
	}
	return nil
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
