package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServoConfig maps the two logical channels to BCM pins.
// Both defaults sit on hardware PWM blocks.
type ServoConfig struct {
	PanPin  int `yaml:"pan_pin"`
	TiltPin int `yaml:"tilt_pin"`
}

// StateConfig locates the persisted position record.
type StateConfig struct {
	Path        string `yaml:"path"`
	DisableLock bool   `yaml:"disable_lock"` // skip the advisory lock around moves (last-writer-wins)
}

// CaptureConfig names the external capture binaries and default media
// directories.
type CaptureConfig struct {
	StillCommand string `yaml:"still_command"`
	VideoCommand string `yaml:"video_command"`
	PhotoDir     string `yaml:"photo_dir"`
	VideoDir     string `yaml:"video_dir"`
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockPWM    bool `yaml:"mock_pwm"`    // use mock PWM driver (true=dev/test, false=real Raspberry Pi)
	SmoothMs   int  `yaml:"smooth_ms"`   // default smoothing duration for moves
}

// Config aggregates all application configuration.
type Config struct {
	Servo    ServoConfig    `yaml:"servo"`
	State    StateConfig    `yaml:"state"`
	Capture  CaptureConfig  `yaml:"capture"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Default returns the built-in configuration. It only fails when the
// user's home/cache directories cannot be resolved.
func Default() (*Config, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %w", err)
	}

	return &Config{
		Servo: ServoConfig{PanPin: 13, TiltPin: 12},
		State: StateConfig{Path: filepath.Join(cacheDir, "ptz_state.json")},
		Capture: CaptureConfig{
			StillCommand: "rpicam-still",
			VideoCommand: "rpicam-vid",
			PhotoDir:     filepath.Join(homeDir, "Pictures"),
			VideoDir:     filepath.Join(homeDir, "Videos"),
		},
		Defaults: DefaultsConfig{SmoothMs: 300},
	}, nil
}

// Load reads a YAML file over the built-in defaults. An empty path
// yields the defaults; a named file must exist and parse. Keys absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Refill explicit zeros with defaults, then validate.
	def, _ := Default()
	if cfg.Servo.PanPin <= 0 {
		cfg.Servo.PanPin = def.Servo.PanPin
	}
	if cfg.Servo.TiltPin <= 0 {
		cfg.Servo.TiltPin = def.Servo.TiltPin
	}
	if cfg.State.Path == "" {
		cfg.State.Path = def.State.Path
	}
	if cfg.Capture.StillCommand == "" {
		cfg.Capture.StillCommand = def.Capture.StillCommand
	}
	if cfg.Capture.VideoCommand == "" {
		cfg.Capture.VideoCommand = def.Capture.VideoCommand
	}
	if cfg.Capture.PhotoDir == "" {
		cfg.Capture.PhotoDir = def.Capture.PhotoDir
	}
	if cfg.Capture.VideoDir == "" {
		cfg.Capture.VideoDir = def.Capture.VideoDir
	}
	if cfg.Defaults.SmoothMs <= 0 {
		cfg.Defaults.SmoothMs = def.Defaults.SmoothMs
	}

	if cfg.Servo.PanPin == cfg.Servo.TiltPin {
		return nil, fmt.Errorf("pan_pin and tilt_pin must differ, both are %d", cfg.Servo.PanPin)
	}
	if cfg.Defaults.DebugLevel < 0 || cfg.Defaults.DebugLevel > 4 {
		return nil, fmt.Errorf("debug_level must be between 0 and 4, got %d", cfg.Defaults.DebugLevel)
	}

	return cfg, nil
}
