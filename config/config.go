// Package config resolves snipt's on-disk locations and tunable settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FilePermissions is the mode used for files snipt writes.
	FilePermissions = 0o644
	// DirPermissions is the mode used for the config directory.
	DirPermissions = 0o755
)

// Paths holds every file snipt reads or writes under its config directory.
type Paths struct {
	Dir       string
	Store     string
	PID       string
	Port      string
	Settings  string
	DaemonLog string
	APILog    string
}

// NewPaths resolves the config directory: explicit dir, then $SNIPT_HOME,
// then $HOME/.snipt.
func NewPaths(dir string) (Paths, error) {
	if dir == "" {
		dir = os.Getenv("SNIPT_HOME")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".snipt")
	}
	return Paths{
		Dir:       dir,
		Store:     filepath.Join(dir, "snipt.json"),
		PID:       filepath.Join(dir, "snipt-daemon.pid"),
		Port:      filepath.Join(dir, "api_port.txt"),
		Settings:  filepath.Join(dir, "config.yaml"),
		DaemonLog: filepath.Join(dir, "daemon_log.txt"),
		APILog:    filepath.Join(dir, "api_server_log.txt"),
	}, nil
}

// Ensure creates the config directory if it does not exist.
func (p Paths) Ensure() error {
	if err := os.MkdirAll(p.Dir, DirPermissions); err != nil {
		return fmt.Errorf("create config dir %s: %w", p.Dir, err)
	}
	return nil
}

// Settings are the engine tunables read from config.yaml.
type Settings struct {
	PollInterval  time.Duration  `yaml:"poll_interval"`
	QueueSize     int            `yaml:"queue_size"`
	HyperlinkApps []string       `yaml:"hyperlink_apps"`
	Buffer        BufferSettings `yaml:"buffer"`
	Timing        TimingSettings `yaml:"timing"`
	Exec          ExecSettings   `yaml:"exec"`
	Log           LogSettings    `yaml:"log"`
	API           APISettings    `yaml:"api"`
}

type BufferSettings struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
}

// TimingSettings are the synthetic-input pauses. Values lower than the
// defaults drop keystrokes on some systems.
type TimingSettings struct {
	KeyDelay     time.Duration `yaml:"key_delay"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
	LineDelay    time.Duration `yaml:"line_delay"`
	ReturnDelay  time.Duration `yaml:"return_delay"`
	ChunkDelay   time.Duration `yaml:"chunk_delay"`
	ChunkSize    int           `yaml:"chunk_size"`
	CleanupDelay time.Duration `yaml:"cleanup_delay"`
	// EchoGrace is how long hook events are ignored after an expansion
	// finishes, while the OS still delivers the synthetic keys. Zero
	// disables it.
	EchoGrace time.Duration `yaml:"echo_grace"`
}

type ExecSettings struct {
	Timeout time.Duration `yaml:"timeout"`
	Shell   string        `yaml:"shell"`
	PTY     bool          `yaml:"pty"`
}

type LogSettings struct {
	Level string `yaml:"level"`
}

type APISettings struct {
	Port int `yaml:"port"`
}

// Default returns the settings used when config.yaml is absent.
func Default() Settings {
	return Settings{
		PollInterval: time.Second,
		QueueSize:    32,
		Buffer: BufferSettings{
			Capacity: 100,
			TTL:      10 * time.Second,
		},
		Timing: TimingSettings{
			KeyDelay:     2 * time.Millisecond,
			SettleDelay:  3 * time.Millisecond,
			LineDelay:    2 * time.Millisecond,
			ReturnDelay:  5 * time.Millisecond,
			ChunkDelay:   5 * time.Millisecond,
			ChunkSize:    1024,
			CleanupDelay: 2 * time.Second,
			EchoGrace:    100 * time.Millisecond,
		},
		Exec: ExecSettings{
			Timeout: 5 * time.Second,
		},
		Log: LogSettings{Level: "info"},
		API: APISettings{Port: 3030},
	}
}

// LoadSettings reads path over the defaults. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.fillZero()
	return s, nil
}

// fillZero restores defaults for fields a partial file left unset or
// set to nonsensical values.
func (s *Settings) fillZero() {
	d := Default()
	if s.PollInterval <= 0 {
		s.PollInterval = d.PollInterval
	}
	if s.QueueSize <= 0 {
		s.QueueSize = d.QueueSize
	}
	if s.Buffer.Capacity <= 0 {
		s.Buffer.Capacity = d.Buffer.Capacity
	}
	if s.Buffer.TTL <= 0 {
		s.Buffer.TTL = d.Buffer.TTL
	}
	if s.Timing.ChunkSize <= 0 {
		s.Timing.ChunkSize = d.Timing.ChunkSize
	}
	if s.Exec.Timeout <= 0 {
		s.Exec.Timeout = d.Exec.Timeout
	}
	if s.Log.Level == "" {
		s.Log.Level = d.Log.Level
	}
	if s.API.Port <= 0 {
		s.API.Port = d.API.Port
	}
}
