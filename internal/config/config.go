package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Geo       GeoConfig       `json:"geo" yaml:"geo"`
	Ledger    LedgerConfig    `json:"ledger" yaml:"ledger"`
	Dispatch  DispatchConfig  `json:"dispatch" yaml:"dispatch"`
	Reports   ReportsConfig   `json:"reports" yaml:"reports"`
	API       APIConfig       `json:"api" yaml:"api"`
}

type TelemetryConfig struct {
	SampleInterval   time.Duration   `json:"sample_interval" yaml:"sample_interval"`
	BrakeThreshold   float64         `json:"brake_threshold_mps2" yaml:"brake_threshold_mps2"`
	DebounceWindow   time.Duration   `json:"debounce_window" yaml:"debounce_window"`
	RetriggerHoldoff time.Duration   `json:"retrigger_holdoff" yaml:"retrigger_holdoff"`
	Gravity          float64         `json:"gravity_mps2" yaml:"gravity_mps2"`
	ChannelBuffer    int             `json:"channel_buffer" yaml:"channel_buffer"`
	UDP              UDPSourceConfig `json:"udp" yaml:"udp"`
}

type UDPSourceConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type GeoConfig struct {
	DatasetPath string  `json:"dataset_path" yaml:"dataset_path"`
	MaxRadiusKM float64 `json:"max_radius_km" yaml:"max_radius_km"`
}

type LedgerConfig struct {
	Driver          string        `json:"driver" yaml:"driver"`
	DSN             string        `json:"dsn" yaml:"dsn"`
	FirstThreshold  int64         `json:"first_threshold" yaml:"first_threshold"`
	SecondThreshold int64         `json:"second_threshold" yaml:"second_threshold"`
	RetryAttempts   int           `json:"retry_attempts" yaml:"retry_attempts"`
	RetryBackoff    time.Duration `json:"retry_backoff" yaml:"retry_backoff"`
}

type DispatchConfig struct {
	Kafka KafkaConfig `json:"kafka" yaml:"kafka"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

type ReportsConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Telemetry: TelemetryConfig{
			SampleInterval:   100 * time.Millisecond,
			BrakeThreshold:   4.0,
			DebounceWindow:   2 * time.Second,
			RetriggerHoldoff: 3 * time.Second,
			Gravity:          9.81,
			ChannelBuffer:    1024,
			UDP:              UDPSourceConfig{Enabled: true, Addr: "127.0.0.1:5055"},
		},
		Geo: GeoConfig{
			MaxRadiusKM: 75,
		},
		Ledger: LedgerConfig{
			Driver:          "sqlite",
			DSN:             "file:sentinelx.db?_pragma=busy_timeout(5000)",
			FirstThreshold:  3,
			SecondThreshold: 6,
			RetryAttempts:   3,
			RetryBackoff:    100 * time.Millisecond,
		},
		Dispatch: DispatchConfig{
			Kafka: KafkaConfig{Enabled: false, Topic: "violation-reports"},
		},
		Reports: ReportsConfig{StoreLimit: 1000},
		API:     APIConfig{Enabled: true, Addr: ":8081"},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Telemetry.SampleInterval <= 0 {
		cfg.Telemetry.SampleInterval = 100 * time.Millisecond
	}
	if cfg.Telemetry.Gravity <= 0 {
		cfg.Telemetry.Gravity = 9.81
	}
	if cfg.Telemetry.ChannelBuffer <= 0 {
		cfg.Telemetry.ChannelBuffer = 1024
	}
	if cfg.Geo.MaxRadiusKM <= 0 {
		cfg.Geo.MaxRadiusKM = 75
	}
	if cfg.Ledger.Driver == "" {
		cfg.Ledger.Driver = "sqlite"
	}
	if cfg.Ledger.RetryAttempts <= 0 {
		cfg.Ledger.RetryAttempts = 3
	}
	if cfg.Ledger.RetryBackoff <= 0 {
		cfg.Ledger.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.Reports.StoreLimit <= 0 {
		cfg.Reports.StoreLimit = 1000
	}
}

func Validate(cfg *Config) error {
	if cfg.Telemetry.BrakeThreshold <= 0 {
		return errors.New("telemetry.brake_threshold_mps2 must be > 0")
	}
	if cfg.Telemetry.DebounceWindow <= 0 {
		return errors.New("telemetry.debounce_window must be > 0")
	}
	if cfg.Telemetry.RetriggerHoldoff < 0 {
		return errors.New("telemetry.retrigger_holdoff must be >= 0")
	}
	if cfg.Telemetry.UDP.Enabled && cfg.Telemetry.UDP.Addr == "" {
		return errors.New("telemetry.udp.addr required when telemetry.udp.enabled is true")
	}
	if cfg.Ledger.FirstThreshold <= 0 {
		return errors.New("ledger.first_threshold must be > 0")
	}
	if cfg.Ledger.SecondThreshold <= cfg.Ledger.FirstThreshold {
		return fmt.Errorf("ledger.second_threshold must be > first_threshold (%d)", cfg.Ledger.FirstThreshold)
	}
	switch strings.ToLower(cfg.Ledger.Driver) {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("ledger.driver unsupported: %q", cfg.Ledger.Driver)
	}
	if cfg.Dispatch.Kafka.Enabled {
		if len(cfg.Dispatch.Kafka.Brokers) == 0 || cfg.Dispatch.Kafka.Topic == "" {
			return errors.New("dispatch.kafka requires brokers and topic")
		}
	}
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	return nil
}

type Manager struct {
	path    string
	cfg     atomic.Value
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	info, err := os.Stat(path)
	if err == nil {
		m.modTime = info.ModTime()
	}
	return m, nil
}

// NewStatic wraps an in-memory config with no backing file. Reload and Update
// are file operations and fail on a static manager.
func NewStatic(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	applyDefaults(cfg)
	m := &Manager{}
	m.cfg.Store(cfg)
	return m
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	if m.path == "" {
		return nil, errors.New("no config file backing this manager")
	}
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return cfg, nil
}

func (m *Manager) Update(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if m.path != "" {
		if err := Save(m.path, cfg); err != nil {
			return err
		}
		if info, err := os.Stat(m.path); err == nil {
			m.modTime = info.ModTime()
		}
	}
	m.cfg.Store(cfg)
	return nil
}

func (m *Manager) NeedsReload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
