package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/variousdemeanors/pi-mcp2515/internal/adapters/opcuabench"
	"github.com/variousdemeanors/pi-mcp2515/internal/link"
)

type Config struct {
	Link    LinkConfig         `yaml:"link"`
	Gauge   GaugeConfig        `yaml:"gauge"`
	Listen  ListenConfig       `yaml:"listen"`
	Metrics MetricsConfig      `yaml:"metrics"`
	Archive ArchiveConfig      `yaml:"archive"`
	Bench   *opcuabench.Config `yaml:"bench"`
}

type LinkConfig struct {
	// Timeout is the staleness window before the link is declared timed out.
	Timeout  time.Duration `yaml:"timeout"`
	QueueLen int           `yaml:"queue_len"`
}

// GaugeConfig is the value range used for severity banding.
type GaugeConfig struct {
	MinPSI float64 `yaml:"min_psi"`
	MaxPSI float64 `yaml:"max_psi"`
}

type ListenConfig struct {
	UDPAddr string `yaml:"udp_addr"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type ArchiveConfig struct {
	ConnString    string        `yaml:"conn_string"`
	Table         string        `yaml:"table"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	MaxBatch      int           `yaml:"max_batch"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Link.Timeout == 0 {
		c.Link.Timeout = link.DefaultTimeout
	}
	if c.Link.QueueLen == 0 {
		c.Link.QueueLen = 64
	}
	if c.Gauge.MinPSI == 0 && c.Gauge.MaxPSI == 0 {
		c.Gauge.MaxPSI = 200.0
	}
	if c.Listen.UDPAddr == "" && c.Bench == nil {
		c.Listen.UDPAddr = ":7777"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Archive.Table == "" {
		c.Archive.Table = "pressure_samples"
	}
	if c.Archive.FlushInterval == 0 {
		c.Archive.FlushInterval = 5 * time.Second
	}
	if c.Archive.MaxBatch == 0 {
		c.Archive.MaxBatch = 500
	}
	if c.Bench != nil {
		c.Bench.ApplyDefaults()
	}
}

func (c *Config) Validate() error {
	if c.Link.Timeout <= 0 {
		return fmt.Errorf("link.timeout must be positive")
	}
	if c.Link.QueueLen <= 0 {
		return fmt.Errorf("link.queue_len must be positive")
	}
	if c.Gauge.MaxPSI <= c.Gauge.MinPSI {
		return fmt.Errorf("gauge.max_psi must exceed gauge.min_psi")
	}
	if c.Listen.UDPAddr == "" && c.Bench == nil {
		return fmt.Errorf("either listen.udp_addr or a bench section is required")
	}
	if c.Bench != nil {
		if err := c.Bench.Validate(); err != nil {
			return fmt.Errorf("bench config: %w", err)
		}
	}
	return nil
}
