// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Batch bounds the simulated work burst performed each loop iteration.
type Batch struct {
	MinItems        int     `yaml:"min_items"`
	MaxItems        int     `yaml:"max_items"`
	SizeMinBytes    int     `yaml:"size_min_bytes"`
	SizeMaxBytes    int     `yaml:"size_max_bytes"`
	ErrorRatio      float64 `yaml:"error_ratio"`
	StageDelayMaxMS int     `yaml:"stage_delay_max_ms"`
}

// Observe bounds the randomized increments applied on each metrics pull.
type Observe struct {
	SrcPacketsMin  int `yaml:"src_packets_min"`
	SrcPacketsMax  int `yaml:"src_packets_max"`
	DstPacketsMin  int `yaml:"dst_packets_min"`
	DstPacketsMax  int `yaml:"dst_packets_max"`
	PacketBytesMin int `yaml:"packet_bytes_min"`
	PacketBytesMax int `yaml:"packet_bytes_max"`
}

// Telemetry configures the OTLP export target.
type Telemetry struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// SimulationConfig is the root configuration for the generator.
type SimulationConfig struct {
	Hostname     string    `yaml:"hostname"`
	Sources      []string  `yaml:"sources"`
	Destinations []string  `yaml:"destinations"`
	Batch        Batch     `yaml:"batch"`
	Observe      Observe   `yaml:"observe"`
	Telemetry    Telemetry `yaml:"telemetry"`
	LogPath      string    `yaml:"log_path"`
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *SimulationConfig) applyDefaults() {
	if c.Hostname == "" {
		c.Hostname, _ = os.Hostname()
	}
	if c.Batch.MinItems == 0 && c.Batch.MaxItems == 0 {
		c.Batch.MinItems, c.Batch.MaxItems = 3, 8
	}
	if c.Batch.SizeMinBytes == 0 && c.Batch.SizeMaxBytes == 0 {
		c.Batch.SizeMinBytes, c.Batch.SizeMaxBytes = 200, 4000
	}
	if c.Batch.ErrorRatio == 0 {
		c.Batch.ErrorRatio = 0.25
	}
	if c.Observe == (Observe{}) {
		c.Observe = Observe{
			SrcPacketsMin:  50,
			SrcPacketsMax:  200,
			DstPacketsMin:  40,
			DstPacketsMax:  160,
			PacketBytesMin: 64,
			PacketBytesMax: 1200,
		}
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "127.0.0.1:4317"
		c.Telemetry.Insecure = true
	}
	if c.LogPath == "" {
		c.LogPath = "/var/tmp/packetops.log"
	}
}

func (c *SimulationConfig) check() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: at least one source required")
	}
	if len(c.Destinations) == 0 {
		return fmt.Errorf("config: at least one destination required")
	}
	if c.Batch.MinItems <= 0 || c.Batch.MaxItems < c.Batch.MinItems {
		return fmt.Errorf("config: invalid batch item bounds [%d,%d]", c.Batch.MinItems, c.Batch.MaxItems)
	}
	if c.Batch.SizeMinBytes <= 0 || c.Batch.SizeMaxBytes < c.Batch.SizeMinBytes {
		return fmt.Errorf("config: invalid item size bounds [%d,%d]", c.Batch.SizeMinBytes, c.Batch.SizeMaxBytes)
	}
	if c.Batch.ErrorRatio < 0 || c.Batch.ErrorRatio > 1 {
		return fmt.Errorf("config: error_ratio must be within [0,1]")
	}
	o := c.Observe
	if o.SrcPacketsMin <= 0 || o.SrcPacketsMax < o.SrcPacketsMin ||
		o.DstPacketsMin <= 0 || o.DstPacketsMax < o.DstPacketsMin ||
		o.PacketBytesMin <= 0 || o.PacketBytesMax < o.PacketBytesMin {
		return fmt.Errorf("config: invalid observe increment bounds")
	}
	return nil
}
