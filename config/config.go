// Package config loads the sampler configuration from YAML.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/discordance/phrase-sampler/generator"
	"github.com/discordance/phrase-sampler/smartbuf"
)

// Defaults.
const (
	DefaultSampleRate = 44100
	DefaultBufferSize = 512
	DefaultTempo      = 120
	DefaultPPQN       = 24
	DefaultOSCListen  = "0.0.0.0:6667"
	DefaultRemotePort = 6666
	DefaultCapacity   = 1024
)

// ErrNoSamples is returned when the track has no samples.
var ErrNoSamples = errors.New("no samples configured")

type (
	// Config of a sampler instance.
	Config struct {
		SampleRate int     `yaml:"sample_rate" json:"sample_rate"`
		BufferSize int     `yaml:"buffer_size" json:"buffer_size"`
		Tempo      float64 `yaml:"tempo" json:"tempo"`
		PPQN       int     `yaml:"ppqn" json:"ppqn"`
		Capacity   int     `yaml:"capacity" json:"capacity"`
		// Seed of the slicer randomness. Zero seeds from time.
		Seed  int64 `yaml:"seed" json:"seed"`
		OSC   OSC   `yaml:"osc" json:"osc"`
		MIDI  MIDI  `yaml:"midi" json:"midi"`
		Track Track `yaml:"track" json:"track"`
	}

	// OSC remote control settings.
	OSC struct {
		Listen     string `yaml:"listen" json:"listen"`
		RemotePort int    `yaml:"remote_port" json:"remote_port"`
	}

	// MIDI clock input. Internal clock is used if port is empty.
	MIDI struct {
		Port string `yaml:"port" json:"port"`
	}

	// Track settings.
	Track struct {
		Num       int      `yaml:"num" json:"num"`
		Generator string   `yaml:"generator" json:"generator"`
		Mode      string   `yaml:"mode" json:"mode"`
		Samples   []string `yaml:"samples" json:"samples"`
	}
)

// Default returns config with default values and no samples.
func Default() *Config {
	return &Config{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultBufferSize,
		Tempo:      DefaultTempo,
		PPQN:       DefaultPPQN,
		Capacity:   DefaultCapacity,
		OSC: OSC{
			Listen:     DefaultOSCListen,
			RemotePort: DefaultRemotePort,
		},
		Track: Track{
			Generator: generator.Slicer.String(),
			Mode:      smartbuf.Bar8Mode.String(),
		},
	}
}

// Load reads the YAML file at path on top of defaults.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML data on top of defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the values that can't be defaulted.
func (c *Config) Validate() error {
	if len(c.Track.Samples) == 0 {
		return ErrNoSamples
	}
	if _, err := c.Kind(); err != nil {
		return err
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	if c.SampleRate <= 0 || c.BufferSize <= 0 || c.Tempo <= 0 || c.PPQN <= 0 || c.Capacity <= 0 {
		return fmt.Errorf("invalid config: sample rate %d, buffer size %d, tempo %v, ppqn %d, capacity %d",
			c.SampleRate, c.BufferSize, c.Tempo, c.PPQN, c.Capacity)
	}
	return nil
}

// Kind returns the generator kind of the track.
func (c *Config) Kind() (generator.Kind, error) {
	return generator.ParseKind(c.Track.Generator)
}

// Mode returns the positions mode of the track.
func (c *Config) Mode() (smartbuf.PositionsMode, error) {
	return smartbuf.ParseMode(c.Track.Mode)
}

// JSON serializes config for remote controllers.
func (c *Config) JSON() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(b), nil
}
