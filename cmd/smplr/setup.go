package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/discordance/phrase-sampler/config"
	"github.com/discordance/phrase-sampler/engine"
	"github.com/discordance/phrase-sampler/generator"
	"github.com/discordance/phrase-sampler/log"
	"github.com/discordance/phrase-sampler/smartbuf"
	"github.com/discordance/phrase-sampler/wav"
)

// common flags of commands that run the engine.
type common struct {
	config string
	tempo  float64
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "smplr.yml", "path to the YAML config")
	fs.Float64Var(&c.tempo, "tempo", 0, "tempo override in bpm")
}

// load reads config and applies flag overrides.
func (c *common) load() (*config.Config, error) {
	if c.config == "" {
		return nil, errors.New("missing -config flag")
	}
	conf, err := config.Load(c.config)
	if err != nil {
		return nil, err
	}
	if c.tempo > 0 {
		conf.Tempo = c.tempo
	}
	return conf, nil
}

// loadSamples decodes every sample of the track.
func loadSamples(conf *config.Config) ([]*smartbuf.Buffer, error) {
	samples := make([]*smartbuf.Buffer, 0, len(conf.Track.Samples))
	for _, path := range conf.Track.Samples {
		b, err := wav.Load(path, conf.SampleRate)
		if err != nil {
			return nil, err
		}
		samples = append(samples, b)
	}
	return samples, nil
}

// newEngine builds the track engine described by config.
func newEngine(conf *config.Config, l log.Logger) (*engine.Engine, error) {
	kind, err := conf.Kind()
	if err != nil {
		return nil, err
	}
	mode, err := conf.Mode()
	if err != nil {
		return nil, err
	}
	samples, err := loadSamples(conf)
	if err != nil {
		return nil, err
	}
	opts := []generator.Option{
		generator.WithMode(mode),
		generator.WithTiming(conf.SampleRate, conf.PPQN),
	}
	if conf.Seed != 0 {
		opts = append(opts, generator.WithSeed(conf.Seed))
	}
	gen, err := generator.New(kind, opts...)
	if err != nil {
		return nil, err
	}
	e, err := engine.New(gen,
		engine.WithLogger(l),
		engine.WithTrackNum(conf.Track.Num),
		engine.WithSampleRate(conf.SampleRate),
		engine.WithCapacity(conf.Capacity),
		engine.WithSamples(samples...),
	)
	if err != nil {
		return nil, fmt.Errorf("track %d: %w", conf.Track.Num, err)
	}
	return e, nil
}
