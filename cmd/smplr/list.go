package main

import (
	"flag"
	"fmt"

	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/smartbuf"
)

type listCommand struct {
	common
}

func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show the config and the metadata of the samples"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {
	cmd.common.register(fs)
}

func (cmd *listCommand) Run() error {
	conf, err := cmd.load()
	if err != nil {
		return err
	}
	js, err := conf.JSON()
	if err != nil {
		return err
	}
	fmt.Printf("Config:\n %v\n", js)
	samples, err := loadSamples(conf)
	if err != nil {
		return err
	}
	fmt.Printf("Samples:\n")
	for i, path := range conf.Track.Samples {
		b := samples[i]
		_, beats := smartbuf.ParseTempo(path, b.Len(), conf.SampleRate)
		fmt.Printf(" %d\t%v\t%v frames\t%v\t%.2f bpm\t%d beats\n",
			i, b.Name, b.Len(), signal.DurationOf(conf.SampleRate, int64(b.Len())), b.OriginalTempo, beats)
		for _, m := range smartbuf.Modes {
			positions, err := b.PositionsFor(m)
			if err != nil {
				return err
			}
			fmt.Printf("\t%v: %v\n", m, positions)
		}
	}
	return nil
}
