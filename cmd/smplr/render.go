package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/discordance/phrase-sampler/clock"
	"github.com/discordance/phrase-sampler/control"
	"github.com/discordance/phrase-sampler/log"
	"github.com/discordance/phrase-sampler/signal"
	"github.com/discordance/phrase-sampler/slicer"
	"github.com/discordance/phrase-sampler/wav"
)

type renderCommand struct {
	common
	seconds float64
	out     string
	bits    int
	// every is the number of bars between random swaps, zero disables them.
	every int
}

func (cmd *renderCommand) Name() string {
	return "render"
}

func (cmd *renderCommand) Help() string {
	return "Render the configured track offline to a wav file"
}

func (cmd *renderCommand) Register(fs *flag.FlagSet) {
	cmd.common.register(fs)
	fs.Float64Var(&cmd.seconds, "seconds", 10, "duration of the render")
	fs.StringVar(&cmd.out, "out", "", "output wav file (required)")
	fs.IntVar(&cmd.bits, "bits", 16, "output bit depth")
	fs.IntVar(&cmd.every, "swap-every", 0, "queue a random swap every n bars")
}

func (cmd *renderCommand) Run() error {
	if cmd.out == "" {
		return errors.New("missing -out flag")
	}
	if cmd.seconds <= 0 {
		return fmt.Errorf("invalid duration %v", cmd.seconds)
	}
	conf, err := cmd.load()
	if err != nil {
		return err
	}
	logger := log.GetLogger()
	e, err := newEngine(conf, log.WithComponent(logger, "engine"))
	if err != nil {
		return err
	}
	sink, err := wav.NewSink(cmd.out, conf.SampleRate, signal.BitDepth(cmd.bits))
	if err != nil {
		return err
	}

	clk := clock.NewVirtual(conf.Tempo, conf.PPQN, conf.SampleRate)
	block := make([]signal.Frame, conf.BufferSize)
	total := int(cmd.seconds * float64(conf.SampleRate))
	barTicks := 4 * conf.PPQN
	ticks := 0
	e.Offer(control.Start{})
	for done := 0; done < total; done += len(block) {
		if left := total - done; left < len(block) {
			block = block[:left]
		}
		n := clk.Advance(e, len(block))
		if cmd.every > 0 && (ticks+n)/(barTicks*cmd.every) > ticks/(barTicks*cmd.every) {
			e.Offer(control.Slicer{TrackNum: conf.Track.Num, Transform: slicer.RandSwapTransform()})
		}
		ticks += n
		e.Process(block)
		if err := sink.Write(block); err != nil {
			sink.Close()
			return err
		}
	}
	if err := sink.Close(); err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("rendered %v to %v", signal.DurationOf(conf.SampleRate, int64(total)), cmd.out))
	return nil
}
