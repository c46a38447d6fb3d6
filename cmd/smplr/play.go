package main

import (
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/discordance/phrase-sampler/clock"
	"github.com/discordance/phrase-sampler/log"
	"github.com/discordance/phrase-sampler/portaudio"
	"github.com/discordance/phrase-sampler/remote"
)

type playCommand struct {
	common
	seconds float64
}

func (cmd *playCommand) Name() string {
	return "play"
}

func (cmd *playCommand) Help() string {
	return "Play the configured track live with OSC remote control"
}

func (cmd *playCommand) Register(fs *flag.FlagSet) {
	cmd.common.register(fs)
	fs.Float64Var(&cmd.seconds, "seconds", 0, "stop after seconds, zero plays until interrupted")
}

func (cmd *playCommand) Run() error {
	conf, err := cmd.load()
	if err != nil {
		return err
	}
	logger := log.GetLogger()
	e, err := newEngine(conf, log.WithComponent(logger, "engine"))
	if err != nil {
		return err
	}

	sink := portaudio.NewSink(e, conf.SampleRate, conf.BufferSize)
	if err := sink.Start(); err != nil {
		return err
	}
	defer sink.Close()

	srv, err := remote.Listen(conf.OSC.Listen, e, conf, log.WithComponent(logger, "osc"))
	if err != nil {
		return err
	}
	defer srv.Close()

	clockLog := log.WithComponent(logger, "clock")
	if conf.MIDI.Port != "" {
		stop, err := clock.NewMIDI(e, conf.Tempo, clockLog).Listen(conf.MIDI.Port)
		if err != nil {
			return err
		}
		defer stop()
	} else {
		clk := clock.NewInternal(e, conf.Tempo, conf.PPQN, clockLog)
		if err := clk.Start(); err != nil {
			return err
		}
		defer clk.Stop()
	}

	interrupt := make(chan os.Signal, 1)
	ossignal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer ossignal.Stop(interrupt)
	var timeout <-chan time.Time
	if cmd.seconds > 0 {
		timeout = time.After(time.Duration(cmd.seconds * float64(time.Second)))
	}
	logger.Info(fmt.Sprintf("playing track %d: %v", conf.Track.Num, conf.Track.Samples))
	select {
	case <-interrupt:
	case <-timeout:
	}
	return nil
}
