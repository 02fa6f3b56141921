package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cbegin/subsynth-go/internal/arp"
	"github.com/cbegin/subsynth-go/internal/audiosink"
	"github.com/cbegin/subsynth-go/internal/engine"
	"github.com/cbegin/subsynth-go/internal/melody"
	"github.com/cbegin/subsynth-go/internal/midiin"
	"github.com/cbegin/subsynth-go/internal/preset"
	"github.com/cbegin/subsynth-go/internal/router"
)

const drainTimeout = 2 * time.Second

func main() {
	var (
		presetPath = flag.String("preset", "", "path to a preset file")
		midiPort   = flag.String("midi-port", "", "MIDI input port name (default: first available)")
		noMIDI     = flag.Bool("no-midi", false, "disable MIDI input entirely")
	)
	flag.Parse()

	e := engine.New()

	if *presetPath != "" {
		if err := loadPreset(e, *presetPath); err != nil {
			log.Printf("preset: %v (keeping defaults)", err)
		}
	}

	sink, err := audiosink.New(e)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	sink.Play()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return arp.NewStepper(e).Run(gctx)
	})
	g.Go(func() error {
		return melody.NewScheduler(e).Run(gctx)
	})

	if !*noMIDI {
		in, err := midiin.Open(*midiPort)
		if err != nil {
			log.Printf("midi: %v (continuing without MIDI input)", err)
		} else {
			defer in.Close()
			if err := in.Listen(func(data []byte) {
				router.HandleMessage(e, data)
			}); err != nil {
				log.Printf("midi: %v (continuing without MIDI input)", err)
			} else {
				log.Printf("midi: listening on %q", in.Name())
			}
		}
	}

	<-gctx.Done()

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := e.Drain(drainCtx); err != nil {
		log.Printf("drain: %v", err)
	}
	sink.Stop()

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Printf("shutdown: %v", err)
	}
}

func loadPreset(e *engine.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open preset: %w", err)
	}
	defer f.Close()

	p, err := preset.Load(f)
	if err != nil {
		return fmt.Errorf("parse preset: %w", err)
	}
	p.ApplyToEngine(e)
	return nil
}
