package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/integrii/flaggy"
	"golang.org/x/sync/errgroup"

	"golife/src/controller"
	"golife/src/view"
)

type EnvOptions struct {
	interactive bool
	interval    time.Duration
}

func main() {
	eo, co := initOptions()

	var stateCh chan controller.Status
	if !eo.interactive {
		stateCh = make(chan controller.Status, 10) //the buffered channel to getting the simulation status
	}

	ctrl, err := controller.New(co, stateCh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "golife: %v\n", err)
		os.Exit(1)
	}

	if eo.interval > 0 {
		//a direct interval overrides the speed curve
		if err := ctrl.Stepper().SetInterval(eo.interval); err != nil {
			fmt.Fprintf(os.Stderr, "golife: %v\n", err)
			os.Exit(1)
		}
	}

	if eo.interactive {
		v := view.NewConsoleUI()
		ctrl.RegisterViewer(v)
		v.Start()
		return
	}

	v := view.NewConsoleOut()
	ctrl.RegisterViewer(v)
	v.Start()
	ctrl.Play()

	if err := runHeadless(ctrl, stateCh); err != nil {
		fmt.Fprintf(os.Stderr, "golife: %v\n", err)
	}
	//keep draining so the final status updates never block on a full channel
	go func() {
		for range stateCh {
		}
	}()
	ctrl.Pause()
	close(stateCh)
}

//runHeadless waits until the simulation finishes or the process receives an
//interrupt, whichever comes first
func runHeadless(ctrl *controller.Controller, stateCh chan controller.Status) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		for {
			select {
			case st := <-stateCh:
				if st.RunningState == controller.StateFinished {
					return nil
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case s := <-sig:
			return fmt.Errorf("received %v", s)
		case <-ctx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func initOptions() (eo *EnvOptions, co controller.Options) {

	co = controller.DefaultOptions
	eo = &EnvOptions{}
	flaggy.DefaultParser.ShowHelpOnUnexpected = true
	flaggy.Int(&co.Width, "x", "width", "Width of the simulation grid")
	flaggy.Int(&co.Height, "y", "height", "Height of the simulation grid")
	flaggy.Int(&co.Speed, "p", "speed", "Speed level 0..50, converted to a stepping interval via an exponential curve")
	flaggy.Duration(&eo.interval, "i", "interval", "Stepping interval, overrides the speed level, in format the number with 'ms' suffix, for example 150ms")
	flaggy.Int(&co.MaxGenerations, "s", "maxGenerations", "Limit the simulation to maxGenerations (0 - unlimited)")
	flaggy.Int(&co.Workers, "w", "workers", "Goroutines used to compute a generation")
	flaggy.Bool(&eo.interactive, "n", "interactive", "Start interactive mode")

	flaggy.Parse()

	return
}
