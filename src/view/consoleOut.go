package view

import (
	"fmt"
	"time"

	"golife/src/controller"
)

//ConsoleOut is the non-interactive viewer: it prints periodic progress and
//a summary when the simulation finishes
type ConsoleOut struct {
	c         *controller.Controller
	startTime time.Time
}

func NewConsoleOut() *ConsoleOut {
	return &ConsoleOut{}
}

func (c *ConsoleOut) Refresh() {
	st := c.c.Status()
	switch st.RunningState {
	case controller.StateFinished:
		totalTime := time.Since(c.startTime).Round(time.Millisecond)
		fmt.Println("\nFinished:")
		fmt.Printf("  Last generation: %v\n", st.Generation)
		fmt.Printf("  Total time: %v\n", totalTime)
		fmt.Printf("  Live cells: %v\n", st.LiveCells)
	case controller.StatePlaying:
		if st.Generation > 0 && st.Generation%10 == 0 {
			fmt.Printf("  Generations done: %v\n", st.Generation)
		}
	}
}

func (c *ConsoleOut) Register(ctrl *controller.Controller) {
	c.c = ctrl
	o := ctrl.Options()
	fmt.Println("Running configuration:")
	fmt.Printf("  Dimension: %v x %v\n", o.Width, o.Height)
	fmt.Printf("  Speed: %v (%v per step)\n", o.Speed, controller.SpeedInterval(o.Speed))
	fmt.Printf("  Max generations: %v\n", o.MaxGenerations)
	fmt.Printf("  Workers: %v\n", o.Workers)
}

func (c *ConsoleOut) Start() {
	c.startTime = time.Now()
	fmt.Println("\nSimulation started...")
}
