package controller

import (
	"math"
	"sync"
	"time"

	"golife/src/stepper"
	"golife/src/world"
)

//RunningState is the simulation state at a concrete moment
type RunningState int

const (
	StatePaused RunningState = iota
	StatePlaying
	StateFinished
)

//Status represents a snapshot of the simulation at a concrete moment
type Status struct {
	Generation   int
	RunningState RunningState
	LiveCells    int
	StepTime     time.Duration
	Speed        int
	Interval     time.Duration
}

//Options represents the configurable simulation options
type Options struct {
	Width          int
	Height         int
	Speed          int //speed level, converted to an interval by SpeedInterval
	MaxGenerations int //0 means unlimited
	Workers        int //goroutines used per generation
}

//default options
const (
	DefWidth          = 50
	DefHeight         = 30
	DefSpeed          = 20
	DefMaxGenerations = 0
	DefWorkers        = 1

	//speedBase is the base of the exponential speed curve:
	//rate = speedBase^speed, interval = 1/rate
	speedBase = 1.1
)

var DefaultOptions = Options{
	Width:          DefWidth,
	Height:         DefHeight,
	Speed:          DefSpeed,
	MaxGenerations: DefMaxGenerations,
	Workers:        DefWorkers,
}

//Viewer is the interface to any viewer - the object who can display
//simulation data or control the simulation
type Viewer interface {
	Refresh()
	Register(c *Controller)
	Start()
}

//Controller owns exactly one World and one Stepper and wires them together:
//it is the single logical owner of the world, serializing manual steps, cell
//flips and the stepper's periodic steps behind one lock.
type Controller struct {
	opts    Options
	stepper *stepper.Stepper
	stateCh chan Status
	views   []Viewer

	mu         sync.Mutex //guards the world and the fields below
	world      *world.World
	state      RunningState
	generation int
	stepTime   time.Duration
	speed      int
}

//New creates a paused Controller with a freshly seeded world.
//stateCh may be nil when no status consumer is attached.
func New(opts Options, stateCh chan Status) (*Controller, error) {
	w, err := world.New(opts.Width, opts.Height)
	if err != nil {
		return nil, err
	}
	w.SetWorkers(opts.Workers)
	c := &Controller{
		opts:    opts,
		world:   w,
		stateCh: stateCh,
		speed:   opts.Speed,
	}
	s, err := stepper.New(SpeedInterval(opts.Speed), c.advance)
	if err != nil {
		return nil, err
	}
	c.stepper = s
	return c, nil
}

//SpeedInterval converts a speed level to a stepping interval via the
//exponential curve rate = 1.1^speed, interval = 1/rate
func SpeedInterval(speed int) time.Duration {
	rate := math.Pow(speedBase, float64(speed))
	return time.Duration(float64(time.Second) / rate)
}

//Options returns the configuration the controller was created with
func (c *Controller) Options() Options {
	return c.opts
}

//Status returns the current simulation status
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

//WithWorld runs fn with exclusive access to the world.
//Viewers use it to read cells and the change set without racing a step
//that is in flight on the stepper's goroutine.
func (c *Controller) WithWorld(fn func(w *world.World)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.world)
}

//RegisterViewer registers the viewer - the controller will call the viewer
//when the state is changed
func (c *Controller) RegisterViewer(v Viewer) {
	c.views = append(c.views, v)
	v.Register(c)
}

//Step advances the simulation by one generation on the caller's initiative
func (c *Controller) Step() {
	//the stepper callback ignores errors; so does a manual step
	_ = c.advance()
}

//Play starts automatic stepping at the current speed
func (c *Controller) Play() {
	c.mu.Lock()
	if c.state == StatePlaying {
		c.mu.Unlock()
		return
	}
	c.state = StatePlaying
	c.mu.Unlock()
	c.stepper.Start()
	c.refresh()
}

//Pause halts automatic stepping. It returns after an in-flight step
//finished, so the world is quiescent when Pause returns.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.state = StatePaused
	c.mu.Unlock()
	c.stepper.Stop()
	c.refresh()
}

//Toggle switches between playing and paused
func (c *Controller) Toggle() {
	c.mu.Lock()
	playing := c.state == StatePlaying
	c.mu.Unlock()
	if playing {
		c.Pause()
	} else {
		c.Play()
	}
}

//SetSpeed changes the speed level and retunes the stepper interval
func (c *Controller) SetSpeed(speed int) error {
	if err := c.stepper.SetInterval(SpeedInterval(speed)); err != nil {
		return err
	}
	c.mu.Lock()
	c.speed = speed
	c.mu.Unlock()
	c.refresh()
	return nil
}

//Speed returns the current speed level
func (c *Controller) Speed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

//FlipCell toggles the cell at x, y
func (c *Controller) FlipCell(x int, y int) error {
	c.mu.Lock()
	err := c.world.FlipCell(x, y)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.refresh()
	return nil
}

//Clear pauses the simulation, kills all cells and resets all counters
func (c *Controller) Clear() {
	//stop unconditionally, Pause is a no-op in the finished state
	c.stepper.Stop()
	c.mu.Lock()
	c.world.Clear()
	c.generation = 0
	c.stepTime = 0
	c.state = StatePaused
	c.mu.Unlock()
	c.refresh()
}

//Stepper exposes the underlying stepper so a host can install an error
//handler or stop it on shutdown
func (c *Controller) Stepper() *stepper.Stepper {
	return c.stepper
}

//advance computes one generation. It is both the manual step body and the
//stepper callback.
//The simulation finishes when the generation limit is reached, the grid is
//empty, or a step changed nothing (still life).
func (c *Controller) advance() error {
	c.mu.Lock()
	if c.state == StateFinished {
		c.mu.Unlock()
		return nil
	}
	start := time.Now()
	c.world.Step()
	c.stepTime = time.Since(start)
	c.generation++
	finished := c.world.LiveCells() == 0 || !gridChanged(c.world)
	if c.opts.MaxGenerations != 0 && c.generation >= c.opts.MaxGenerations {
		finished = true
	}
	if finished {
		c.state = StateFinished
	}
	c.mu.Unlock()
	if finished {
		//Stop would deadlock from inside the callback, cancel asynchronously
		go c.stepper.Stop()
	}
	c.refresh()
	return nil
}

//status builds a Status snapshot, c.mu must be held
func (c *Controller) status() Status {
	return Status{
		Generation:   c.generation,
		RunningState: c.state,
		LiveCells:    c.world.LiveCells(),
		StepTime:     c.stepTime,
		Speed:        c.speed,
		Interval:     c.stepper.Interval(),
	}
}

//refresh publishes the current status and redraws all registered viewers
func (c *Controller) refresh() {
	if c.stateCh != nil {
		c.stateCh <- c.Status()
	}
	for _, v := range c.views {
		v.Refresh()
	}
}

//gridChanged reports whether the last step changed any cell
func gridChanged(w *world.World) bool {
	for _, row := range w.Changed() {
		for _, changed := range row {
			if changed {
				return true
			}
		}
	}
	return false
}
