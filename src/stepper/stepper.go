package stepper

import (
	"fmt"
	"log"
	"sync"
	"time"
)

//ResponsiveThreshold is the previous-interval length above which SetInterval
//cancels the pending wait and reschedules immediately instead of letting the
//old wait run out. Below it, rescheduling would thrash when interval changes
//arrive faster than the tick itself.
const ResponsiveThreshold = 500 * time.Millisecond

//Callback is the function a Stepper invokes on every cycle.
//A returned error is reported through the error handler and does not stop
//the schedule.
type Callback func() error

//Stepper invokes a callback repeatedly at a settable interval.
//
//Invocations never overlap: each cycle runs under its own lock and the next
//cycle is scheduled only after the previous one returned. Start, Stop and
//SetInterval serialize on a separate control lock, so they stay responsive
//while a callback is executing.
//
//A Stepper is constructed stopped and must be stopped again before the
//owning process shuts down.
type Stepper struct {
	controlMu sync.Mutex //guards the fields below
	cbMu      sync.Mutex //held for the duration of each callback invocation

	callback Callback
	interval time.Duration
	running  bool
	timer    *time.Timer
	gen      uint64 //bumped whenever the pending schedule is invalidated
	onError  func(error)
}

//New creates a stopped Stepper that will invoke callback every interval
//once started
func New(interval time.Duration, callback Callback) (*Stepper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("stepper: invalid interval %v", interval)
	}
	if callback == nil {
		return nil, fmt.Errorf("stepper: nil callback")
	}
	return &Stepper{
		callback: callback,
		interval: interval,
		onError:  func(err error) { log.Printf("stepper: %v", err) },
	}, nil
}

//OnError installs the handler invoked when a callback returns an error or
//panics. The default handler logs via the log package. A nil handler
//discards errors.
func (s *Stepper) OnError(h func(error)) {
	s.controlMu.Lock()
	s.onError = h
	s.controlMu.Unlock()
}

//Running reports whether the stepper is in the running state
func (s *Stepper) Running() bool {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	return s.running
}

//Interval returns the interval used for the next scheduling decision
func (s *Stepper) Interval() time.Duration {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	return s.interval
}

//Start begins periodic invocation of the callback. The first invocation
//fires after one interval, not immediately. Calling Start while already
//running is a no-op.
func (s *Stepper) Start() {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.schedule(s.interval)
}

//Stop halts future invocations and waits for an in-flight callback to
//return before it itself returns. Calling Stop while already stopped is a
//no-op. Stop must not be called from inside the callback.
func (s *Stepper) Stop() {
	s.controlMu.Lock()
	if s.running {
		s.running = false
		s.gen++
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
	}
	s.controlMu.Unlock()

	//barrier: taking the callback lock means any invocation that was in
	//flight when the schedule was cancelled has returned
	s.cbMu.Lock()
	s.cbMu.Unlock()
}

//SetInterval sets the interval between cycles.
//
//If the stepper is running and the previous interval exceeds
//ResponsiveThreshold, the pending wait is cancelled and the next invocation
//is rescheduled to fire after the new interval, so a long wait never blocks
//a requested speed-up. Otherwise the new interval takes effect at the next
//scheduling decision.
func (s *Stepper) SetInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("stepper: invalid interval %v", interval)
	}
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	responsive := s.running && s.interval > ResponsiveThreshold
	s.interval = interval
	if responsive {
		if s.timer != nil {
			s.timer.Stop()
		}
		s.schedule(interval)
	}
	return nil
}

//schedule arms the timer for the next cycle. The control lock must be held.
//Each schedule gets a fresh generation number so a timer that fires after
//it was superseded abandons its cycle instead of running twice.
func (s *Stepper) schedule(d time.Duration) {
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(d, func() { s.cycle(gen) })
}

//cycle runs one invocation and, if still current and running, schedules the
//next one after the current interval.
//The running check happens under the callback lock so that Stop, whose
//barrier takes the same lock, can never return while an invocation it
//should have prevented is still about to run.
func (s *Stepper) cycle(gen uint64) {
	s.cbMu.Lock()
	s.controlMu.Lock()
	current := s.running && gen == s.gen
	s.controlMu.Unlock()
	var err error
	if current {
		err = s.invoke()
	}
	s.cbMu.Unlock()
	if !current {
		return
	}
	if err != nil {
		s.reportError(err)
	}

	s.controlMu.Lock()
	if s.running && gen == s.gen {
		s.schedule(s.interval)
	}
	s.controlMu.Unlock()
}

//invoke calls the callback, converting a panic into an error so a failing
//callback never kills the schedule
func (s *Stepper) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panic: %v", r)
		}
	}()
	return s.callback()
}

func (s *Stepper) reportError(err error) {
	s.controlMu.Lock()
	h := s.onError
	s.controlMu.Unlock()
	if h != nil {
		h(err)
	}
}
