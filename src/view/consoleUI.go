package view

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jroimartin/gocui"
	"github.com/logrusorgru/aurora"

	"golife/src/controller"
	"golife/src/world"
)

const (
	minSpeed = 0
	maxSpeed = 50
)

type keyBindings struct {
	key      interface{}
	name     string
	descr    string
	handler  func(v *gocui.View) error
	viewName string
}

//ConsoleUI is the interactive terminal viewer.
//It renders the grid, the configuration and the live status, and maps key
//and mouse input onto controller operations.
type ConsoleUI struct {
	c *controller.Controller
	g *gocui.Gui
	k []keyBindings

	liveFiller string
	bornFiller string
	diedFiller string
	deadFiller string
}

var (
	runningStateDescr = map[controller.RunningState]string{
		controller.StatePaused:   aurora.Colorize("paused", aurora.BlueFg).String(),
		controller.StatePlaying:  aurora.Colorize("playing", aurora.CyanFg).String(),
		controller.StateFinished: aurora.Colorize("finished", aurora.RedFg).String(),
	}
)

func NewConsoleUI() *ConsoleUI {

	var err error
	t := ConsoleUI{
		liveFiller: aurora.Green("█").String(),
		bornFiller: aurora.Green("█").BgBrightGreen().String(),
		diedFiller: "▒",
		deadFiller: "░",
	}

	t.g, err = gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		log.Panicln(err)
	}

	t.g.Mouse = true
	t.k = []keyBindings{
		{gocui.KeyCtrlC,
			"^C",
			"Exit",
			t.cmdQuit,
			""},
		{'n',
			"N",
			"Next generation",
			t.cmdStep,
			""},
		{gocui.KeySpace,
			"SPACE",
			"Play/Pause",
			t.cmdToggle,
			""},
		{'+',
			"+",
			"Faster",
			t.cmdFaster,
			""},
		{'-',
			"-",
			"Slower",
			t.cmdSlower,
			""},
		{'c',
			"C",
			"Clear",
			t.cmdClear,
			""},
		{gocui.MouseLeft,
			"MOUSE",
			"Flip the cell",
			t.cmdMouseClick,
			"grid"},
	}
	t.g.SetManagerFunc(t.layout)

	t.initKeyBindings(t.k)

	return &t
}

func (t *ConsoleUI) initKeyBindings(k []keyBindings) {
	for _, kb := range k {
		h := kb.handler
		if err := t.g.SetKeybinding(kb.viewName, kb.key, gocui.ModNone, func(gui *gocui.Gui, view *gocui.View) error { return h(view) }); err != nil {
			log.Panicln(err)
		}
	}
}

func (t *ConsoleUI) Register(c *controller.Controller) {
	t.c = c
}

//Start runs the terminal main loop. It returns after the user quits, with
//automatic stepping stopped.
func (t *ConsoleUI) Start() {
	if err := t.g.MainLoop(); err != nil && err != gocui.ErrQuit {
		log.Panicln(err)
	}
	t.c.Pause()
	t.g.Close()
}

func (t *ConsoleUI) Refresh() {
	t.renderGrid()
	t.renderConfiguration()
	t.renderStatus()
}

//renderGrid redraws the cell grid.
//The change set picks the filler: cells that changed on the last mutation
//are drawn brighter so activity is visible at a glance.
func (t *ConsoleUI) renderGrid() {

	t.g.Update(func(g *gocui.Gui) error {
		v, e := g.View("grid")
		if e != nil {
			return e
		}
		v.Clear()

		maxW, maxH := v.Size()

		var b bytes.Buffer

		t.c.WithWorld(func(w *world.World) {
			crop := w.Width() > maxW || w.Height() > maxH
			cells, changed := w.Cells(), w.Changed()
			for y := range cells {
				//discard the data outside the view area
				if y >= maxH {
					break
				}
				//line feed char
				if y != 0 {
					b.WriteByte(10)
				}
				if crop && y == (maxH-1) {
					b.WriteString(aurora.Red("The grid is larger than the viewing area").BgBlack().String())
					break
				}
				for x, cell := range cells[y] {
					if x >= maxW {
						break
					}
					switch {
					case cell == world.Alive && changed[y][x]:
						b.WriteString(t.bornFiller)
					case cell == world.Alive:
						b.WriteString(t.liveFiller)
					case changed[y][x]:
						b.WriteString(t.diedFiller)
					default:
						b.WriteString(t.deadFiller)
					}
				}
			}
		})
		_, _ = fmt.Fprint(v, b.String())
		return nil
	})
}

func (t *ConsoleUI) renderStatus() {
	s := t.c.Status()
	t.g.Update(func(g *gocui.Gui) error {
		if v, e := t.g.View("status"); e == nil {
			v.Clear()
			_, _ = fmt.Fprintln(v, t.renderProp("Generation", "%v", s.Generation))
			_, _ = fmt.Fprintln(v, t.renderProp("Live Cells", "%v", s.LiveCells))
			_, _ = fmt.Fprintln(v, t.renderProp("Step time", "%v", s.StepTime.Round(time.Microsecond)))
			_, _ = fmt.Fprintln(v, t.renderProp("Speed", "%v (%v)", s.Speed, s.Interval.Round(time.Millisecond)))
			_, _ = fmt.Fprintln(v, t.renderProp("Mode", "%v", runningStateDescr[s.RunningState]))
		}
		return nil
	})
}

func (t *ConsoleUI) renderConfiguration() {
	//it needs to call Update when calls from goroutine
	t.g.Update(func(g *gocui.Gui) error {
		o := t.c.Options()
		if v, e := g.View("configuration"); e == nil {
			v.Clear()
			_, _ = fmt.Fprintln(v, t.renderProp("Dimension", "%v x %v", o.Width, o.Height))
			_, _ = fmt.Fprintln(v, t.renderProp("Workers", "%v", o.Workers))
			if o.MaxGenerations > 0 {
				_, _ = fmt.Fprintln(v, t.renderProp("Limit", "%v generations", o.MaxGenerations))
			}
		}
		return nil
	})
}

func (t *ConsoleUI) renderProp(name string, valueformat string, values ...interface{}) string {
	return fmt.Sprintf(" "+aurora.Colorize(name, aurora.GreenFg).String()+": "+valueformat, values...)
}

func (t *ConsoleUI) layout(g *gocui.Gui) error {

	maxX, maxY := g.Size()
	leftColumnWidth := 28
	minWindowHeight := 20

	if maxY < minWindowHeight {
		if _, err := t.headerLayout(g, maxY, "Terminal height too small"); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
		}
		_ = g.DeleteView("configuration")
		_ = g.DeleteView("status")
		_ = g.DeleteView("grid")
		return nil

	} else {
		if _, err := t.headerLayout(g, 3, "Conway's Game of Life"); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
		}
	}

	if v, err := g.SetView("configuration", 0, 3, leftColumnWidth, 3+(maxY-5-3)/2); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Configuration"
		v.Frame = true
		t.renderConfiguration()
	}

	if v, err := g.SetView("status", 0, 3+(maxY-5-3)/2+1, leftColumnWidth, maxY-5); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "Status"
		v.Frame = true
		t.renderStatus()
	}

	if v, err := g.SetView("grid", leftColumnWidth+1, 3, maxX-1, maxY-5); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Title = "World"
		v.Frame = true
		t.renderGrid()
	} else {
		t.renderGrid()
	}

	if v, err := g.SetView("help", -1, maxY-5, maxX, maxY-3); err != nil {
		if err != gocui.ErrUnknownView || v == nil {
			return err
		}
		v.Frame = false
		b := bytes.Buffer{}
		b.WriteString("KEYBINDINGS: ")
		for i, k := range t.k {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteString(aurora.Green(k.name).String())
			b.WriteString(": ")
			b.WriteString(k.descr)
		}
		_, _ = fmt.Fprintln(v, b.String())
	}

	return nil
}

func (t *ConsoleUI) headerLayout(g *gocui.Gui, height int, text string) (v *gocui.View, err error) {
	maxX, _ := g.Size()
	if v, err = g.SetView("header", -1, -1, maxX+1, height); err != nil {
		if err == gocui.ErrUnknownView && v != nil {
			v.Frame = false
			v.BgColor = gocui.ColorCyan
			v.FgColor = gocui.ColorBlack
		}
	}
	if v != nil {
		v.Clear()
		if maxX < len(text) {
			panic(fmt.Sprintf("Terminal width is too small: %v", maxX))
		}
		_, _ = fmt.Fprintln(v, strings.Repeat("\n", height/2+1)+strings.Repeat(" ", (maxX-len(text))/2)+text)
	}
	return
}

func (t *ConsoleUI) cmdQuit(_ *gocui.View) error {
	return gocui.ErrQuit
}

func (t *ConsoleUI) cmdStep(_ *gocui.View) error {
	t.c.Step()
	return nil
}

func (t *ConsoleUI) cmdToggle(_ *gocui.View) error {
	t.c.Toggle()
	return nil
}

func (t *ConsoleUI) cmdFaster(_ *gocui.View) error {
	return t.changeSpeed(1)
}

func (t *ConsoleUI) cmdSlower(_ *gocui.View) error {
	return t.changeSpeed(-1)
}

func (t *ConsoleUI) changeSpeed(delta int) error {
	speed := t.c.Speed() + delta
	if speed < minSpeed || speed > maxSpeed {
		return nil
	}
	return t.c.SetSpeed(speed)
}

func (t *ConsoleUI) cmdClear(_ *gocui.View) error {
	t.c.Clear()
	return nil
}

func (t *ConsoleUI) cmdMouseClick(v *gocui.View) error {
	cx, cy := v.Cursor()
	//clicks outside the grid are ignored
	_ = t.c.FlipCell(cx, cy)
	return nil
}
