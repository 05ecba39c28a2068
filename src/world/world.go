package world

import (
	"errors"
	"fmt"
	"sync"
)

//Cell is the state of a single grid position
type Cell uint8

const (
	Dead Cell = iota
	Alive
)

func (c Cell) String() string {
	if c == Alive {
		return "alive"
	}
	return "dead"
}

var (
	//ErrOutOfBounds is returned by FlipCell for coordinates outside the grid
	ErrOutOfBounds = errors.New("world: coordinates out of bounds")
)

//World holds one generation of a toroidal Life grid together with the set
//of cells that changed when that generation was produced.
//
//The grid wraps on both axes: neighbors of an edge cell are looked up on
//the opposite edge, so every cell has exactly 8 neighbors.
//
//World does no internal locking. Step, FlipCell, Settle and Clear must be
//called from a single logical owner; readers of Cells/Changed must
//synchronize with that owner themselves (e.g. read only after being told a
//step finished). Each generation is computed into a spare buffer pair and
//swapped in whole, so a reader never sees a half-written grid.
type World struct {
	width  int
	height int

	cells       [][]Cell
	nextCells   [][]Cell
	changed     [][]bool
	nextChanged [][]bool

	templates map[string]Template
	workers   int
}

//New creates the World with all cells dead, then settles the default
//glider template near the origin.
func New(width int, height int) (*World, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("world: invalid dimensions %vx%v", width, height)
	}
	w := &World{
		width:       width,
		height:      height,
		cells:       newCellGrid(width, height),
		nextCells:   newCellGrid(width, height),
		changed:     newBoolGrid(width, height),
		nextChanged: newBoolGrid(width, height),
		templates:   map[string]Template{},
		workers:     1,
	}
	w.AddTemplate(Glider)
	w.SettleTemplate(Glider.Name)
	return w, nil
}

//Width returns the immutable grid width
func (w *World) Width() int { return w.width }

//Height returns the immutable grid height
func (w *World) Height() int { return w.height }

//Cells returns the current generation, indexed [y][x].
//The returned slices are the live buffers, not a copy.
func (w *World) Cells() [][]Cell { return w.cells }

//Changed returns the change set of the last mutation, indexed [y][x].
//A false entry means "unchanged, do not redraw", not "dead".
func (w *World) Changed() [][]bool { return w.changed }

//LiveCells returns the count of alive cells in the current generation
func (w *World) LiveCells() int {
	live := 0
	for y := range w.cells {
		for x := range w.cells[y] {
			if w.cells[y][x] == Alive {
				live++
			}
		}
	}
	return live
}

//SetWorkers sets the number of goroutines used to compute a generation.
//Values below 2 select the serial path. The result is identical either way.
func (w *World) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	if n > w.height {
		n = w.height
	}
	w.workers = n
}

//FlipCell toggles the state of the single cell at x, y and resets the
//change set to mark exactly that cell. Flipping twice restores both the
//cell and the change set.
func (w *World) FlipCell(x int, y int) error {
	if x < 0 || x >= w.width || y < 0 || y >= w.height {
		return fmt.Errorf("%w: (%v,%v) on %vx%v grid", ErrOutOfBounds, x, y, w.width, w.height)
	}
	if w.cells[y][x] == Alive {
		w.cells[y][x] = Dead
	} else {
		w.cells[y][x] = Alive
	}
	clearBoolGrid(w.changed)
	w.changed[y][x] = true
	return nil
}

//Step advances the grid by exactly one generation.
//
//The whole next generation and its change set are computed from the
//current buffers only, then swapped in, so no cell update ever reads an
//already-updated neighbor.
func (w *World) Step() {
	if w.workers > 1 {
		w.stepParallel()
	} else {
		w.stepRows(0, w.height)
	}
	w.swap()
}

//Clear kills all cells and marks the previously alive ones as changed
func (w *World) Clear() {
	for y := range w.cells {
		for x := range w.cells[y] {
			w.nextCells[y][x] = Dead
			w.nextChanged[y][x] = w.cells[y][x] == Alive
		}
	}
	w.swap()
}

//stepParallel splits the grid into row bands, one goroutine per band.
//Every band reads the shared current buffers and writes a disjoint slice
//of the next buffers, so no further synchronization is needed.
func (w *World) stepParallel() {
	rows := w.height / w.workers
	if rows*w.workers < w.height {
		rows++
	}
	var wg sync.WaitGroup
	for y := 0; y < w.height; y += rows {
		y1, y2 := y, y+rows
		if y2 > w.height {
			y2 = w.height
		}
		wg.Add(1)
		go func() {
			w.stepRows(y1, y2)
			wg.Done()
		}()
	}
	wg.Wait()
}

//stepRows computes the next state for rows y1 (inclusive) to y2 (exclusive)
func (w *World) stepRows(y1 int, y2 int) {
	for y := y1; y < y2; y++ {
		for x := 0; x < w.width; x++ {
			state := w.cells[y][x]
			var next Cell
			switch w.liveNeighbors(x, y) {
			case 3:
				//birth or survival
				next = Alive
			case 2:
				//survival or persistent death
				next = state
			default:
				next = Dead
			}
			w.nextCells[y][x] = next
			w.nextChanged[y][x] = next != state
		}
	}
}

//liveNeighbors counts the alive cells among the 8 toroidal neighbors of x, y
func (w *World) liveNeighbors(x int, y int) int {
	live := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx := (x + dx + w.width) % w.width
			ny := (y + dy + w.height) % w.height
			if w.cells[ny][nx] == Alive {
				live++
			}
		}
	}
	return live
}

//swap publishes the freshly computed buffers as the current generation
func (w *World) swap() {
	w.cells, w.nextCells = w.nextCells, w.cells
	w.changed, w.nextChanged = w.nextChanged, w.changed
}

//newCellGrid allocates a height x width grid over a single backing buffer
func newCellGrid(width int, height int) [][]Cell {
	grid := make([][]Cell, height)
	b := make([]Cell, width*height)
	for i := range grid {
		start := width * i
		grid[i] = b[start : start+width : start+width]
	}
	return grid
}

//newBoolGrid allocates a height x width change set over a single backing buffer
func newBoolGrid(width int, height int) [][]bool {
	grid := make([][]bool, height)
	b := make([]bool, width*height)
	for i := range grid {
		start := width * i
		grid[i] = b[start : start+width : start+width]
	}
	return grid
}

func clearBoolGrid(grid [][]bool) {
	for y := range grid {
		for x := range grid[y] {
			grid[y][x] = false
		}
	}
}
