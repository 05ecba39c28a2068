package world

import (
	"errors"
	"math/rand"
	"testing"
)

func newEmptyWorld(t *testing.T, width int, height int) *World {
	t.Helper()
	w, err := New(width, height)
	if err != nil {
		t.Fatalf("New(%v, %v): %v", width, height, err)
	}
	w.Clear()
	return w
}

func aliveSet(w *World) map[[2]int]bool {
	alive := map[[2]int]bool{}
	for y, row := range w.Cells() {
		for x, cell := range row {
			if cell == Alive {
				alive[[2]int{x, y}] = true
			}
		}
	}
	return alive
}

func checkAlive(t *testing.T, w *World, expects map[[2]int]bool) {
	t.Helper()
	for y := 0; y < w.Height(); y++ {
		for x := 0; x < w.Width(); x++ {
			alive := w.Cells()[y][x] == Alive
			shouldBeAlive := expects[[2]int{x, y}]
			if alive != shouldBeAlive {
				t.Fatalf("cell (%v,%v) alive=%v, expected %v", x, y, alive, shouldBeAlive)
			}
		}
	}
}

func TestNewValidation(t *testing.T) {
	for _, d := range [][2]int{{0, 5}, {5, 0}, {-1, 5}, {5, -3}, {0, 0}} {
		if _, err := New(d[0], d[1]); err == nil {
			t.Errorf("New(%v, %v): expected error", d[0], d[1])
		}
	}
}

func TestGliderSeed(t *testing.T) {
	w, err := New(10, 10)
	if err != nil {
		t.Fatal(err)
	}
	expects := map[[2]int]bool{
		{2, 0}: true, {2, 1}: true, {2, 2}: true, {1, 2}: true, {0, 1}: true,
	}
	checkAlive(t, w, expects)
	// the seeded cells are marked changed so a consumer draws them
	for y := 0; y < w.Height(); y++ {
		for x := 0; x < w.Width(); x++ {
			if w.Changed()[y][x] != expects[[2]int{x, y}] {
				t.Fatalf("changed (%v,%v) = %v after seeding", x, y, w.Changed()[y][x])
			}
		}
	}
}

func TestGliderTranslation(t *testing.T) {
	//the classic period-4 property: 4 generations translate the glider
	//one cell diagonally
	w, err := New(10, 10)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		w.Step()
	}
	checkAlive(t, w, map[[2]int]bool{
		{3, 1}: true, {1, 2}: true, {3, 2}: true, {2, 3}: true, {3, 3}: true,
	})
}

func TestBirthSurvivalDeath(t *testing.T) {
	//the 8 neighbors of the center cell of a 5x5 grid
	neighbors := [][2]int{
		{1, 1}, {2, 1}, {3, 1},
		{1, 2}, {3, 2},
		{1, 3}, {2, 3}, {3, 3},
	}
	for _, alive := range []bool{false, true} {
		for count := 0; count <= 8; count++ {
			w := newEmptyWorld(t, 5, 5)
			for i := 0; i < count; i++ {
				w.cells[neighbors[i][1]][neighbors[i][0]] = Alive
			}
			if alive {
				w.cells[2][2] = Alive
			}
			w.Step()

			var want Cell
			switch {
			case count == 3:
				want = Alive
			case count == 2 && alive:
				want = Alive
			default:
				want = Dead
			}
			if got := w.Cells()[2][2]; got != want {
				t.Errorf("alive=%v neighbors=%v: next state %v, expected %v", alive, count, got, want)
			}
		}
	}
}

func TestToroidalWraparound(t *testing.T) {
	//three live cells placed around the far corner are all neighbors of
	//(4,4), so the corner cell is born
	w := newEmptyWorld(t, 5, 5)
	w.Settle([][]int{{0, 0}, {4, 0}, {0, 4}})
	w.Step()
	if w.Cells()[4][4] != Alive {
		t.Errorf("corner cell (4,4) not born from wrapped neighbors")
	}
}

func TestFullGridDies(t *testing.T) {
	//on a torus every cell of a fully populated grid has exactly 8 live
	//neighbors, edge cells included, so the whole grid dies at once
	w := newEmptyWorld(t, 6, 4)
	for y := range w.cells {
		for x := range w.cells[y] {
			w.cells[y][x] = Alive
		}
	}
	w.Step()
	for y, row := range w.Cells() {
		for x, cell := range row {
			if cell != Dead {
				t.Fatalf("cell (%v,%v) survived with 8 neighbors", x, y)
			}
			if !w.Changed()[y][x] {
				t.Fatalf("cell (%v,%v) died but is not marked changed", x, y)
			}
		}
	}
}

func TestChangeSetMatchesDiff(t *testing.T) {
	w, err := New(12, 9)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		before := aliveSet(w)
		w.Step()
		for y := 0; y < w.Height(); y++ {
			for x := 0; x < w.Width(); x++ {
				nowAlive := w.Cells()[y][x] == Alive
				differs := nowAlive != before[[2]int{x, y}]
				if w.Changed()[y][x] != differs {
					t.Fatalf("step %v: changed (%v,%v) = %v, cells differ = %v",
						i, x, y, w.Changed()[y][x], differs)
				}
			}
		}
	}
}

func TestFlipCell(t *testing.T) {
	w := newEmptyWorld(t, 5, 5)
	if err := w.FlipCell(3, 2); err != nil {
		t.Fatal(err)
	}
	if w.Cells()[2][3] != Alive {
		t.Errorf("cell not alive after flip")
	}
	trueEntries := 0
	for y, row := range w.Changed() {
		for x, changed := range row {
			if changed {
				trueEntries++
				if x != 3 || y != 2 {
					t.Errorf("unexpected changed entry at (%v,%v)", x, y)
				}
			}
		}
	}
	if trueEntries != 1 {
		t.Errorf("change set has %v entries, expected exactly 1", trueEntries)
	}

	//double flip restores the pre-flip state
	if err := w.FlipCell(3, 2); err != nil {
		t.Fatal(err)
	}
	if w.Cells()[2][3] != Dead {
		t.Errorf("cell not dead after second flip")
	}
	if !w.Changed()[2][3] {
		t.Errorf("second flip not marked changed")
	}
}

func TestFlipCellOutOfBounds(t *testing.T) {
	w := newEmptyWorld(t, 5, 5)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {5, 0}, {0, 5}, {100, 100}} {
		err := w.FlipCell(p[0], p[1])
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("FlipCell(%v, %v): got %v, expected ErrOutOfBounds", p[0], p[1], err)
		}
	}
}

func TestSettleSkipsOutOfRange(t *testing.T) {
	w := newEmptyWorld(t, 4, 4)
	w.Settle([][]int{{1, 1}, {7, 7}, {-1, 2}})
	if got := w.LiveCells(); got != 1 {
		t.Errorf("LiveCells() = %v, expected 1", got)
	}
}

func TestClear(t *testing.T) {
	w, err := New(6, 6)
	if err != nil {
		t.Fatal(err)
	}
	before := aliveSet(w)
	w.Clear()
	if w.LiveCells() != 0 {
		t.Errorf("LiveCells() = %v after Clear", w.LiveCells())
	}
	for y := 0; y < w.Height(); y++ {
		for x := 0; x < w.Width(); x++ {
			if w.Changed()[y][x] != before[[2]int{x, y}] {
				t.Errorf("changed (%v,%v) = %v after Clear", x, y, w.Changed()[y][x])
			}
		}
	}
}

func TestParallelStepMatchesSerial(t *testing.T) {
	const width, height = 64, 48
	rng := rand.New(rand.NewSource(1))
	var coords [][]int
	for i := 0; i < width*height/4; i++ {
		coords = append(coords, []int{rng.Intn(width), rng.Intn(height)})
	}

	serial := newEmptyWorld(t, width, height)
	parallel := newEmptyWorld(t, width, height)
	serial.Settle(coords)
	parallel.Settle(coords)
	parallel.SetWorkers(7)

	for i := 0; i < 10; i++ {
		serial.Step()
		parallel.Step()
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if serial.Cells()[y][x] != parallel.Cells()[y][x] {
					t.Fatalf("step %v: cells diverge at (%v,%v)", i, x, y)
				}
				if serial.Changed()[y][x] != parallel.Changed()[y][x] {
					t.Fatalf("step %v: change sets diverge at (%v,%v)", i, x, y)
				}
			}
		}
	}
}

func benchmarkStep(b *testing.B, workers int) {
	w, err := New(200, 200)
	if err != nil {
		b.Fatal(err)
	}
	w.SetWorkers(workers)
	rng := rand.New(rand.NewSource(42))
	var coords [][]int
	for i := 0; i < 200*200/4; i++ {
		coords = append(coords, []int{rng.Intn(200), rng.Intn(200)})
	}
	w.Settle(coords)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Step()
	}
}

func Benchmark_Step(b *testing.B) {
	b.Run("serial", func(b *testing.B) { benchmarkStep(b, 1) })
	b.Run("workers4", func(b *testing.B) { benchmarkStep(b, 4) })
	b.Run("workers10", func(b *testing.B) { benchmarkStep(b, 10) })
}
