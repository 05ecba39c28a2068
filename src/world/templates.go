package world

//Template represents a seeding pattern which can be used to settle the
//world with predefined data
type Template struct {
	Name        string  //template name
	Descr       string  //template descr
	Coordinates [][]int //array of [x,y] coordinates
}

//Glider is the default seeding template, settled by New.
//It translates one cell diagonally every 4 generations.
var Glider = Template{
	Name:  "glider",
	Descr: "5-cell glider near the origin",
	Coordinates: [][]int{
		{2, 0}, {2, 1}, {2, 2}, {1, 2}, {0, 1},
	},
}

//AddTemplate adds the seeding template to the internal storage
//the world can be populated with this template by calling SettleTemplate
func (w *World) AddTemplate(tmpl Template) {
	w.templates[tmpl.Name] = tmpl
}

//SettleTemplate populates the world with a stored seeding template.
//Unknown names are ignored.
func (w *World) SettleTemplate(name string) {
	tmpl, ok := w.templates[name]
	if !ok {
		return
	}
	w.Settle(tmpl.Coordinates)
}

//Settle sets the cells at the given [x,y] coordinates alive and resets the
//change set to mark exactly those cells. Coordinates outside the grid are
//skipped.
func (w *World) Settle(vc [][]int) {
	clearBoolGrid(w.changed)
	for _, v := range vc {
		x, y := v[0], v[1]
		if x < 0 || y < 0 || x >= w.width || y >= w.height {
			continue
		}
		w.cells[y][x] = Alive
		w.changed[y][x] = true
	}
}
