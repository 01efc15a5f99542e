package mask

import "image"

// Grid булева сетка занятости, полученная бинаризацией маски
type Grid struct {
	Width  int
	Height int
	Cells  []bool
}

// NewGrid создает сетку, все ячейки которой false
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		Width:  width,
		Height: height,
		Cells:  make([]bool, width*height),
	}
}

// valid сообщает, согласованы ли размеры сетки с Cells.
// Несогласованная сетка (например, литерал без Cells) считается пустой.
func (g *Grid) valid() bool {
	return g != nil && g.Width >= 0 && g.Height >= 0 && len(g.Cells) == g.Width*g.Height
}

// Binarize возвращает сетку value > threshold. nil маска дает пустую сетку 0x0.
func Binarize(m *Mask, threshold uint8) *Grid {
	if m == nil {
		return NewGrid(0, 0)
	}
	g := NewGrid(m.Width, m.Height)
	for i, v := range m.Pix {
		if i >= len(g.Cells) {
			break
		}
		g.Cells[i] = v > threshold
	}
	return g
}

// At возвращает значение ячейки, false за пределами сетки
func (g *Grid) At(x, y int) bool {
	if !g.valid() || x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return false
	}
	return g.Cells[y*g.Width+x]
}

// Set записывает значение ячейки, координаты вне сетки игнорируются
func (g *Grid) Set(x, y int, v bool) {
	if !g.valid() || x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return
	}
	g.Cells[y*g.Width+x] = v
}

// SetRect выставляет v во всех ячейках прямоугольника r
func (g *Grid) SetRect(r image.Rectangle, v bool) {
	if !g.valid() {
		return
	}
	r = r.Intersect(g.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g.Cells[y*g.Width+x] = v
		}
	}
}

// Bounds возвращает прямоугольник сетки
func (g *Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// SameShape сообщает, совпадают ли размеры сеток
func (g *Grid) SameShape(other *Grid) bool {
	return other != nil && g.Width == other.Width && g.Height == other.Height
}

// Any сообщает, есть ли хотя бы одна занятая ячейка
func (g *Grid) Any() bool {
	for _, c := range g.Cells {
		if c {
			return true
		}
	}
	return false
}

// Count возвращает число занятых ячеек
func (g *Grid) Count() int {
	n := 0
	for _, c := range g.Cells {
		if c {
			n++
		}
	}
	return n
}

// Clone возвращает независимую копию сетки
func (g *Grid) Clone() *Grid {
	out := &Grid{Width: g.Width, Height: g.Height, Cells: make([]bool, len(g.Cells))}
	copy(out.Cells, g.Cells)
	return out
}

// Overlaps сообщает, есть ли ячейка, занятая в обеих сетках.
// Сетки разного размера не пересекаются.
func Overlaps(a, b *Grid) bool {
	if !a.valid() || !b.valid() || !a.SameShape(b) {
		return false
	}
	for i, c := range a.Cells {
		if c && b.Cells[i] {
			return true
		}
	}
	return false
}

// Erode выполняет iterations шагов бинарной эрозии крестовым (4-связным) элементом.
// Ячейки за границей сетки считаются false, поэтому занятые ячейки на краю кадра
// исчезают на первом же шаге.
func Erode(g *Grid, iterations int) *Grid {
	if !g.valid() {
		return emptyLike(g)
	}
	cur := g.Clone()
	if iterations <= 0 {
		return cur
	}
	next := NewGrid(g.Width, g.Height)
	for it := 0; it < iterations; it++ {
		alive := false
		for y := 0; y < cur.Height; y++ {
			for x := 0; x < cur.Width; x++ {
				v := cur.Cells[y*cur.Width+x] &&
					cur.At(x-1, y) && cur.At(x+1, y) &&
					cur.At(x, y-1) && cur.At(x, y+1)
				next.Cells[y*cur.Width+x] = v
				alive = alive || v
			}
		}
		cur, next = next, cur
		if !alive {
			break
		}
	}
	return cur
}

// EdgeBand возвращает краевую полосу шириной width: g AND NOT Erode(g, width)
func EdgeBand(g *Grid, width int) *Grid {
	if !g.valid() {
		return emptyLike(g)
	}
	eroded := Erode(g, width)
	band := NewGrid(g.Width, g.Height)
	if width <= 0 {
		return band
	}
	for i, c := range g.Cells {
		band.Cells[i] = c && !eroded.Cells[i]
	}
	return band
}

// emptyLike возвращает пустую сетку тех же размеров
func emptyLike(g *Grid) *Grid {
	if g == nil {
		return NewGrid(0, 0)
	}
	return NewGrid(g.Width, g.Height)
}
