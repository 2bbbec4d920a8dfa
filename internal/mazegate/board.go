package mazegate

import (
	"fmt"
	"strings"
)

// Cell is one square of the board.
type Cell int

// Cell kinds.
const (
	CellWall Cell = iota
	CellPath
	CellStart
	CellGoal
)

// Safe reports whether standing on the cell keeps a run alive.
func (c Cell) Safe() bool {
	return c != CellWall
}

// DefaultLayout is the board shown when a gated effect is due.
var DefaultLayout = []string{
	"#############",
	"#S.....######",
	"######.######",
	"######.....##",
	"##########.##",
	"##.........##",
	"##.##########",
	"##........G##",
	"#############",
}

// Point is a board coordinate.
type Point struct {
	X, Y int
}

// Board is the play surface: a grid with one start, one goal and a safe path.
// A cursor moves over it like a pointer; the cells it enters drive the run.
type Board struct {
	cells [][]Cell
	start Point
	goal  Point
	pos   Point
	run   *Run
}

// ParseLayout builds a board from rows of '#' (wall), '.' (path), 'S' and 'G'.
func ParseLayout(rows []string) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("maze layout is empty")
	}
	width := len(rows[0])
	b := &Board{cells: make([][]Cell, len(rows))}
	starts, goals := 0, 0
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("maze row %d has width %d, want %d", y, len(row), width)
		}
		b.cells[y] = make([]Cell, width)
		for x := 0; x < width; x++ {
			switch row[x] {
			case '#':
				b.cells[y][x] = CellWall
			case '.':
				b.cells[y][x] = CellPath
			case 'S':
				b.cells[y][x] = CellStart
				b.start = Point{X: x, Y: y}
				starts++
			case 'G':
				b.cells[y][x] = CellGoal
				b.goal = Point{X: x, Y: y}
				goals++
			default:
				return nil, fmt.Errorf("maze row %d: unknown cell %q", y, row[x])
			}
		}
	}
	if starts != 1 || goals != 1 {
		return nil, fmt.Errorf("maze needs exactly one start and one goal, got %d and %d", starts, goals)
	}
	return b, nil
}

// MustDefault returns a board for DefaultLayout.
func MustDefault() *Board {
	b, err := ParseLayout(DefaultLayout)
	if err != nil {
		panic(err)
	}
	return b
}

// Attach binds run to the board and puts the cursor on the start cell,
// which arms the run.
func (b *Board) Attach(run *Run) {
	b.run = run
	b.pos = b.start
	if run != nil {
		run.EnterStart()
	}
}

// Run returns the attached run.
func (b *Board) Run() *Run {
	return b.run
}

// Width returns the number of columns.
func (b *Board) Width() int {
	return len(b.cells[0])
}

// Height returns the number of rows.
func (b *Board) Height() int {
	return len(b.cells)
}

// At returns the cell at p.
func (b *Board) At(p Point) Cell {
	return b.cells[p.Y][p.X]
}

// Cursor returns the cursor position.
func (b *Board) Cursor() Point {
	return b.pos
}

// Move shifts the cursor by (dx, dy). Moving off the board leaves the play
// surface: the cursor stays put but the run fails.
func (b *Board) Move(dx, dy int) {
	next := Point{X: b.pos.X + dx, Y: b.pos.Y + dy}
	if next.X < 0 || next.Y < 0 || next.Y >= b.Height() || next.X >= b.Width() {
		if b.run != nil {
			b.run.LeaveSafe()
		}
		return
	}
	b.pos = next
	if b.run == nil {
		return
	}
	switch b.At(next) {
	case CellStart:
		b.run.EnterStart()
	case CellGoal:
		b.run.EnterGoal()
	case CellWall:
		b.run.LeaveSafe()
	}
}

// String renders the board with the cursor as '@'.
func (b *Board) String() string {
	var sb strings.Builder
	for y, row := range b.cells {
		for x, c := range row {
			if b.pos.X == x && b.pos.Y == y {
				sb.WriteByte('@')
				continue
			}
			sb.WriteByte(cellGlyph(c))
		}
		if y < len(b.cells)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func cellGlyph(c Cell) byte {
	switch c {
	case CellPath:
		return '.'
	case CellStart:
		return 'S'
	case CellGoal:
		return 'G'
	default:
		return '#'
	}
}
