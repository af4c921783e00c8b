package framebuffer

// Framebuffer is a small VT-style terminal emulator: it consumes a byte
// stream and maintains a cols x rows grid of styled cells plus cursor
// state, per spec.md §3-4.1. It has no I/O and never fails; malformed
// input is silently tolerated. A Framebuffer is not safe for concurrent
// use — callers (the session layer) serialize access.
type Framebuffer struct {
	cols, rows int

	primary   [][]Cell
	alternate [][]Cell
	grid      [][]Cell // active grid: primary or alternate
	usingAlt  bool

	// altEntryCursor is the primary-screen cursor to restore when DECSET
	// 1049 is reset.
	altEntryCursor Cursor

	cursor Cursor

	savedCursor  Cursor
	savedFg      int32
	savedBg      int32
	savedFlags   Attr
	haveSaved    bool

	curFg    int32
	curBg    int32
	curFlags Attr

	scrollTop, scrollBottom int

	p *parser
}

const (
	defaultCols = 80
	defaultRows = 24
)

// New creates a Framebuffer with the given dimensions, defaulting to
// 80x24 when either is non-positive.
func New(cols, rows int) *Framebuffer {
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}

	fb := &Framebuffer{
		cols:          cols,
		rows:          rows,
		cursor:        Cursor{Visible: true},
		curFg:         DefaultColor,
		curBg:         DefaultColor,
		scrollTop:     0,
		scrollBottom:  rows - 1,
	}
	fb.primary = newGrid(cols, rows)
	fb.grid = fb.primary

	fb.p = newParser()
	fb.p.onPrint = fb.putChar
	fb.p.onExecute = fb.execC0
	fb.p.onCSI = fb.handleCSI
	fb.p.onEscape = fb.handleEscape
	fb.p.onOSC = func([]byte) {} // window titles etc. are out of scope

	return fb
}

func newGrid(cols, rows int) [][]Cell {
	g := make([][]Cell, rows)
	for y := range g {
		g[y] = newBlankRow(cols)
	}
	return g
}

func newBlankRow(cols int) []Cell {
	row := make([]Cell, cols)
	for x := range row {
		row[x] = blankCell
	}
	return row
}

// Write appends data to the parser's state and parses as far as possible.
// It satisfies io.Writer and never returns an error.
func (fb *Framebuffer) Write(data []byte) (int, error) {
	fb.p.write(data)
	return len(data), nil
}

// GetSize returns the current (cols, rows).
func (fb *Framebuffer) GetSize() (int, int) {
	return fb.cols, fb.rows
}

// Resize reshapes the grid, preserving the top-left min(old,new)
// rectangle, resets the scroll region to full height, and clamps the
// cursor.
func (fb *Framebuffer) Resize(cols, rows int) {
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}
	if cols == fb.cols && rows == fb.rows {
		return
	}

	fb.primary = reshape(fb.primary, fb.cols, fb.rows, cols, rows)
	if fb.alternate != nil {
		fb.alternate = reshape(fb.alternate, fb.cols, fb.rows, cols, rows)
	}
	if fb.usingAlt {
		fb.grid = fb.alternate
	} else {
		fb.grid = fb.primary
	}

	fb.cols, fb.rows = cols, rows
	fb.scrollTop, fb.scrollBottom = 0, rows-1
	fb.cursor.X = clampInt(fb.cursor.X, 0, cols-1)
	fb.cursor.Y = clampInt(fb.cursor.Y, 0, rows-1)
}

func reshape(old [][]Cell, oldCols, oldRows, newCols, newRows int) [][]Cell {
	g := newGrid(newCols, newRows)
	minRows := minInt(oldRows, newRows)
	minCols := minInt(oldCols, newCols)
	for y := 0; y < minRows; y++ {
		copy(g[y][:minCols], old[y][:minCols])
	}
	return g
}

// --- parser callbacks ---

func (fb *Framebuffer) putChar(r rune) {
	if fb.cursor.X >= fb.cols {
		fb.cursor.X = 0
		fb.linefeed()
	}
	fb.grid[fb.cursor.Y][fb.cursor.X] = Cell{Char: r, Fg: fb.curFg, Bg: fb.curBg, Flags: fb.curFlags}
	fb.cursor.X++
}

func (fb *Framebuffer) execC0(b byte) {
	switch b {
	case 0x08: // BS
		if fb.cursor.X > 0 {
			fb.cursor.X--
		}
	case 0x09: // HT
		next := ((fb.cursor.X / 8) + 1) * 8
		fb.cursor.X = clampInt(next, 0, fb.cols-1)
	case 0x0A: // LF
		fb.linefeed()
	case 0x0D: // CR
		fb.cursor.X = 0
	case 0x07: // BEL
		// ignored
	}
}

func (fb *Framebuffer) handleEscape(intermediate, final byte) {
	if intermediate != 0 {
		// Charset designation (ESC ( / ESC )): consumed, ignored.
		return
	}
	switch final {
	case '7': // DECSC save cursor
		fb.saveCursor()
	case '8': // DECRC restore cursor
		fb.restoreCursor()
	case 'D': // IND index
		fb.linefeed()
	case 'E': // NEL next line
		fb.cursor.X = 0
		fb.linefeed()
	case 'M': // RI reverse index
		fb.reverseIndex()
	case 'c': // RIS full reset
		fb.reset()
	}
}

func (fb *Framebuffer) saveCursor() {
	fb.savedCursor = fb.cursor
	fb.savedFg = fb.curFg
	fb.savedBg = fb.curBg
	fb.savedFlags = fb.curFlags
	fb.haveSaved = true
}

func (fb *Framebuffer) restoreCursor() {
	if !fb.haveSaved {
		return
	}
	fb.cursor = fb.savedCursor
	fb.curFg = fb.savedFg
	fb.curBg = fb.savedBg
	fb.curFlags = fb.savedFlags
}

func (fb *Framebuffer) reset() {
	fb.primary = newGrid(fb.cols, fb.rows)
	fb.alternate = nil
	fb.usingAlt = false
	fb.grid = fb.primary
	fb.cursor = Cursor{Visible: true}
	fb.curFg, fb.curBg, fb.curFlags = DefaultColor, DefaultColor, 0
	fb.scrollTop, fb.scrollBottom = 0, fb.rows-1
	fb.haveSaved = false
}

// --- linefeed / scrolling (spec §4.1.3) ---

func (fb *Framebuffer) linefeed() {
	if fb.cursor.Y == fb.scrollBottom {
		fb.scrollUp(1)
	} else if fb.cursor.Y < fb.rows-1 {
		fb.cursor.Y++
	}
}

func (fb *Framebuffer) reverseIndex() {
	if fb.cursor.Y == fb.scrollTop {
		fb.scrollDown(1)
	} else if fb.cursor.Y > 0 {
		fb.cursor.Y--
	}
}

func (fb *Framebuffer) scrollUp(n int) {
	top, bottom := fb.scrollTop, fb.scrollBottom
	for i := 0; i < n; i++ {
		copy(fb.grid[top:bottom], fb.grid[top+1:bottom+1])
		fb.grid[bottom] = newBlankRow(fb.cols)
	}
}

func (fb *Framebuffer) scrollDown(n int) {
	top, bottom := fb.scrollTop, fb.scrollBottom
	for i := 0; i < n; i++ {
		copy(fb.grid[top+1:bottom+1], fb.grid[top:bottom])
		fb.grid[top] = newBlankRow(fb.cols)
	}
}
