package framebuffer

// arg returns params[i], defaulting to def when the parameter is absent
// or was explicitly omitted (stored as 0 by the parser). This matches
// spec's "empty -> default 1 for motion, 0 for SGR/erase": callers pass
// the right def for their own semantics.
func arg(params []int, i, def int) int {
	if i >= len(params) {
		return def
	}
	if params[i] == 0 {
		return def
	}
	return params[i]
}

// rawArg is like arg but treats an explicit 0 as 0, only substituting def
// when the parameter is outright absent (used for erase/scroll-region
// modes where 0 is itself the default and a meaningful value).
func rawArg(params []int, i, def int) int {
	if i >= len(params) {
		return def
	}
	return params[i]
}

func (fb *Framebuffer) handleCSI(prefix byte, params []int, final byte) {
	if prefix == '?' {
		fb.handleDECPrivateMode(params, final)
		return
	}

	switch final {
	case 'A':
		n := arg(params, 0, 1)
		fb.cursor.Y = clampInt(fb.cursor.Y-n, 0, fb.rows-1)
	case 'B':
		n := arg(params, 0, 1)
		fb.cursor.Y = clampInt(fb.cursor.Y+n, 0, fb.rows-1)
	case 'C':
		n := arg(params, 0, 1)
		fb.cursor.X = clampInt(fb.cursor.X+n, 0, fb.cols-1)
	case 'D':
		n := arg(params, 0, 1)
		fb.cursor.X = clampInt(fb.cursor.X-n, 0, fb.cols-1)
	case 'E':
		n := arg(params, 0, 1)
		fb.cursor.X = 0
		fb.cursor.Y = clampInt(fb.cursor.Y+n, 0, fb.rows-1)
	case 'F':
		n := arg(params, 0, 1)
		fb.cursor.X = 0
		fb.cursor.Y = clampInt(fb.cursor.Y-n, 0, fb.rows-1)
	case 'G':
		n := arg(params, 0, 1)
		fb.cursor.X = clampInt(n-1, 0, fb.cols-1)
	case 'd':
		n := arg(params, 0, 1)
		fb.cursor.Y = clampInt(n-1, 0, fb.rows-1)
	case 'H', 'f':
		row := arg(params, 0, 1)
		col := arg(params, 1, 1)
		fb.cursor.Y = clampInt(row-1, 0, fb.rows-1)
		fb.cursor.X = clampInt(col-1, 0, fb.cols-1)
	case 'J':
		fb.eraseInDisplay(rawArg(params, 0, 0))
	case 'K':
		fb.eraseInLine(rawArg(params, 0, 0))
	case 'L':
		fb.insertLines(arg(params, 0, 1))
	case 'M':
		fb.deleteLines(arg(params, 0, 1))
	case '@':
		fb.insertChars(arg(params, 0, 1))
	case 'P':
		fb.deleteChars(arg(params, 0, 1))
	case 'X':
		fb.eraseChars(arg(params, 0, 1))
	case 'm':
		fb.handleSGR(params)
	case 'r':
		top := rawArg(params, 0, 1) - 1
		bottom := rawArg(params, 1, fb.rows) - 1
		top = clampInt(top, 0, fb.rows-1)
		bottom = clampInt(bottom, 0, fb.rows-1)
		if top > bottom {
			top, bottom = 0, fb.rows-1
		}
		fb.scrollTop, fb.scrollBottom = top, bottom
	case 's':
		fb.saveCursor()
	case 'u':
		fb.restoreCursor()
	default:
		// n, c, h, l (non-DEC) and anything else: ignored.
	}
}

func (fb *Framebuffer) handleDECPrivateMode(params []int, final byte) {
	set := final == 'h'
	if final != 'h' && final != 'l' {
		return
	}
	for _, code := range params {
		switch code {
		case 25:
			fb.cursor.Visible = set
		case 1049:
			if set {
				fb.enterAltScreen()
			} else {
				fb.exitAltScreen()
			}
		default:
			// 1, 7, 12, 47, 1047, 1048, 2004, and anything unrecognized:
			// accepted, no effect.
		}
	}
}

func (fb *Framebuffer) enterAltScreen() {
	if fb.usingAlt {
		return
	}
	fb.altEntryCursor = fb.cursor
	fb.alternate = newGrid(fb.cols, fb.rows)
	fb.grid = fb.alternate
	fb.usingAlt = true
	fb.cursor = Cursor{Visible: true}
}

func (fb *Framebuffer) exitAltScreen() {
	if !fb.usingAlt {
		return
	}
	fb.grid = fb.primary
	fb.usingAlt = false
	fb.cursor = fb.altEntryCursor
	fb.alternate = nil
}

func (fb *Framebuffer) eraseInDisplay(mode int) {
	switch mode {
	case 0:
		fb.clearRowRange(fb.cursor.Y, fb.cursor.X, fb.cols)
		for y := fb.cursor.Y + 1; y < fb.rows; y++ {
			fb.clearRowRange(y, 0, fb.cols)
		}
	case 1:
		fb.clearRowRange(fb.cursor.Y, 0, fb.cursor.X+1)
		for y := 0; y < fb.cursor.Y; y++ {
			fb.clearRowRange(y, 0, fb.cols)
		}
	case 2, 3:
		for y := 0; y < fb.rows; y++ {
			fb.clearRowRange(y, 0, fb.cols)
		}
	}
}

func (fb *Framebuffer) eraseInLine(mode int) {
	switch mode {
	case 0:
		fb.clearRowRange(fb.cursor.Y, fb.cursor.X, fb.cols)
	case 1:
		fb.clearRowRange(fb.cursor.Y, 0, fb.cursor.X+1)
	case 2:
		fb.clearRowRange(fb.cursor.Y, 0, fb.cols)
	}
}

func (fb *Framebuffer) clearRowRange(y, from, to int) {
	if y < 0 || y >= fb.rows {
		return
	}
	from = clampInt(from, 0, fb.cols)
	to = clampInt(to, 0, fb.cols)
	row := fb.grid[y]
	for x := from; x < to; x++ {
		row[x] = blankCell
	}
}

func (fb *Framebuffer) insertLines(n int) {
	if fb.cursor.Y < fb.scrollTop || fb.cursor.Y > fb.scrollBottom {
		return
	}
	top, bottom := fb.cursor.Y, fb.scrollBottom
	if n > bottom-top+1 {
		n = bottom - top + 1
	}
	copy(fb.grid[top+n:bottom+1], fb.grid[top:bottom+1-n])
	for y := top; y < top+n; y++ {
		fb.grid[y] = newBlankRow(fb.cols)
	}
}

func (fb *Framebuffer) deleteLines(n int) {
	if fb.cursor.Y < fb.scrollTop || fb.cursor.Y > fb.scrollBottom {
		return
	}
	top, bottom := fb.cursor.Y, fb.scrollBottom
	if n > bottom-top+1 {
		n = bottom - top + 1
	}
	copy(fb.grid[top:bottom+1-n], fb.grid[top+n:bottom+1])
	for y := bottom - n + 1; y <= bottom; y++ {
		fb.grid[y] = newBlankRow(fb.cols)
	}
}

func (fb *Framebuffer) insertChars(n int) {
	row := fb.grid[fb.cursor.Y]
	if n > fb.cols-fb.cursor.X {
		n = fb.cols - fb.cursor.X
	}
	if n <= 0 {
		return
	}
	copy(row[fb.cursor.X+n:fb.cols], row[fb.cursor.X:fb.cols-n])
	for x := fb.cursor.X; x < fb.cursor.X+n; x++ {
		row[x] = blankCell
	}
}

func (fb *Framebuffer) deleteChars(n int) {
	row := fb.grid[fb.cursor.Y]
	if n > fb.cols-fb.cursor.X {
		n = fb.cols - fb.cursor.X
	}
	if n <= 0 {
		return
	}
	copy(row[fb.cursor.X:fb.cols-n], row[fb.cursor.X+n:fb.cols])
	for x := fb.cols - n; x < fb.cols; x++ {
		row[x] = blankCell
	}
}

func (fb *Framebuffer) eraseChars(n int) {
	row := fb.grid[fb.cursor.Y]
	end := clampInt(fb.cursor.X+n, 0, fb.cols)
	for x := fb.cursor.X; x < end; x++ {
		row[x] = blankCell
	}
}
