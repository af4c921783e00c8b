package framebuffer

import (
	"fmt"
	"strconv"
	"strings"
)

// Snapshot renders the current grid as a replayable byte stream: a full
// screen clear, then row by row text interleaved with the minimal SGR
// sequences needed to reproduce each cell's rendition, and finally a
// cursor-position (and visibility) sequence. Replaying the bytes from a
// freshly reset terminal reproduces the visible screen.
func (fb *Framebuffer) Snapshot() []byte {
	var b strings.Builder

	b.WriteString("\x1b[2J\x1b[H")

	last := Cell{Char: ' ', Fg: DefaultColor, Bg: DefaultColor}
	firstCell := true

	for y := 0; y < fb.rows; y++ {
		if y > 0 {
			b.WriteString("\r\n")
		}
		row := fb.grid[y]
		trailingBlank := 0
		for x := fb.cols - 1; x >= 0; x-- {
			if row[x] == blankCell {
				trailingBlank++
			} else {
				break
			}
		}
		written := fb.cols - trailingBlank
		for x := 0; x < written; x++ {
			cell := row[x]
			attrs := Cell{Char: cell.Char, Fg: cell.Fg, Bg: cell.Bg, Flags: cell.Flags}
			if firstCell || attrs.Fg != last.Fg || attrs.Bg != last.Bg || attrs.Flags != last.Flags {
				writeSGR(&b, last, attrs, firstCell)
				last = attrs
				firstCell = false
			}
			b.WriteRune(cell.Char)
		}
	}

	b.WriteString("\x1b[0m")
	fmt.Fprintf(&b, "\x1b[%d;%dH", fb.cursor.Y+1, fb.cursor.X+1)
	if fb.cursor.Visible {
		b.WriteString("\x1b[?25h")
	} else {
		b.WriteString("\x1b[?25l")
	}

	return []byte(b.String())
}

// writeSGR emits the SGR parameters needed to move rendition state from
// prev to next. On the very first cell (or after a reset) it always emits
// an explicit sequence even if next is the all-default rendition, so a
// prior screen's stale attributes never bleed through.
func writeSGR(b *strings.Builder, prev, next Cell, force bool) {
	params := make([]string, 0, 8)

	if next.Flags == 0 && next.Fg == DefaultColor && next.Bg == DefaultColor {
		if force || prev.Flags != 0 || prev.Fg != DefaultColor || prev.Bg != DefaultColor {
			b.WriteString("\x1b[0m")
		}
		return
	}

	params = append(params, "0")
	if next.Flags&AttrBold != 0 {
		params = append(params, "1")
	}
	if next.Flags&AttrDim != 0 {
		params = append(params, "2")
	}
	if next.Flags&AttrItalic != 0 {
		params = append(params, "3")
	}
	if next.Flags&AttrUnderline != 0 {
		params = append(params, "4")
	}
	if next.Flags&AttrBlink != 0 {
		params = append(params, "5")
	}
	if next.Flags&AttrInverse != 0 {
		params = append(params, "7")
	}
	if next.Flags&AttrHidden != 0 {
		params = append(params, "8")
	}
	if next.Flags&AttrStrikethrough != 0 {
		params = append(params, "9")
	}
	if next.Fg != DefaultColor {
		params = append(params, colorParams(next.Fg, true)...)
	}
	if next.Bg != DefaultColor {
		params = append(params, colorParams(next.Bg, false)...)
	}

	b.WriteString("\x1b[")
	b.WriteString(strings.Join(params, ";"))
	b.WriteString("m")
}

func colorParams(c int32, fg bool) []string {
	base := 30
	if !fg {
		base = 40
	}
	switch {
	case c >= 0 && c <= 7:
		return []string{strconv.Itoa(base + int(c))}
	case c >= 8 && c <= 15:
		brightBase := 90
		if !fg {
			brightBase = 100
		}
		return []string{strconv.Itoa(brightBase + int(c-8))}
	default:
		extended := 38
		if !fg {
			extended = 48
		}
		return []string{strconv.Itoa(extended), "5", strconv.Itoa(int(c))}
	}
}
