package framebuffer

import (
	"strings"
	"testing"
)

func TestPlainTextAdvancesCursor(t *testing.T) {
	fb := New(10, 3)
	fb.Write([]byte("hi"))
	if fb.cursor.X != 2 || fb.cursor.Y != 0 {
		t.Fatalf("cursor = (%d,%d), want (2,0)", fb.cursor.X, fb.cursor.Y)
	}
	if fb.grid[0][0].Char != 'h' || fb.grid[0][1].Char != 'i' {
		t.Fatalf("unexpected grid contents: %q %q", fb.grid[0][0].Char, fb.grid[0][1].Char)
	}
}

func TestLineWrap(t *testing.T) {
	fb := New(3, 2)
	fb.Write([]byte("abcd"))
	if fb.grid[0][0].Char != 'a' || fb.grid[0][1].Char != 'b' || fb.grid[0][2].Char != 'c' {
		t.Fatalf("row 0 = %v", fb.grid[0])
	}
	if fb.grid[1][0].Char != 'd' {
		t.Fatalf("row 1 = %v, want leading 'd'", fb.grid[1])
	}
}

func TestScrollOnLinefeedAtBottom(t *testing.T) {
	fb := New(5, 2)
	fb.Write([]byte("one\r\ntwo\r\nthree"))
	if fb.grid[0][0].Char != 't' || fb.grid[0][1].Char != 'w' {
		t.Fatalf("row0 after scroll = %v", fb.grid[0])
	}
	if fb.grid[1][0].Char != 't' || fb.grid[1][1].Char != 'h' {
		t.Fatalf("row1 after scroll = %v", fb.grid[1])
	}
}

func TestSGRColorsApplyToSubsequentChars(t *testing.T) {
	fb := New(10, 2)
	fb.Write([]byte("\x1b[31mred\x1b[0mplain"))
	if fb.grid[0][0].Fg != 1 {
		t.Fatalf("fg = %d, want 1 (red)", fb.grid[0][0].Fg)
	}
	if fb.grid[0][2].Fg != 1 {
		t.Fatalf("fg of 3rd red char = %d, want 1", fb.grid[0][2].Fg)
	}
	if fb.grid[0][3].Fg != DefaultColor {
		t.Fatalf("fg after reset = %d, want default", fb.grid[0][3].Fg)
	}
}

func TestSGRBoldAndUnderlineFlags(t *testing.T) {
	fb := New(10, 1)
	fb.Write([]byte("\x1b[1;4mX"))
	want := AttrBold | AttrUnderline
	if fb.grid[0][0].Flags != want {
		t.Fatalf("flags = %b, want %b", fb.grid[0][0].Flags, want)
	}
}

func TestSGR256ColorAndTruecolorDownsample(t *testing.T) {
	fb := New(10, 1)
	fb.Write([]byte("\x1b[38;5;200mA"))
	if fb.grid[0][0].Fg != 200 {
		t.Fatalf("256-color fg = %d, want 200", fb.grid[0][0].Fg)
	}

	fb2 := New(10, 1)
	fb2.Write([]byte("\x1b[38;2;255;0;0mB"))
	want := downsampleRGB(255, 0, 0)
	if fb2.grid[0][0].Fg != want {
		t.Fatalf("truecolor fg = %d, want %d", fb2.grid[0][0].Fg, want)
	}
}

func TestCursorPositioning(t *testing.T) {
	fb := New(10, 10)
	fb.Write([]byte("\x1b[5;3Hx"))
	if fb.cursor.Y != 4 || fb.cursor.X != 3 {
		t.Fatalf("cursor after CUP+print = (%d,%d), want (3,4)", fb.cursor.X, fb.cursor.Y)
	}
	if fb.grid[4][2].Char != 'x' {
		t.Fatalf("char not placed at expected cell")
	}
}

func TestEraseInDisplayFull(t *testing.T) {
	fb := New(5, 2)
	fb.Write([]byte("abcde\r\nfghij"))
	fb.Write([]byte("\x1b[2J"))
	for y := 0; y < 2; y++ {
		for x := 0; x < 5; x++ {
			if fb.grid[y][x] != blankCell {
				t.Fatalf("cell (%d,%d) not cleared: %v", x, y, fb.grid[y][x])
			}
		}
	}
}

func TestEraseInLineToEnd(t *testing.T) {
	fb := New(5, 1)
	fb.Write([]byte("abcde"))
	fb.Write([]byte("\x1b[3D\x1b[K"))
	if fb.grid[0][0].Char != 'a' || fb.grid[0][1].Char != 'b' {
		t.Fatalf("prefix clobbered: %v", fb.grid[0])
	}
	if fb.grid[0][2] != blankCell {
		t.Fatalf("cell 2 not erased: %v", fb.grid[0][2])
	}
}

func TestAlternateScreenSwitchPreservesPrimary(t *testing.T) {
	fb := New(5, 2)
	fb.Write([]byte("hello"))
	fb.Write([]byte("\x1b[?1049h"))
	fb.Write([]byte("alt"))
	if fb.grid[0][0].Char != 'a' {
		t.Fatalf("alt screen not active: %v", fb.grid[0])
	}
	fb.Write([]byte("\x1b[?1049l"))
	if fb.grid[0][0].Char != 'h' || fb.grid[0][4].Char != 'o' {
		t.Fatalf("primary screen not restored: %v", fb.grid[0])
	}
}

func TestCursorVisibilityMode(t *testing.T) {
	fb := New(5, 1)
	if !fb.cursor.Visible {
		t.Fatalf("cursor should start visible")
	}
	fb.Write([]byte("\x1b[?25l"))
	if fb.cursor.Visible {
		t.Fatalf("cursor should be hidden after ?25l")
	}
	fb.Write([]byte("\x1b[?25h"))
	if !fb.cursor.Visible {
		t.Fatalf("cursor should be visible again after ?25h")
	}
}

func TestSaveRestoreCursor(t *testing.T) {
	fb := New(10, 10)
	fb.Write([]byte("\x1b[3;3H\x1b[s\x1b[8;8H\x1b[u"))
	if fb.cursor.X != 2 || fb.cursor.Y != 2 {
		t.Fatalf("cursor after restore = (%d,%d), want (2,2)", fb.cursor.X, fb.cursor.Y)
	}
}

func TestScrollingRegion(t *testing.T) {
	fb := New(5, 5)
	fb.Write([]byte("\x1b[2;4r"))
	if fb.scrollTop != 1 || fb.scrollBottom != 3 {
		t.Fatalf("scroll region = [%d,%d], want [1,3]", fb.scrollTop, fb.scrollBottom)
	}
}

func TestWriteAcrossBoundarySplitEscapeSequence(t *testing.T) {
	fb := New(10, 1)
	fb.Write([]byte("\x1b[3"))
	fb.Write([]byte("1mX"))
	if fb.grid[0][0].Fg != 1 {
		t.Fatalf("split CSI sequence not recognized, fg = %d", fb.grid[0][0].Fg)
	}
}

func TestWriteAcrossBoundarySplitUTF8Rune(t *testing.T) {
	fb := New(10, 1)
	euro := "€" // 3-byte UTF-8
	full := []byte(euro)
	fb.Write(full[:2])
	fb.Write(full[2:])
	if fb.grid[0][0].Char != '€' {
		t.Fatalf("split rune = %q, want euro sign", fb.grid[0][0].Char)
	}
}

func TestUnterminatedSequenceEventuallyResyncs(t *testing.T) {
	fb := New(10, 1)
	junk := strings.Repeat("5", 64)
	fb.Write([]byte("\x1b[" + junk))
	fb.Write([]byte("ok"))
	found := false
	for x := 0; x < fb.cols; x++ {
		if fb.grid[0][x].Char == 'o' {
			found = true
		}
	}
	if !found {
		t.Fatalf("parser appears wedged, never resynced to print 'ok'")
	}
}

func TestResizePreservesTopLeftRectangle(t *testing.T) {
	fb := New(5, 5)
	fb.Write([]byte("hello"))
	fb.Resize(3, 3)
	if fb.grid[0][0].Char != 'h' || fb.grid[0][2].Char != 'l' {
		t.Fatalf("resize did not preserve top-left rect: %v", fb.grid[0])
	}
}

func TestSnapshotRoundTripReproducesScreen(t *testing.T) {
	fb := New(10, 3)
	fb.Write([]byte("\x1b[31mred\x1b[0m text\r\nline2"))

	snap := fb.Snapshot()

	replay := New(10, 3)
	replay.Write(snap)

	for y := 0; y < 3; y++ {
		for x := 0; x < 10; x++ {
			a, b := fb.grid[y][x], replay.grid[y][x]
			if a.Char != b.Char {
				t.Fatalf("cell (%d,%d) char mismatch: %q vs %q", x, y, a.Char, b.Char)
			}
		}
	}
}
