// Package framebuffer implements a small VT-style terminal emulator used to
// maintain replayable screen state for sessions relayed between a runner and
// its viewers.
package framebuffer

// DefaultColor marks a foreground/background as "use the terminal default"
// rather than an explicit palette entry.
const DefaultColor = -1

// Attr flags, OR'd together in Cell.Flags / Framebuffer.curFlags.
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrInverse
	AttrHidden
	AttrStrikethrough
)

// Cell is a single terminal grid cell: one displayed character plus its
// graphic rendition.
type Cell struct {
	Char  rune
	Fg    int32
	Bg    int32
	Flags Attr
}

// blankCell is the value every cleared/erased cell resets to.
var blankCell = Cell{Char: ' ', Fg: DefaultColor, Bg: DefaultColor}

// downsampleRGB maps a 24-bit color to the nearest 6x6x6 color-cube index
// (16-231) per spec: 16 + 36*floor(r/51) + 6*floor(g/51) + floor(b/51).
func downsampleRGB(r, g, b uint8) int32 {
	ri := int32(r) / 51
	gi := int32(g) / 51
	bi := int32(b) / 51
	return 16 + 36*ri + 6*gi + bi
}
