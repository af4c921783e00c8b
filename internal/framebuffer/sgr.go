package framebuffer

// handleSGR applies a CSI ... m sequence to the current graphic rendition
// state, consuming extended 256-color (38/48;5;n) and 24-bit (38/48;2;r;g;b)
// forms inline since they span multiple parameters.
func (fb *Framebuffer) handleSGR(params []int) {
	if len(params) == 0 {
		fb.resetSGR()
		return
	}

	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			fb.resetSGR()
		case p == 1:
			fb.curFlags |= AttrBold
		case p == 2:
			fb.curFlags |= AttrDim
		case p == 3:
			fb.curFlags |= AttrItalic
		case p == 4:
			fb.curFlags |= AttrUnderline
		case p == 5:
			fb.curFlags |= AttrBlink
		case p == 7:
			fb.curFlags |= AttrInverse
		case p == 8:
			fb.curFlags |= AttrHidden
		case p == 9:
			fb.curFlags |= AttrStrikethrough
		case p == 22:
			fb.curFlags &^= AttrBold | AttrDim
		case p == 23:
			fb.curFlags &^= AttrItalic
		case p == 24:
			fb.curFlags &^= AttrUnderline
		case p == 25:
			fb.curFlags &^= AttrBlink
		case p == 27:
			fb.curFlags &^= AttrInverse
		case p == 28:
			fb.curFlags &^= AttrHidden
		case p == 29:
			fb.curFlags &^= AttrStrikethrough
		case p >= 30 && p <= 37:
			fb.curFg = int32(p - 30)
		case p == 38:
			i = fb.consumeExtendedColor(params, i, &fb.curFg)
		case p == 39:
			fb.curFg = DefaultColor
		case p >= 40 && p <= 47:
			fb.curBg = int32(p - 40)
		case p == 48:
			i = fb.consumeExtendedColor(params, i, &fb.curBg)
		case p == 49:
			fb.curBg = DefaultColor
		case p >= 90 && p <= 97:
			fb.curFg = int32(p - 90 + 8)
		case p >= 100 && p <= 107:
			fb.curBg = int32(p - 100 + 8)
		}
	}
}

func (fb *Framebuffer) resetSGR() {
	fb.curFg = DefaultColor
	fb.curBg = DefaultColor
	fb.curFlags = 0
}

// consumeExtendedColor parses a 38/48;5;n or 38/48;2;r;g;b sequence starting
// at params[i] (the 38 or 48 itself) and returns the index of the last
// parameter it consumed.
func (fb *Framebuffer) consumeExtendedColor(params []int, i int, target *int32) int {
	if i+1 >= len(params) {
		return i
	}
	switch params[i+1] {
	case 5:
		if i+2 < len(params) {
			*target = int32(params[i+2])
			return i + 2
		}
	case 2:
		if i+4 < len(params) {
			r := uint8(clampInt(params[i+2], 0, 255))
			g := uint8(clampInt(params[i+3], 0, 255))
			b := uint8(clampInt(params[i+4], 0, 255))
			*target = downsampleRGB(r, g, b)
			return i + 4
		}
	}
	return i
}
