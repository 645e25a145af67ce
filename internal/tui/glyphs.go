package tui

import (
	"os"
	"strings"
	"sync"
)

// EnvGlyphs picks the glyph set: "unicode" (default) or "ascii" for
// terminals and fonts that draw bullets and arrows badly.
const EnvGlyphs = "CTBOARD_TUI_GLYPHS"

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvGlyphs))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	defer glyphsMu.RUnlock()
	return currentGlyphs
}

func pickGlyph(unicode, ascii string) string {
	if glyphs() == glyphSetASCII {
		return ascii
	}
	return unicode
}

func glyphSep() string      { return pickGlyph(" · ", " - ") }
func glyphEllipsis() string { return pickGlyph("…", "...") }
func glyphArrow() string    { return pickGlyph("→", "->") }
func glyphMore() string     { return pickGlyph("↑", "^") }
func glyphEmpty() string    { return pickGlyph("—", "-") }
func glyphOnline() string   { return pickGlyph("●", "*") }
func glyphOffline() string  { return pickGlyph("○", "o") }
