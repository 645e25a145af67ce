package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"ctboard/internal/model"
)

// EnvTheme forces the palette: light, dark or auto.
const EnvTheme = "CTBOARD_TUI_THEME"

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// Faint text is illegible on many light terminals.
func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted     lipgloss.TerminalColor = ac("240", "243")
	colorSurfaceFg lipgloss.TerminalColor = ac("235", "252")
	colorSurfaceBg lipgloss.TerminalColor = ac("255", "235")
	colorControlBg lipgloss.TerminalColor = ac("252", "237")
	colorInputBg   lipgloss.TerminalColor = ac("254", "234")

	colorSelectedBg     lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg     lipgloss.TerminalColor = ac("235", "255")
	colorSelectedBorder lipgloss.TerminalColor = ac("232", "255")
	colorCardBorder     lipgloss.TerminalColor = ac("250", "243")
	colorCardMetaFg     lipgloss.TerminalColor = ac("238", "250")

	colorAccent  lipgloss.TerminalColor = ac("27", "62")
	colorDanger  lipgloss.TerminalColor = ac("160", "203")
	colorWarn    lipgloss.TerminalColor = ac("130", "214")
	colorSuccess lipgloss.TerminalColor = ac("28", "114")
)

var statusColors = map[model.Status]lipgloss.TerminalColor{
	model.StatusQueue:        ac("244", "245"),
	model.StatusReadyToStart: ac("27", "75"),
	model.StatusInProgress:   ac("130", "214"),
	model.StatusBlocked:      ac("160", "203"),
	model.StatusDone:         ac("28", "114"),
}

func statusColor(s model.Status) lipgloss.TerminalColor {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return colorMuted
}

func priorityColor(p model.Priority) lipgloss.TerminalColor {
	switch p {
	case model.PriorityP1:
		return colorDanger
	case model.PriorityP3:
		return colorMuted
	default:
		return colorAccent
	}
}

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

// applyColorProfilePreference honors NO_COLOR and otherwise trusts
// TERM/COLORTERM over termenv's probe, which under-reports on some terminals.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference decides light vs dark: CTBOARD_TUI_THEME first, then
// the COLORFGBG hint ("fg;bg"), else lipgloss's own detection.
func applyThemePreference() {
	switch themeOverride() {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}
	if dark, ok := colorFGBGDark(); ok {
		lipgloss.SetHasDarkBackground(dark)
	}
}

func themeOverride() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvTheme)))
	if v == "light" || v == "dark" {
		return v
	}
	return ""
}

func colorFGBGDark() (dark bool, ok bool) {
	v := strings.TrimSpace(os.Getenv("COLORFGBG"))
	if v == "" {
		return false, false
	}
	parts := strings.Split(v, ";")
	bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return false, false
	}
	return bg < 7, true
}
