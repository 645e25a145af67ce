package tui

import (
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"ctboard/internal/model"
	"ctboard/internal/mutate"
)

func TestNormalizePane(t *testing.T) {
	out := normalizePane("abcdefgh\nxy", 5, 3)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	for _, ln := range lines {
		assert.Equal(t, 5, xansi.StringWidth(ln))
	}
	assert.Equal(t, "abcd…", lines[0])
	assert.Equal(t, "xy   ", lines[1])
}

func TestColumnWidths(t *testing.T) {
	assert.Equal(t, []int{20, 20, 19, 19, 19}, columnWidths(101, 5, 1))
	assert.Equal(t, []int{1, 1}, columnWidths(1, 2, 1))
	assert.Nil(t, columnWidths(10, 0, 1))
}

func TestCycle(t *testing.T) {
	opts := []string{"a", "b"}
	assert.Equal(t, "a", cycle(opts, ""))
	assert.Equal(t, "b", cycle(opts, "a"))
	assert.Equal(t, "", cycle(opts, "b"))
	assert.Equal(t, "", cycle(opts, "gone"))
	assert.Equal(t, "", cycle(nil, "a"))
}

func TestRenderCard_TruncatesNote(t *testing.T) {
	task := model.Task{TaskID: "1", OrderID: "A-1", Operation: "Cut", Priority: model.PriorityP2, Note: strings.Repeat("word ", 100)}
	out := renderCard(task, 30, 160, cardState{})
	for _, ln := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, xansi.StringWidth(ln), 30)
	}
	assert.Contains(t, out, "…")
}

func TestConfirmModel_Standard(t *testing.T) {
	c := newConfirmModel(mutate.ArchiveTask{TaskID: "1"}, mutate.Prompt{Level: mutate.ConfirmStandard, Title: "Archive task?"})
	assert.True(t, c.accepted())
	in, ok := c.confirmed().(mutate.ArchiveTask)
	assert.True(t, ok)
	assert.Equal(t, mutate.ConfirmStandard, in.Confirm)
}

func TestFormModel_RoundTrip(t *testing.T) {
	f := mutate.Form{TaskID: "7", OrderID: "A", Operation: "O", Workcenter: "W", Status: "Blocked", Priority: "P3", PlannedMin: "0", Note: "n"}
	fm := newFormModel(f, 160)
	got := fm.Form()
	assert.Equal(t, "7", got.TaskID)
	assert.Equal(t, "Blocked", got.Status)
	assert.Equal(t, "P3", got.Priority)
	assert.Equal(t, "", got.PlannedMin)
	assert.Equal(t, "n", got.Note)
}

func TestGlyphs_ASCIIFromEnv(t *testing.T) {
	t.Cleanup(func() { setGlyphs(glyphSetUnicode) })

	t.Setenv(EnvGlyphs, "ascii")
	applyGlyphPreference()
	task := model.Task{TaskID: "1", OrderID: "A-1", Operation: "Cut", Priority: model.PriorityP2, Note: strings.Repeat("word ", 100)}
	out := renderCard(task, 30, 160, cardState{})
	assert.Contains(t, out, "A-1 - Cut")
	assert.Contains(t, out, "...")
	assert.Equal(t, "o not configured", xansi.Strip(connBadge("")))

	// Unknown values keep the current set.
	t.Setenv(EnvGlyphs, "bogus")
	applyGlyphPreference()
	assert.Equal(t, glyphSetASCII, glyphs())

	t.Setenv(EnvGlyphs, "")
	applyGlyphPreference()
	assert.Equal(t, glyphSetUnicode, glyphs())
}
