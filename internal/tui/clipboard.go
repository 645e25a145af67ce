package tui

import (
	"fmt"

	"github.com/atotto/clipboard"

	"ctboard/internal/model"
	"ctboard/internal/mutate"
)

// writeClipboard is swapped out in tests; headless CI has no clipboard.
var writeClipboard = clipboard.WriteAll

// copyOrderID puts the card's order id (task id when the row has none) on
// the system clipboard and reports the result in the status bar.
func (m appModel) copyOrderID(t model.Task) {
	text := t.OrderID
	if text == "" {
		text = t.TaskID
	}
	if err := writeClipboard(text); err != nil {
		m.log.WithError(err).Debug("tui.clipboard")
		m.opts.Notices.Notify(mutate.Notice{Level: mutate.LevelError, Message: "Clipboard unavailable"})
		return
	}
	m.opts.Notices.Notify(mutate.Notice{Level: mutate.LevelInfo, Message: fmt.Sprintf("Copied %s", text)})
}
