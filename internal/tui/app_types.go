package tui

import (
	"ctboard/internal/model"
	"ctboard/internal/mutate"
)

type overlay int

const (
	overlayNone overlay = iota
	overlaySearch
	overlayForm
	overlayConfirm
	overlayHelp
	overlayDetail
)

type fetchedMsg struct {
	mode model.Mode
	raws []model.RawTask
	err  error
}

type opDoneMsg struct {
	op  *mutate.Op
	err error
}

type configChangedMsg struct{}

type flashDoneMsg struct{ seq int }

type settingsLoadedMsg struct {
	changed bool
	err     error
}
