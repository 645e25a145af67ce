package store

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"ctboard/internal/model"
	"ctboard/internal/view"
)

const tuiStateFileName = "tui_state.json"

// TUIState restores the last mode and filters on relaunch. It is best
// effort: a missing or corrupt file reads as the zero state.
type TUIState struct {
	Version  int           `json:"version"`
	Mode     model.Mode    `json:"mode,omitempty"`
	Criteria view.Criteria `json:"criteria"`
}

func LoadTUIState() (*TUIState, error) {
	path, err := configFile(tuiStateFileName)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &TUIState{Version: 1, Mode: model.ModeBoard}, nil
		}
		return nil, err
	}
	var st TUIState
	if err := sonic.ConfigStd.Unmarshal(b, &st); err != nil {
		return &TUIState{Version: 1, Mode: model.ModeBoard}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	if st.Mode != model.ModeArchive {
		st.Mode = model.ModeBoard
	}
	return &st, nil
}

func SaveTUIState(st *TUIState) error {
	if st == nil {
		return errors.New("nil tui state")
	}
	path, err := configFile(tuiStateFileName)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := sonic.ConfigStd.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, "tui_state.json.*.tmp", path, b, 0o644)
}
