package tui

import (
	"sync"

	"ctboard/internal/mutate"
)

// NoticeBox keeps the latest engine notice for the status bar. It is the
// mutate.Notifier handed to the controller; Seq advances on every notice so
// the model can time each one out separately.
type NoticeBox struct {
	mu     sync.Mutex
	notice mutate.Notice
	seq    int
}

func (b *NoticeBox) Notify(n mutate.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = n
	b.seq++
}

// Current returns the visible notice and its sequence number. A cleared box
// returns a zero Notice.
func (b *NoticeBox) Current() (mutate.Notice, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notice, b.seq
}

// Clear hides the notice if seq is still the latest one.
func (b *NoticeBox) Clear(seq int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq == b.seq {
		b.notice = mutate.Notice{}
	}
}
