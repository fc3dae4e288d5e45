package engine

import (
	"fmt"

	"github.com/roach88/digisim/internal/component"
	"github.com/roach88/digisim/internal/signal"
)

// UpdateRecord describes one component update.
type UpdateRecord struct {
	Time      signal.Time
	Component component.ID
	Label     string
	Status    component.Status
	Err       string `json:",omitempty"`
}

// String formats the record as "@t label(id): status".
func (r UpdateRecord) String() string {
	s := fmt.Sprintf("@%d %s(%s): %s", r.Time, r.Label, r.Component, r.Status)
	if r.Err != "" {
		s += ": " + r.Err
	}
	return s
}

// history is a fixed-size ring of the most recent updates.
type history struct {
	buf  []UpdateRecord
	next int
	full bool
}

func newHistory(n int) *history {
	if n < 0 {
		n = 0
	}
	return &history{buf: make([]UpdateRecord, n)}
}

func (h *history) Add(r UpdateRecord) {
	if len(h.buf) == 0 {
		return
	}
	h.buf[h.next] = r
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
}

// Records returns the kept updates, oldest first.
func (h *history) Records() []UpdateRecord {
	if !h.full {
		return append([]UpdateRecord(nil), h.buf[:h.next]...)
	}
	out := make([]UpdateRecord, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	return append(out, h.buf[:h.next]...)
}

func (h *history) Clear() {
	clear(h.buf)
	h.next = 0
	h.full = false
}
