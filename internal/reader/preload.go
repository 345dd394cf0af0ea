// Package reader drives a reading session: page turns, page-mode
// handling, render preloading, and the hooks that feed history and
// bookmark state.
package reader

import (
	"log/slog"
	"time"
)

// renderLatencyBudget is how long a page render may take before the
// session flags it. Preloading exists to keep renders under this.
const renderLatencyBudget = 500 * time.Millisecond

// PageMode is the reader's layout mode.
type PageMode string

const (
	// ModeSingle shows one page at a time.
	ModeSingle PageMode = "single"
	// ModeDouble shows a two-page spread anchored on an odd page.
	ModeDouble PageMode = "double"
)

// Valid reports whether m is a known mode.
func (m PageMode) Valid() bool {
	return m == ModeSingle || m == ModeDouble
}

// NormalizePage snaps a page to the mode's anchor. Double mode anchors
// spreads on odd pages, so landing on an even page shifts back one.
func (m PageMode) NormalizePage(page int) int {
	if m == ModeDouble && page%2 == 0 {
		return page - 1
	}
	return page
}

// Preloader plans which pages to render ahead of the reader. Pages
// rendered once stay warm for the rest of the session, so the plan
// only ever grows.
type Preloader struct {
	totalPages int
	warm       map[int]bool
	logger     *slog.Logger
}

// NewPreloader creates a preloader for a book of totalPages pages.
func NewPreloader(totalPages int, logger *slog.Logger) *Preloader {
	return &Preloader{
		totalPages: totalPages,
		warm:       make(map[int]bool),
		logger:     logger,
	}
}

// Visit plans the render set for the page the reader asked for,
// returning only the pages not already warm, in ascending order. Single
// mode covers the page and both neighbors; double mode covers two pages
// each side. The window centers on the requested page, not the spread
// anchor the session lands on. Pages outside the book are clamped away.
func (p *Preloader) Visit(page int, mode PageMode) []int {
	var wanted []int
	switch mode {
	case ModeDouble:
		wanted = []int{page - 2, page - 1, page, page + 1, page + 2}
	default:
		wanted = []int{page - 1, page, page + 1}
	}

	var plan []int
	for _, n := range wanted {
		if n < 1 || n > p.totalPages {
			continue
		}
		if p.warm[n] {
			continue
		}
		p.warm[n] = true
		plan = append(plan, n)
	}
	return plan
}

// IsWarm reports whether a page has already been planned for render.
func (p *Preloader) IsWarm(page int) bool {
	return p.warm[page]
}

// WarmCount returns how many pages have been planned so far.
func (p *Preloader) WarmCount() int {
	return len(p.warm)
}

// ObserveRenderLatency records how long a page took to render and
// flags renders that blow the latency budget.
func (p *Preloader) ObserveRenderLatency(page int, d time.Duration) {
	if d <= renderLatencyBudget {
		return
	}
	p.logger.Warn("slow page render",
		"page", page,
		"duration", d,
		"budget", renderLatencyBudget)
}
