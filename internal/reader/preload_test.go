package reader_test

import (
	"log/slog"
	"testing"

	"github.com/gleamverse/readsync/internal/reader"
	"github.com/stretchr/testify/assert"
)

func newPreloader(totalPages int) *reader.Preloader {
	return reader.NewPreloader(totalPages, slog.New(slog.DiscardHandler))
}

func TestVisitSingleMode(t *testing.T) {
	p := newPreloader(100)

	plan := p.Visit(10, reader.ModeSingle)
	assert.Equal(t, []int{9, 10, 11}, plan)
}

func TestVisitDoubleMode(t *testing.T) {
	p := newPreloader(100)

	// The window centers on the page the reader asked for, even though
	// the session anchors the 10 request on the 9/10 spread.
	plan := p.Visit(10, reader.ModeDouble)
	assert.Equal(t, []int{8, 9, 10, 11, 12}, plan)
}

func TestVisitDoubleModeOddAnchor(t *testing.T) {
	p := newPreloader(100)

	plan := p.Visit(11, reader.ModeDouble)
	assert.Equal(t, []int{9, 10, 11, 12, 13}, plan)
}

func TestVisitClampsAtBookStart(t *testing.T) {
	p := newPreloader(100)

	plan := p.Visit(1, reader.ModeSingle)
	assert.Equal(t, []int{1, 2}, plan)

	p2 := newPreloader(100)
	plan = p2.Visit(1, reader.ModeDouble)
	assert.Equal(t, []int{1, 2, 3}, plan)
}

func TestVisitClampsAtBookEnd(t *testing.T) {
	p := newPreloader(100)

	plan := p.Visit(100, reader.ModeSingle)
	assert.Equal(t, []int{99, 100}, plan)

	p2 := newPreloader(100)
	plan = p2.Visit(99, reader.ModeDouble)
	assert.Equal(t, []int{97, 98, 99, 100}, plan)
}

func TestVisitedPagesStayWarm(t *testing.T) {
	p := newPreloader(100)

	first := p.Visit(10, reader.ModeSingle)
	assert.Equal(t, []int{9, 10, 11}, first)

	// Stepping forward only plans the pages not yet warm.
	second := p.Visit(11, reader.ModeSingle)
	assert.Equal(t, []int{12}, second)

	// Stepping back over warm pages plans nothing.
	third := p.Visit(10, reader.ModeSingle)
	assert.Empty(t, third)

	assert.Equal(t, 4, p.WarmCount())
	assert.True(t, p.IsWarm(9))
	assert.False(t, p.IsWarm(13))
}

func TestNormalizePage(t *testing.T) {
	assert.Equal(t, 9, reader.ModeDouble.NormalizePage(10))
	assert.Equal(t, 11, reader.ModeDouble.NormalizePage(11))
	assert.Equal(t, 10, reader.ModeSingle.NormalizePage(10))
}
