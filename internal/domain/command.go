package domain

import (
	"errors"
	"time"
)

type CommandType string

const (
	CommandChangePage CommandType = "changePage"
	CommandZoomToX    CommandType = "zoomToX"
	CommandZoomToY    CommandType = "zoomToY"
)

var (
	ErrInvalidPage    = errors.New("invalid page number")
	ErrInvalidXBounds = errors.New("left bound must be less than right bound")
	ErrInvalidYBounds = errors.New("top bound must be less than bottom bound")
)

// XBounds is a horizontal zoom interval, Left < Right.
type XBounds struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// YBounds is a vertical zoom interval, Top < Bottom.
type YBounds struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Command is one validated view instruction replicated to every client of a
// session. Exactly one of Page/Bounds is set depending on Type. Commands are
// built through the New* constructors and never mutated afterwards.
type Command struct {
	Type        CommandType `json:"type"`
	Page        int         `json:"page,omitempty"`
	Bounds      any         `json:"bounds,omitempty"`
	PublishedAt time.Time   `json:"publishedAt"`
}

func NewChangePage(page int) (Command, error) {
	if page < 1 {
		return Command{}, ErrInvalidPage
	}
	return Command{Type: CommandChangePage, Page: page, PublishedAt: time.Now().UTC()}, nil
}

func NewZoomToX(left, right float64) (Command, error) {
	if left >= right {
		return Command{}, ErrInvalidXBounds
	}
	return Command{Type: CommandZoomToX, Bounds: XBounds{Left: left, Right: right}, PublishedAt: time.Now().UTC()}, nil
}

func NewZoomToY(top, bottom float64) (Command, error) {
	if top >= bottom {
		return Command{}, ErrInvalidYBounds
	}
	return Command{Type: CommandZoomToY, Bounds: YBounds{Top: top, Bottom: bottom}, PublishedAt: time.Now().UTC()}, nil
}
