package domain

// Marker is a raw signal event from the backend, before any chart
// placement logic. Time is epoch seconds; the backend may or may not
// have snapped it to the timeframe grid already.
type Marker struct {
	Symbol string
	Time   int64
	Kind   MarkerKind
	Side   Side
	Live   bool // still-open position at query time
}

// Placement of a chart marker relative to its bar.
type Placement string

const (
	AboveBar Placement = "aboveBar"
	BelowBar Placement = "belowBar"
)

// Shape of a chart marker.
type Shape string

const (
	ShapeArrowUp   Shape = "arrowUp"
	ShapeArrowDown Shape = "arrowDown"
	ShapeCircle    Shape = "circle"
)

// ChartMarker is a fully placed marker ready for the chart layer:
// snapped (and possibly nudged) time, side-dependent placement,
// shape and color, optional "×N" group text.
type ChartMarker struct {
	Time     int64     `json:"time"`
	Position Placement `json:"position"`
	Shape    Shape     `json:"shape"`
	Color    string    `json:"color"`
	Text     string    `json:"text,omitempty"`
	Size     int       `json:"size,omitempty"`
}
