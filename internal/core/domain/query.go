package domain

import (
	"math"
	"strconv"
	"strings"
)

// Shape of a POS positional constraint.
type Shape string

const (
	ShapeCircle  Shape = "CIRCLE"
	ShapeRange   Shape = "RANGE"
	ShapePolygon Shape = "POLYGON"
)

// Point is a position in ICRS degrees.
type Point struct {
	RA  float64
	Dec float64
}

// Position is one POS constraint. Exactly one of the shape payloads is
// populated, selected by Shape.
type Position struct {
	Shape   Shape
	Circle  Circle
	Range   CoordRange
	Polygon Polygon
}

// String renders the position in its DALI shape serialization, e.g.
// "CIRCLE 55.75 -32.29 0.05".
func (p Position) String() string {
	switch p.Shape {
	case ShapeCircle:
		return "CIRCLE " + formatBound(p.Circle.Center.RA) + " " +
			formatBound(p.Circle.Center.Dec) + " " + formatBound(p.Circle.Radius)
	case ShapeRange:
		return "RANGE " + formatBound(p.Range.RAMin) + " " + formatBound(p.Range.RAMax) +
			" " + formatBound(p.Range.DecMin) + " " + formatBound(p.Range.DecMax)
	case ShapePolygon:
		parts := make([]string, 0, 1+2*len(p.Polygon.Vertices))
		parts = append(parts, "POLYGON")
		for _, v := range p.Polygon.Vertices {
			parts = append(parts, formatBound(v.RA), formatBound(v.Dec))
		}
		return strings.Join(parts, " ")
	default:
		return string(p.Shape)
	}
}

type Circle struct {
	Center Point
	Radius float64
}

type CoordRange struct {
	RAMin  float64
	RAMax  float64
	DecMin float64
	DecMax float64
}

type Polygon struct {
	Vertices []Point
}

// Bounds returns the bounding coordinate range of the polygon.
func (p Polygon) Bounds() CoordRange {
	b := CoordRange{
		RAMin: math.Inf(1), RAMax: math.Inf(-1),
		DecMin: math.Inf(1), DecMax: math.Inf(-1),
	}
	for _, v := range p.Vertices {
		b.RAMin = math.Min(b.RAMin, v.RA)
		b.RAMax = math.Max(b.RAMax, v.RA)
		b.DecMin = math.Min(b.DecMin, v.Dec)
		b.DecMax = math.Max(b.DecMax, v.Dec)
	}
	return b
}

// Interval is a closed numeric interval. Open ends are represented with
// -Inf / +Inf, matching the DALI interval serialization.
type Interval struct {
	Lo float64
	Hi float64
}

func (i Interval) Unbounded() bool {
	return math.IsInf(i.Lo, -1) && math.IsInf(i.Hi, 1)
}

func (i Interval) String() string {
	return formatBound(i.Lo) + " " + formatBound(i.Hi)
}

func formatBound(v float64) string {
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Query is the normalized descriptor produced by parameter validation.
// It is immutable once built and discarded after the response is streamed.
type Query struct {
	Positions   []Position
	Time        []Interval
	Band        []Interval
	ExpTime     []Interval
	Calib       []int
	Instruments []string

	// MaxRec is nil when the client did not send MAXREC. Zero requests the
	// service self-description instead of a data query.
	MaxRec *int

	ResponseFormat string
}

// SelfDescribe reports whether the query asks for the service
// self-description rather than a data query.
func (q *Query) SelfDescribe() bool {
	return q.MaxRec != nil && *q.MaxRec == 0
}

// Summary renders a compact description of the constraints for logging.
func (q *Query) Summary() string {
	var parts []string
	if n := len(q.Positions); n > 0 {
		parts = append(parts, "pos="+strconv.Itoa(n))
	}
	if n := len(q.Time); n > 0 {
		parts = append(parts, "time="+strconv.Itoa(n))
	}
	if n := len(q.Band); n > 0 {
		parts = append(parts, "band="+strconv.Itoa(n))
	}
	if n := len(q.ExpTime); n > 0 {
		parts = append(parts, "exptime="+strconv.Itoa(n))
	}
	if len(q.Instruments) > 0 {
		parts = append(parts, "instrument="+strings.Join(q.Instruments, ","))
	}
	if q.MaxRec != nil {
		parts = append(parts, "maxrec="+strconv.Itoa(*q.MaxRec))
	}
	if len(parts) == 0 {
		return "unconstrained"
	}
	return strings.Join(parts, " ")
}
