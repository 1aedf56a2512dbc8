package siav2

import (
	"strings"

	"sia-service/internal/core/domain"
)

// parsePos validates one POS value. The accepted shapes and arities follow
// the SIAv2 standard: CIRCLE ra dec radius, RANGE ra1 ra2 dec1 dec2 and
// POLYGON with at least three vertices.
func parsePos(raw string) (domain.Position, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return domain.Position{}, domain.UsageFault("POS value is empty")
	}

	shape := strings.ToUpper(tokens[0])
	coords := tokens[1:]

	switch domain.Shape(shape) {
	case domain.ShapeCircle:
		return parseCircle(coords)
	case domain.ShapeRange:
		return parseRange(coords)
	case domain.ShapePolygon:
		return parsePolygon(coords)
	default:
		return domain.Position{}, domain.UsageFault("Unrecognized shape in POS string '%s'", tokens[0])
	}
}

func parseCircle(coords []string) (domain.Position, error) {
	if len(coords) != 3 {
		return domain.Position{}, domain.UsageFault(
			"CIRCLE requires exactly 3 values (ra dec radius), got %d", len(coords))
	}
	vals, err := parseFloats(coords, false)
	if err != nil {
		return domain.Position{}, err
	}
	if vals[1] < -90 || vals[1] > 90 {
		return domain.Position{}, domain.UsageFault("CIRCLE declination %g out of range [-90, 90]", vals[1])
	}
	if vals[2] <= 0 {
		return domain.Position{}, domain.UsageFault("CIRCLE radius must be positive, got %g", vals[2])
	}
	return domain.Position{
		Shape:  domain.ShapeCircle,
		Circle: domain.Circle{Center: domain.Point{RA: vals[0], Dec: vals[1]}, Radius: vals[2]},
	}, nil
}

func parseRange(coords []string) (domain.Position, error) {
	if len(coords) != 4 {
		return domain.Position{}, domain.UsageFault(
			"RANGE requires exactly 4 values (ra1 ra2 dec1 dec2), got %d", len(coords))
	}
	// RANGE bounds may be open (-Inf / +Inf).
	vals, err := parseFloats(coords, true)
	if err != nil {
		return domain.Position{}, err
	}
	if vals[0] > vals[1] || vals[2] > vals[3] {
		return domain.Position{}, domain.UsageFault("RANGE bounds out of order in '%s'", strings.Join(coords, " "))
	}
	return domain.Position{
		Shape: domain.ShapeRange,
		Range: domain.CoordRange{RAMin: vals[0], RAMax: vals[1], DecMin: vals[2], DecMax: vals[3]},
	}, nil
}

func parsePolygon(coords []string) (domain.Position, error) {
	if len(coords) < 6 || len(coords)%2 != 0 {
		return domain.Position{}, domain.UsageFault(
			"POLYGON requires an even number of at least 6 values, got %d", len(coords))
	}
	vals, err := parseFloats(coords, false)
	if err != nil {
		return domain.Position{}, err
	}
	vertices := make([]domain.Point, 0, len(vals)/2)
	for i := 0; i < len(vals); i += 2 {
		vertices = append(vertices, domain.Point{RA: vals[i], Dec: vals[i+1]})
	}
	return domain.Position{
		Shape:   domain.ShapePolygon,
		Polygon: domain.Polygon{Vertices: vertices},
	}, nil
}
