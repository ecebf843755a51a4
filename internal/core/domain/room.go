package domain

import (
	"encoding/json"
	"fmt"
)

// Point is a pixel coordinate. It serializes as a two-element [x, y] array
// to match the detection result contract.
type Point struct {
	X int
	Y int
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var coords []int
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("decode point: %w", err)
	}
	if len(coords) != 2 {
		return fmt.Errorf("decode point: expected [x, y], got %d elements", len(coords))
	}
	p.X = coords[0]
	p.Y = coords[1]
	return nil
}

// Line is a wall segment between two consecutive polygon vertices. Lines are
// always derived from a polygon, never constructed independently.
type Line struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Room is one detected enclosed boundary. The polygon is implicitly closed:
// the last vertex connects back to the first, and lines[i] always spans
// polygon[i] to polygon[(i+1) % len(polygon)]. Rooms are immutable once
// built by the extractor.
type Room struct {
	ID         string   `json:"id"`
	Polygon    []Point  `json:"polygon"`
	Lines      []Line   `json:"lines"`
	Area       float64  `json:"area"`
	Perimeter  float64  `json:"perimeter"`
	NameHint   *string  `json:"name_hint"`
	Confidence *float64 `json:"confidence"`
}

// LinesFromPolygon connects consecutive vertices and wraps the last vertex
// back to the first.
func LinesFromPolygon(polygon []Point) []Line {
	lines := make([]Line, 0, len(polygon))
	for i := range polygon {
		lines = append(lines, Line{
			Start: polygon[i],
			End:   polygon[(i+1)%len(polygon)],
		})
	}
	return lines
}
