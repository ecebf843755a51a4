package detect

import (
	"math"

	"github.com/planlens/roomscan/internal/core/domain"
)

// polygonArea computes the enclosed area of a closed point sequence with the
// shoelace formula, taking the absolute value so winding order does not
// matter.
func polygonArea(points []domain.Point) float64 {
	if len(points) < 3 {
		return 0
	}
	var sum float64
	for i := range points {
		a := points[i]
		b := points[(i+1)%len(points)]
		sum += float64(a.X)*float64(b.Y) - float64(b.X)*float64(a.Y)
	}
	return math.Abs(sum) / 2
}

// arcLength sums the segment lengths of a point sequence, closing the loop
// back to the first point when closed is true.
func arcLength(points []domain.Point, closed bool) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	last := len(points) - 1
	for i := 0; i < last; i++ {
		total += pointDistance(points[i], points[i+1])
	}
	if closed {
		total += pointDistance(points[last], points[0])
	}
	return total
}

func pointDistance(a, b domain.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Hypot(dx, dy)
}

// perpendicularDistance is the distance from p to the segment ab, falling
// back to plain distance when the segment is degenerate.
func perpendicularDistance(p, a, b domain.Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	if dx == 0 && dy == 0 {
		return pointDistance(p, a)
	}
	num := math.Abs(dy*float64(p.X) - dx*float64(p.Y) + float64(b.X)*float64(a.Y) - float64(b.Y)*float64(a.X))
	return num / math.Hypot(dx, dy)
}
