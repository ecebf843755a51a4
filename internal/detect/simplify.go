package detect

import "github.com/planlens/roomscan/internal/core/domain"

// simplifyClosedPolygon reduces a dense closed contour to its essential
// vertices using Douglas-Peucker. The closed curve is split at the vertex
// farthest from the starting point and each half is simplified as an open
// polyline, so a rectangle traced from a corner collapses to exactly its
// four corners. The result keeps the original orientation and starting
// vertex; self-intersections that aggressive tolerances can introduce are
// passed through unchanged.
func simplifyClosedPolygon(points []domain.Point, epsilon float64) []domain.Point {
	if len(points) < 3 {
		return append([]domain.Point(nil), points...)
	}

	far, best := 0, -1.0
	for i, p := range points {
		if d := pointDistance(points[0], p); d > best {
			best = d
			far = i
		}
	}
	if far == 0 {
		return []domain.Point{points[0]}
	}

	firstHalf := append([]domain.Point(nil), points[:far+1]...)
	secondHalf := append([]domain.Point(nil), points[far:]...)
	secondHalf = append(secondHalf, points[0])

	first := douglasPeucker(firstHalf, epsilon)
	second := douglasPeucker(secondHalf, epsilon)

	out := append([]domain.Point(nil), first...)
	if len(second) > 2 {
		out = append(out, second[1:len(second)-1]...)
	}
	return out
}

func douglasPeucker(points []domain.Point, epsilon float64) []domain.Point {
	if len(points) < 3 {
		return append([]domain.Point(nil), points...)
	}

	a, b := points[0], points[len(points)-1]
	idx, maxDist := 0, 0.0
	for i := 1; i < len(points)-1; i++ {
		if d := perpendicularDistance(points[i], a, b); d > maxDist {
			maxDist = d
			idx = i
		}
	}
	if maxDist <= epsilon {
		return []domain.Point{a, b}
	}

	left := douglasPeucker(points[:idx+1], epsilon)
	right := douglasPeucker(points[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}
