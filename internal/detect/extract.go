package detect

import (
	"fmt"

	"github.com/planlens/roomscan/internal/core/domain"
)

// ExtractRooms finds closed room boundaries in a binary mask. Contours whose
// enclosed area falls outside [MinArea, MaxArea] are dropped, which removes
// both noise specks and the building envelope. Surviving contours are
// simplified with a tolerance proportional to their perimeter; candidates
// that collapse below four vertices are not closeable room shapes and are
// discarded. Zero surviving rooms is a valid outcome, not an error.
func ExtractRooms(mask *BinaryMask, params domain.DetectionParameters) []domain.Room {
	params = params.WithDefaults()

	rooms := make([]domain.Room, 0)
	seq := 1
	for _, contour := range findRoomContours(mask) {
		area := polygonArea(contour)
		if area < float64(params.MinArea) || area > float64(params.MaxArea) {
			continue
		}

		perimeter := arcLength(contour, true)
		polygon := simplifyClosedPolygon(contour, params.EpsilonFactor*perimeter)
		if len(polygon) < 4 {
			continue
		}

		rooms = append(rooms, domain.Room{
			ID:        fmt.Sprintf("room_%03d", seq),
			Polygon:   polygon,
			Lines:     domain.LinesFromPolygon(polygon),
			Area:      area,
			Perimeter: perimeter,
		})
		seq++
	}
	return rooms
}
