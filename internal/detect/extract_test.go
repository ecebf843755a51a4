package detect

import (
	"math"
	"testing"

	"github.com/planlens/roomscan/internal/core/domain"
)

// drawRing sets a one-pixel rectangular ring of wall ink.
func drawRing(m *BinaryMask, x0, y0, x1, y1 int) {
	for x := x0; x <= x1; x++ {
		m.Set(x, y0, true)
		m.Set(x, y1, true)
	}
	for y := y0; y <= y1; y++ {
		m.Set(x0, y, true)
		m.Set(x1, y, true)
	}
}

// drawWalls draws a wall band of the given thickness whose inner edge runs
// along (x0,y0)-(x1,y1), growing outward.
func drawWalls(m *BinaryMask, x0, y0, x1, y1, thickness int) {
	for t := 0; t < thickness; t++ {
		drawRing(m, x0-t, y0-t, x1+t, y1+t)
	}
}

func assertRoomInvariants(t *testing.T, room domain.Room) {
	t.Helper()
	if len(room.Polygon) < 4 {
		t.Fatalf("room %s polygon has %d vertices, want >= 4", room.ID, len(room.Polygon))
	}
	if len(room.Lines) != len(room.Polygon) {
		t.Fatalf("room %s has %d lines for %d vertices", room.ID, len(room.Lines), len(room.Polygon))
	}
	for i, line := range room.Lines {
		if line.Start != room.Polygon[i] || line.End != room.Polygon[(i+1)%len(room.Polygon)] {
			t.Fatalf("room %s line %d does not connect consecutive vertices: %+v", room.ID, i, line)
		}
	}
	if room.Area < 0 || room.Perimeter < 0 {
		t.Fatalf("room %s has negative metrics: area=%v perimeter=%v", room.ID, room.Area, room.Perimeter)
	}
}

func TestExtractSingleRectangularRoom(t *testing.T) {
	mask := NewBinaryMask(600, 500)
	drawWalls(mask, 100, 100, 400, 350, 2)

	rooms := ExtractRooms(mask, domain.DetectionParameters{MinArea: 1000})
	if len(rooms) != 1 {
		t.Fatalf("expected exactly 1 room, got %d", len(rooms))
	}

	room := rooms[0]
	assertRoomInvariants(t, room)
	if room.ID != "room_001" {
		t.Fatalf("expected id room_001, got %s", room.ID)
	}
	want := []domain.Point{{X: 100, Y: 100}, {X: 400, Y: 100}, {X: 400, Y: 350}, {X: 100, Y: 350}}
	if len(room.Polygon) != 4 {
		t.Fatalf("expected 4 vertices, got %d: %v", len(room.Polygon), room.Polygon)
	}
	for i, p := range want {
		if room.Polygon[i] != p {
			t.Fatalf("vertex %d = %v, want %v (polygon %v)", i, room.Polygon[i], p, room.Polygon)
		}
	}
	if room.Area != 75000 {
		t.Fatalf("area = %v, want 75000", room.Area)
	}
	if room.Perimeter != 1100 {
		t.Fatalf("perimeter = %v, want 1100", room.Perimeter)
	}
}

func TestExtractMultipleRooms(t *testing.T) {
	mask := NewBinaryMask(700, 500)
	drawWalls(mask, 50, 50, 300, 175, 2)  // 250 x 125 = 31250
	drawWalls(mask, 350, 50, 550, 175, 2) // 200 x 125 = 25000
	drawWalls(mask, 50, 250, 300, 410, 2) // 250 x 160 = 40000

	rooms := ExtractRooms(mask, domain.DetectionParameters{MinArea: 1000, MaxArea: 1000000})
	if len(rooms) != 3 {
		t.Fatalf("expected exactly 3 rooms, got %d", len(rooms))
	}

	wantAreas := []float64{31250, 25000, 40000}
	for i, room := range rooms {
		assertRoomInvariants(t, room)
		if math.Abs(room.Area-wantAreas[i]) > 0.5 {
			t.Fatalf("room %d area = %v, want %v", i, room.Area, wantAreas[i])
		}
	}

	seen := map[string]bool{}
	for _, room := range rooms {
		if seen[room.ID] {
			t.Fatalf("duplicate room id %s", room.ID)
		}
		seen[room.ID] = true
	}
}

func TestExtractFiltersSmallArtifact(t *testing.T) {
	mask := NewBinaryMask(600, 600)
	drawWalls(mask, 100, 100, 400, 350, 2)
	// A 5x5 scan artifact far below minArea.
	drawWalls(mask, 480, 480, 484, 484, 1)

	rooms := ExtractRooms(mask, domain.DetectionParameters{MinArea: 1000})
	if len(rooms) != 1 {
		t.Fatalf("expected the artifact to be filtered, got %d rooms", len(rooms))
	}
	if rooms[0].Area != 75000 {
		t.Fatalf("main room area = %v, want 75000", rooms[0].Area)
	}
}

func TestExtractFiltersBuildingEnvelope(t *testing.T) {
	mask := NewBinaryMask(600, 500)
	drawWalls(mask, 100, 100, 400, 350, 2)

	// A max area below the room size removes everything.
	rooms := ExtractRooms(mask, domain.DetectionParameters{MinArea: 1000, MaxArea: 50000})
	if len(rooms) != 0 {
		t.Fatalf("expected 0 rooms above maxArea, got %d", len(rooms))
	}
}

func TestExtractNestedRooms(t *testing.T) {
	mask := NewBinaryMask(500, 500)
	drawWalls(mask, 50, 50, 400, 400, 2)
	// A closet inside the room traces as its own contour.
	drawWalls(mask, 100, 100, 200, 200, 2)

	rooms := ExtractRooms(mask, domain.DetectionParameters{MinArea: 1000})
	if len(rooms) != 2 {
		t.Fatalf("expected outer room and closet, got %d rooms", len(rooms))
	}
	for _, room := range rooms {
		assertRoomInvariants(t, room)
	}

	areas := map[float64]bool{}
	for _, room := range rooms {
		areas[room.Area] = true
	}
	if !areas[122500] || !areas[10000] {
		t.Fatalf("unexpected areas: %+v", rooms)
	}
}

func TestExtractDiscardsTriangles(t *testing.T) {
	mask := NewBinaryMask(500, 500)
	// Right triangle: simplifies to three vertices, not a closeable room.
	for x := 100; x <= 300; x++ {
		mask.Set(x, 100, true)
	}
	for y := 100; y <= 300; y++ {
		mask.Set(100, y, true)
	}
	for x := 100; x <= 300; x++ {
		mask.Set(x, 400-x, true)
	}

	rooms := ExtractRooms(mask, domain.DetectionParameters{MinArea: 1000})
	if len(rooms) != 0 {
		t.Fatalf("expected triangle to be discarded, got %d rooms: %+v", len(rooms), rooms)
	}
}

func TestExtractEmptyMask(t *testing.T) {
	mask := NewBinaryMask(200, 200)
	rooms := ExtractRooms(mask, domain.DetectionParameters{})
	if len(rooms) != 0 {
		t.Fatalf("expected no rooms on an empty mask, got %d", len(rooms))
	}
	if rooms == nil {
		t.Fatalf("zero rooms must be an empty slice, not nil")
	}
}
