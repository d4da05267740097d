package trails

import (
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	// MaxTrailPoints is trail bound applied on every append
	MaxTrailPoints = 20
	// MaxSweepTrailPoints is looser bound applied by eviction sweep.
	// It catches any path which appends without going through RecordObservation.
	MaxSweepTrailPoints = 25
)

// TrajectoryEntry is bounded history of anchors for one (stream, object) pair
type TrajectoryEntry struct {
	id            uuid.UUID
	points        []Point
	lastSeenFrame int
	smoother      anchorSmoother
}

// anchorSmoother filters consecutive anchors of one object
type anchorSmoother interface {
	Smooth(anchor Point) (Point, error)
}

// kalmanSmoother is anchorSmoother over 2D Kalman filter
type kalmanSmoother struct {
	tracker *kalman_filter.Kalman2D
}

// newKalmanSmoother seeds the filter with first anchor
func newKalmanSmoother(anchor Point) anchorSmoother {
	/* Kalman filter props */
	dt := 1.0
	ux := 1.0
	uy := 1.0
	stdDevA := 2.0
	stdDevMx := 0.1
	stdDevMy := 0.1
	kf := kalman_filter.NewKalman2D(dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(float64(anchor.X), float64(anchor.Y)))
	return &kalmanSmoother{tracker: kf}
}

// Smooth executes both Kalman filter steps and returns corrected position
func (smoother *kalmanSmoother) Smooth(anchor Point) (Point, error) {
	smoother.tracker.Predict()
	err := smoother.tracker.Update(float64(anchor.X), float64(anchor.Y))
	if err != nil {
		return anchor, errors.Wrap(err, "Can't update anchor smoother")
	}
	stateX, stateY := smoother.tracker.GetState()
	return NewPoint(int(math.Round(stateX)), int(math.Round(stateY))), nil
}

func newTrajectoryEntry() *TrajectoryEntry {
	return &TrajectoryEntry{
		id:     uuid.New(),
		points: make([]Point, 0, MaxTrailPoints+1),
	}
}

// GetID returns track identifier assigned when entry was created.
// An object evicted and observed again gets a new one.
func (entry *TrajectoryEntry) GetID() uuid.UUID {
	return entry.id
}

// GetLastSeen returns frame number of last observation
func (entry *TrajectoryEntry) GetLastSeen() int {
	return entry.lastSeenFrame
}

// GetTrack returns entry's points, oldest first. Be careful: this is not copy of track, but reference to it
func (entry *TrajectoryEntry) GetTrack() []Point {
	return entry.points
}

// append adds point and drops oldest ones above maxLen
func (entry *TrajectoryEntry) append(point Point, maxLen int) {
	entry.points = append(entry.points, point)
	entry.trim(maxLen)
}

// trim keeps the newest maxLen points in place, so backing array never grows past its first allocation
func (entry *TrajectoryEntry) trim(maxLen int) {
	extra := len(entry.points) - maxLen
	if extra <= 0 {
		return
	}
	copy(entry.points, entry.points[extra:])
	entry.points = entry.points[:maxLen]
}

// smooth passes anchor through entry's smoother. First anchor seeds a new smoother and is kept as is.
func (entry *TrajectoryEntry) smooth(anchor Point, newSmoother func(Point) anchorSmoother) (Point, error) {
	if entry.smoother == nil {
		entry.smoother = newSmoother(anchor)
		return anchor, nil
	}
	return entry.smoother.Smooth(anchor)
}

// PathLength returns total distance travelled along the points
func PathLength(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += euclideanDistance(points[i-1], points[i])
	}
	return total
}
