package trails

const (
	// MaxCirclesPerUnit is how many circles fit into one display unit. Imposed by display pool
	MaxCirclesPerUnit = 16
	// TrailAlpha is opacity of trail circles
	TrailAlpha = 0.9
	// TrailRadius is radius of trail circles
	TrailRadius = 3
)

// TrailStats is outcome of a single EmitTrail call
type TrailStats struct {
	// Number of committed units
	Units int
	// Number of circles written into units
	Circles int
	// Points lost because of unit overflow or exhausted pool
	Dropped int
}

// EmitTrail draws trail as circles at point positions and commits units into the frame.
//
// The newest point is not drawn, and points with non-positive coordinates are skipped.
// Every MaxCirclesPerUnit-th drawn point commits current unit and acquires a fresh one.
// The last unit is committed even when it holds nothing.
func EmitTrail(pool DisplayPool, frame *FrameMeta, points []Point, color RGBA) TrailStats {
	stats := TrailStats{}
	circleColor := color.WithAlpha(TrailAlpha)
	unit := pool.AcquireUnit(frame)
	emitted := 0
	for i := 0; i < len(points)-1; i++ {
		pt := points[i]
		if !pt.Valid() {
			continue
		}
		if emitted > 0 && emitted%MaxCirclesPerUnit == 0 {
			if unit != nil {
				pool.CommitUnit(frame, unit)
				stats.Units++
			}
			unit = pool.AcquireUnit(frame)
		}
		emitted++
		if unit == nil {
			stats.Dropped++
			continue
		}
		circleIdx := unit.NumCircles
		if circleIdx >= MaxCirclesPerUnit {
			stats.Dropped++
			continue
		}
		unit.Circles[circleIdx] = CircleParams{
			XC:     pt.X,
			YC:     pt.Y,
			Radius: TrailRadius,
			Color:  circleColor,
		}
		unit.NumCircles++
		stats.Circles++
	}
	if unit != nil {
		pool.CommitUnit(frame, unit)
		stats.Units++
	}
	return stats
}
