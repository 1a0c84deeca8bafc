package engine

import (
	"time"

	"github.com/abaj8494/draw/internal/geom"
)

// DefaultLaserTTL is how long a laser trail point stays visible.
const DefaultLaserTTL = 2 * time.Second

// LaserTrail is the fading point buffer behind the laser pointer tool.
// Trail points never enter the document or the edit history; the owner
// repaints each frame, calling Decay with its clock, until the buffer
// drains.
type LaserTrail struct {
	ttl    time.Duration
	points []laserPoint
}

type laserPoint struct {
	p  geom.Point
	at time.Time
}

// NewLaserTrail returns a trail with the default fade time.
func NewLaserTrail() LaserTrail {
	return LaserTrail{ttl: DefaultLaserTTL}
}

// Add appends a pointer sample at the given time.
func (l *LaserTrail) Add(p geom.Point, now time.Time) {
	l.points = append(l.points, laserPoint{p: p, at: now})
}

// Decay drops every point older than the trail's fade time.
func (l *LaserTrail) Decay(now time.Time) {
	cutoff := now.Add(-l.ttl)
	keep := 0
	for keep < len(l.points) && l.points[keep].at.Before(cutoff) {
		keep++
	}
	if keep > 0 {
		l.points = append(l.points[:0], l.points[keep:]...)
	}
}

// Points returns the live trail in draw order, along with each point's
// age fraction in [0, 1) for fade rendering (0 freshest).
func (l *LaserTrail) Points(now time.Time) ([]geom.Point, []float64) {
	if len(l.points) == 0 {
		return nil, nil
	}
	pts := make([]geom.Point, len(l.points))
	ages := make([]float64, len(l.points))
	for i, lp := range l.points {
		age := now.Sub(lp.at).Seconds() / l.ttl.Seconds()
		if age < 0 {
			age = 0
		}
		if age > 1 {
			age = 1
		}
		pts[i] = lp.p
		ages[i] = age
	}
	return pts, ages
}

// Empty reports whether the trail has fully faded.
func (l *LaserTrail) Empty() bool { return len(l.points) == 0 }
