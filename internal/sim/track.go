package sim

import (
	"math"
	"time"
)

// Track is a deterministic figure-eight around a center point.
type Track struct {
	CenterLatDeg float64
	CenterLonDeg float64
	RadiusNm     float64
	Period       time.Duration
}

func (s Track) period() time.Duration {
	if s.Period <= 0 {
		return 120 * time.Second
	}
	return s.Period
}

func (s Track) radiusNm() float64 {
	if s.RadiusNm <= 0 {
		return 0.5
	}
	return s.RadiusNm
}

// Position returns the point on the track at now and the course over ground.
func (s Track) Position(now time.Time) (latDeg, lonDeg, trackDeg float64) {
	period := s.period()

	// ~60 NM per degree of latitude.
	radiusDeg := s.radiusNm() / 60.0

	phase := float64(now.UnixNano()%period.Nanoseconds()) / float64(period.Nanoseconds())

	//	x = cos(2πt)      east-west, scaled by cos(lat) for lon degrees
	//	y = 0.5*sin(4πt)  north-south
	w := 2 * math.Pi * phase
	x := math.Cos(w)
	y := 0.5 * math.Sin(2*w)

	latDeg = s.CenterLatDeg + radiusDeg*y
	lonDeg = s.CenterLonDeg + (radiusDeg*x)/math.Cos(s.CenterLatDeg*math.Pi/180.0)

	vx := -2 * math.Pi * math.Sin(w)
	vy := 2 * math.Pi * math.Cos(2*w)
	trackDeg = math.Mod((math.Atan2(vx, vy)*180/math.Pi)+360, 360)
	return latDeg, lonDeg, trackDeg
}

// GroundKt is the mean speed along the track.
func (s Track) GroundKt() float64 {
	// Approximated by a circle of the configured radius.
	return 2 * math.Pi * s.radiusNm() / s.period().Hours()
}
