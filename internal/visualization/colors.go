// Package visualization renders the simulation state as a choropleth map and
// serves it over HTTP with a yearly stepping API.
package visualization

import (
	"fmt"
	"math"
)

// Stop is one anchor color of a continuous colorscale.
type Stop struct {
	Pos     float64
	R, G, B uint8
}

// Scale is a continuous colorscale defined by ordered anchor colors.
type Scale []Stop

// Picnic is the diverging scale used for the adoption map, anchors evenly
// spaced over [0, 1].
var Picnic = Scale{
	{0.0, 0, 0, 255},
	{0.1, 51, 153, 255},
	{0.2, 102, 204, 255},
	{0.3, 153, 204, 255},
	{0.4, 204, 204, 255},
	{0.5, 255, 255, 255},
	{0.6, 255, 204, 255},
	{0.7, 255, 153, 255},
	{0.8, 255, 102, 204},
	{0.9, 255, 102, 102},
	{1.0, 255, 0, 0},
}

// Color bounds for the cumulative adoption map, in hectares. Values at or
// above the upper bound saturate to the last color.
const (
	colorLowerHa = 0
	colorUpperHa = 4000
)

// NormalizeHa maps cumulative adopted hectares onto [0, 1] for the scale.
func NormalizeHa(ha float64) float64 {
	return (ha - colorLowerHa) / (colorUpperHa - colorLowerHa)
}

// Interpolate computes the color for a value in [0, 1] as a hex string.
// Values outside the range clamp to the scale's end colors.
func (s Scale) Interpolate(t float64) (string, error) {
	if len(s) < 1 {
		return "", fmt.Errorf("colorscale must have at least one color")
	}
	if t <= 0 || len(s) == 1 {
		return hex(s[0]), nil
	}
	if t >= 1 {
		return hex(s[len(s)-1]), nil
	}

	low := s[0]
	for _, stop := range s[1:] {
		if t > stop.Pos {
			low = stop
			continue
		}
		frac := (t - low.Pos) / (stop.Pos - low.Pos)
		return fmt.Sprintf("#%02x%02x%02x",
			lerp(low.R, stop.R, frac),
			lerp(low.G, stop.G, frac),
			lerp(low.B, stop.B, frac),
		), nil
	}
	return hex(s[len(s)-1]), nil
}

func hex(st Stop) string {
	return fmt.Sprintf("#%02x%02x%02x", st.R, st.G, st.B)
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
