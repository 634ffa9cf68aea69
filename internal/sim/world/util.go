package world

import (
	"strings"
	"unicode"

	"islebound.gg/internal/sim/geom"
)

func vec3Of(v [3]float64) geom.Vector3 {
	return geom.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

func rotYaw(yaw float64) geom.Rotation {
	return geom.Rotation{Yaw: float32(yaw)}.Normalized()
}

// yawOf is the heading of a direction vector in degrees.
func yawOf(d geom.Vector3) float32 { return geom.Yaw(d) }

// sanitizeChat strips control and other non-graphic runes and truncates to
// maxLen. Whitespace collapses to single spaces so a line stays a line.
func sanitizeChat(s string, maxLen int) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = b.Len() > 0
			continue
		}
		if !unicode.IsGraphic(r) {
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
		if b.Len() >= maxLen {
			break
		}
	}
	return b.String()
}
