// Package geom holds the value types shared by the simulation and the wire
// protocol: 3D vectors in world units and rotations in degrees.
package geom

import "math"

type Vector3 struct {
	X, Y, Z float32
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vector3) Scale(s float32) Vector3 { return Vector3{v.X * s, v.Y * s, v.Z * s} }

func (v Vector3) Dot(o Vector3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vector3) LengthSquared() float32 { return v.Dot(v) }

func (v Vector3) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSquared())))
}

func (v Vector3) Distance(o Vector3) float32 { return v.Sub(o).Length() }

func (v Vector3) DistanceSquared(o Vector3) float32 { return v.Sub(o).LengthSquared() }

// Normalized returns the unit vector in v's direction. The zero vector
// normalizes to zero rather than NaN.
func (v Vector3) Normalized() Vector3 {
	l := v.Length()
	if l == 0 {
		return Vector3{}
	}
	return v.Scale(1 / l)
}

// Toward returns the point a fraction t of the way from v to o.
func (v Vector3) Toward(o Vector3, t float32) Vector3 {
	return v.Add(o.Sub(v).Scale(t))
}

// Rotation is pitch/yaw/roll in degrees. Components are kept normalized to
// [0, 360) so the quantized wire encoding is unambiguous.
type Rotation struct {
	Pitch, Yaw, Roll float32
}

func (r Rotation) Normalized() Rotation {
	return Rotation{
		Pitch: normDegrees(r.Pitch),
		Yaw:   normDegrees(r.Yaw),
		Roll:  normDegrees(r.Roll),
	}
}

func normDegrees(d float32) float32 {
	m := float32(math.Mod(float64(d), 360))
	if m < 0 {
		m += 360
	}
	return m
}

// Yaw is the heading of a direction vector in degrees.
func Yaw(d Vector3) float32 {
	return float32(math.Atan2(float64(d.Y), float64(d.X)) * 180 / math.Pi)
}

// Forward converts yaw/pitch to a unit direction vector (Z up).
func (r Rotation) Forward() Vector3 {
	yaw := float64(r.Yaw) * math.Pi / 180
	pitch := float64(r.Pitch) * math.Pi / 180
	cp := math.Cos(pitch)
	return Vector3{
		X: float32(math.Cos(yaw) * cp),
		Y: float32(math.Sin(yaw) * cp),
		Z: float32(math.Sin(pitch)),
	}
}
