package geom

import (
	"math"
	"testing"
)

func TestVectorOps(t *testing.T) {
	a := Vector3{1, 2, 3}
	b := Vector3{4, -2, 1}

	if got := a.Add(b); got != (Vector3{5, 0, 4}) {
		t.Fatalf("Add = %v", got)
	}
	if got := a.Sub(b); got != (Vector3{-3, 4, 2}) {
		t.Fatalf("Sub = %v", got)
	}
	if got := a.Dot(b); got != 3 {
		t.Fatalf("Dot = %v", got)
	}
	if got := (Vector3{3, 4, 0}).Length(); got != 5 {
		t.Fatalf("Length = %v", got)
	}
	if got := (Vector3{3, 4, 0}).Distance(Vector3{0, 0, 0}); got != 5 {
		t.Fatalf("Distance = %v", got)
	}
}

func TestNormalized(t *testing.T) {
	n := Vector3{0, 0, 10}.Normalized()
	if n != (Vector3{0, 0, 1}) {
		t.Fatalf("Normalized = %v", n)
	}
	if z := (Vector3{}).Normalized(); z != (Vector3{}) {
		t.Fatalf("zero vector normalized to %v", z)
	}
}

func TestToward(t *testing.T) {
	from := Vector3{0, 0, 0}
	to := Vector3{10, 0, 0}
	mid := from.Toward(to, 0.25)
	if mid != (Vector3{2.5, 0, 0}) {
		t.Fatalf("Toward = %v", mid)
	}
}

func TestRotationNormalized(t *testing.T) {
	r := Rotation{Pitch: -90, Yaw: 370, Roll: 720}.Normalized()
	if r.Pitch != 270 || r.Yaw != 10 || r.Roll != 0 {
		t.Fatalf("Normalized = %+v", r)
	}
}

func TestForward(t *testing.T) {
	f := Rotation{Yaw: 90}.Forward()
	if math.Abs(float64(f.Y-1)) > 1e-6 || math.Abs(float64(f.X)) > 1e-6 || f.Z != 0 {
		t.Fatalf("Forward(yaw=90) = %v", f)
	}
	up := Rotation{Pitch: 90}.Forward()
	if math.Abs(float64(up.Z-1)) > 1e-6 {
		t.Fatalf("Forward(pitch=90) = %v", up)
	}
}
