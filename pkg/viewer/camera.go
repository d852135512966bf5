package viewer

import (
	"math"

	"github.com/philipparndt/goifc/pkg/geometry"
)

const (
	maxElevation = math.Pi/2 - 0.01
	minDistance  = 0.1
	// settleEpsilon is the remaining motion below which damping snaps to the target
	settleEpsilon = 1e-4
)

// Camera is a Z-up orbit camera. Input changes the target orbit; Update moves the
// current orbit towards it so motion eases out.
type Camera struct {
	Position geometry.Vector3
	Target   geometry.Vector3
	Up       geometry.Vector3
	FOV      float64 // Field of view in radians
	Aspect   float64 // width / height, zero derives it from the projected size

	Distance  float64
	Azimuth   float64 // rotation around Z
	Elevation float64 // angle above the XY plane

	// Damping is the fraction of the remaining motion applied per 60 Hz frame (0..1]
	Damping float64

	goalTarget    geometry.Vector3
	goalDistance  float64
	goalAzimuth   float64
	goalElevation float64
}

// NewCamera creates a camera looking at a bounding box from the south-west
func NewCamera(bbox geometry.BoundingBox) *Camera {
	c := &Camera{
		Up:      geometry.NewVector3(0, 0, 1),
		FOV:     math.Pi / 4, // 45 degrees
		Damping: 0.2,
	}
	c.Fit(bbox)
	c.SetView(-math.Pi/4, math.Pi/6)
	c.Settle()
	return c
}

// Fit aims the camera at the bounding box so all of it is in view
func (c *Camera) Fit(bbox geometry.BoundingBox) {
	c.goalTarget = bbox.Center()
	distance := bbox.Diagonal() / (2 * math.Tan(c.FOV/2))
	if distance < minDistance {
		distance = 10
	}
	c.goalDistance = distance
}

// SetView sets the orbit angles in radians
func (c *Camera) SetView(azimuth, elevation float64) {
	c.goalAzimuth = azimuth
	c.goalElevation = clamp(elevation, -maxElevation, maxElevation)
}

// Settle jumps to the target orbit without damping
func (c *Camera) Settle() {
	c.Target = c.goalTarget
	c.Distance = c.goalDistance
	c.Azimuth = c.goalAzimuth
	c.Elevation = c.goalElevation
	c.UpdatePosition()
}

// UpdatePosition updates camera position based on the current orbit
func (c *Camera) UpdatePosition() {
	x := c.Distance * math.Cos(c.Elevation) * math.Cos(c.Azimuth)
	y := c.Distance * math.Cos(c.Elevation) * math.Sin(c.Azimuth)
	z := c.Distance * math.Sin(c.Elevation)

	c.Position = c.Target.Add(geometry.NewVector3(x, y, z))
}

// Rotate turns the target orbit by the given angles
func (c *Camera) Rotate(deltaAzimuth, deltaElevation float64) {
	c.goalAzimuth += deltaAzimuth
	c.goalElevation = clamp(c.goalElevation+deltaElevation, -maxElevation, maxElevation)
}

// Zoom changes the target distance by a relative amount
func (c *Camera) Zoom(delta float64) {
	c.goalDistance *= 1.0 + delta
	if c.goalDistance < minDistance {
		c.goalDistance = minDistance
	}
}

// Pan moves the target in the view plane. dx and dy are fractions of the view height.
func (c *Camera) Pan(dx, dy float64) {
	right, up, _ := c.basis()
	scale := c.goalDistance * math.Tan(c.FOV/2) * 2
	c.goalTarget = c.goalTarget.Add(right.Mul(-dx * scale)).Add(up.Mul(dy * scale))
}

// Update applies damping for a frame of dt seconds and reports whether the camera moved
func (c *Camera) Update(dt float64) bool {
	factor := c.Damping * 60 * dt
	if factor > 1 || factor <= 0 {
		factor = 1
	}

	remaining := c.goalTarget.Distance(c.Target) +
		math.Abs(c.goalDistance-c.Distance) +
		math.Abs(c.goalAzimuth-c.Azimuth) +
		math.Abs(c.goalElevation-c.Elevation)
	if remaining == 0 {
		return false
	}
	if remaining < settleEpsilon {
		c.Settle()
		return true
	}

	c.Target = c.Target.Lerp(c.goalTarget, factor)
	c.Distance += (c.goalDistance - c.Distance) * factor
	c.Azimuth += (c.goalAzimuth - c.Azimuth) * factor
	c.Elevation += (c.goalElevation - c.Elevation) * factor
	c.UpdatePosition()
	return true
}

// basis returns the camera right, up and forward vectors
func (c *Camera) basis() (right, up, forward geometry.Vector3) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(c.Up).Normalize()
	if right.Length() == 0 {
		right = geometry.NewVector3(1, 0, 0)
	}
	up = right.Cross(forward).Normalize()
	return right, up, forward
}

// Project projects a 3D point to 2D screen coordinates and its view depth
func (c *Camera) Project(point geometry.Vector3, width, height float64) (float64, float64, float64) {
	right, up, forward := c.basis()

	// Transform to camera space
	relative := point.Sub(c.Position)
	x := relative.Dot(right)
	y := relative.Dot(up)
	z := relative.Dot(forward)

	if z <= 0.01 {
		z = 0.01 // Prevent division by zero
	}

	aspect := c.Aspect
	if aspect == 0 {
		aspect = width / height
	}
	fovScale := math.Tan(c.FOV / 2)

	screenX := (x/(z*fovScale*aspect))*(width/2) + (width / 2)
	screenY := (-y/(z*fovScale))*(height/2) + (height / 2)

	return screenX, screenY, z
}

// ViewDirection returns the unit vector from the camera towards its target
func (c *Camera) ViewDirection() geometry.Vector3 {
	_, _, forward := c.basis()
	return forward
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
