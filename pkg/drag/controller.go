package drag

import (
	"fmt"

	"github.com/philipparndt/gowall/pkg/calibration"
	"github.com/philipparndt/gowall/pkg/geometry"
)

// DefaultEpsilon is the plane distance above which a dragged center is re-clamped
const DefaultEpsilon = 0.001

// Controller moves one finalized object at a time along a plane.
// Only translation within the plane changes; width, height and basis are
// the ones the object was created with.
type Controller struct {
	store      *calibration.Store
	epsilon    float64
	rayEpsilon float64

	objectID   string
	grabOffset geometry.Vector3
	active     bool
}

// NewController creates a controller writing to store.
// epsilon is the re-clamp threshold in meters; zero selects DefaultEpsilon.
func NewController(store *calibration.Store, epsilon float64) *Controller {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Controller{
		store:      store,
		epsilon:    epsilon,
		rayEpsilon: geometry.DefaultEpsilon,
	}
}

// Active reports whether a drag is in progress
func (c *Controller) Active() bool {
	return c.active
}

// ObjectID returns the id of the dragged object, or "" when idle
func (c *Controller) ObjectID() string {
	return c.objectID
}

// BeginDrag grabs an object where the pointer ray meets plane.
// The grab offset keeps the point under the pointer fixed relative to the
// object center for the rest of the drag.
func (c *Controller) BeginDrag(objectID string, origin, dir geometry.Vector3, plane geometry.Plane) error {
	if c.active {
		return fmt.Errorf("%w: %s", ErrAlreadyDragging, c.objectID)
	}
	obj, err := c.store.Object(objectID)
	if err != nil {
		return err
	}
	if obj.Locked {
		return fmt.Errorf("%w: %s", ErrObjectLocked, objectID)
	}
	hit, err := plane.IntersectRay(origin, dir, c.rayEpsilon)
	if err != nil {
		return err
	}

	offset := obj.Center.Sub(hit)
	// keep only the in-plane part so the dragged center sits on the plane
	offset = offset.Sub(plane.Normal.Mul(offset.Dot(plane.Normal)))

	c.objectID = objectID
	c.grabOffset = offset
	c.active = true
	return nil
}

// UpdateDrag moves the grabbed object to follow the pointer ray and
// returns its new center. A ray that misses the plane leaves the object
// where it was.
func (c *Controller) UpdateDrag(origin, dir geometry.Vector3, plane geometry.Plane) (geometry.Vector3, error) {
	if !c.active {
		return geometry.Vector3{}, ErrNotDragging
	}
	obj, err := c.store.Object(c.objectID)
	if err != nil {
		return geometry.Vector3{}, err
	}
	hit, err := plane.IntersectRay(origin, dir, c.rayEpsilon)
	if err != nil {
		return geometry.Vector3{}, err
	}

	center := hit.Add(c.grabOffset)
	if d := plane.SignedDistance(center); d > c.epsilon || d < -c.epsilon {
		center = center.Sub(plane.Normal.Mul(d))
	}

	corners := geometry.CornersFromCenter(center, obj.Width, obj.Height, obj.Basis)
	if err := c.store.MoveObject(c.objectID, center, corners); err != nil {
		return geometry.Vector3{}, err
	}
	return center, nil
}

// EndDrag releases the object and returns its id. The store already holds
// the final center.
func (c *Controller) EndDrag() (string, error) {
	if !c.active {
		return "", ErrNotDragging
	}
	id := c.objectID
	c.objectID = ""
	c.grabOffset = geometry.Vector3{}
	c.active = false
	return id, nil
}
