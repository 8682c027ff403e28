package calibration

import (
	"fmt"
	"strings"
)

// Get resolves a dotted state path for external subscribers, e.g.
// "wall.isCalibrated" or "objects.<id>.anchors". Inside the engine use
// the typed accessors instead.
func (s *Store) Get(path string) (any, error) {
	parts := strings.Split(path, ".")
	switch parts[0] {
	case "wall":
		return s.getWall(parts[1:], path)
	case "objects":
		if len(parts) == 1 {
			return s.Objects(), nil
		}
		obj, err := s.Object(parts[1])
		if err != nil {
			return nil, err
		}
		return getObject(obj, parts[2:], path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
}

func (s *Store) getWall(rest []string, path string) (any, error) {
	w := s.wall
	if len(rest) == 0 {
		return w, nil
	}
	switch strings.Join(rest, ".") {
	case "isCalibrated":
		return w.IsCalibrated, nil
	case "visible":
		return w.Visible, nil
	case "width":
		return w.Width, nil
	case "height":
		return w.Height, nil
	case "plane":
		return w.Plane, nil
	case "plane.point":
		return w.Plane.Point, nil
	case "plane.normal":
		return w.Plane.Normal, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
}

func getObject(obj SpatialObject, rest []string, path string) (any, error) {
	if len(rest) == 0 {
		return obj, nil
	}
	if len(rest) > 1 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	switch rest[0] {
	case "visible":
		return obj.Visible, nil
	case "locked":
		return obj.Locked, nil
	case "center":
		return obj.Center, nil
	case "width":
		return obj.Width, nil
	case "height":
		return obj.Height, nil
	case "anchors":
		return obj.Anchors, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
}

// Update applies a dotted-path write from an external subscriber.
// Only display flags are writable; geometry changes go through the engine.
func (s *Store) Update(path string, value any) error {
	parts := strings.Split(path, ".")
	flag, ok := value.(bool)

	switch {
	case path == "wall.visible":
		if !ok {
			return fmt.Errorf("%w: %s expects a bool", ErrInvalidValue, path)
		}
		s.SetWallVisible(flag)
		return nil

	case len(parts) == 3 && parts[0] == "objects":
		id, field := parts[1], parts[2]
		if field != "visible" && field != "locked" {
			if _, err := s.Get(path); err != nil {
				return err
			}
			return fmt.Errorf("%w: %s", ErrReadOnlyPath, path)
		}
		if !ok {
			return fmt.Errorf("%w: %s expects a bool", ErrInvalidValue, path)
		}
		if field == "visible" {
			return s.SetVisible(id, flag)
		}
		return s.SetLocked(id, flag)
	}

	if _, err := s.Get(path); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrReadOnlyPath, path)
}
