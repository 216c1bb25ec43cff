package scene

import (
	"errors"
	"slices"

	mockuperr "github.com/matzehuels/mockup/pkg/errors"
)

// ErrReleased is returned by operations on a released surface.
var ErrReleased = errors.New("surface released")

// ErrNoObject is returned when a handle does not resolve.
var ErrNoObject = errors.New("no such object")

// Surface is a fixed-size canvas of z-ordered objects. It is not safe for
// concurrent use; the owning loop serializes access.
type Surface struct {
	width, height float64

	objects  []Handle
	byHandle map[Handle]*Object
	tags     map[Handle]Tag

	listeners    map[EventType][]listenerEntry
	nextHandle   Handle
	nextListener int
	released     bool
}

// NewSurface creates an empty surface of the canvas size.
func NewSurface() *Surface {
	return &Surface{
		width:     Width,
		height:    Height,
		byHandle:  make(map[Handle]*Object),
		tags:      make(map[Handle]Tag),
		listeners: make(map[EventType][]listenerEntry),
	}
}

// Size returns the canvas size.
func (s *Surface) Size() (w, h float64) { return s.width, s.height }

// Released reports whether Release was called.
func (s *Surface) Released() bool { return s.released }

// Add places obj on top and emits EventAdded.
func (s *Surface) Add(obj *Object) (Handle, error) {
	return s.InsertAt(obj, len(s.objects))
}

// InsertAt places obj at z-index i (clamped) and emits EventAdded.
func (s *Surface) InsertAt(obj *Object, i int) (Handle, error) {
	if s.released {
		return 0, ErrReleased
	}
	s.nextHandle++
	h := s.nextHandle
	i = max(0, min(i, len(s.objects)))
	s.objects = slices.Insert(s.objects, i, h)
	s.byHandle[h] = obj
	s.emit(EventAdded, h, obj)
	return h, nil
}

// Remove deletes the object and its tag, emitting EventRemoved.
func (s *Surface) Remove(h Handle) bool {
	if _, ok := s.byHandle[h]; !ok {
		return false
	}
	s.objects = slices.DeleteFunc(s.objects, func(o Handle) bool { return o == h })
	delete(s.byHandle, h)
	delete(s.tags, h)
	s.emit(EventRemoved, h, nil)
	return true
}

// Clear removes every object for which keep returns false.
func (s *Surface) Clear(keep func(*Object) bool) {
	for _, h := range slices.Clone(s.objects) {
		if keep != nil && keep(s.byHandle[h]) {
			continue
		}
		s.Remove(h)
	}
}

// Get returns the object behind h.
func (s *Surface) Get(h Handle) (*Object, bool) {
	o, ok := s.byHandle[h]
	return o, ok
}

// Handles returns all handles in z-order.
func (s *Surface) Handles() []Handle {
	return slices.Clone(s.objects)
}

// Objects returns all objects in z-order.
func (s *Surface) Objects() []*Object {
	out := make([]*Object, len(s.objects))
	for i, h := range s.objects {
		out[i] = s.byHandle[h]
	}
	return out
}

// Len returns the number of objects.
func (s *Surface) Len() int { return len(s.objects) }

// FindByName returns the first object with name.
func (s *Surface) FindByName(name string) (Handle, bool) {
	for _, h := range s.objects {
		if s.byHandle[h].Name == name {
			return h, true
		}
	}
	return 0, false
}

// =============================================================================
// Side table
// =============================================================================

// Tag returns the metadata of h.
func (s *Surface) Tag(h Handle) (Tag, bool) {
	t, ok := s.tags[h]
	return t, ok
}

// SetTag attaches metadata to h. A layer id may be tagged on at most one
// object.
func (s *Surface) SetTag(h Handle, t Tag) error {
	if _, ok := s.byHandle[h]; !ok {
		return ErrNoObject
	}
	if t.LayerID != "" {
		if other, ok := s.FindByLayer(t.LayerID); ok && other != h {
			return mockuperr.New(mockuperr.ErrCodeValidation, "layer %s already on the surface", t.LayerID)
		}
	}
	s.tags[h] = t
	return nil
}

// FindByLayer returns the object tagged with layer id.
func (s *Surface) FindByLayer(id string) (Handle, bool) {
	for h, t := range s.tags {
		if t.LayerID == id {
			return h, true
		}
	}
	return 0, false
}

// Tagged returns the tagged handles in z-order.
func (s *Surface) Tagged() []Handle {
	var out []Handle
	for _, h := range s.objects {
		if _, ok := s.tags[h]; ok {
			out = append(out, h)
		}
	}
	return out
}

// =============================================================================
// Manipulation
// =============================================================================

// Move sets the center of h and emits EventMoving.
func (s *Surface) Move(h Handle, x, y float64) error {
	o, err := s.element(h)
	if err != nil {
		return err
	}
	o.X, o.Y = x, y
	s.emit(EventMoving, h, o)
	return nil
}

// Rotate sets the angle of h in degrees and emits EventRotating.
func (s *Surface) Rotate(h Handle, deg float64) error {
	o, err := s.element(h)
	if err != nil {
		return err
	}
	o.Angle = normalizeAngle(deg)
	s.emit(EventRotating, h, o)
	return nil
}

// Scale is free-form resizing, which elements do not support. The scaling
// event is still emitted so listeners observe the attempt.
func (s *Surface) Scale(h Handle, sx, sy float64) error {
	o, err := s.element(h)
	if err != nil {
		return err
	}
	s.emit(EventScaling, h, o)
	return mockuperr.New(mockuperr.ErrCodeUnsupported, "free resizing is disabled; choose a size preset")
}

// SetScale applies a uniform scale on behalf of preset application and
// emits EventModified.
func (s *Surface) SetScale(h Handle, scale float64) error {
	o, err := s.element(h)
	if err != nil {
		return err
	}
	o.ScaleX, o.ScaleY = scale, scale
	s.emit(EventModified, h, o)
	return nil
}

// Modify applies fn to h and emits EventModified.
func (s *Surface) Modify(h Handle, fn func(*Object)) error {
	o, err := s.element(h)
	if err != nil {
		return err
	}
	fn(o)
	s.emit(EventModified, h, o)
	return nil
}

// Release detaches every listener and drops all objects. It is safe to
// call more than once.
func (s *Surface) Release() {
	if s.released {
		return
	}
	s.listeners = make(map[EventType][]listenerEntry)
	s.objects = nil
	s.byHandle = make(map[Handle]*Object)
	s.tags = make(map[Handle]Tag)
	s.released = true
}

func (s *Surface) element(h Handle) (*Object, error) {
	if s.released {
		return nil, ErrReleased
	}
	o, ok := s.byHandle[h]
	if !ok {
		return nil, ErrNoObject
	}
	if o.IsBase() {
		return nil, mockuperr.New(mockuperr.ErrCodeUnsupported, "base objects cannot be manipulated")
	}
	return o, nil
}
