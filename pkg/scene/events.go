package scene

// EventType identifies a surface event.
type EventType int

const (
	EventMoving EventType = iota
	EventRotating
	EventScaling
	EventModified
	EventAdded
	EventRemoved
)

var eventNames = [...]string{"moving", "rotating", "scaling", "modified", "added", "removed"}

func (e EventType) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// TransformEvents are the events that may change an element's geometry
// or style.
var TransformEvents = []EventType{EventMoving, EventRotating, EventScaling, EventModified}

// Event is delivered to listeners. Object is nil for EventRemoved.
type Event struct {
	Type   EventType
	Handle Handle
	Object *Object
}

// Listener is called when an event occurs.
type Listener func(Event)

type listenerEntry struct {
	id int
	fn Listener
}

// On registers fn for event and returns a function that detaches it.
func (s *Surface) On(event EventType, fn Listener) (off func()) {
	if s.released {
		return func() {}
	}
	s.nextListener++
	id := s.nextListener
	s.listeners[event] = append(s.listeners[event], listenerEntry{id: id, fn: fn})
	return func() {
		entries := s.listeners[event]
		for i, e := range entries {
			if e.id == id {
				s.listeners[event] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

func (s *Surface) emit(event EventType, h Handle, obj *Object) {
	entries := s.listeners[event]
	if len(entries) == 0 {
		return
	}
	// listeners may detach themselves
	snapshot := append([]listenerEntry(nil), entries...)
	for _, e := range snapshot {
		e.fn(Event{Type: event, Handle: h, Object: obj})
	}
}

// ListenerCount returns the number of attached listeners.
func (s *Surface) ListenerCount() int {
	n := 0
	for _, entries := range s.listeners {
		n += len(entries)
	}
	return n
}
