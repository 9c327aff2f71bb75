package layout

// Event names.
const (
	EventAll                     = "*"
	EventStateChanged            = "stateChanged"
	EventItemCreated             = "itemCreated"
	EventItemDestroyed           = "itemDestroyed"
	EventItemDropped             = "itemDropped"
	EventItemDragged             = "itemDragged"
	EventActiveContentItemChange = "activeContentItemChanged"
	EventFocus                   = "focus"
	EventBlur                    = "blur"
	EventShow                    = "show"
	EventHide                    = "hide"
	EventResize                  = "resize"
	EventMaximised               = "maximised"
	EventMinimised               = "minimised"
	EventTabCreated              = "tabCreated"
	EventStackHeaderClick        = "stackHeaderClick"
	EventDragStart               = "dragStart"
	EventDragStop                = "dragStop"
	EventWindowOpened            = "windowOpened"
	EventWindowClosed            = "windowClosed"
	EventPopIn                   = "popIn"
	EventBeforeComponentRelease  = "beforeComponentRelease"
	EventInitialised             = "initialised"
	EventUserBroadcast           = "userBroadcast"
)

// Event is delivered to handlers. Bubbling events carry the item they
// started at in Origin; Target is the item whose handlers are running,
// nil once the event reaches the manager.
type Event struct {
	Name   string
	Origin *Item
	Target *Item
	Args   []any

	bubbles bool
	stopped bool
}

// StopPropagation prevents a bubbling event from reaching further
// ancestors or the manager.
func (e *Event) StopPropagation() { e.stopped = true }

// Bubbles reports whether the event travels up the tree.
func (e *Event) Bubbles() bool { return e.bubbles }

// Handler receives events.
type Handler func(*Event)

type subscription struct {
	id int
	fn Handler
}

// Emitter is a synchronous event emitter. Handlers subscribed to
// EventAll receive every event after the named handlers.
type Emitter struct {
	subs   map[string][]subscription
	nextID int
}

// On subscribes fn to name and returns a function that unsubscribes it.
func (e *Emitter) On(name string, fn Handler) func() {
	if e.subs == nil {
		e.subs = make(map[string][]subscription)
	}
	e.nextID++
	id := e.nextID
	e.subs[name] = append(e.subs[name], subscription{id: id, fn: fn})
	return func() { e.off(name, id) }
}

// Once subscribes fn for a single delivery.
func (e *Emitter) Once(name string, fn Handler) {
	var off func()
	off = e.On(name, func(ev *Event) {
		off()
		fn(ev)
	})
}

func (e *Emitter) off(name string, id int) {
	subs := e.subs[name]
	for i, s := range subs {
		if s.id == id {
			e.subs[name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit delivers ev to the handlers registered for its name.
func (e *Emitter) Emit(ev *Event) {
	if e.subs == nil {
		return
	}
	for _, s := range append([]subscription(nil), e.subs[ev.Name]...) {
		s.fn(ev)
	}
	if ev.Name == EventAll {
		return
	}
	for _, s := range append([]subscription(nil), e.subs[EventAll]...) {
		s.fn(ev)
	}
}

// HasListeners reports whether anything is subscribed to name.
func (e *Emitter) HasListeners(name string) bool {
	return len(e.subs[name]) > 0
}
