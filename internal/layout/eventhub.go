package layout

// EventHub carries application events between a layout and its pop-out
// windows. Ordinary events stay local. EventUserBroadcast events travel
// to the root window and from there down to every open pop-out, so each
// window's hub sees them exactly once.
type EventHub struct {
	Emitter
	m *Manager
}

// Emit delivers name to local subscribers, or broadcasts it across
// windows when name is EventUserBroadcast.
func (h *EventHub) Emit(name string, args ...any) {
	if name == EventUserBroadcast {
		h.handleUserBroadcast(args)
		return
	}
	h.Emitter.Emit(&Event{Name: name, Args: args})
}

// EmitUserBroadcast sends args to the EventUserBroadcast subscribers of
// every window.
func (h *EventHub) EmitUserBroadcast(args ...any) {
	h.handleUserBroadcast(args)
}

// FromParent delivers a broadcast relayed by the parent window.
func (h *EventHub) FromParent(name string, args []any) {
	h.propagateDown(name, args)
}

func (h *EventHub) fromChild(name string, args []any) {
	if name != EventUserBroadcast {
		h.Emitter.Emit(&Event{Name: name, Args: args})
		return
	}
	h.handleUserBroadcast(args)
}

func (h *EventHub) handleUserBroadcast(args []any) {
	if h.m.parent != nil {
		if err := h.m.parent.Broadcast(EventUserBroadcast, args); err != nil {
			h.m.logger.Warn("broadcast to parent", "err", err)
		}
		return
	}
	h.propagateDown(EventUserBroadcast, args)
}

func (h *EventHub) propagateDown(name string, args []any) {
	h.Emitter.Emit(&Event{Name: name, Args: args})
	for _, p := range h.m.openPopouts {
		if p.handle == nil || p.closed {
			continue
		}
		if err := p.handle.Broadcast(name, args); err != nil {
			h.m.logger.Warn("broadcast to popout", "key", p.Key(), "err", err)
		}
	}
}
