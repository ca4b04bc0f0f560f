package scrollstage

// RevealCoordinator decides what "revealed" means for the whole page. The
// first trigger from any path (gesture completion, forced reveal, a host
// request) wins; every later trigger is ignored. There is no locking: the
// guard relies on the single-threaded event loop.
type RevealCoordinator struct {
	revealed  bool
	manual    bool
	listeners []func(RevealEvent)
}

// OnReveal subscribes fn. Subscribing after the reveal has already happened
// does not replay it; check Revealed instead.
func (rc *RevealCoordinator) OnReveal(fn func(RevealEvent)) {
	rc.listeners = append(rc.listeners, fn)
}

// Trigger requests the reveal. It returns true only for the call that
// actually caused it.
func (rc *RevealCoordinator) Trigger(manual bool) bool {
	if rc.revealed {
		return false
	}
	rc.revealed = true
	rc.manual = manual
	ev := RevealEvent{Revealed: true, Manual: manual}
	for _, fn := range rc.listeners {
		fn(ev)
	}
	return true
}

// Revealed reports whether the reveal has happened.
func (rc *RevealCoordinator) Revealed() bool {
	return rc.revealed
}

// Manual reports whether the winning trigger was a user gesture.
func (rc *RevealCoordinator) Manual() bool {
	return rc.manual
}

// detach drops every subscriber.
func (rc *RevealCoordinator) detach() {
	rc.listeners = nil
}
