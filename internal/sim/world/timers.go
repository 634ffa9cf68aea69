package world

// Timer actions are named, not captured: a timer record carries the tag of
// what to do and the handle of who to do it to, resolved through this
// table at fire time. A closure could outlive its actor; a handle just
// resolves to nil.
type timerAction func(w *World, target Handle, key string)

var timerActions = map[string]timerAction{}

// registerTimerAction wires a tag into the dispatch table. Called from
// init funcs; the table is read-only after that.
func registerTimerAction(tag string, fn timerAction) {
	if _, dup := timerActions[tag]; dup {
		panic("duplicate timer action " + tag)
	}
	timerActions[tag] = fn
}

type timer struct {
	key       string
	action    string
	target    Handle
	timeLeft  float64
	initial   float64
	recurring bool
}

// TimerSet holds the scheduled callbacks of one actor, keyed by string.
// Re-registering a key overwrites the previous record, so a key fires at
// most once per expiry however many times it was set.
type TimerSet struct {
	timers map[string]*timer
}

// Set registers a one-shot timer under key. target is handed to the
// action at fire time; pass the owning actor's handle for context actions
// and Nil for context-free ones.
func (ts *TimerSet) Set(key, action string, target Handle, seconds float64) {
	ts.put(key, action, target, seconds, false)
}

// SetRecurring registers a timer that re-arms to its initial time after
// each firing.
func (ts *TimerSet) SetRecurring(key, action string, target Handle, seconds float64) {
	ts.put(key, action, target, seconds, true)
}

func (ts *TimerSet) put(key, action string, target Handle, seconds float64, recurring bool) {
	if ts.timers == nil {
		ts.timers = make(map[string]*timer)
	}
	ts.timers[key] = &timer{
		key:       key,
		action:    action,
		target:    target,
		timeLeft:  seconds,
		initial:   seconds,
		recurring: recurring,
	}
}

func (ts *TimerSet) Cancel(key string) {
	delete(ts.timers, key)
}

func (ts *TimerSet) Clear() {
	ts.timers = nil
}

func (ts *TimerSet) Active(key string) bool {
	_, ok := ts.timers[key]
	return ok
}

// Remaining reports the time left on a key, or zero when unset.
func (ts *TimerSet) Remaining(key string) float64 {
	if t, ok := ts.timers[key]; ok {
		return t.timeLeft
	}
	return 0
}

// Tick advances all timers by dt and fires the due ones. Due timers are
// collected before any action runs, so an action that registers a new
// timer cannot make it fire within the same pass; one-shot timers are
// removed before their action runs so a re-register inside the action
// sticks.
func (ts *TimerSet) Tick(w *World, dt float64) {
	if len(ts.timers) == 0 {
		return
	}
	var due []*timer
	for _, t := range ts.timers {
		t.timeLeft -= dt
		if t.timeLeft <= 0 {
			due = append(due, t)
		}
	}
	for _, t := range due {
		// The record may have been overwritten or cancelled by an
		// earlier action in this pass.
		if cur, ok := ts.timers[t.key]; !ok || cur != t {
			continue
		}
		if t.recurring {
			t.timeLeft = t.initial
		} else {
			delete(ts.timers, t.key)
		}
		if fn := timerActions[t.action]; fn != nil {
			fn(w, t.target, t.key)
		}
	}
}
