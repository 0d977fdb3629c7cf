package section

import (
	"errors"
	"fmt"
	"sync"
)

// ID names a dashboard section.
type ID string

const (
	Overview       ID = "inventory-overview"
	Containers     ID = "containers"
	Items          ID = "items"
	Placement      ID = "placement"
	SearchRetrieve ID = "search-retrieve"
	Waste          ID = "waste-management"
	Simulation     ID = "time-simulation"
	ImportExport   ID = "import-export"
	Logs           ID = "logs"
)

// ErrUnknownSection is returned when an ID was never registered.
var ErrUnknownSection = errors.New("unknown section")

// Status is the load state shown for a section.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Token marks one in-flight load. It must be passed to Finish exactly once;
// later calls are ignored.
type Token struct {
	id       ID
	gen      uint64
	released bool
}

// Section returns the section the token belongs to.
func (t *Token) Section() ID { return t.id }

// Generation returns the load generation the token was issued for.
func (t *Token) Generation() uint64 { return t.gen }

type entry struct {
	id          ID
	title       string
	init        func()
	initialized bool
	status      Status
	lastErr     error
	gen         uint64
	inflight    int
}

// Registry tracks registered sections, which one is active and the load
// lifecycle of each.
type Registry struct {
	mu      sync.Mutex
	order   []ID
	entries map[ID]*entry
	active  ID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[ID]*entry)}
}

// Register adds a section. init runs once, on first activation, and may be nil.
func (r *Registry) Register(id ID, title string, init func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		return fmt.Errorf("section %q already registered", id)
	}
	if title == "" {
		title = string(id)
	}
	r.entries[id] = &entry{id: id, title: title, init: init}
	r.order = append(r.order, id)
	return nil
}

// IDs returns registered sections in registration order.
func (r *Registry) IDs() []ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ID, len(r.order))
	copy(out, r.order)
	return out
}

// Title returns the display title of id.
func (r *Registry) Title(id ID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.title
	}
	return string(id)
}

// Activate makes id the only active section, runs its one-time init if it
// has not run yet, and begins a load. The returned token must be finished.
func (r *Registry) Activate(id ID) (*Token, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("activate %q: %w", id, ErrUnknownSection)
	}
	r.active = id
	runInit := !e.initialized
	e.initialized = true
	init := e.init
	r.mu.Unlock()

	// init may call back into the registry.
	if runInit && init != nil {
		init()
	}
	return r.Begin(id)
}

// Begin starts a load on id without changing the active section. Mutations
// use it so their progress shows on the section that issued them.
func (r *Registry) Begin(id ID) (*Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("begin %q: %w", id, ErrUnknownSection)
	}
	e.gen++
	e.inflight++
	e.status = StatusLoading
	return &Token{id: id, gen: e.gen}, nil
}

// Finish releases tok and records the outcome. It reports whether tok is the
// newest load for its section; callers should only render fresh results.
// A token released before, or a nil token, is a no-op returning false.
func (r *Registry) Finish(tok *Token, err error) bool {
	if tok == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if tok.released {
		return false
	}
	tok.released = true
	e, ok := r.entries[tok.id]
	if !ok {
		return false
	}
	if e.inflight > 0 {
		e.inflight--
	}
	if tok.gen != e.gen {
		return false
	}
	if err != nil {
		e.status = StatusError
		e.lastErr = err
	} else {
		e.status = StatusSuccess
		e.lastErr = nil
	}
	return true
}

// Active returns the active section, or "" before the first activation.
func (r *Registry) Active() ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// IsActive reports whether id is the active section.
func (r *Registry) IsActive(id ID) bool {
	return r.Active() == id
}

// Loading reports whether id has at least one unreleased token.
func (r *Registry) Loading(id ID) bool {
	return r.InFlight(id) > 0
}

// InFlight returns the number of unreleased tokens for id.
func (r *Registry) InFlight(id ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.inflight
	}
	return 0
}

// Status returns the load state of id.
func (r *Registry) Status(id ID) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.status
	}
	return StatusIdle
}

// LastError returns the error of the newest failed load, if the newest
// finished load failed.
func (r *Registry) LastError(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.lastErr
	}
	return nil
}

// Initialized reports whether id's one-time init has run.
func (r *Registry) Initialized(id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		return e.initialized
	}
	return false
}

// Next returns the section after (delta > 0) or before (delta < 0) the
// active one, wrapping around.
func (r *Registry) Next(delta int) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return ""
	}
	idx := 0
	for i, id := range r.order {
		if id == r.active {
			idx = i
			break
		}
	}
	n := len(r.order)
	idx = ((idx+delta)%n + n) % n
	return r.order[idx]
}
