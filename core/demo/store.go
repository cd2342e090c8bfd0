package demo

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
)

var ErrSessionNotFound = core.NewNotFoundError("demo session")

// Persister saves demo states across restarts.
type Persister interface {
	// Load returns ErrSessionNotFound when nothing is stored under id.
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, s State) error
	Delete(ctx context.Context, id string) error
}

// Store runs actions against demo sessions, one at a time per session.
type Store struct {
	persister Persister

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(p Persister) *Store {
	return &Store{persister: p, locks: make(map[string]*sync.Mutex)}
}

func (st *Store) lock(id string) func() {
	st.mu.Lock()
	l, ok := st.locks[id]
	if !ok {
		l = new(sync.Mutex)
		st.locks[id] = l
	}
	st.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Create starts a new session from the seeded state.
func (st *Store) Create(ctx context.Context) (State, error) {
	s := Seed(uuid.NewString(), core.NowFunc())
	if err := st.persister.Save(ctx, s); err != nil {
		return State{}, errors.Wrap(err, "saving demo session")
	}
	return s.WithStatuses(core.NowFunc()), nil
}

func (st *Store) Get(ctx context.Context, id string) (State, error) {
	unlock := st.lock(id)
	defer unlock()

	s, err := st.persister.Load(ctx, id)
	if err != nil {
		return State{}, err
	}
	return s.WithStatuses(core.NowFunc()), nil
}

// Dispatch reduces a into the session's state and persists the result.
// A failing action leaves the stored state untouched.
func (st *Store) Dispatch(ctx context.Context, id string, a Action) (State, error) {
	unlock := st.lock(id)
	defer unlock()

	s, err := st.persister.Load(ctx, id)
	if err != nil {
		return State{}, err
	}
	if a.At.IsZero() {
		a.At = core.NowFunc()
	}
	next, err := Reduce(s, a)
	if err != nil {
		return State{}, err
	}
	if err = st.persister.Save(ctx, next); err != nil {
		return State{}, errors.Wrap(err, "saving demo session")
	}
	return next.WithStatuses(a.At), nil
}

// Delete ends a session.
func (st *Store) Delete(ctx context.Context, id string) error {
	unlock := st.lock(id)
	defer unlock()

	if err := st.persister.Delete(ctx, id); err != nil {
		return err
	}
	st.mu.Lock()
	delete(st.locks, id)
	st.mu.Unlock()
	return nil
}

// MemoryPersister keeps demo states in memory. Used when no bolt file is configured.
type MemoryPersister struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{states: make(map[string]State)}
}

func (p *MemoryPersister) Load(_ context.Context, id string) (State, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.states[id]
	if !ok {
		return State{}, ErrSessionNotFound
	}
	return s, nil
}

func (p *MemoryPersister) Save(_ context.Context, s State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[s.SessionID] = s
	return nil
}

func (p *MemoryPersister) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.states[id]; !ok {
		return ErrSessionNotFound
	}
	delete(p.states, id)
	return nil
}
