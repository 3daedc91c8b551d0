package stub

import (
	"context"
	"sort"
	"sync"

	"github.com/netmimic/netmimic/pkg/util"
)

// Repository owns the stub entities. Reads hand out deep copies and Save
// publishes a copy, so handler mutations stay invisible until saved.
type Repository interface {
	Get(ctx context.Context, id string) (*Entity, error)
	List(ctx context.Context, ids ...string) ([]*Entity, error)
	Add(ctx context.Context, entities ...*Entity) error
	Save(ctx context.Context, entities ...*Entity) error
	Update(ctx context.Context, entities ...*Entity) error
	Remove(ctx context.Context, ids ...string) error
	RemoveAll(ctx context.Context) error
}

// MemoryRepository is the default in-process repository.
type MemoryRepository struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entities: map[string]*Entity{}}
}

// Get returns a copy of the stub with the given id.
func (r *MemoryRepository) Get(ctx context.Context, id string) (*Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entity, ok := r.entities[id]
	if !ok {
		return nil, util.NewNotFoundError("stub '%s' does not exist", id)
	}
	return entity.Copy(), nil
}

// List returns copies of all stubs sorted by id, or only those matching
// the given ids.
func (r *MemoryRepository) List(ctx context.Context, ids ...string) ([]*Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Entity
	if len(ids) == 0 {
		for _, entity := range r.entities {
			out = append(out, entity.Copy())
		}
	} else {
		for _, id := range ids {
			if entity, ok := r.entities[id]; ok {
				out = append(out, entity.Copy())
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Add inserts stubs, failing on duplicate ids.
func (r *MemoryRepository) Add(ctx context.Context, entities ...*Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entity := range entities {
		if _, ok := r.entities[entity.ID]; ok {
			return util.NewConflictError("stub '%s' already exists", entity.ID)
		}
	}
	for _, entity := range entities {
		r.entities[entity.ID] = entity.Copy()
	}
	return nil
}

// Save inserts or replaces stubs.
func (r *MemoryRepository) Save(ctx context.Context, entities ...*Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entity := range entities {
		r.entities[entity.ID] = entity.Copy()
	}
	return nil
}

// Update replaces stubs, failing when one does not exist.
func (r *MemoryRepository) Update(ctx context.Context, entities ...*Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entity := range entities {
		if _, ok := r.entities[entity.ID]; !ok {
			return util.NewNotFoundError("stub '%s' does not exist", entity.ID)
		}
	}
	for _, entity := range entities {
		r.entities[entity.ID] = entity.Copy()
	}
	return nil
}

// Remove deletes stubs by id, failing when one does not exist.
func (r *MemoryRepository) Remove(ctx context.Context, ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if _, ok := r.entities[id]; !ok {
			return util.NewNotFoundError("stub '%s' does not exist", id)
		}
	}
	for _, id := range ids {
		delete(r.entities, id)
	}
	return nil
}

// RemoveAll empties the repository.
func (r *MemoryRepository) RemoveAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entities = map[string]*Entity{}
	return nil
}
