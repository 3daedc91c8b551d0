package yangtree

import (
	"sort"
	"sync"

	"github.com/netmimic/netmimic/pkg/util"
)

// Entity pairs a built schema tree with its identifier, the yang name used
// by stubs and by the REST surface.
type Entity struct {
	ID   string
	Tree *Tree
}

// Repository holds the loaded schema trees. Handlers receive it read-only;
// the manager replaces the contents wholesale on reload.
type Repository struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{entities: map[string]*Entity{}}
}

// Get returns the entity with the given id.
func (r *Repository) Get(id string) (*Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entity, ok := r.entities[id]
	if !ok {
		return nil, util.NewNotFoundError("yang tree '%s' does not exist", id)
	}
	return entity, nil
}

// List returns entities sorted by id. With ids given, only matching
// entities are returned; unknown ids are skipped.
func (r *Repository) List(ids ...string) []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Entity
	if len(ids) == 0 {
		for _, entity := range r.entities {
			out = append(out, entity)
		}
	} else {
		for _, id := range ids {
			if entity, ok := r.entities[id]; ok {
				out = append(out, entity)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Save inserts or replaces entities.
func (r *Repository) Save(entities ...*Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entity := range entities {
		r.entities[entity.ID] = entity
	}
}

// Add inserts entities, failing on duplicate ids.
func (r *Repository) Add(entities ...*Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entity := range entities {
		if _, ok := r.entities[entity.ID]; ok {
			return util.NewConflictError("yang tree '%s' already exists", entity.ID)
		}
	}
	for _, entity := range entities {
		r.entities[entity.ID] = entity
	}
	return nil
}

// Remove deletes the entity with the given id.
func (r *Repository) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[id]; !ok {
		return util.NewNotFoundError("yang tree '%s' does not exist", id)
	}
	delete(r.entities, id)
	return nil
}

// RemoveAll empties the repository.
func (r *Repository) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entities = map[string]*Entity{}
}
