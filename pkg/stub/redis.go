package stub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"

	"github.com/netmimic/netmimic/pkg/snmp"
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/xmltree"
)

const redisKeyPrefix = "netmimic:stub:"

// record is the JSON shape persisted per stub. Configs travel as XML text;
// the encode/decode round trip provides the copy isolation the in-memory
// repository gets from deep copies.
type record struct {
	ID              string                 `json:"id"`
	Description     string                 `json:"description"`
	Handler         string                 `json:"handler"`
	Yang            string                 `json:"yang"`
	Enabled         bool                   `json:"enabled"`
	Metadata        map[string]interface{} `json:"metadata"`
	CandidateConfig string                 `json:"candidateConfig"`
	RunningConfig   string                 `json:"runningConfig"`
	StartupConfig   string                 `json:"startupConfig"`
	SnmpObjects     []snmp.Object          `json:"snmpObjects"`
}

func entityToRecord(entity *Entity) record {
	return record{
		ID:              entity.ID,
		Description:     entity.Description,
		Handler:         entity.Handler,
		Yang:            entity.Yang,
		Enabled:         entity.Enabled,
		Metadata:        entity.Metadata(),
		CandidateConfig: entity.CandidateConfig().Compact(),
		RunningConfig:   entity.RunningConfig().Compact(),
		StartupConfig:   entity.StartupConfig().Compact(),
		SnmpObjects:     entity.SnmpTable().List(),
	}
}

func recordToEntity(rec record) (*Entity, error) {
	entity := NewEntity(rec.ID, rec.Description, rec.Handler, rec.Yang, rec.Enabled)
	entity.SetMetadata(rec.Metadata)

	for name, serialized := range map[string]string{
		"candidate": rec.CandidateConfig,
		"running":   rec.RunningConfig,
		"startup":   rec.StartupConfig,
	} {
		if serialized == "" {
			continue
		}
		config, err := xmltree.Parse(serialized)
		if err != nil {
			return nil, util.NewFatalError("stub '%s' has a corrupt %s config: %v", rec.ID, name, err)
		}
		switch name {
		case "candidate":
			entity.SetCandidateConfig(config)
		case "running":
			entity.SetRunningConfig(config)
		case "startup":
			entity.SetStartupConfig(config)
		}
	}

	for _, obj := range rec.SnmpObjects {
		if err := entity.SaveSnmpObject(obj); err != nil {
			return nil, err
		}
	}
	return entity, nil
}

// RedisRepository persists stubs in redis, one JSON record per stub.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository connects to the given redis address.
func NewRedisRepository(addr string, db int) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
	}
}

// Close releases the redis connection.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// Ping verifies connectivity.
func (r *RedisRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	return nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Get returns the stub with the given id.
func (r *RedisRepository) Get(ctx context.Context, id string) (*Entity, error) {
	data, err := r.client.Get(ctx, redisKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, util.NewNotFoundError("stub '%s' does not exist", id)
		}
		return nil, fmt.Errorf("reading stub '%s': %w", id, err)
	}

	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, util.NewFatalError("stub '%s' has a corrupt record: %v", id, err)
	}
	return recordToEntity(rec)
}

// List returns all stubs sorted by id, or only those matching the given
// ids.
func (r *RedisRepository) List(ctx context.Context, ids ...string) ([]*Entity, error) {
	var keys []string
	if len(ids) == 0 {
		var err error
		keys, err = r.client.Keys(ctx, redisKeyPrefix+"*").Result()
		if err != nil {
			return nil, fmt.Errorf("listing stubs: %w", err)
		}
	} else {
		for _, id := range ids {
			keys = append(keys, redisKey(id))
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("listing stubs: %w", err)
	}

	var out []*Entity
	for _, value := range values {
		data, ok := value.(string)
		if !ok {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, util.NewFatalError("corrupt stub record: %v", err)
		}
		entity, err := recordToEntity(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Add inserts stubs, failing on duplicate ids.
func (r *RedisRepository) Add(ctx context.Context, entities ...*Entity) error {
	for _, entity := range entities {
		n, err := r.client.Exists(ctx, redisKey(entity.ID)).Result()
		if err != nil {
			return fmt.Errorf("checking stub '%s': %w", entity.ID, err)
		}
		if n > 0 {
			return util.NewConflictError("stub '%s' already exists", entity.ID)
		}
	}
	return r.Save(ctx, entities...)
}

// Save inserts or replaces stubs.
func (r *RedisRepository) Save(ctx context.Context, entities ...*Entity) error {
	for _, entity := range entities {
		data, err := json.Marshal(entityToRecord(entity))
		if err != nil {
			return util.NewFatalError("encoding stub '%s': %v", entity.ID, err)
		}
		if err := r.client.Set(ctx, redisKey(entity.ID), data, 0).Err(); err != nil {
			return fmt.Errorf("writing stub '%s': %w", entity.ID, err)
		}
	}
	return nil
}

// Update replaces stubs, failing when one does not exist.
func (r *RedisRepository) Update(ctx context.Context, entities ...*Entity) error {
	for _, entity := range entities {
		n, err := r.client.Exists(ctx, redisKey(entity.ID)).Result()
		if err != nil {
			return fmt.Errorf("checking stub '%s': %w", entity.ID, err)
		}
		if n == 0 {
			return util.NewNotFoundError("stub '%s' does not exist", entity.ID)
		}
	}
	return r.Save(ctx, entities...)
}

// Remove deletes stubs by id, failing when one does not exist.
func (r *RedisRepository) Remove(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		n, err := r.client.Exists(ctx, redisKey(id)).Result()
		if err != nil {
			return fmt.Errorf("checking stub '%s': %w", id, err)
		}
		if n == 0 {
			return util.NewNotFoundError("stub '%s' does not exist", id)
		}
	}
	for _, id := range ids {
		if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
			return fmt.Errorf("removing stub '%s': %w", id, err)
		}
	}
	return nil
}

// RemoveAll deletes every stored stub.
func (r *RedisRepository) RemoveAll(ctx context.Context) error {
	keys, err := r.client.Keys(ctx, redisKeyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("listing stubs: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("removing stubs: %w", err)
	}
	return nil
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*RedisRepository)(nil)
)
