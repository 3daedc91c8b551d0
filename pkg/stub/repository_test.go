package stub

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/netmimic/netmimic/pkg/util"
)

func TestRepositoryAddAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if err := repo.Add(ctx, routerStub(t)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := repo.Add(ctx, routerStub(t)); !errors.Is(err, util.ErrConflict) {
		t.Errorf("duplicate Add() should conflict, got %v", err)
	}

	got, err := repo.Get(ctx, "r0")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "r0" || got.Handler != "junos" {
		t.Errorf("Get() = %+v, want the stored stub", got)
	}

	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Get(nope) should be not found, got %v", err)
	}
}

func TestRepositoryIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	tree := routerTree(t)
	repo := NewMemoryRepository()

	if err := repo.Add(ctx, routerStub(t)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	first, _ := repo.Get(ctx, "r0")
	mustEdit(t, first, tree, `<config><system><hostname>leaked</hostname></system></config>`)

	second, _ := repo.Get(ctx, "r0")
	if got := candidateXML(t, second); strings.Contains(got, "leaked") {
		t.Error("mutations on a fetched stub must stay invisible until saved")
	}

	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	third, _ := repo.Get(ctx, "r0")
	if got := candidateXML(t, third); !strings.Contains(got, "leaked") {
		t.Error("Save() should publish the mutation")
	}
}

func TestRepositoryUpdateMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if err := repo.Update(ctx, routerStub(t)); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Update() on a missing stub should be not found, got %v", err)
	}
}

func TestRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	for _, id := range []string{"r2", "r0", "r1"} {
		if err := repo.Add(ctx, NewEntity(id, "", "junos", "test-router", true)); err != nil {
			t.Fatalf("Add(%s) error = %v", id, err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "r0" || all[2].ID != "r2" {
		t.Errorf("List() should sort by id, got %v", stubIDs(all))
	}

	some, err := repo.List(ctx, "r1", "nope")
	if err != nil {
		t.Fatalf("List(ids) error = %v", err)
	}
	if len(some) != 1 || some[0].ID != "r1" {
		t.Errorf("List(ids) = %v, want [r1]", stubIDs(some))
	}
}

func stubIDs(entities []*Entity) []string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	return ids
}

func TestRepositoryRemove(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if err := repo.Add(ctx, routerStub(t)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := repo.Remove(ctx, "r0"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := repo.Remove(ctx, "r0"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("second Remove() should be not found, got %v", err)
	}
}

func TestRepositoryRemoveAll(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if err := repo.Add(ctx, routerStub(t)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := repo.RemoveAll(ctx); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("List() after RemoveAll() = %v, want empty", stubIDs(all))
	}
}
