package yangtree

import (
	"errors"
	"testing"

	"github.com/netmimic/netmimic/pkg/util"
)

func TestRepository(t *testing.T) {
	repo := NewRepository()
	tree := deviceTree(t)

	if err := repo.Add(&Entity{ID: "junos", Tree: tree}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := repo.Add(&Entity{ID: "junos", Tree: tree}); !errors.Is(err, util.ErrConflict) {
		t.Errorf("duplicate Add() error = %v, want conflict", err)
	}

	entity, err := repo.Get("junos")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entity.ID != "junos" {
		t.Errorf("Get() id = %q, want junos", entity.ID)
	}

	if _, err := repo.Get("nope"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Get(nope) error = %v, want not found", err)
	}

	repo.Save(&Entity{ID: "iosxr", Tree: tree})
	listed := repo.List()
	if len(listed) != 2 {
		t.Fatalf("List() returned %d entities, want 2", len(listed))
	}
	if listed[0].ID != "iosxr" || listed[1].ID != "junos" {
		t.Errorf("List() should be sorted by id: %v, %v", listed[0].ID, listed[1].ID)
	}

	filtered := repo.List("junos", "nope")
	if len(filtered) != 1 || filtered[0].ID != "junos" {
		t.Errorf("List(junos, nope) = %d entities, want only junos", len(filtered))
	}

	if err := repo.Remove("junos"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := repo.Remove("junos"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("second Remove() error = %v, want not found", err)
	}

	repo.RemoveAll()
	if len(repo.List()) != 0 {
		t.Error("RemoveAll() should empty the repository")
	}
}
