package manager

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/netmimic/netmimic/pkg/plugin"
	"github.com/netmimic/netmimic/pkg/project"
	"github.com/netmimic/netmimic/pkg/stub"
	"github.com/netmimic/netmimic/pkg/util"
)

func newTestApp(t *testing.T) (*App, *project.Project) {
	t.Helper()

	proj := newTestProject(t)
	app := NewApp(proj, stub.NewMemoryRepository())
	if err := app.Startup(context.Background()); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	return app, proj
}

func TestStartupLoadsProject(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	stubs, err := app.ListStubs(ctx)
	if err != nil {
		t.Fatalf("ListStubs() error = %v", err)
	}
	if len(stubs) != 1 || stubs[0].ID != "junos-1" {
		t.Errorf("stubs = %+v", stubs)
	}

	if _, err := app.GetYang("junos"); err != nil {
		t.Errorf("GetYang() error = %v", err)
	}
	if _, err := app.GetYang("nope"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("missing yang error = %v", err)
	}
}

func TestDispatchReloadsModuleOnChange(t *testing.T) {
	app, proj := newTestApp(t)
	ctx := context.Background()

	if _, err := app.CreateStub(ctx, "c1", "", "cisco", "", true, nil); err != nil {
		t.Fatalf("CreateStub() error = %v", err)
	}

	event := []byte(`{"protocol":"http","method":"GET","path":"/","query":{},"headers":{},"body":""}`)
	if _, err := app.HandleNetworkOperation(ctx, "c1", event); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("handler should not exist yet, got %v", err)
	}

	// Dropping a new descriptor into the module directory takes effect on
	// the next dispatch without a restart.
	descriptor := filepath.Join(proj.ModuleDir(), "handlers", "cisco", "handler.yaml")
	if err := os.MkdirAll(filepath.Dir(descriptor), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(descriptor, []byte("http:\n  body: \"<version/>\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	response, err := app.HandleNetworkOperation(ctx, "c1", event)
	if err != nil {
		t.Fatalf("HandleNetworkOperation() error = %v", err)
	}
	var result plugin.HTTPResult
	if err := json.Unmarshal([]byte(response.Body), &result); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if result.Code != 200 || result.Body != "<version/>" {
		t.Errorf("result = %+v", result)
	}
}

func TestDispatchReloadsYangsOnChange(t *testing.T) {
	app, proj := newTestApp(t)
	ctx := context.Background()

	// A second yang built after startup appears once its tree chunks land.
	src := filepath.Join(proj.YangsDir(), "extra", "extra.yang")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	module := "module extra { namespace \"urn:extra\"; prefix e; leaf name { type string; } }"
	if err := os.WriteFile(src, []byte(module), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := proj.Build("extra"); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if _, err := app.GetYang("extra"); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("yang should not be loaded before a dispatch, got %v", err)
	}

	event := []byte(`{"protocol":"http","method":"GET","path":"/","query":{},"headers":{},"body":""}`)
	if _, err := app.HandleNetworkOperation(ctx, "junos-1", event); err != nil {
		t.Fatalf("HandleNetworkOperation() error = %v", err)
	}

	if _, err := app.GetYang("extra"); err != nil {
		t.Errorf("yang should be loaded after the dispatch, got %v", err)
	}
}

func TestUpdateStubPatchSemantics(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	description := "patched"
	entity, err := app.UpdateStub(ctx, "junos-1", StubPatch{Description: &description})
	if err != nil {
		t.Fatalf("UpdateStub() error = %v", err)
	}
	if entity.Description != "patched" {
		t.Errorf("description = %q", entity.Description)
	}
	if entity.Handler != "junos" || !entity.Enabled {
		t.Errorf("untouched fields changed: %+v", entity)
	}

	if _, err := app.UpdateStub(ctx, "ghost", StubPatch{}); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("missing stub error = %v", err)
	}
}
