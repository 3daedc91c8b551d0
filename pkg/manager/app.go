// Package manager hosts the simulator control plane: stub and yang
// lifecycle, the REST surface, and protocol event dispatch to handlers.
package manager

import (
	"context"
	"sync"

	"github.com/netmimic/netmimic/pkg/netconf"
	"github.com/netmimic/netmimic/pkg/plugin"
	"github.com/netmimic/netmimic/pkg/project"
	"github.com/netmimic/netmimic/pkg/snmp"
	"github.com/netmimic/netmimic/pkg/stub"
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

// App ties the repositories, the handler registry, and the project
// directory together. One App serves every protocol front-end.
type App struct {
	project  *project.Project
	stubs    stub.Repository
	yangs    *yangtree.Repository
	registry *plugin.Registry

	// Guards the change detectors and the reloads they trigger so
	// concurrent dispatches do not rebuild the registries twice.
	reloadMu      sync.Mutex
	moduleChecker *project.DirChecker
	yangsChecker  *project.DirChecker
}

// NewApp creates an App over a project directory. Pass a redis-backed
// repository to share stub state between manager processes.
func NewApp(proj *project.Project, stubs stub.Repository) *App {
	return &App{
		project:       proj,
		stubs:         stubs,
		yangs:         yangtree.NewRepository(),
		registry:      plugin.NewRegistry(),
		moduleChecker: proj.ModuleChecker(),
		yangsChecker:  proj.YangsChecker(),
	}
}

// Startup loads the project state: handlers, schema trees, and the stubs
// declared in stubs.yaml.
func (a *App) Startup(ctx context.Context) error {
	if err := a.registry.Load(a.project.ModuleDir()); err != nil {
		return err
	}
	a.moduleChecker.Refresh()

	if err := a.ReloadYangs(ctx); err != nil {
		return err
	}
	a.yangsChecker.Refresh()

	if _, err := a.ReloadStubs(ctx); err != nil {
		return err
	}
	return nil
}

// CreateStub registers a new stub.
func (a *App) CreateStub(ctx context.Context, id, description, handler, yang string,
	enabled bool, metadata map[string]interface{}) (*stub.Entity, error) {

	entity := stub.NewEntity(id, description, handler, yang, enabled)
	if metadata != nil {
		entity.SetMetadata(metadata)
	}
	if err := a.stubs.Add(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// ListStubs returns all stubs, or only those matching ids.
func (a *App) ListStubs(ctx context.Context, ids ...string) ([]*stub.Entity, error) {
	return a.stubs.List(ctx, ids...)
}

// GetStub returns one stub by id.
func (a *App) GetStub(ctx context.Context, id string) (*stub.Entity, error) {
	return a.stubs.Get(ctx, id)
}

// StubPatch carries the fields of a partial stub update; nil fields keep
// their current value.
type StubPatch struct {
	Description *string
	Handler     *string
	Yang        *string
	Enabled     *bool
	Metadata    map[string]interface{}
}

// UpdateStub applies a partial update to an existing stub.
func (a *App) UpdateStub(ctx context.Context, id string, patch StubPatch) (*stub.Entity, error) {
	entity, err := a.stubs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Description != nil {
		entity.Description = *patch.Description
	}
	if patch.Handler != nil {
		entity.Handler = *patch.Handler
	}
	if patch.Yang != nil {
		entity.Yang = *patch.Yang
	}
	if patch.Enabled != nil {
		entity.Enabled = *patch.Enabled
	}
	if patch.Metadata != nil {
		entity.SetMetadata(patch.Metadata)
	}

	if err := a.stubs.Update(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// DeleteStub removes a stub by id.
func (a *App) DeleteStub(ctx context.Context, id string) error {
	return a.stubs.Remove(ctx, id)
}

// ReloadStubs drops every stub and reloads the declarations from
// stubs/stubs.yaml. Runtime state accumulated since the last reload is
// discarded.
func (a *App) ReloadStubs(ctx context.Context) ([]*stub.Entity, error) {
	if err := a.stubs.RemoveAll(ctx); err != nil {
		return nil, err
	}

	declared, err := a.project.LoadStubs()
	if err != nil {
		return nil, err
	}
	if len(declared) > 0 {
		if err := a.stubs.Save(ctx, declared...); err != nil {
			return nil, err
		}
	}
	return a.stubs.List(ctx)
}

// ListYangs returns the loaded schema trees, or only those matching ids.
func (a *App) ListYangs(ids ...string) []*yangtree.Entity {
	return a.yangs.List(ids...)
}

// GetYang returns one loaded schema tree by id.
func (a *App) GetYang(id string) (*yangtree.Entity, error) {
	return a.yangs.Get(id)
}

// ReloadYangs replaces the loaded schema trees with the built trees found
// under the project's yangs directory.
func (a *App) ReloadYangs(ctx context.Context) error {
	yangs, err := a.project.LoadYangs()
	if err != nil {
		return err
	}
	a.yangs.RemoveAll()
	return a.yangs.Add(yangs...)
}

// HandleNetworkOperation dispatches one protocol event to the stub's
// handler and returns the handler's response.
func (a *App) HandleNetworkOperation(ctx context.Context, stubID string, body []byte) (*plugin.Response, error) {
	request, err := plugin.ParseRequest(stubID, body)
	if err != nil {
		return nil, err
	}

	entity, err := a.stubs.Get(ctx, stubID)
	if err != nil {
		return nil, err
	}
	if !entity.Enabled {
		return nil, util.NewNotFoundError("stub '%s' is not enabled", stubID)
	}

	if err := a.refreshProjectState(ctx); err != nil {
		return nil, err
	}

	handler, err := a.registry.Get(entity.Handler)
	if err != nil {
		return nil, err
	}

	sessionID := 0
	if request.Netconf != nil {
		sessionID = request.Netconf.SessionID
	}

	pluginCtx := &plugin.Context{
		Ctx:     ctx,
		Request: request,
		Stub:    entity,
		Yangs:   a.yangs,
		Stubs:   a.stubs,
		Netconf: netconf.NewService(sessionID, a.yangs),
		SNMP:    snmp.NewService(),
	}
	return plugin.Dispatch(handler, pluginCtx)
}

// refreshProjectState reloads handlers and schema trees when their
// backing files changed since the last dispatch.
func (a *App) refreshProjectState(ctx context.Context) error {
	a.reloadMu.Lock()
	defer a.reloadMu.Unlock()

	if a.moduleChecker.IsChanged() {
		util.Info("reloading handler module")
		if err := a.registry.Load(a.project.ModuleDir()); err != nil {
			return err
		}
		a.moduleChecker.Refresh()
	}

	if a.yangsChecker.IsChanged() {
		util.Info("reloading yang trees")
		if err := a.ReloadYangs(ctx); err != nil {
			return err
		}
		a.yangsChecker.Refresh()
	}
	return nil
}
