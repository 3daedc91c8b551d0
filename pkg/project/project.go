package project

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netmimic/netmimic/pkg/stub"
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

// Project is a simulator project directory:
//
//	stubs/stubs.yaml                   stub declarations
//	yangs/<name>/*.yang                schema sources
//	yangs/<name>/yang_tree/*.part      built schema tree chunks
//	module/handlers/<name>/handler.yaml  file-driven handlers
type Project struct {
	root string
}

// New wraps a project root directory.
func New(root string) *Project {
	return &Project{root: root}
}

// Root returns the project root directory.
func (p *Project) Root() string { return p.root }

// ModuleDir returns the handler module directory.
func (p *Project) ModuleDir() string { return filepath.Join(p.root, "module") }

// YangsDir returns the schema source directory.
func (p *Project) YangsDir() string { return filepath.Join(p.root, "yangs") }

// ModuleChecker creates a change detector over the whole module directory.
func (p *Project) ModuleChecker() *DirChecker {
	return NewDirChecker(p.ModuleDir(), "")
}

// YangsChecker creates a change detector that fires when any built schema
// tree changes. Watching only the first chunk keeps the snapshot small;
// every rebuild rewrites it.
func (p *Project) YangsChecker() *DirChecker {
	return NewDirChecker(p.YangsDir(), "*/yang_tree/yang_tree_0.part")
}

type stubsFile struct {
	Stubs []stubConfig `yaml:"stubs"`
}

type stubConfig struct {
	ID          string                 `yaml:"id"`
	Description string                 `yaml:"description"`
	Handler     string                 `yaml:"handler"`
	Yang        string                 `yaml:"yang"`
	Enabled     *bool                  `yaml:"enabled"`
	Metadata    map[string]interface{} `yaml:"metadata"`
}

// LoadStubs parses stubs/stubs.yaml into stub entities. A missing file
// yields an empty list, so a reload against a bare project clears every
// stub. Declarations default to enabled with empty description, yang, and
// metadata.
func (p *Project) LoadStubs() ([]*stub.Entity, error) {
	data, err := os.ReadFile(filepath.Join(p.root, "stubs", "stubs.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading stubs.yaml: %w", err)
	}

	var file stubsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, util.NewValidationError("invalid stubs.yaml: %v", err)
	}

	var entities []*stub.Entity
	for _, cfg := range file.Stubs {
		if cfg.ID == "" {
			return nil, util.NewValidationError("stubs.yaml: stub without an id")
		}
		if cfg.Handler == "" {
			return nil, util.NewValidationError("stubs.yaml: stub '%s' has no handler", cfg.ID)
		}
		enabled := true
		if cfg.Enabled != nil {
			enabled = *cfg.Enabled
		}
		entity := stub.NewEntity(cfg.ID, cfg.Description, cfg.Handler, cfg.Yang, enabled)
		if cfg.Metadata != nil {
			entity.SetMetadata(cfg.Metadata)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// ReadYangSources returns the *.yang files directly under yangs/<name>,
// keyed by filename.
func (p *Project) ReadYangSources(name string) (map[string]string, error) {
	dir := filepath.Join(p.YangsDir(), name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, util.NewNotFoundError("yang directory '%s' does not exist", name)
		}
		return nil, fmt.Errorf("reading yang directory '%s': %w", name, err)
	}

	sources := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yang") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading yang source '%s': %w", entry.Name(), err)
		}
		sources[entry.Name()] = string(data)
	}
	if len(sources) == 0 {
		return nil, util.NewNotFoundError("no yang files under '%s'", name)
	}
	return sources, nil
}

// Build compiles yangs/<name>/*.yang into a schema tree and rewrites the
// yang_tree chunk files.
func (p *Project) Build(name string) error {
	sources, err := p.ReadYangSources(name)
	if err != nil {
		return err
	}

	builder := yangtree.NewBuilder()
	filenames := make([]string, 0, len(sources))
	for filename := range sources {
		filenames = append(filenames, filename)
	}
	sort.Strings(filenames)
	for _, filename := range filenames {
		builder.AddModule(filename, sources[filename])
	}
	tree, err := builder.Build()
	if err != nil {
		return err
	}
	return p.writeParts(name, tree.String())
}

func (p *Project) writeParts(name, serialized string) error {
	dir := filepath.Join(p.YangsDir(), name, "yang_tree")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating yang_tree directory: %w", err)
	}

	// Drop stale chunks from a previous, larger build.
	old, err := listPartFiles(dir)
	if err != nil {
		return err
	}
	for _, filename := range old {
		if err := os.Remove(filepath.Join(dir, filename)); err != nil {
			return fmt.Errorf("removing stale chunk '%s': %w", filename, err)
		}
	}

	for i, part := range yangtree.SplitParts(serialized) {
		filename := fmt.Sprintf("yang_tree_%d.part", i)
		if err := os.WriteFile(filepath.Join(dir, filename), []byte(part), 0o644); err != nil {
			return fmt.Errorf("writing chunk '%s': %w", filename, err)
		}
	}
	return nil
}

var partFilePattern = regexp.MustCompile(`\Ayang_tree_([0-9]+)\.part\z`)

func listPartFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading yang_tree directory: %w", err)
	}

	type part struct {
		name  string
		index int
	}
	var parts []part
	for _, entry := range entries {
		m := partFilePattern.FindStringSubmatch(entry.Name())
		if entry.IsDir() || m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, part{name: entry.Name(), index: index})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })

	names := make([]string, len(parts))
	for i, pf := range parts {
		names[i] = pf.name
	}
	return names, nil
}

// readParts reassembles the serialized schema tree for one yang name.
// An empty string means no built tree exists.
func (p *Project) readParts(name string) (string, error) {
	dir := filepath.Join(p.YangsDir(), name, "yang_tree")
	filenames, err := listPartFiles(dir)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(filenames))
	for _, filename := range filenames {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			return "", fmt.Errorf("reading chunk '%s': %w", filename, err)
		}
		parts = append(parts, string(data))
	}
	return yangtree.JoinParts(parts), nil
}

// LoadYangs deserializes every built schema tree under yangs/. Directories
// without chunk files are skipped; a corrupt tree fails the whole load.
func (p *Project) LoadYangs() ([]*yangtree.Entity, error) {
	entries, err := os.ReadDir(p.YangsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading yangs directory: %w", err)
	}

	var yangs []*yangtree.Entity
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		serialized, err := p.readParts(entry.Name())
		if err != nil {
			return nil, err
		}
		if serialized == "" {
			continue
		}
		tree, err := yangtree.Load(serialized)
		if err != nil {
			return nil, util.NewFatalError("yang tree '%s' is corrupt: %v", entry.Name(), err)
		}
		yangs = append(yangs, &yangtree.Entity{ID: entry.Name(), Tree: tree})
	}
	return yangs, nil
}
