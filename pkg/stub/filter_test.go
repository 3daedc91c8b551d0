package stub

import (
	"errors"
	"strings"
	"testing"

	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

func seededStub(t *testing.T, tree *yangtree.Entity) *Entity {
	t.Helper()
	e := routerStub(t)
	mustEdit(t, e, tree, `<config>
	  <system>
	    <hostname>r0</hostname>
	    <dns-server>10.0.0.1</dns-server>
	  </system>
	</config>`)
	mustEdit(t, e, tree, `<config>
	  <interfaces>
	    <interface><name>fxp0</name><description>mgmt</description></interface>
	    <interface><name>xe-0/0/0</name><description>core</description></interface>
	  </interfaces>
	</config>`)
	return e
}

func filteredXML(t *testing.T, e *Entity, tree *yangtree.Entity, filter string) string {
	t.Helper()
	config, err := e.GetConfig(Running, tree, parseXML(t, filter))
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	return config.Compact()
}

func TestGetConfigNoFilter(t *testing.T) {
	tree := routerTree(t)
	e := seededStub(t, tree)

	config, err := e.GetConfig(Candidate, nil, nil)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	got := config.Compact()
	if !strings.Contains(got, "r0") || !strings.Contains(got, "fxp0") {
		t.Errorf("GetConfig() = %q, want the full datastore", got)
	}
}

func TestGetConfigFilterRequiresTree(t *testing.T) {
	tree := routerTree(t)
	e := seededStub(t, tree)

	_, err := e.GetConfig(Candidate, nil, parseXML(t, `<filter><system/></filter>`))
	if !errors.Is(err, util.ErrValidation) {
		t.Errorf("filtering without a tree should fail, got %v", err)
	}
}

func TestFilterContainerSelectsSubtree(t *testing.T) {
	tree := routerTree(t)
	e := seededStub(t, tree)
	e.Commit()

	got := filteredXML(t, e, tree, `<filter><system/></filter>`)
	if !strings.Contains(got, "r0") || !strings.Contains(got, "10.0.0.1") {
		t.Errorf("filter = %q, want the whole system subtree", got)
	}
	if strings.Contains(got, "interfaces") {
		t.Errorf("filter = %q, interfaces should be hidden", got)
	}
}

func TestFilterLeafContentMatch(t *testing.T) {
	tree := routerTree(t)
	e := seededStub(t, tree)
	e.Commit()

	got := filteredXML(t, e, tree, `<filter><system><hostname>r0</hostname></system></filter>`)
	if !strings.Contains(got, "r0") {
		t.Errorf("filter = %q, matching leaf should be visible", got)
	}
	if strings.Contains(got, "dns-server") {
		t.Errorf("filter = %q, unselected siblings should be hidden", got)
	}

	got = filteredXML(t, e, tree, `<filter><system><hostname>other</hostname></system></filter>`)
	if strings.Contains(got, "hostname") {
		t.Errorf("filter = %q, mismatching leaf should yield nothing", got)
	}
}

func TestFilterListMatchMode(t *testing.T) {
	tree := routerTree(t)
	e := seededStub(t, tree)
	e.Commit()

	// Only the key in the filter selects the whole matching item.
	got := filteredXML(t, e, tree, `<filter><interfaces>
	  <interface><name>fxp0</name></interface>
	</interfaces></filter>`)
	if !strings.Contains(got, "fxp0") || !strings.Contains(got, "mgmt") {
		t.Errorf("filter = %q, want the full fxp0 item", got)
	}
	if strings.Contains(got, "xe-0/0/0") {
		t.Errorf("filter = %q, other items should be hidden", got)
	}

	// A key with text plus a mismatching content filter hides the item.
	got = filteredXML(t, e, tree, `<filter><interfaces>
	  <interface><name>fxp0</name><description>core</description></interface>
	</interfaces></filter>`)
	if strings.Contains(got, "fxp0") {
		t.Errorf("filter = %q, content mismatch should hide the item", got)
	}

	// No item matches the key at all.
	got = filteredXML(t, e, tree, `<filter><interfaces>
	  <interface><name>ge-9/9/9</name></interface>
	</interfaces></filter>`)
	if strings.Contains(got, "interface") {
		t.Errorf("filter = %q, missing key should yield nothing", got)
	}
}

func TestFilterListSelectionMode(t *testing.T) {
	tree := routerTree(t)
	e := seededStub(t, tree)
	e.Commit()

	// Keys without text act as selection nodes over every item.
	got := filteredXML(t, e, tree, `<filter><interfaces>
	  <interface><name/><description>core</description></interface>
	</interfaces></filter>`)
	if !strings.Contains(got, "xe-0/0/0") || !strings.Contains(got, "core") {
		t.Errorf("filter = %q, want the matching item", got)
	}
	if strings.Contains(got, "fxp0") {
		t.Errorf("filter = %q, non-matching items should be hidden", got)
	}
}

func TestFilterEmptyListFilterSelectsAll(t *testing.T) {
	tree := routerTree(t)
	e := seededStub(t, tree)
	e.Commit()

	got := filteredXML(t, e, tree, `<filter><interfaces><interface/></interfaces></filter>`)
	if !strings.Contains(got, "fxp0") || !strings.Contains(got, "xe-0/0/0") {
		t.Errorf("filter = %q, want every item", got)
	}
}

func TestFilterLeafListTextForbidden(t *testing.T) {
	tree := routerTree(t)
	e := seededStub(t, tree)
	e.Commit()

	_, err := e.GetConfig(Running, tree, parseXML(t,
		`<filter><system><dns-server>10.0.0.1</dns-server></system></filter>`))
	if !errors.Is(err, util.ErrValidation) {
		t.Errorf("leaf-list filter with text should fail, got %v", err)
	}
}

func TestFilterStripsAnnotations(t *testing.T) {
	tree := routerTree(t)
	e := seededStub(t, tree)
	e.Commit()

	got := filteredXML(t, e, tree, `<filter><system/></filter>`)
	for _, attr := range []string{"node_type", "choice_ids", "_visible"} {
		if strings.Contains(got, attr) {
			t.Errorf("filter output should not carry %s: %q", attr, got)
		}
	}
}
