package stub

import (
	"testing"

	"github.com/netmimic/netmimic/pkg/xmltree"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

const routerYang = `
module test-router {
  namespace "urn:test:router";
  prefix tr;

  container system {
    leaf hostname { type string; }
    leaf-list dns-server { type string; }
    choice logging {
      case local {
        leaf file { type string; }
      }
      leaf remote-host { type string; }
    }
  }

  container interfaces {
    list interface {
      key "name";
      leaf name { type string; }
      leaf description { type string; }
      container stats {
        leaf in-octets { type string; }
      }
    }
  }
}
`

func routerTree(t *testing.T) *yangtree.Entity {
	t.Helper()
	builder := yangtree.NewBuilder()
	builder.AddModule("test-router.yang", routerYang)
	tree, err := builder.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return &yangtree.Entity{ID: "test-router", Tree: tree}
}

func routerStub(t *testing.T) *Entity {
	t.Helper()
	return NewEntity("r0", "test router", "junos", "test-router", true)
}

func parseXML(t *testing.T, s string) *xmltree.Element {
	t.Helper()
	el, err := xmltree.Parse(s)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return el
}

func mustEdit(t *testing.T, e *Entity, tree *yangtree.Entity, config string) {
	t.Helper()
	if err := e.EditConfig(Candidate, parseXML(t, config), tree, OpMerge); err != nil {
		t.Fatalf("EditConfig() error = %v", err)
	}
}

func candidateXML(t *testing.T, e *Entity) string {
	t.Helper()
	config, err := e.GetConfig(Candidate, nil, nil)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	return config.Compact()
}
