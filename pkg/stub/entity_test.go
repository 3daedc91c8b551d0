package stub

import (
	"errors"
	"strings"
	"testing"

	"github.com/netmimic/netmimic/pkg/snmp"
	"github.com/netmimic/netmimic/pkg/util"
)

func TestNewEntityStartsEmpty(t *testing.T) {
	e := routerStub(t)

	if got := e.CandidateConfig().String(); got != "<root/>\n" {
		t.Errorf("candidate = %q, want <root/>", got)
	}
	if got := e.RunningConfig().String(); got != "<root/>\n" {
		t.Errorf("running = %q, want <root/>", got)
	}
	if got := e.StartupConfig().String(); got != "<root/>\n" {
		t.Errorf("startup = %q, want <root/>", got)
	}
}

func TestConfigAccessorsCopy(t *testing.T) {
	e := routerStub(t)

	config := e.CandidateConfig()
	config.NewChild("", "leaked")
	if got := e.CandidateConfig().String(); strings.Contains(got, "leaked") {
		t.Error("mutating a read copy must not touch the entity")
	}

	outside := parseXML(t, `<root><kept/></root>`)
	e.SetCandidateConfig(outside)
	outside.NewChild("", "leaked")
	if got := e.CandidateConfig().String(); strings.Contains(got, "leaked") {
		t.Error("mutating the source after a write must not touch the entity")
	}
}

func TestCommitAndDiscard(t *testing.T) {
	tree := routerTree(t)
	e := routerStub(t)

	mustEdit(t, e, tree, `<config><system><hostname>r0</hostname></system></config>`)
	if got := e.RunningConfig().String(); strings.Contains(got, "r0") {
		t.Error("editing candidate must not touch running before commit")
	}

	e.Commit()
	if got := e.RunningConfig().String(); !strings.Contains(got, "r0") {
		t.Errorf("running = %q, want committed hostname", got)
	}

	mustEdit(t, e, tree, `<config><system><hostname>r1</hostname></system></config>`)
	e.DiscardChanges()
	if got := e.CandidateConfig().String(); !strings.Contains(got, "r0") || strings.Contains(got, "r1") {
		t.Errorf("candidate = %q, want discarded back to r0", got)
	}
}

func TestMetadataCopies(t *testing.T) {
	e := routerStub(t)

	value := map[string]interface{}{"mode": "login", "count": 2}
	e.SetMetadata(value)
	value["mode"] = "changed"

	got := e.Metadata()
	if got["mode"] != "login" {
		t.Errorf("metadata mode = %v, want login", got["mode"])
	}
	got["mode"] = "changed"
	if e.Metadata()["mode"] != "login" {
		t.Error("mutating a read copy must not touch the entity")
	}
}

func TestEntityCopyIsDeep(t *testing.T) {
	tree := routerTree(t)
	e := routerStub(t)
	mustEdit(t, e, tree, `<config><system><hostname>r0</hostname></system></config>`)
	if err := e.SaveSnmpObject(snmp.Object{OID: "1.3.6.1.2.1.1.3.0", Type: snmp.TypeTimeTicks, Value: 0}); err != nil {
		t.Fatalf("SaveSnmpObject() error = %v", err)
	}

	clone := e.Copy()
	mustEdit(t, clone, tree, `<config><system><hostname>r1</hostname></system></config>`)
	clone.ClearSnmpTable()

	if got := candidateXML(t, e); !strings.Contains(got, "r0") {
		t.Errorf("original candidate = %q, want r0 untouched", got)
	}
	if e.SnmpTable().Len() != 1 {
		t.Error("clearing the clone's table must not touch the original")
	}
}

func TestInvalidDatastore(t *testing.T) {
	e := routerStub(t)

	_, err := e.GetConfig(Datastore("flash"), nil, nil)
	if !errors.Is(err, util.ErrValidation) {
		t.Errorf("invalid datastore should fail validation, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tree := routerTree(t)
	e := routerStub(t)
	mustEdit(t, e, tree, `<config><system><hostname>r0</hostname></system></config>`)

	if err := e.ValidateConfig(tree, Candidate, nil); err != nil {
		t.Errorf("ValidateConfig(candidate) error = %v", err)
	}

	bad := parseXML(t, `<root><system><bogus>x</bogus></system></root>`)
	err := e.ValidateConfig(tree, "", bad)
	if !errors.Is(err, util.ErrValidation) {
		t.Errorf("invalid inline config should fail, got %v", err)
	}

	// Exactly one source must be given.
	if err := e.ValidateConfig(tree, Candidate, bad); !errors.Is(err, util.ErrValidation) {
		t.Errorf("both sources should fail, got %v", err)
	}
	if err := e.ValidateConfig(tree, "", nil); !errors.Is(err, util.ErrValidation) {
		t.Errorf("neither source should fail, got %v", err)
	}
}
