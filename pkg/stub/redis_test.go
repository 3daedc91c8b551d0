package stub

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/netmimic/netmimic/pkg/snmp"
)

// The redis repository itself needs a live server; the record codec is
// what carries the state and is covered here.
func TestRecordRoundTrip(t *testing.T) {
	tree := routerTree(t)
	e := routerStub(t)
	mustEdit(t, e, tree, `<config><system><hostname>r0</hostname></system></config>`)
	e.Commit()
	e.SetMetadata(map[string]interface{}{"mode": "login"})
	if err := e.SaveSnmpObject(snmp.Object{OID: "1.3.6.1.2.1.1.3.0", Type: snmp.TypeTimeTicks, Value: 0}); err != nil {
		t.Fatalf("SaveSnmpObject() error = %v", err)
	}

	data, err := json.Marshal(entityToRecord(e))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	restored, err := recordToEntity(rec)
	if err != nil {
		t.Fatalf("recordToEntity() error = %v", err)
	}

	if restored.ID != e.ID || restored.Handler != e.Handler || restored.Yang != e.Yang || restored.Enabled != e.Enabled {
		t.Errorf("restored = %+v, want the original identity", restored)
	}
	if got := restored.CandidateConfig().Compact(); got != e.CandidateConfig().Compact() {
		t.Errorf("candidate = %q, want %q", got, e.CandidateConfig().Compact())
	}
	if got := restored.RunningConfig().Compact(); !strings.Contains(got, "r0") {
		t.Errorf("running = %q, want committed hostname", got)
	}
	if restored.Metadata()["mode"] != "login" {
		t.Errorf("metadata = %v, want mode login", restored.Metadata())
	}
	if restored.SnmpTable().Len() != 1 {
		t.Errorf("snmp table has %d objects, want 1", restored.SnmpTable().Len())
	}
}

func TestRecordPreservesAnnotations(t *testing.T) {
	tree := routerTree(t)
	e := routerStub(t)
	mustEdit(t, e, tree, `<config><system><file>/var/log/messages</file></system></config>`)

	data, err := json.Marshal(entityToRecord(e))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	restored, err := recordToEntity(rec)
	if err != nil {
		t.Fatalf("recordToEntity() error = %v", err)
	}

	// Choice bookkeeping must survive storage so a later edit can still
	// evict the conflicting case.
	mustEdit(t, restored, tree, `<config><system><remote-host>10.0.0.9</remote-host></system></config>`)
	if got := candidateXML(t, restored); strings.Contains(got, "file") {
		t.Errorf("candidate = %q, restored stub should keep choice exclusivity", got)
	}
}
