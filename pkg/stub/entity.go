package stub

import (
	"encoding/json"

	"github.com/netmimic/netmimic/pkg/snmp"
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/xmltree"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

// Datastore names one of the per-stub configuration trees.
type Datastore string

const (
	Candidate Datastore = "candidate"
	Running   Datastore = "running"
	Startup   Datastore = "startup"
)

// Entity is one simulated device. Accessors copy on both read and write so
// a handler never aliases repository state; only Repository.Save publishes
// mutations.
type Entity struct {
	ID          string
	Description string
	Handler     string
	Yang        string
	Enabled     bool

	candidate *xmltree.Element
	running   *xmltree.Element
	startup   *xmltree.Element
	metadata  map[string]interface{}
	snmpTable *snmp.Table
}

// NewEntity creates a stub with empty <root/> datastores.
func NewEntity(id, description, handler, yang string, enabled bool) *Entity {
	return &Entity{
		ID:          id,
		Description: description,
		Handler:     handler,
		Yang:        yang,
		Enabled:     enabled,
		candidate:   xmltree.New("", "root"),
		running:     xmltree.New("", "root"),
		startup:     xmltree.New("", "root"),
		metadata:    map[string]interface{}{},
		snmpTable:   snmp.NewTable(),
	}
}

// CandidateConfig returns a deep copy of the candidate datastore.
func (e *Entity) CandidateConfig() *xmltree.Element {
	return e.candidate.Copy()
}

// SetCandidateConfig replaces the candidate datastore with a copy of config.
func (e *Entity) SetCandidateConfig(config *xmltree.Element) {
	e.candidate = config.Copy()
}

// RunningConfig returns a deep copy of the running datastore.
func (e *Entity) RunningConfig() *xmltree.Element {
	return e.running.Copy()
}

// SetRunningConfig replaces the running datastore with a copy of config.
func (e *Entity) SetRunningConfig(config *xmltree.Element) {
	e.running = config.Copy()
}

// StartupConfig returns a deep copy of the startup datastore.
func (e *Entity) StartupConfig() *xmltree.Element {
	return e.startup.Copy()
}

// SetStartupConfig replaces the startup datastore with a copy of config.
func (e *Entity) SetStartupConfig(config *xmltree.Element) {
	e.startup = config.Copy()
}

func (e *Entity) datastore(ds Datastore) (*xmltree.Element, error) {
	switch ds {
	case Candidate:
		return e.CandidateConfig(), nil
	case Running:
		return e.RunningConfig(), nil
	case Startup:
		return e.StartupConfig(), nil
	}
	return nil, util.NewValidationError("invalid datastore '%s'", ds)
}

func (e *Entity) setDatastore(ds Datastore, config *xmltree.Element) error {
	switch ds {
	case Candidate:
		e.SetCandidateConfig(config)
	case Running:
		e.SetRunningConfig(config)
	case Startup:
		e.SetStartupConfig(config)
	default:
		return util.NewValidationError("invalid datastore '%s'", ds)
	}
	return nil
}

// Metadata returns a deep copy of the stub metadata.
func (e *Entity) Metadata() map[string]interface{} {
	return copyMetadata(e.metadata)
}

// SetMetadata replaces the stub metadata with a copy of value.
func (e *Entity) SetMetadata(value map[string]interface{}) {
	e.metadata = copyMetadata(value)
}

func copyMetadata(value map[string]interface{}) map[string]interface{} {
	if value == nil {
		return map[string]interface{}{}
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		// Metadata arrives from JSON bodies and YAML descriptors; both
		// decode into marshalable values.
		return map[string]interface{}{}
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(encoded, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// SnmpTable returns a copy of the stub's SNMP table.
func (e *Entity) SnmpTable() *snmp.Table {
	return e.snmpTable.Copy()
}

// SaveSnmpObject inserts or replaces one SNMP object.
func (e *Entity) SaveSnmpObject(obj snmp.Object) error {
	return e.snmpTable.Save(obj)
}

// DeleteSnmpObject removes the object at oid.
func (e *Entity) DeleteSnmpObject(oid string) {
	e.snmpTable.Delete(oid)
}

// ClearSnmpTable removes every SNMP object.
func (e *Entity) ClearSnmpTable() {
	e.snmpTable = snmp.NewTable()
}

// Copy returns a deep copy of the stub.
func (e *Entity) Copy() *Entity {
	return &Entity{
		ID:          e.ID,
		Description: e.Description,
		Handler:     e.Handler,
		Yang:        e.Yang,
		Enabled:     e.Enabled,
		candidate:   e.candidate.Copy(),
		running:     e.running.Copy(),
		startup:     e.startup.Copy(),
		metadata:    copyMetadata(e.metadata),
		snmpTable:   e.snmpTable.Copy(),
	}
}

// Commit copies the candidate datastore over the running datastore.
func (e *Entity) Commit() {
	e.running = e.CandidateConfig()
}

// DiscardChanges copies the running datastore over the candidate datastore.
func (e *Entity) DiscardChanges() {
	e.candidate = e.RunningConfig()
}

// ValidateConfig checks a datastore, or an inline config when ds is "",
// against the schema tree. Exactly one of the two sources must be given.
func (e *Entity) ValidateConfig(tree *yangtree.Entity, ds Datastore, config *xmltree.Element) error {
	if (ds == "") == (config == nil) {
		return util.NewValidationError("either a datastore or an inline config must be given")
	}

	target := config
	if ds != "" {
		var err error
		target, err = e.datastore(ds)
		if err != nil {
			return err
		}
	}
	if err := tree.Tree.Validate(target); err != nil {
		return util.NewValidationError("%v", err)
	}
	return nil
}
