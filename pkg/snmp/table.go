package snmp

import (
	"encoding/json"
	"sort"

	"github.com/netmimic/netmimic/pkg/util"
)

// Type tags an SNMP value. The tags travel unchanged through the JSON
// protocol boundary.
type Type string

const (
	TypeOctetString      Type = "OCTET_STRING"
	TypeInteger          Type = "INTEGER"
	TypeCounter32        Type = "COUNTER32"
	TypeCounter64        Type = "COUNTER64"
	TypeGauge32          Type = "GAUGE32"
	TypeTimeTicks        Type = "TIMETICKS"
	TypeObjectIdentifier Type = "OBJECT_IDENTIFIER"
	TypeNull             Type = "NULL"
	TypeIPAddress        Type = "IP_ADDRESS"
	TypeNoSuchObject     Type = "NO_SUCH_OBJECT"
	TypeNoSuchInstance   Type = "NO_SUCH_INSTANCE"
	TypeEndOfMibView     Type = "END_OF_MIB_VIEW"
)

var validTypes = map[Type]bool{
	TypeOctetString:      true,
	TypeInteger:          true,
	TypeCounter32:        true,
	TypeCounter64:        true,
	TypeGauge32:          true,
	TypeTimeTicks:        true,
	TypeObjectIdentifier: true,
	TypeNull:             true,
	TypeIPAddress:        true,
	TypeNoSuchObject:     true,
	TypeNoSuchInstance:   true,
	TypeEndOfMibView:     true,
}

// CheckType rejects type tags outside the supported set.
func CheckType(t Type) error {
	if t == "" {
		return nil
	}
	if !validTypes[t] {
		return util.NewFatalError("invalid snmp type '%s'", t)
	}
	return nil
}

// Object is one variable binding: an OID with its typed value.
type Object struct {
	OID   string      `json:"oid"`
	Type  Type        `json:"type"`
	Value interface{} `json:"value"`
}

// Table holds a stub's SNMP objects keyed by OID. Listing returns the
// objects in component-wise ascending OID order.
type Table struct {
	objects map[string]Object
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{objects: map[string]Object{}}
}

// Save inserts or replaces an object. The OID and type tag are validated.
func (t *Table) Save(obj Object) error {
	if _, err := ParseOID(obj.OID); err != nil {
		return err
	}
	if err := CheckType(obj.Type); err != nil {
		return err
	}
	if t.objects == nil {
		t.objects = map[string]Object{}
	}
	t.objects[obj.OID] = obj
	return nil
}

// Get returns the object stored at exactly oid.
func (t *Table) Get(oid string) (Object, bool) {
	obj, ok := t.objects[oid]
	return obj, ok
}

// Delete removes the object at oid. Missing OIDs are ignored.
func (t *Table) Delete(oid string) {
	delete(t.objects, oid)
}

// Len returns the number of stored objects.
func (t *Table) Len() int {
	return len(t.objects)
}

// List returns all objects in ascending OID order.
func (t *Table) List() []Object {
	type entry struct {
		parsed []uint64
		obj    Object
	}
	entries := make([]entry, 0, len(t.objects))
	for _, obj := range t.objects {
		parsed, err := ParseOID(obj.OID)
		if err != nil {
			// Save validated the OID; unreachable unless the table was
			// populated through deserialization of corrupt data.
			continue
		}
		entries = append(entries, entry{parsed: parsed, obj: obj})
	}
	sort.Slice(entries, func(i, j int) bool {
		return CompareOID(entries[i].parsed, entries[j].parsed) < 0
	})
	out := make([]Object, len(entries))
	for i, e := range entries {
		out[i] = e.obj
	}
	return out
}

// Copy returns an independent copy of the table. Values are deep-copied
// so slice or map values never alias between the copies.
func (t *Table) Copy() *Table {
	dup := NewTable()
	for oid, obj := range t.objects {
		obj.Value = copyValue(obj.Value)
		dup.objects[oid] = obj
	}
	return dup
}

func copyValue(value interface{}) interface{} {
	switch value.(type) {
	case nil, string, bool, int, int64, uint64, float64, json.Number:
		return value
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var out interface{}
	if err := json.Unmarshal(encoded, &out); err != nil {
		return value
	}
	return out
}

// MarshalJSON encodes the table as an ordered object list.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.List())
}

// UnmarshalJSON decodes an object list produced by MarshalJSON.
func (t *Table) UnmarshalJSON(data []byte) error {
	var objects []Object
	if err := json.Unmarshal(data, &objects); err != nil {
		return err
	}
	t.objects = map[string]Object{}
	for _, obj := range objects {
		if err := t.Save(obj); err != nil {
			return err
		}
	}
	return nil
}
