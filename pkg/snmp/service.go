package snmp

import (
	"github.com/netmimic/netmimic/pkg/util"
)

// PDUType tags the SNMP request kind at the protocol boundary.
type PDUType string

const (
	PDUGet     PDUType = "GET"
	PDUGetNext PDUType = "GET_NEXT"
	PDUGetBulk PDUType = "GET_BULK"
)

// Service walks a stub's SNMP table. A fresh service is constructed per
// dispatched request.
type Service struct{}

// NewService creates a walker service.
func NewService() *Service {
	return &Service{}
}

// Execute runs one PDU against the table and returns the response
// variable bindings.
func (s *Service) Execute(table *Table, pduType PDUType, objects []Object, nonRepeaters, maxRepetitions int) ([]Object, error) {
	switch pduType {
	case PDUGet:
		return s.Get(table, objects)
	case PDUGetNext:
		return s.GetNext(table, objects)
	case PDUGetBulk:
		return s.GetBulk(table, objects, nonRepeaters, maxRepetitions)
	}
	return nil, util.NewFatalError("invalid pdu type '%s'", pduType)
}

// Get resolves each requested OID exactly. An empty table yields
// NO_SUCH_OBJECT; a populated table missing the OID yields NO_SUCH_INSTANCE.
func (s *Service) Get(table *Table, objects []Object) ([]Object, error) {
	out := make([]Object, 0, len(objects))
	for _, req := range objects {
		if _, err := ParseOID(req.OID); err != nil {
			return nil, err
		}
		obj, ok := table.Get(req.OID)
		if ok {
			out = append(out, obj)
			continue
		}
		missing := TypeNoSuchInstance
		if table.Len() == 0 {
			missing = TypeNoSuchObject
		}
		out = append(out, Object{OID: req.OID, Type: missing, Value: nil})
	}
	return out, nil
}

// GetNext returns, per requested OID, the stored object with the smallest
// strictly greater OID, or END_OF_MIB_VIEW when none exists.
func (s *Service) GetNext(table *Table, objects []Object) ([]Object, error) {
	sorted := table.List()
	out := make([]Object, 0, len(objects))
	for _, req := range objects {
		next, err := nextAfter(sorted, req.OID)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
	}
	return out, nil
}

// GetBulk performs one GET-NEXT for the first min(nonRepeaters, len)
// variables, then chains GET-NEXT up to maxRepetitions times for each
// remaining variable, concatenating results in order.
func (s *Service) GetBulk(table *Table, objects []Object, nonRepeaters, maxRepetitions int) ([]Object, error) {
	if nonRepeaters < 0 || maxRepetitions < 0 {
		return nil, util.NewValidationError(
			"invalid get-bulk parameters: non_repeaters=%d max_repetitions=%d", nonRepeaters, maxRepetitions)
	}
	sorted := table.List()
	var out []Object
	for i, req := range objects {
		if i < nonRepeaters {
			next, err := nextAfter(sorted, req.OID)
			if err != nil {
				return nil, err
			}
			out = append(out, next)
			continue
		}
		oid := req.OID
		for r := 0; r < maxRepetitions; r++ {
			next, err := nextAfter(sorted, oid)
			if err != nil {
				return nil, err
			}
			out = append(out, next)
			oid = next.OID
		}
	}
	return out, nil
}

func nextAfter(sorted []Object, oid string) (Object, error) {
	parsed, err := ParseOID(oid)
	if err != nil {
		return Object{}, err
	}
	for _, obj := range sorted {
		candidate, err := ParseOID(obj.OID)
		if err != nil {
			continue
		}
		if CompareOID(candidate, parsed) > 0 {
			return obj, nil
		}
	}
	return Object{OID: oid, Type: TypeEndOfMibView, Value: nil}, nil
}
