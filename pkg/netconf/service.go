package netconf

import (
	"github.com/netmimic/netmimic/pkg/stub"
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/xmltree"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

// Service executes rpc messages against one stub. A fresh service is
// built per dispatched request, bound to the session and the current
// schema trees.
type Service struct {
	sessionID int
	yangs     *yangtree.Repository
}

// NewService binds a service to a session id and a schema repository.
func NewService(sessionID int, yangs *yangtree.Repository) *Service {
	return &Service{sessionID: sessionID, yangs: yangs}
}

// Hello builds the server hello for this session.
func (s *Service) Hello(capabilities []string) *xmltree.Element {
	if len(capabilities) == 0 {
		capabilities = DefaultCapabilities
	}
	return NewHello(s.sessionID, capabilities)
}

// Execute dispatches one rpc and returns the rpc-reply. Operation
// failures come back as rpc-error replies; a malformed rpc or an
// unsupported operation is an error for the caller.
func (s *Service) Execute(e *stub.Entity, rpc *xmltree.Element) (*xmltree.Element, error) {
	messageID, err := MessageID(rpc)
	if err != nil {
		return nil, err
	}
	operation, err := ProtocolOperation(rpc)
	if err != nil {
		return nil, err
	}

	switch operation {
	case "get-config":
		ds, err := sourceDatastore(rpc, "get-config")
		if err != nil {
			return nil, err
		}
		return s.GetConfig(messageID, e, ds, findPath(rpc, "get-config", "filter")), nil

	case "get":
		return s.Get(messageID, e, findPath(rpc, "get", "filter")), nil

	case "validate":
		ds, config, err := validateSource(rpc)
		if err != nil {
			return nil, err
		}
		return s.Validate(messageID, e, ds, config), nil

	case "lock":
		return NewOKReply(messageID), nil

	case "unlock":
		return NewOKReply(messageID), nil

	case "edit-config":
		ds, err := targetDatastore(rpc, "edit-config")
		if err != nil {
			return nil, err
		}
		config := findPath(rpc, "edit-config", "config")
		if config == nil {
			return nil, util.NewValidationError("edit-config has no config element")
		}
		defaultOperation := stub.OpMerge
		if el := findPath(rpc, "edit-config", "default-operation"); el != nil {
			defaultOperation = stub.Operation(el.Text)
		}
		return s.EditConfig(messageID, e, ds, config, defaultOperation), nil

	case "discard-changes":
		return s.DiscardChanges(messageID, e), nil

	case "commit":
		return s.Commit(messageID, e), nil
	}
	return nil, util.NewValidationError("'%s' is not supported", operation)
}

// GetConfig serves get-config over the chosen datastore, with an
// optional subtree filter.
func (s *Service) GetConfig(messageID string, e *stub.Entity, ds stub.Datastore, filter *xmltree.Element) *xmltree.Element {
	tree, err := s.yangs.Get(e.Yang)
	if err != nil {
		return NewErrorReply(messageID, err.Error())
	}

	config, err := e.GetConfig(ds, tree, filter)
	if err != nil {
		util.Errorf("get-config on stub '%s' failed: %v", e.ID, err)
		return NewErrorReply(messageID, err.Error())
	}
	return NewRPCReply(messageID, wrapData(config))
}

// Get serves get: the running datastore with an optional subtree filter.
func (s *Service) Get(messageID string, e *stub.Entity, filter *xmltree.Element) *xmltree.Element {
	return s.GetConfig(messageID, e, stub.Running, filter)
}

// EditConfig applies a config fragment and replies ok, or rpc-error with
// the datastore untouched.
func (s *Service) EditConfig(messageID string, e *stub.Entity, ds stub.Datastore, config *xmltree.Element, defaultOperation stub.Operation) *xmltree.Element {
	tree, err := s.yangs.Get(e.Yang)
	if err != nil {
		return NewErrorReply(messageID, err.Error())
	}

	if err := e.EditConfig(ds, config, tree, defaultOperation); err != nil {
		util.Errorf("edit-config on stub '%s' failed: %v", e.ID, err)
		return NewErrorReply(messageID, err.Error())
	}
	return NewOKReply(messageID)
}

// Validate checks a datastore, or an inline config when ds is empty.
func (s *Service) Validate(messageID string, e *stub.Entity, ds stub.Datastore, config *xmltree.Element) *xmltree.Element {
	tree, err := s.yangs.Get(e.Yang)
	if err != nil {
		return NewErrorReply(messageID, err.Error())
	}

	if err := e.ValidateConfig(tree, ds, config); err != nil {
		return NewErrorReply(messageID, err.Error())
	}
	return NewOKReply(messageID)
}

// Commit copies candidate over running.
func (s *Service) Commit(messageID string, e *stub.Entity) *xmltree.Element {
	if _, err := s.yangs.Get(e.Yang); err != nil {
		return NewErrorReply(messageID, err.Error())
	}
	e.Commit()
	return NewOKReply(messageID)
}

// DiscardChanges copies running over candidate.
func (s *Service) DiscardChanges(messageID string, e *stub.Entity) *xmltree.Element {
	if _, err := s.yangs.Get(e.Yang); err != nil {
		return NewErrorReply(messageID, err.Error())
	}
	e.DiscardChanges()
	return NewOKReply(messageID)
}

// wrapData puts a datastore root's content under <data>.
func wrapData(config *xmltree.Element) *xmltree.Element {
	data := xmltree.New(BaseNamespace, "data")
	if children := config.Children(); len(children) > 0 {
		data.Append(children[0])
	}
	return data
}

// findPath walks children by local name, nil when any segment is missing.
func findPath(el *xmltree.Element, names ...string) *xmltree.Element {
	for _, name := range names {
		if el = el.FindChild(name); el == nil {
			return nil
		}
	}
	return el
}

func sourceDatastore(rpc *xmltree.Element, operation string) (stub.Datastore, error) {
	for _, ds := range []stub.Datastore{stub.Candidate, stub.Running, stub.Startup} {
		if findPath(rpc, operation, "source", string(ds)) != nil {
			return ds, nil
		}
	}
	return "", util.NewValidationError("%s has no valid source datastore", operation)
}

func targetDatastore(rpc *xmltree.Element, operation string) (stub.Datastore, error) {
	// startup is not a writable target here, matching the device behavior
	// the simulator mimics.
	for _, ds := range []stub.Datastore{stub.Candidate, stub.Running} {
		if findPath(rpc, operation, "target", string(ds)) != nil {
			return ds, nil
		}
	}
	return "", util.NewValidationError("%s has no valid target datastore", operation)
}

func validateSource(rpc *xmltree.Element) (stub.Datastore, *xmltree.Element, error) {
	if ds, err := sourceDatastore(rpc, "validate"); err == nil {
		return ds, nil, nil
	}
	if config := findPath(rpc, "validate", "source", "config"); config != nil {
		return "", config, nil
	}
	return "", nil, util.NewValidationError("validate has no valid source")
}
