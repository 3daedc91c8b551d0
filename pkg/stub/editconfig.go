package stub

import (
	"encoding/json"

	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/xmltree"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

// Operation is a NETCONF edit-config operation, carried on the request
// element's operation attribute or supplied as the default.
type Operation string

const (
	OpMerge   Operation = "merge"
	OpReplace Operation = "replace"
	OpCreate  Operation = "create"
	OpDelete  Operation = "delete"
	OpRemove  Operation = "remove"
	OpNone    Operation = "none"
)

// EditConfig applies a configuration fragment to the target datastore.
// The fragment's root must carry one child; elements may override the
// default operation with an operation attribute. On any failure the
// datastore is left unchanged.
func (e *Entity) EditConfig(ds Datastore, config *xmltree.Element, tree *yangtree.Entity, defaultOperation Operation) error {
	switch defaultOperation {
	case OpMerge, OpReplace, OpNone:
	default:
		return NewEditConfigError("invalid default-operation '%s'", defaultOperation)
	}
	if tree.ID != e.Yang {
		return util.NewValidationError("yang tree must be '%s', got '%s'", e.Yang, tree.ID)
	}

	children := config.Children()
	if len(children) == 0 {
		return NewEditConfigError("config has no child element")
	}
	request := children[0].Copy()

	target, err := e.datastore(ds)
	if err != nil {
		return err
	}

	if err := editConfigRec(tree.Tree.Root(), target, request, defaultOperation); err != nil {
		return err
	}
	deleteEmptyContainers(target)

	return e.setDatastore(ds, target)
}

func editConfigRec(node *yangtree.Node, target, request *xmltree.Element, defaultOperation Operation) error {
	childNode, err := node.Child(request.Tag)
	if err != nil {
		return err
	}
	operation := Operation(request.AttrDefault("operation", string(defaultOperation)))

	choiceIDs, err := childNode.ChoiceIDs()
	if err != nil {
		return err
	}
	if len(choiceIDs) > 0 {
		if err := pruneConflictingCases(target, choiceIDs); err != nil {
			return err
		}
	}

	switch childNode.Kind() {
	case "container":
		return editContainer(childNode, target, request, operation, defaultOperation, choiceIDs)
	case "list":
		return editList(childNode, target, request, operation, defaultOperation, choiceIDs)
	case "leaf-list":
		return editLeafList(childNode, target, request, operation, choiceIDs)
	case "leaf":
		return editLeaf(childNode, target, request, operation, choiceIDs)
	}
	return util.NewFatalError("invalid node type '%s'", childNode.Kind())
}

// pruneConflictingCases removes existing children that belong to a
// different case of a choice the incoming node lies under.
func pruneConflictingCases(target *xmltree.Element, choiceIDs []yangtree.ChoiceID) error {
	for _, child := range target.Children() {
		attr, ok := child.Attr("choice_ids")
		if !ok || attr == "" {
			continue
		}
		existing, err := parseChoiceIDs(attr)
		if err != nil {
			return err
		}
		minLen := len(existing)
		if len(choiceIDs) < minLen {
			minLen = len(choiceIDs)
		}
		if !equalChoiceIDs(existing[:minLen], choiceIDs[:minLen]) {
			child.Remove()
		}
	}
	return nil
}

func equalChoiceIDs(a, b []yangtree.ChoiceID) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func parseChoiceIDs(attr string) ([]yangtree.ChoiceID, error) {
	var ids []yangtree.ChoiceID
	if err := json.Unmarshal([]byte(attr), &ids); err != nil {
		return nil, util.NewFatalError("invalid choice_ids attribute '%s'", attr)
	}
	return ids, nil
}

func annotate(el *xmltree.Element, nodeType string, choiceIDs []yangtree.ChoiceID) error {
	el.SetAttr("node_type", nodeType)
	if len(choiceIDs) > 0 {
		encoded, err := json.Marshal(choiceIDs)
		if err != nil {
			return util.NewFatalError("encoding choice ids: %v", err)
		}
		el.SetAttr("choice_ids", string(encoded))
	}
	return nil
}

func editContainer(node *yangtree.Node, target, request *xmltree.Element, operation, defaultOperation Operation, choiceIDs []yangtree.ChoiceID) error {
	if operation == OpReplace {
		for _, existing := range target.FindChildren(request.Tag) {
			existing.Remove()
		}
	}

	existing := target.FindChildren(request.Tag)

	switch operation {
	case OpCreate, OpMerge, OpReplace, OpNone:
		var container *xmltree.Element
		if len(existing) == 0 {
			container = target.NewChild(node.Namespace(), request.Tag)
			if err := annotate(container, "container", choiceIDs); err != nil {
				return err
			}
		} else {
			if operation == OpCreate {
				return NewEditConfigError("'%s' already exists", request.Path())
			}
			container = existing[0]
		}
		for _, child := range request.Children() {
			if err := editConfigRec(node, container, child, defaultOperation); err != nil {
				return err
			}
		}
		return nil

	case OpDelete, OpRemove:
		if len(existing) == 0 {
			if operation == OpRemove {
				return nil
			}
			return NewEditConfigError("'%s' does not exist", request.Path())
		}
		existing[0].Remove()
		return nil
	}
	return NewEditConfigError("invalid operation '%s'", operation)
}

func editList(node *yangtree.Node, target, request *xmltree.Element, operation, defaultOperation Operation, choiceIDs []yangtree.ChoiceID) error {
	if operation == OpReplace {
		for _, existing := range target.FindChildren(request.Tag) {
			existing.Remove()
		}
	}

	if (operation == OpDelete || operation == OpRemove) && len(request.Children()) == 0 {
		// No keys given: the whole list goes.
		items := target.FindChildren(request.Tag)
		if len(items) == 0 {
			if operation == OpRemove {
				return nil
			}
			return NewEditConfigError("'%s' does not exist", request.Tag)
		}
		for _, item := range items {
			item.Remove()
		}
		return nil
	}

	keys, err := node.Keys()
	if err != nil {
		return err
	}

	keyValues := map[string]string{}
	for _, key := range keys {
		reqKey := request.FindChild(key)
		if reqKey == nil {
			return NewEditConfigError("'%s' must have key '%s'", request.Path(), key)
		}
		keyValues[key] = reqKey.Text
	}

	var matched []*xmltree.Element
	for _, item := range target.FindChildren(request.Tag) {
		match := true
		for _, key := range keys {
			itemKey := item.FindChild(key)
			if itemKey == nil || itemKey.Text != keyValues[key] {
				match = false
				break
			}
		}
		if match {
			matched = append(matched, item)
		}
	}

	switch operation {
	case OpCreate, OpMerge, OpReplace, OpNone:
		var item *xmltree.Element
		switch len(matched) {
		case 0:
			item = target.NewChild(node.Namespace(), request.Tag)
			if err := annotate(item, "list", choiceIDs); err != nil {
				return err
			}
		case 1:
			if operation == OpCreate {
				return NewEditConfigError("'%s' already exists", request.Path())
			}
			item = matched[0]
		default:
			return util.NewFatalError("list nodes with same keys exist")
		}
		for _, child := range request.Children() {
			if err := editConfigRec(node, item, child, defaultOperation); err != nil {
				return err
			}
		}
		return nil

	case OpDelete, OpRemove:
		if len(matched) == 0 {
			if operation == OpRemove {
				return nil
			}
			return NewEditConfigError("'%s' does not exist", request.Path())
		}
		matched[0].Remove()
		return nil
	}
	return NewEditConfigError("invalid operation '%s'", operation)
}

func editLeafList(node *yangtree.Node, target, request *xmltree.Element, operation Operation, choiceIDs []yangtree.ChoiceID) error {
	findEntry := func() *xmltree.Element {
		for _, entry := range target.FindChildren(request.Tag) {
			if entry.Text == request.Text {
				return entry
			}
		}
		return nil
	}

	switch operation {
	case OpCreate, OpMerge, OpReplace, OpNone:
		if existing := findEntry(); existing != nil {
			if operation == OpCreate {
				return NewEditConfigError("'%s' already exists", request.Path())
			}
			existing.Remove()
		}
		entry := target.NewChild(node.Namespace(), request.Tag)
		if err := annotate(entry, "leaf-list", choiceIDs); err != nil {
			return err
		}
		entry.Text = request.Text
		return nil

	case OpDelete, OpRemove:
		existing := findEntry()
		if existing == nil {
			if operation == OpRemove {
				return nil
			}
			return NewEditConfigError("'%s %s' does not exist", request.Path(), request.Text)
		}
		existing.Remove()
		return nil
	}
	return NewEditConfigError("invalid operation '%s'", operation)
}

func editLeaf(node *yangtree.Node, target, request *xmltree.Element, operation Operation, choiceIDs []yangtree.ChoiceID) error {
	switch operation {
	case OpCreate, OpMerge, OpReplace, OpNone:
		if existing := target.FindChild(request.Tag); existing != nil {
			if operation == OpCreate {
				return NewEditConfigError("'%s' already exists", request.Path())
			}
			existing.Remove()
		}
		leaf := target.NewChild(node.Namespace(), request.Tag)
		if err := annotate(leaf, "leaf", choiceIDs); err != nil {
			return err
		}
		leaf.Text = request.Text
		return nil

	case OpDelete, OpRemove:
		if request.Text != "" {
			return NewEditConfigError("'%s' must not have text '%s' for a delete operation", request.Path(), request.Text)
		}
		existing := target.FindChild(request.Tag)
		if existing == nil {
			if operation == OpRemove {
				return nil
			}
			return NewEditConfigError("'%s' does not exist", request.Path())
		}
		existing.Remove()
		return nil
	}
	return NewEditConfigError("invalid operation '%s'", operation)
}

// deleteEmptyContainers prunes every container element with no remaining
// leaf or leaf-list descendant.
func deleteEmptyContainers(root *xmltree.Element) {
	var empty []*xmltree.Element
	root.Walk(func(el *xmltree.Element) {
		if el.AttrDefault("node_type", "") != "container" {
			return
		}
		hasData := false
		el.Walk(func(descendant *xmltree.Element) {
			switch descendant.AttrDefault("node_type", "") {
			case "leaf", "leaf-list":
				hasData = true
			}
		})
		if !hasData {
			empty = append(empty, el)
		}
	})
	for _, el := range empty {
		el.Remove()
	}
}
