package stub

import (
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/xmltree"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

// GetConfig returns a copy of the datastore with annotation attributes
// stripped. A non-nil subtree filter selects the visible portion first;
// filtering requires the stub's schema tree.
func (e *Entity) GetConfig(ds Datastore, tree *yangtree.Entity, filter *xmltree.Element) (*xmltree.Element, error) {
	target, err := e.datastore(ds)
	if err != nil {
		return nil, err
	}

	if filter != nil {
		if tree == nil {
			return nil, util.NewValidationError("a yang tree is required for subtree filtering")
		}
		if err := filterConfig(tree.Tree.Root(), target, filter.Copy()); err != nil {
			return nil, err
		}
	}

	target.DelAttrRecursive("node_type")
	target.DelAttrRecursive("choice_ids")
	return target, nil
}

const visibleAttr = "_visible"

func filterConfig(root *yangtree.Node, target, filter *xmltree.Element) error {
	if err := setVisibleFlags(root, target, filter); err != nil {
		return err
	}
	propagateVisibility(target)
	deleteInvisible(target)
	target.DelAttrRecursive(visibleAttr)
	return nil
}

func markVisible(el *xmltree.Element) {
	el.SetAttr(visibleAttr, "true")
}

func isVisible(el *xmltree.Element) bool {
	_, ok := el.Attr(visibleAttr)
	return ok
}

// setVisibleFlags walks the filter against the schema and the target,
// marking selected elements.
func setVisibleFlags(parentNode *yangtree.Node, parentTarget, parentFilter *xmltree.Element) error {
	for _, filter := range parentFilter.Children() {
		node, err := parentNode.Child(filter.Tag)
		if err != nil {
			return err
		}

		switch node.Kind() {
		case "container":
			target := parentTarget.FindChild(filter.Tag)
			if target == nil {
				continue
			}
			if len(filter.Children()) == 0 {
				markVisible(target)
			} else if err := setVisibleFlags(node, target, filter); err != nil {
				return err
			}

		case "list":
			if err := filterList(node, parentTarget, filter); err != nil {
				return err
			}

		case "leaf-list":
			target := parentTarget.FindChild(filter.Tag)
			if target == nil {
				continue
			}
			if filter.Text != "" {
				return util.NewValidationError("text is forbidden for a leaf-list node filter")
			}
			markVisible(target)

		case "leaf":
			target := parentTarget.FindChild(filter.Tag)
			if target == nil {
				continue
			}
			if filter.Text == "" || filter.Text == target.Text {
				markVisible(target)
			}
		}
	}
	return nil
}

func filterList(node *yangtree.Node, parentTarget, filter *xmltree.Element) error {
	items := parentTarget.FindChildren(filter.Tag)
	if len(items) == 0 {
		return nil
	}

	if len(filter.Children()) == 0 {
		for _, item := range items {
			markVisible(item)
		}
		return nil
	}

	keys, err := node.Keys()
	if err != nil {
		return err
	}
	keySet := map[string]bool{}
	for _, key := range keys {
		keySet[key] = true
	}

	// A key filter carrying text is a match node; keys without text are
	// selection nodes.
	matchMode := false
	for _, key := range keys {
		if filterKey := filter.FindChild(key); filterKey != nil && filterKey.Text != "" {
			matchMode = true
			break
		}
	}

	var nonKeyFilters []*xmltree.Element
	for _, child := range filter.Children() {
		if !keySet[child.Tag] {
			nonKeyFilters = append(nonKeyFilters, child)
		}
	}

	if matchMode {
		var matched []*xmltree.Element
		for _, item := range items {
			match := true
			for _, key := range keys {
				filterKey := filter.FindChild(key)
				if filterKey == nil {
					continue
				}
				itemKey := item.FindChild(key)
				if itemKey == nil || itemKey.Text != filterKey.Text {
					match = false
					break
				}
			}
			if match {
				matched = append(matched, item)
			}
		}

		switch len(matched) {
		case 0:
			return nil
		case 1:
		default:
			return util.NewFatalError("list nodes with same keys exist")
		}
		item := matched[0]

		if len(nonKeyFilters) == 0 {
			// Only keys in the filter: the whole item is selected.
			for _, child := range item.Children() {
				markVisible(child)
			}
			return nil
		}
		return filterListItem(node, item, filter, keySet)
	}

	for _, item := range items {
		if len(nonKeyFilters) == 0 {
			if err := setVisibleFlags(node, item, filter); err != nil {
				return err
			}
			continue
		}
		if err := filterListItem(node, item, filter, keySet); err != nil {
			return err
		}
	}
	return nil
}

// filterListItem recurses into an item's non-key sub-filters. When none of
// the non-key children end up visible the item's marks are rolled back, so
// a failed content match hides the whole item instead of leaking its keys.
func filterListItem(node *yangtree.Node, item, filter *xmltree.Element, keySet map[string]bool) error {
	if err := setVisibleFlags(node, item, filter); err != nil {
		return err
	}

	visible := false
	for _, child := range item.Children() {
		if keySet[child.Tag] {
			continue
		}
		child.Walk(func(el *xmltree.Element) {
			if isVisible(el) {
				visible = true
			}
		})
		if visible {
			break
		}
	}

	if !visible {
		for _, child := range item.Children() {
			child.Walk(func(el *xmltree.Element) {
				el.DelAttr(visibleAttr)
			})
		}
	}
	return nil
}

// propagateVisibility extends marks downward to all descendants of a
// visible element and upward to all its ancestors.
func propagateVisibility(root *xmltree.Element) {
	var marked []*xmltree.Element
	root.Walk(func(el *xmltree.Element) {
		if isVisible(el) {
			marked = append(marked, el)
		}
	})
	for _, el := range marked {
		el.Walk(markVisible)
		for ancestor := el.Parent(); ancestor != nil; ancestor = ancestor.Parent() {
			markVisible(ancestor)
		}
	}
}

func deleteInvisible(root *xmltree.Element) {
	var invisible []*xmltree.Element
	for _, child := range root.Children() {
		child.Walk(func(el *xmltree.Element) {
			if !isVisible(el) {
				invisible = append(invisible, el)
			}
		})
	}
	for _, el := range invisible {
		el.Remove()
	}
}
