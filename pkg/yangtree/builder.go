package yangtree

import (
	"regexp"
	"sort"
	"strings"

	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/xmltree"
)

// Builder assembles a schema tree from a set of YANG module texts.
type Builder struct {
	names   []string
	yangMap map[string]string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{yangMap: map[string]string{}}
}

// AddModule registers one YANG source. The module name is the filename up
// to the first '.' or '@' (revision filenames like foo@2020-01-01.yang
// resolve to foo).
func (b *Builder) AddModule(filename, text string) {
	name := strings.SplitN(filename, ".", 2)[0]
	name = strings.SplitN(name, "@", 2)[0]
	if _, ok := b.yangMap[name]; !ok {
		b.names = append(b.names, name)
	}
	b.yangMap[name] = text
}

// Build parses every registered module, emits the normalized schema tree,
// and applies the augment phase. Submodules contribute through their
// parent module and produce no module node of their own.
func (b *Builder) Build() (*Tree, error) {
	yinMap := map[string]*xmltree.Element{}
	for _, name := range b.names {
		util.Infof("parsing yang module '%s'", name)
		yin, err := parseModule(name, b.yangMap[name])
		if err != nil {
			return nil, err
		}
		yinMap[name] = yin
	}

	util.Info("building yang tree")

	root := xmltree.New("", "root")
	for _, name := range b.names {
		yin := yinMap[name]
		if yin.Tag == "submodule" {
			continue
		}

		namespace, err := moduleNamespace(yin, yinMap)
		if err != nil {
			return nil, err
		}
		moduleEl := root.NewChild(namespace, "module")
		moduleEl.SetAttr("name", name)
		if err := buildRec(namespace, yinMap, yin, moduleEl); err != nil {
			return nil, err
		}
	}

	if err := buildAugment(root); err != nil {
		return nil, err
	}

	return &Tree{xml: root}, nil
}

// buildRec walks the statements under parentYin and emits schema nodes
// under parentSchema. The namespace is the emitting module's; grouping
// expansion keeps the using module's namespace.
func buildRec(namespace string, yinMap map[string]*xmltree.Element, parentYin, parentSchema *xmltree.Element) error {
	docRoot := documentRoot(parentYin)

	for _, stmt := range parentYin.Children() {
		switch stmt.Tag {
		case "include":
			name, _ := stmt.Attr("module")
			sub, ok := yinMap[name]
			if !ok {
				return NewBuildError("submodule '%s' is not registered", name)
			}
			if err := buildRec(namespace, yinMap, sub, parentSchema); err != nil {
				return err
			}

		case "leaf", "leaf-list":
			parent := wrapWithCase(parentSchema, stmt, namespace)
			createNode(parent, stmt.Tag, attrName(stmt), namespace)

		case "container", "choice":
			parent := wrapWithCase(parentSchema, stmt, namespace)
			node := createNode(parent, stmt.Tag, attrName(stmt), namespace)
			if err := buildRec(namespace, yinMap, stmt, node); err != nil {
				return err
			}

		case "list":
			parent := wrapWithCase(parentSchema, stmt, namespace)
			node := createNode(parent, "list", attrName(stmt), namespace)
			if keyStmt := stmt.FindChild("key"); keyStmt != nil {
				keyEl := node.NewChild(namespace, "key")
				keyEl.SetAttr("value", keyStmt.AttrDefault("value", ""))
			}
			if err := buildRec(namespace, yinMap, stmt, node); err != nil {
				return err
			}

		case "case":
			node := createNode(parentSchema, "case", attrName(stmt), namespace)
			if err := buildRec(namespace, yinMap, stmt, node); err != nil {
				return err
			}

		case "augment":
			el := parentSchema.NewChild(namespace, "augment")
			target, _ := stmt.Attr("target-node")
			resolved, err := resolveTargetNode(target, namespace, docRoot, yinMap)
			if err != nil {
				return err
			}
			el.SetAttr("target-node", resolved)
			if err := buildRec(namespace, yinMap, stmt, el); err != nil {
				return err
			}

		case "uses":
			grouping, err := resolveGrouping(stmt, docRoot, yinMap)
			if err != nil {
				return err
			}
			if err := buildRec(namespace, yinMap, grouping, parentSchema); err != nil {
				return err
			}
			// A uses statement may carry its own augments.
			if err := buildRec(namespace, yinMap, stmt, parentSchema); err != nil {
				return err
			}
		}
	}
	return nil
}

func attrName(el *xmltree.Element) string {
	return el.AttrDefault("name", "")
}

func createNode(parent *xmltree.Element, tag, name, namespace string) *xmltree.Element {
	el := parent.NewChild(namespace, tag)
	el.SetAttr("name", name)
	return el
}

// wrapWithCase synthesizes a case node when a data node appears directly
// under a choice. The case is named after the wrapped node.
func wrapWithCase(parentSchema, stmt *xmltree.Element, namespace string) *xmltree.Element {
	if parentSchema.Tag != "choice" {
		return parentSchema
	}
	caseEl := parentSchema.NewChild(namespace, "case")
	caseEl.SetAttr("name", attrName(stmt))
	return caseEl
}

func documentRoot(el *xmltree.Element) *xmltree.Element {
	root := el
	for root.Parent() != nil {
		root = root.Parent()
	}
	return root
}

// resolveGrouping locates the grouping a uses statement refers to:
// lexically enclosing scopes first, then submodules of the current module
// (or of its parent when the current document is a submodule), then the
// module named by the uses prefix together with its submodules.
func resolveGrouping(uses, docRoot *xmltree.Element, yinMap map[string]*xmltree.Element) (*xmltree.Element, error) {
	ref := uses.AttrDefault("name", "")
	segments := strings.Split(ref, ":")

	prefix, err := modulePrefix(docRoot)
	if err != nil {
		return nil, err
	}

	var targetPrefix, groupingName string
	switch len(segments) {
	case 1:
		targetPrefix = prefix
		groupingName = segments[0]
	case 2:
		targetPrefix = segments[0]
		groupingName = segments[1]
	default:
		return nil, NewBuildError("invalid uses statement 'uses %s'", ref)
	}

	if targetPrefix == prefix {
		for scope := uses; scope != nil; scope = scope.Parent() {
			if g := findGrouping(scope, groupingName); g != nil {
				return g, nil
			}
		}

		var candidates []*xmltree.Element
		if docRoot.Tag == "module" {
			candidates, err = submodules(docRoot, yinMap)
		} else {
			var parent *xmltree.Element
			parent, err = parentModule(docRoot, yinMap)
			if err == nil {
				candidates, err = submodules(parent, yinMap)
			}
		}
		if err != nil {
			return nil, err
		}
		for _, candidate := range candidates {
			if g := findGrouping(candidate, groupingName); g != nil {
				return g, nil
			}
		}
	}

	targetModuleName, err := moduleNameByPrefix(docRoot, targetPrefix)
	if err != nil {
		return nil, err
	}
	targetModule, ok := yinMap[targetModuleName]
	if !ok {
		return nil, NewBuildError("module '%s' is not registered", targetModuleName)
	}
	targetSubmodules, err := submodules(targetModule, yinMap)
	if err != nil {
		return nil, err
	}
	for _, candidate := range append([]*xmltree.Element{targetModule}, targetSubmodules...) {
		if g := findGrouping(candidate, groupingName); g != nil {
			return g, nil
		}
	}

	return nil, NewBuildError("grouping '%s' not found for uses statement", groupingName)
}

func findGrouping(el *xmltree.Element, name string) *xmltree.Element {
	for _, child := range el.FindChildren("grouping") {
		if attrName(child) == name {
			return child
		}
	}
	return nil
}

// submodules resolves a module's include statements recursively.
func submodules(docRoot *xmltree.Element, yinMap map[string]*xmltree.Element) ([]*xmltree.Element, error) {
	var out []*xmltree.Element
	seen := map[*xmltree.Element]bool{}

	var collect func(el *xmltree.Element) error
	collect = func(el *xmltree.Element) error {
		for _, include := range el.FindChildren("include") {
			name, _ := include.Attr("module")
			sub, ok := yinMap[name]
			if !ok {
				return NewBuildError("submodule '%s' is not registered", name)
			}
			if seen[sub] {
				continue
			}
			seen[sub] = true
			out = append(out, sub)
			if err := collect(sub); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(docRoot); err != nil {
		return nil, err
	}
	return out, nil
}

func parentModuleName(docRoot *xmltree.Element) (string, error) {
	if docRoot.Tag != "submodule" {
		return "", NewBuildError("'%s' is not a submodule", attrName(docRoot))
	}
	belongsTo := docRoot.FindChild("belongs-to")
	if belongsTo == nil {
		return "", NewBuildError("submodule '%s' has no belongs-to statement", attrName(docRoot))
	}
	name, _ := belongsTo.Attr("module")
	return name, nil
}

func parentModule(docRoot *xmltree.Element, yinMap map[string]*xmltree.Element) (*xmltree.Element, error) {
	name, err := parentModuleName(docRoot)
	if err != nil {
		return nil, err
	}
	parent, ok := yinMap[name]
	if !ok {
		return nil, NewBuildError("module '%s' is not registered", name)
	}
	return parent, nil
}

// moduleNamespace resolves a module's namespace URI. Submodules inherit
// the namespace of the module they belong to.
func moduleNamespace(docRoot *xmltree.Element, yinMap map[string]*xmltree.Element) (string, error) {
	target := docRoot
	if docRoot.Tag == "submodule" {
		parent, err := parentModule(docRoot, yinMap)
		if err != nil {
			return "", err
		}
		target = parent
	}
	nsEl := target.FindChild("namespace")
	if nsEl == nil {
		return "", NewBuildError("module '%s' has no namespace statement", attrName(target))
	}
	uri, _ := nsEl.Attr("uri")
	return uri, nil
}

func modulePrefix(docRoot *xmltree.Element) (string, error) {
	if docRoot.Tag == "module" {
		prefixEl := docRoot.FindChild("prefix")
		if prefixEl == nil {
			return "", NewBuildError("module '%s' has no prefix statement", attrName(docRoot))
		}
		return prefixEl.AttrDefault("value", ""), nil
	}
	belongsTo := docRoot.FindChild("belongs-to")
	if belongsTo == nil {
		return "", NewBuildError("submodule '%s' has no belongs-to statement", attrName(docRoot))
	}
	prefixEl := belongsTo.FindChild("prefix")
	if prefixEl == nil {
		return "", NewBuildError("submodule '%s' has no belongs-to prefix", attrName(docRoot))
	}
	return prefixEl.AttrDefault("value", ""), nil
}

// moduleNameByPrefix maps an import prefix to its module name. The
// module's own prefix maps to the module itself.
func moduleNameByPrefix(docRoot *xmltree.Element, prefix string) (string, error) {
	own, err := modulePrefix(docRoot)
	if err != nil {
		return "", err
	}
	if own == prefix {
		return attrName(docRoot), nil
	}
	for _, importStmt := range docRoot.FindChildren("import") {
		prefixEl := importStmt.FindChild("prefix")
		if prefixEl != nil && prefixEl.AttrDefault("value", "") == prefix {
			return importStmt.AttrDefault("module", ""), nil
		}
	}
	return "", NewBuildError("prefix '%s' is not imported by '%s'", prefix, attrName(docRoot))
}

// resolveTargetNode rewrites an augment target path into fully-qualified
// {namespace}local segments using the current module's prefix bindings.
func resolveTargetNode(target, defaultNamespace string, docRoot *xmltree.Element, yinMap map[string]*xmltree.Element) (string, error) {
	prefixMap := map[string]string{}

	defaultPrefix, err := modulePrefix(docRoot)
	if err != nil {
		return "", err
	}
	prefixMap[defaultPrefix] = defaultNamespace

	for _, importStmt := range docRoot.FindChildren("import") {
		prefixEl := importStmt.FindChild("prefix")
		if prefixEl == nil {
			continue
		}
		moduleName := importStmt.AttrDefault("module", "")
		imported, ok := yinMap[moduleName]
		if !ok {
			return "", NewBuildError("module '%s' is not registered", moduleName)
		}
		namespace, err := moduleNamespace(imported, yinMap)
		if err != nil {
			return "", err
		}
		prefixMap[prefixEl.AttrDefault("value", "")] = namespace
	}

	segments := strings.Split(target, "/")
	resolved := make([]string, len(segments))
	for i, segment := range segments {
		if segment == "" {
			resolved[i] = ""
			continue
		}
		parts := strings.SplitN(segment, ":", 2)
		var namespace, name string
		if len(parts) == 1 {
			namespace = defaultNamespace
			name = parts[0]
		} else {
			ns, ok := prefixMap[parts[0]]
			if !ok {
				return "", NewBuildError("prefix '%s' in augment target '%s' is not imported", parts[0], target)
			}
			namespace = ns
			name = parts[1]
		}
		resolved[i] = "{" + namespace + "}" + name
	}
	return strings.Join(resolved, "/"), nil
}

var targetSegmentRe = regexp.MustCompile(`\{.+?\}[^/]+`)
var segmentPartsRe = regexp.MustCompile(`\A\{(.+)\}(.+)\z`)

// buildAugment applies every pending augment, shallow targets first, then
// removes the augment statements from the tree. Augments whose target is
// missing are logged and dropped.
func buildAugment(root *xmltree.Element) error {
	var augments []*xmltree.Element
	root.Walk(func(el *xmltree.Element) {
		if el.Tag == "augment" {
			augments = append(augments, el)
		}
	})

	depth := func(aug *xmltree.Element) int {
		nodes := []*xmltree.Element{aug}
		for _, parent := range aug.Parents() {
			switch parent.Tag {
			case "augment", "container", "list", "leaf", "leaf-list":
				nodes = append(nodes, parent)
			}
		}
		total := 0
		for _, node := range nodes {
			if node.Tag == "augment" {
				target := node.AttrDefault("target-node", "")
				total += len(strings.Split(strings.TrimLeft(target, "/"), "/"))
			} else {
				total++
			}
		}
		return total
	}

	sorted := make([]*xmltree.Element, len(augments))
	copy(sorted, augments)
	depths := map[*xmltree.Element]int{}
	for _, aug := range sorted {
		depths[aug] = depth(aug)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return depths[sorted[i]] < depths[sorted[j]]
	})

	for _, aug := range sorted {
		target := aug.AttrDefault("target-node", "")
		segments := targetSegmentRe.FindAllString(target, -1)

		var current []*xmltree.Element
		if strings.HasPrefix(target, "/") {
			current = root.FindChildren("module")
		} else if aug.Parent() != nil {
			current = []*xmltree.Element{aug.Parent()}
		}

		for _, segment := range segments {
			m := segmentPartsRe.FindStringSubmatch(segment)
			if m == nil {
				return NewBuildError("invalid augment target segment '%s'", segment)
			}
			namespace, name := m[1], m[2]

			var next []*xmltree.Element
			for _, el := range current {
				for _, child := range el.Children() {
					if child.Space == namespace && attrName(child) == name {
						next = append(next, child)
					}
				}
			}
			current = next
		}

		if len(current) == 0 {
			util.Warnf("failed to augment from '%s': '%s' does not exist on yang tree", aug.Path(), target)
			continue
		}

		parent := current[0]
		for _, child := range aug.Children() {
			if parent.Tag == "choice" && child.Tag != "case" {
				caseEl := parent.NewChild(parent.Space, "case")
				caseEl.SetAttr("name", attrName(child))
				parent = caseEl
			}
			parent.Append(child)
		}
	}

	for _, aug := range sorted {
		aug.Remove()
	}
	return nil
}
