package yangtree

import (
	"strings"

	"github.com/openconfig/goyang/pkg/yang"

	"github.com/netmimic/netmimic/pkg/xmltree"
)

// argumentAttr maps a YANG keyword to the attribute that carries its
// argument in the YIN encoding. Keywords not listed use "name".
var argumentAttr = map[string]string{
	"namespace":       "uri",
	"key":             "value",
	"prefix":          "value",
	"config":          "value",
	"default":         "value",
	"mandatory":       "value",
	"max-elements":    "value",
	"min-elements":    "value",
	"ordered-by":      "value",
	"status":          "value",
	"yang-version":    "value",
	"fraction-digits": "value",
	"position":        "value",
	"presence":        "value",
	"path":            "value",
	"pattern":         "value",
	"length":          "value",
	"range":           "value",
	"belongs-to":      "module",
	"import":          "module",
	"include":         "module",
	"augment":         "target-node",
	"deviation":       "target-node",
	"refine":          "target-node",
	"revision":        "date",
	"revision-date":   "date",
}

// parseModule parses YANG text into a YIN-equivalent element tree rooted
// at the module or submodule statement.
func parseModule(moduleName, text string) (*xmltree.Element, error) {
	statements, err := yang.Parse(text, moduleName)
	if err != nil {
		return nil, NewBuildError("parsing yang module '%s': %v", moduleName, err)
	}
	for _, stmt := range statements {
		if stmt.Keyword == "module" || stmt.Keyword == "submodule" {
			return statementToElement(stmt), nil
		}
	}
	return nil, NewBuildError("yang module '%s' has no module statement", moduleName)
}

func statementToElement(stmt *yang.Statement) *xmltree.Element {
	el := xmltree.New("", stmt.Keyword)
	if stmt.HasArgument {
		attr := argumentAttr[stmt.Keyword]
		if attr == "" {
			attr = "name"
		}
		el.SetAttr(attr, stmt.Argument)
	}
	for _, sub := range stmt.SubStatements() {
		if strings.Contains(sub.Keyword, ":") {
			// Extension statement from another module; the schema build
			// has no use for it.
			continue
		}
		el.Append(statementToElement(sub))
	}
	return el
}
