package project

import (
	"fmt"
	"os"
	"path/filepath"
)

const sampleStubsYAML = `stubs:
  - id: junos-1
    description: router1
    handler: junos
    yang: junos
    enabled: true
    metadata: {}
`

const sampleYang = `module junos {
  namespace "http://netmimic.example/junos";
  prefix jun;

  container configuration {
    container system {
      leaf host-name {
        type string;
      }
      leaf-list name-server {
        type string;
      }
    }
    container interfaces {
      list interface {
        key "name";
        leaf name {
          type string;
        }
        leaf description {
          type string;
        }
        container unit {
          leaf address {
            type string;
          }
        }
      }
    }
  }
}
`

// The built-in junos handler covers the sample stub; the scaffolded
// descriptor shows the decision-table format under a name of its own so
// it does not shadow the built-in.
const sampleHandlerYAML = `description: sample decision-table handler
ssh:
  banner: "Welcome\n"
  prompt: "{username}@{description}> "
  commands:
    - prefix: "show version"
      output: "netmimic sample device\n"
  defaultOutput: "\nunknown command.\n\n"
telnet:
  loginPrompt: "login: "
  passwordPrompt: "Password: "
  banner: "Welcome\n"
  prompt: "{username}@{description}> "
netconf:
  capabilities: []
http:
  code: 200
  contentType: application/xml
  body: "<ok/>"
snmp:
  objects:
    - oid: 1.3.6.1.2.1.1.3.0
      type: TIMETICKS
      value: 0
`

// Init scaffolds the project layout: a stubs.yaml declaring one junos
// stub, its yang sources, and a sample file-driven handler. Existing
// files are overwritten.
func (p *Project) Init() error {
	files := map[string]string{
		filepath.Join("stubs", "stubs.yaml"):                          sampleStubsYAML,
		filepath.Join("yangs", "junos", "junos.yang"):                 sampleYang,
		filepath.Join("module", "handlers", "sample", "handler.yaml"): sampleHandlerYAML,
	}
	for name, content := range files {
		path := filepath.Join(p.root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating '%s': %w", filepath.Dir(name), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("writing '%s': %w", name, err)
		}
	}
	return nil
}
