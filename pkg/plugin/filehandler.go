package plugin

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netmimic/netmimic/pkg/snmp"
	"github.com/netmimic/netmimic/pkg/util"
)

// Spec is a file-driven handler descriptor (handler.yaml). Each present
// section enables the matching capability; absent sections stay
// unimplemented.
type Spec struct {
	Description string        `yaml:"description"`
	HTTP        *HTTPSpec     `yaml:"http"`
	Netconf     *NetconfSpec  `yaml:"netconf"`
	SSH         *TerminalSpec `yaml:"ssh"`
	Telnet      *TelnetSpec   `yaml:"telnet"`
	SNMP        *SNMPSpec     `yaml:"snmp"`
}

// HTTPSpec is a canned HTTP reply.
type HTTPSpec struct {
	Code        int    `yaml:"code"`
	ContentType string `yaml:"contentType"`
	Body        string `yaml:"body"`
}

// NetconfSpec enables NETCONF dispatch to the protocol services.
type NetconfSpec struct {
	Capabilities []string `yaml:"capabilities"`
}

// TerminalSpec is a command decision table for a shell session. Prompt
// templates may reference {username}, {id}, and {description}.
type TerminalSpec struct {
	Banner        string        `yaml:"banner"`
	Prompt        string        `yaml:"prompt"`
	Commands      []CommandRule `yaml:"commands"`
	DefaultOutput string        `yaml:"defaultOutput"`
}

// TelnetSpec extends the terminal table with the login phase prompts.
type TelnetSpec struct {
	TerminalSpec   `yaml:",inline"`
	LoginPrompt    string `yaml:"loginPrompt"`
	PasswordPrompt string `yaml:"passwordPrompt"`
}

// CommandRule maps an input prefix to its output.
type CommandRule struct {
	Prefix string `yaml:"prefix"`
	Output string `yaml:"output"`
}

// SNMPSpec seeds the stub's SNMP table before every walk.
type SNMPSpec struct {
	Objects []ObjectSpec `yaml:"objects"`
}

// ObjectSpec is one seeded SNMP object.
type ObjectSpec struct {
	OID   string      `yaml:"oid"`
	Type  string      `yaml:"type"`
	Value interface{} `yaml:"value"`
}

// ParseSpec decodes and checks a handler.yaml document.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, util.NewValidationError("invalid handler descriptor: %v", err)
	}
	if spec.SNMP != nil {
		for _, obj := range spec.SNMP.Objects {
			if err := snmp.CheckType(snmp.Type(obj.Type)); err != nil {
				return nil, err
			}
		}
	}
	return &spec, nil
}

// FileHandler serves a stub from a handler.yaml decision table.
type FileHandler struct {
	Base
	spec *Spec
}

// NewFileHandler wraps a parsed descriptor.
func NewFileHandler(spec *Spec) *FileHandler {
	return &FileHandler{spec: spec}
}

func (h *FileHandler) renderPrompt(template, username string, ctx *Context) string {
	return strings.NewReplacer(
		"{username}", username,
		"{id}", ctx.Stub.ID,
		"{description}", ctx.Stub.Description,
	).Replace(template)
}

func commandOutput(spec *TerminalSpec, input string) string {
	if input == "" {
		return "\n"
	}
	for _, rule := range spec.Commands {
		if strings.HasPrefix(input, rule.Prefix) {
			return rule.Output
		}
	}
	if spec.DefaultOutput != "" {
		return spec.DefaultOutput
	}
	return "\nunknown command.\n\n"
}

func (h *FileHandler) NetconfHello(ctx *Context) (*Response, error) {
	if h.spec.Netconf == nil {
		return h.Base.NetconfHello(ctx)
	}
	return ctx.Request.Netconf.NewHello(h.spec.Netconf.Capabilities), nil
}

func (h *FileHandler) HandleNetconf(ctx *Context) (*Response, error) {
	if h.spec.Netconf == nil {
		return h.Base.HandleNetconf(ctx)
	}
	request := ctx.Request.Netconf

	reply, err := ctx.Netconf.Execute(ctx.Stub, request.RPC)
	if err != nil {
		return nil, err
	}
	switch request.ProtocolOperation {
	case "edit-config", "discard-changes", "commit", "lock", "unlock":
		if err := ctx.Stubs.Save(ctx.Ctx, ctx.Stub); err != nil {
			return nil, err
		}
	}
	return request.NewResponse(reply), nil
}

func (h *FileHandler) HandleHTTP(ctx *Context) (*Response, error) {
	if h.spec.HTTP == nil {
		return h.Base.HandleHTTP(ctx)
	}
	code := h.spec.HTTP.Code
	if code == 0 {
		code = 200
	}
	headers := map[string]string{}
	if h.spec.HTTP.ContentType != "" {
		headers["content-type"] = h.spec.HTTP.ContentType
	}
	return ctx.Request.HTTP.NewResponse(code, headers, h.spec.HTTP.Body)
}

func (h *FileHandler) SSHLogin(ctx *Context) (*Response, error) {
	if h.spec.SSH == nil {
		return h.Base.SSHLogin(ctx)
	}
	request := ctx.Request.SSH
	prompt := h.renderPrompt(h.spec.SSH.Prompt, request.Username, ctx)
	return request.NewResponse(h.spec.SSH.Banner, prompt, map[string]interface{}{})
}

func (h *FileHandler) HandleSSH(ctx *Context) (*Response, error) {
	if h.spec.SSH == nil {
		return h.Base.HandleSSH(ctx)
	}
	request := ctx.Request.SSH
	output := commandOutput(h.spec.SSH, request.Input)
	return request.NewResponse(output, request.Prompt, request.State)
}

func (h *FileHandler) TelnetLogin(ctx *Context) (*Response, error) {
	if h.spec.Telnet == nil {
		return h.Base.TelnetLogin(ctx)
	}
	prompt := h.spec.Telnet.LoginPrompt
	if prompt == "" {
		prompt = "login: "
	}
	state := map[string]interface{}{"phase": "USERNAME"}
	return ctx.Request.Telnet.NewResponse("", prompt, state)
}

func (h *FileHandler) HandleTelnet(ctx *Context) (*Response, error) {
	if h.spec.Telnet == nil {
		return h.Base.HandleTelnet(ctx)
	}
	request := ctx.Request.Telnet
	state := request.State
	if state == nil {
		state = map[string]interface{}{}
	}
	phase, _ := state["phase"].(string)
	username, _ := state["username"].(string)

	var output, prompt string
	switch phase {
	case "USERNAME":
		prompt = h.spec.Telnet.PasswordPrompt
		if prompt == "" {
			prompt = "Password: "
		}
		state["phase"] = "PASSWORD"
		state["username"] = request.Input
	case "PASSWORD":
		output = h.spec.Telnet.Banner
		prompt = h.renderPrompt(h.spec.Telnet.Prompt, username, ctx)
		state["phase"] = "OPERATION_MODE"
	case "OPERATION_MODE":
		output = commandOutput(&h.spec.Telnet.TerminalSpec, request.Input)
		prompt = h.renderPrompt(h.spec.Telnet.Prompt, username, ctx)
	default:
		return nil, fmt.Errorf("undefined telnet phase '%s'", phase)
	}
	return request.NewResponse(output, prompt, state)
}

func (h *FileHandler) HandleSNMP(ctx *Context) (*Response, error) {
	if h.spec.SNMP == nil {
		return h.Base.HandleSNMP(ctx)
	}
	request := ctx.Request.SNMP
	e := ctx.Stub

	e.ClearSnmpTable()
	for _, obj := range h.spec.SNMP.Objects {
		err := e.SaveSnmpObject(snmp.Object{OID: obj.OID, Type: snmp.Type(obj.Type), Value: obj.Value})
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Stubs.Save(ctx.Ctx, e); err != nil {
		return nil, err
	}

	objects, err := ctx.SNMP.Execute(e.SnmpTable(), request.PDUType, request.Objects,
		request.NonRepeaters, request.MaxRepetitions)
	if err != nil {
		return nil, err
	}
	return request.NewResponse(objects)
}
