package plugin

import (
	"encoding/json"

	"github.com/netmimic/netmimic/pkg/netconf"
	"github.com/netmimic/netmimic/pkg/snmp"
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/xmltree"
)

// Response is what a handler returns: the dispatch endpoint's status code,
// headers, and body. For session protocols the body is a JSON-encoded
// per-protocol structure; for NETCONF and HTTP it is raw text.
type Response struct {
	Code    int               `json:"code"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// TerminalResult is the SSH/TELNET response body.
type TerminalResult struct {
	Output string                 `json:"output"`
	Prompt string                 `json:"prompt"`
	State  map[string]interface{} `json:"state"`
}

// SNMPResult is the SNMP response body.
type SNMPResult struct {
	Objects []snmp.Object `json:"objects"`
}

// HTTPResult is the nested response a pass-through front-end replays to
// its client.
type HTTPResult struct {
	Code    int               `json:"code"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// NewResponse wraps a serialized rpc-reply.
func (r *NetconfRequest) NewResponse(reply *xmltree.Element) *Response {
	return &Response{
		Code:    200,
		Headers: map[string]string{"content-type": "application/xml"},
		Body:    reply.String(),
	}
}

// NewHello builds the hello response for this session, with the default
// capability list when none is given.
func (r *NetconfRequest) NewHello(capabilities []string) *Response {
	if len(capabilities) == 0 {
		capabilities = netconf.DefaultCapabilities
	}
	return &Response{
		Code:    200,
		Headers: map[string]string{"content-type": "application/xml"},
		Body:    netconf.NewHello(r.SessionID, capabilities).String(),
	}
}

func terminalResponse(output, prompt string, state map[string]interface{}) (*Response, error) {
	if state == nil {
		state = map[string]interface{}{}
	}
	body, err := json.Marshal(TerminalResult{Output: output, Prompt: prompt, State: state})
	if err != nil {
		return nil, util.NewFatalError("encoding terminal response: %v", err)
	}
	return &Response{
		Code:    200,
		Headers: map[string]string{"content-type": "application/json"},
		Body:    string(body),
	}, nil
}

// NewResponse builds the SSH response body.
func (r *SSHRequest) NewResponse(output, prompt string, state map[string]interface{}) (*Response, error) {
	return terminalResponse(output, prompt, state)
}

// NewResponse builds the TELNET response body.
func (r *TelnetRequest) NewResponse(output, prompt string, state map[string]interface{}) (*Response, error) {
	return terminalResponse(output, prompt, state)
}

// NewResponse builds the SNMP response body.
func (r *SNMPRequest) NewResponse(objects []snmp.Object) (*Response, error) {
	if objects == nil {
		objects = []snmp.Object{}
	}
	body, err := json.Marshal(SNMPResult{Objects: objects})
	if err != nil {
		return nil, util.NewFatalError("encoding snmp response: %v", err)
	}
	return &Response{
		Code:    200,
		Headers: map[string]string{"content-type": "application/json"},
		Body:    string(body),
	}, nil
}

// NewResponse builds a pass-through HTTP response with the given inner
// status, headers, and raw body.
func (r *HTTPRequest) NewResponse(code int, headers map[string]string, body string) (*Response, error) {
	if headers == nil {
		headers = map[string]string{}
	}
	encoded, err := json.Marshal(HTTPResult{Code: code, Headers: headers, Body: body})
	if err != nil {
		return nil, util.NewFatalError("encoding http response: %v", err)
	}
	return &Response{
		Code:    200,
		Headers: map[string]string{"content-type": "application/json"},
		Body:    string(encoded),
	}, nil
}

// NewXMLResponse is NewResponse with an XML content type on the inner
// response.
func (r *HTTPRequest) NewXMLResponse(code int, body string) (*Response, error) {
	return r.NewResponse(code, map[string]string{"content-type": "application/xml"}, body)
}

// NewJSONResponse JSON-encodes value as the inner response body.
func (r *HTTPRequest) NewJSONResponse(code int, value interface{}) (*Response, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, util.NewFatalError("encoding http response body: %v", err)
	}
	return r.NewResponse(code, map[string]string{"content-type": "application/json"}, string(body))
}
