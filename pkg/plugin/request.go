// Package plugin hosts the per-stub protocol handlers. A handler receives
// a parsed protocol event plus a request context and produces the response
// the front-end frames back to the client.
package plugin

import (
	"encoding/json"

	"github.com/netmimic/netmimic/pkg/netconf"
	"github.com/netmimic/netmimic/pkg/snmp"
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/xmltree"
)

// Connection status values carried by session protocols.
const (
	StatusLogin       = "login"
	StatusEstablished = "established"
)

// Request is one decoded protocol event. Exactly one of the per-protocol
// fields is set, selected by Protocol.
type Request struct {
	StubID   string
	Protocol string

	HTTP    *HTTPRequest
	Netconf *NetconfRequest
	SSH     *SSHRequest
	Telnet  *TelnetRequest
	SNMP    *SNMPRequest
}

type protocolEvent struct {
	Protocol string `json:"protocol"`

	// http / https
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   map[string][]string `json:"query"`
	Headers map[string]string   `json:"headers"`
	Body    string              `json:"body"`

	// netconf / ssh / telnet
	ConnectionStatus string                 `json:"connectionStatus"`
	Username         string                 `json:"username"`
	SessionID        json.Number            `json:"sessionId"`
	RPC              string                 `json:"rpc"`
	Input            string                 `json:"input"`
	Prompt           string                 `json:"prompt"`
	State            map[string]interface{} `json:"state"`

	// snmp
	PDUType        snmp.PDUType  `json:"pduType"`
	Version        string        `json:"version"`
	RequestID      int           `json:"requestId"`
	Community      string        `json:"community"`
	Objects        []snmp.Object `json:"objects"`
	NonRepeaters   int           `json:"non_repeaters"`
	MaxRepetitions int           `json:"max_repetitions"`
}

// ParseRequest decodes a ProtocolEvent JSON body for the given stub.
func ParseRequest(stubID string, body []byte) (*Request, error) {
	var event protocolEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, util.NewValidationError("invalid protocol event: %v", err)
	}

	request := &Request{StubID: stubID, Protocol: event.Protocol}
	switch event.Protocol {
	case "http", "https":
		request.HTTP = &HTTPRequest{
			Scheme:  event.Protocol,
			Method:  event.Method,
			Path:    event.Path,
			Query:   event.Query,
			Headers: event.Headers,
			Body:    event.Body,
		}

	case "netconf":
		sessionID, _ := event.SessionID.Int64()
		nr := &NetconfRequest{
			ConnectionStatus: event.ConnectionStatus,
			Username:         event.Username,
			SessionID:        int(sessionID),
		}
		if event.ConnectionStatus == StatusLogin {
			nr.RPC = xmltree.New("", "rpc")
		} else {
			rpc, err := xmltree.Parse(event.RPC)
			if err != nil {
				return nil, util.NewValidationError("invalid rpc: %v", err)
			}
			operation, err := netconf.ProtocolOperation(rpc)
			if err != nil {
				return nil, err
			}
			messageID, err := netconf.MessageID(rpc)
			if err != nil {
				return nil, err
			}
			nr.RPC = rpc
			nr.ProtocolOperation = operation
			nr.MessageID = messageID
		}
		request.Netconf = nr

	case "ssh":
		request.SSH = &SSHRequest{
			ConnectionStatus: event.ConnectionStatus,
			Username:         event.Username,
			SessionID:        event.SessionID.String(),
			Input:            event.Input,
			Prompt:           event.Prompt,
			State:            event.State,
		}

	case "telnet":
		request.Telnet = &TelnetRequest{
			ConnectionStatus: event.ConnectionStatus,
			SessionID:        event.SessionID.String(),
			Input:            event.Input,
			Prompt:           event.Prompt,
			State:            event.State,
		}

	case "snmp":
		request.SNMP = &SNMPRequest{
			PDUType:        event.PDUType,
			Version:        event.Version,
			RequestID:      event.RequestID,
			Community:      event.Community,
			Objects:        event.Objects,
			NonRepeaters:   event.NonRepeaters,
			MaxRepetitions: event.MaxRepetitions,
		}

	default:
		return nil, util.NewFatalError("invalid protocol '%s'", event.Protocol)
	}
	return request, nil
}

// HTTPRequest is a pass-through HTTP or HTTPS request.
type HTTPRequest struct {
	Scheme  string
	Method  string
	Path    string
	Query   map[string][]string
	Headers map[string]string
	Body    string
}

// NetconfRequest is one rpc (or the initial login) on a NETCONF session.
type NetconfRequest struct {
	ConnectionStatus  string
	Username          string
	SessionID         int
	RPC               *xmltree.Element
	ProtocolOperation string
	MessageID         string
}

// SSHRequest is one line of input on an SSH shell session. State is the
// session storage echoed between handler calls.
type SSHRequest struct {
	ConnectionStatus string
	Username         string
	SessionID        string
	Input            string
	Prompt           string
	State            map[string]interface{}
}

// TelnetRequest is one line of input on a TELNET session.
type TelnetRequest struct {
	ConnectionStatus string
	SessionID        string
	Input            string
	Prompt           string
	State            map[string]interface{}
}

// SNMPRequest is one SNMP PDU.
type SNMPRequest struct {
	PDUType        snmp.PDUType
	Version        string
	RequestID      int
	Community      string
	Objects        []snmp.Object
	NonRepeaters   int
	MaxRepetitions int
}
