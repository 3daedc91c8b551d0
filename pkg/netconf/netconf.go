// Package netconf builds and dispatches NETCONF rpc messages against a
// stub's datastores. Transport framing lives in the front-ends; this
// package only sees parsed rpc elements.
package netconf

import (
	"strconv"

	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/xmltree"
)

// BaseNamespace is the NETCONF base:1.0 namespace carried by every reply.
const BaseNamespace = "urn:ietf:params:xml:ns:netconf:base:1.0"

// DefaultCapabilities is the capability list advertised in the hello
// message unless a handler supplies its own.
var DefaultCapabilities = []string{
	"urn:ietf:params:netconf:base:1.0",
	"urn:ietf:params:netconf:capability:writable-running:1.0",
	"urn:ietf:params:netconf:capability:candidate:1.0",
	"urn:ietf:params:netconf:capability:xpath:1.0",
	"urn:ietf:params:netconf:capability:validate:1.0",
	"urn:ietf:params:netconf:capability:validate:1.1",
	"urn:ietf:params:netconf:capability:rollback-on-error:1.0",
	"urn:ietf:params:netconf:capability:notification:1.0",
	"urn:ietf:params:netconf:capability:interleave:1.0",
}

// MessageID reads the rpc's message-id attribute.
func MessageID(rpc *xmltree.Element) (string, error) {
	id, ok := rpc.Attr("message-id")
	if !ok {
		return "", util.NewValidationError("rpc has no message-id attribute")
	}
	return id, nil
}

// ProtocolOperation returns the local name of the rpc's first child, the
// requested protocol operation.
func ProtocolOperation(rpc *xmltree.Element) (string, error) {
	children := rpc.Children()
	if len(children) == 0 {
		return "", util.NewValidationError("rpc has no protocol operation")
	}
	return children[0].Tag, nil
}

// NewRPCReply wraps body in an rpc-reply echoing the message id.
func NewRPCReply(messageID string, body *xmltree.Element) *xmltree.Element {
	reply := xmltree.New(BaseNamespace, "rpc-reply")
	reply.SetAttr("message-id", messageID)
	reply.Append(body)
	return reply
}

// NewOKReply is an rpc-reply carrying <ok/>.
func NewOKReply(messageID string) *xmltree.Element {
	return NewRPCReply(messageID, xmltree.New(BaseNamespace, "ok"))
}

// NewErrorReply is an rpc-reply carrying an rpc-error with the given
// message. An empty message reads as a syntax error.
func NewErrorReply(messageID, message string) *xmltree.Element {
	if message == "" {
		message = "syntax error"
	}
	rpcError := xmltree.New(BaseNamespace, "rpc-error")
	rpcError.NewChild(BaseNamespace, "error-type").Text = "protocol"
	rpcError.NewChild(BaseNamespace, "error-tag").Text = "operation-failed"
	rpcError.NewChild(BaseNamespace, "error-severity").Text = "error"
	rpcError.NewChild(BaseNamespace, "error-message").Text = message
	rpcError.NewChild(BaseNamespace, "error-info")
	return NewRPCReply(messageID, rpcError)
}

// NewHello builds the server hello with the given capabilities and
// session id.
func NewHello(sessionID int, capabilities []string) *xmltree.Element {
	hello := xmltree.New(BaseNamespace, "hello")
	caps := hello.NewChild(BaseNamespace, "capabilities")
	for _, capability := range capabilities {
		caps.NewChild(BaseNamespace, "capability").Text = capability
	}
	hello.NewChild(BaseNamespace, "session-id").Text = strconv.Itoa(sessionID)
	return hello
}
