package plugin

import (
	"context"

	"github.com/netmimic/netmimic/pkg/netconf"
	"github.com/netmimic/netmimic/pkg/snmp"
	"github.com/netmimic/netmimic/pkg/stub"
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/yangtree"
)

// Context carries everything a handler may touch: the decoded request, a
// deep copy of the stub, the schema trees (read-only), the stub
// repository for explicit saves, and fresh protocol services.
type Context struct {
	Ctx     context.Context
	Request *Request
	Stub    *stub.Entity
	Yangs   *yangtree.Repository
	Stubs   stub.Repository
	Netconf *netconf.Service
	SNMP    *snmp.Service
}

// Handler is the per-stub capability set. Protocol front-ends reach the
// capability matching their protocol and connection status; a handler
// without that capability fails the dispatch.
type Handler interface {
	NetconfHello(ctx *Context) (*Response, error)
	HandleNetconf(ctx *Context) (*Response, error)
	HandleHTTP(ctx *Context) (*Response, error)
	SSHLogin(ctx *Context) (*Response, error)
	HandleSSH(ctx *Context) (*Response, error)
	TelnetLogin(ctx *Context) (*Response, error)
	HandleTelnet(ctx *Context) (*Response, error)
	HandleSNMP(ctx *Context) (*Response, error)
}

// Base implements every capability as unsupported. Handlers embed it and
// override what they serve.
type Base struct{}

func (Base) NetconfHello(ctx *Context) (*Response, error) {
	return nil, util.NewForbiddenError("'netconf_hello' is not implemented")
}

func (Base) HandleNetconf(ctx *Context) (*Response, error) {
	return nil, util.NewForbiddenError("'handle_netconf' is not implemented")
}

func (Base) HandleHTTP(ctx *Context) (*Response, error) {
	return nil, util.NewForbiddenError("'handle_http' is not implemented")
}

func (Base) SSHLogin(ctx *Context) (*Response, error) {
	return nil, util.NewForbiddenError("'ssh_login' is not implemented")
}

func (Base) HandleSSH(ctx *Context) (*Response, error) {
	return nil, util.NewForbiddenError("'handle_ssh' is not implemented")
}

func (Base) TelnetLogin(ctx *Context) (*Response, error) {
	return nil, util.NewForbiddenError("'telnet_login' is not implemented")
}

func (Base) HandleTelnet(ctx *Context) (*Response, error) {
	return nil, util.NewForbiddenError("'handle_telnet' is not implemented")
}

func (Base) HandleSNMP(ctx *Context) (*Response, error) {
	return nil, util.NewForbiddenError("'handle_snmp' is not implemented")
}

// Dispatch selects the capability for the request's protocol and
// connection status and invokes it.
func Dispatch(handler Handler, ctx *Context) (*Response, error) {
	switch ctx.Request.Protocol {
	case "http", "https":
		return handler.HandleHTTP(ctx)

	case "netconf":
		if ctx.Request.Netconf.ConnectionStatus == StatusLogin {
			return handler.NetconfHello(ctx)
		}
		return handler.HandleNetconf(ctx)

	case "ssh":
		if ctx.Request.SSH.ConnectionStatus == StatusLogin {
			return handler.SSHLogin(ctx)
		}
		return handler.HandleSSH(ctx)

	case "telnet":
		if ctx.Request.Telnet.ConnectionStatus == StatusLogin {
			return handler.TelnetLogin(ctx)
		}
		return handler.HandleTelnet(ctx)

	case "snmp":
		return handler.HandleSNMP(ctx)
	}
	return nil, util.NewFatalError("invalid protocol '%s'", ctx.Request.Protocol)
}
