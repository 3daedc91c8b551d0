package agent

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/netmimic/netmimic/pkg/util"
)

// Telnet command bytes. Negotiation from the client is consumed and
// ignored; the manager only sees clean input lines.
const (
	telnetIAC  = 255
	telnetSB   = 250
	telnetSE   = 240
	telnetWill = 251
	telnetDont = 254
)

// TelnetServer serves a line-oriented TELNET session for one stub.
type TelnetServer struct {
	addr     string
	client   *Client
	listener net.Listener

	mu       sync.Mutex
	closed   bool
	sessions atomic.Int64
}

// NewTelnetServer creates a server bound to addr.
func NewTelnetServer(addr string, client *Client) *TelnetServer {
	return &TelnetServer{addr: addr, client: client}
}

// Start listens and serves connections until Shutdown.
func (s *TelnetServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	util.Infof("telnet server is running on %s", listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return err
		}
		go func() {
			defer conn.Close()
			sessionID := s.sessions.Add(1)
			if err := s.runSession(ctx, conn, strconv.FormatInt(sessionID, 10)); err != nil {
				util.Infof("telnet session ended: %v", err)
				fmt.Fprintf(conn, "%v\r\n", err)
			}
		}()
	}
}

// Shutdown stops accepting connections.
func (s *TelnetServer) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Addr returns the bound address once Start has begun listening.
func (s *TelnetServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// runSession drives the line loop: one login round-trip, then one
// round-trip per received line. Received input is echoed back CRLF
// normalized, like a device terminal would.
func (s *TelnetServer) runSession(ctx context.Context, rw io.ReadWriter, sessionID string) error {
	terminal, err := s.client.SendTerminal(ctx, "telnet", "login", sessionID, "", "", "", nil)
	if err != nil {
		return err
	}
	writeCRLF(rw, terminal.Output+terminal.Prompt)

	buff := ""
	chunk := make([]byte, 1024)
	for {
		n, err := rw.Read(chunk)
		if n == 0 {
			if err != nil {
				return nil
			}
			continue
		}

		text := normalizeCRLF(string(stripTelnetCommands(chunk[:n])))
		io.WriteString(rw, text)

		buff += text
		if !strings.Contains(buff, "\r\n") {
			continue
		}
		parts := strings.Split(buff, "\r\n")
		buff = parts[len(parts)-1]

		for _, line := range parts[:len(parts)-1] {
			terminal, err = s.client.SendTerminal(ctx, "telnet", "established",
				sessionID, "", line, terminal.Prompt, terminal.State)
			if err != nil {
				return err
			}
			writeCRLF(rw, terminal.Output+terminal.Prompt)
		}
	}
}

func writeCRLF(w io.Writer, s string) {
	io.WriteString(w, normalizeCRLF(s))
}

// normalizeCRLF rewrites any line ending style to CRLF.
func normalizeCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// stripTelnetCommands removes IAC command and subnegotiation sequences.
func stripTelnetCommands(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if data[i] != telnetIAC {
			out = append(out, data[i])
			i++
			continue
		}
		if i+1 >= len(data) {
			break
		}
		cmd := data[i+1]
		switch {
		case cmd == telnetIAC:
			// Escaped 0xff data byte.
			out = append(out, telnetIAC)
			i += 2
		case cmd >= telnetWill && cmd <= telnetDont:
			i += 3
		case cmd == telnetSB:
			i += 2
			for i < len(data)-1 && !(data[i] == telnetIAC && data[i+1] == telnetSE) {
				i++
			}
			i += 2
		default:
			i += 2
		}
	}
	return out
}
