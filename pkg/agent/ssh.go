package agent

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/ssh"

	"github.com/netmimic/netmimic/pkg/netconf"
	"github.com/netmimic/netmimic/pkg/util"
	"github.com/netmimic/netmimic/pkg/xmltree"
)

// frameSeparator terminates NETCONF 1.0 messages.
const frameSeparator = "]]>]]>"

// SSHServer serves the SSH shell and the netconf subsystem for one stub.
// Authentication always succeeds; the simulated device does not check
// credentials.
type SSHServer struct {
	addr     string
	client   *Client
	config   *ssh.ServerConfig
	listener net.Listener

	mu       sync.Mutex
	closed   bool
	sessions atomic.Int64
}

// NewSSHServer creates a server bound to addr with a fresh host key.
func NewSSHServer(addr string, client *Client) (*SSHServer, error) {
	_, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating host key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(private)
	if err != nil {
		return nil, fmt.Errorf("creating host signer: %w", err)
	}

	config := &ssh.ServerConfig{
		PasswordCallback: func(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			return nil, nil
		},
		PublicKeyCallback: func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			return nil, nil
		},
	}
	config.AddHostKey(signer)

	return &SSHServer{addr: addr, client: client, config: config}, nil
}

// Start listens and serves connections until Shutdown.
func (s *SSHServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	util.Infof("ssh server is running on %s", listener.Addr())

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
		go s.handleConn(ctx, conn)
	}
}

// Shutdown stops accepting connections.
func (s *SSHServer) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Addr returns the bound address once Start has begun listening.
func (s *SSHServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *SSHServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	serverConn, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		util.Debugf("ssh handshake with %s failed: %v", conn.RemoteAddr(), err)
		return
	}
	defer serverConn.Close()
	util.Infof("ssh connection to '%s' established", conn.RemoteAddr())
	go ssh.DiscardRequests(reqs)

	username := serverConn.User()
	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			util.Debugf("accepting ssh channel: %v", err)
			continue
		}
		go s.handleSession(ctx, channel, requests, username)
	}
	util.Infof("ssh connection to '%s' closed", conn.RemoteAddr())
}

func (s *SSHServer) handleSession(ctx context.Context, channel ssh.Channel,
	requests <-chan *ssh.Request, username string) {

	defer channel.Close()

	for req := range requests {
		switch req.Type {
		case "pty-req", "env", "window-change":
			req.Reply(true, nil)

		case "shell":
			req.Reply(true, nil)
			sessionID := s.sessions.Add(1)
			s.runShell(ctx, channel, strconv.FormatInt(sessionID, 10), username)
			return

		case "subsystem":
			if subsystemName(req.Payload) != "netconf" {
				req.Reply(false, nil)
				continue
			}
			req.Reply(true, nil)
			sessionID := s.sessions.Add(1)
			s.runNetconf(ctx, channel, int(sessionID), username)
			return

		default:
			req.Reply(false, nil)
		}
	}
}

// subsystemName decodes the name from a subsystem request payload, a
// length-prefixed string.
func subsystemName(payload []byte) string {
	if len(payload) < 4 {
		return ""
	}
	return string(payload[4:])
}

// runShell drives a CLI session: one login round-trip, then one
// round-trip per input line. Prompt and state are carried between
// round-trips verbatim.
func (s *SSHServer) runShell(ctx context.Context, rw io.ReadWriter, sessionID, username string) {
	terminal, err := s.client.SendTerminal(ctx, "ssh", "login", sessionID, username, "", "", nil)
	if err != nil {
		fmt.Fprintf(rw, "%v\n", err)
		return
	}
	io.WriteString(rw, terminal.Output+terminal.Prompt)

	scanner := bufio.NewScanner(rw)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		terminal, err = s.client.SendTerminal(ctx, "ssh", "established",
			sessionID, username, line, terminal.Prompt, terminal.State)
		if err != nil {
			fmt.Fprintf(rw, "%v\n", err)
			return
		}
		io.WriteString(rw, terminal.Output+terminal.Prompt)
	}
}

// runNetconf drives a NETCONF 1.0 session: exchange hellos, then forward
// each framed rpc. close-session is answered locally and ends the
// session.
func (s *SSHServer) runNetconf(ctx context.Context, rw io.ReadWriter, sessionID int, username string) {
	hello, err := s.client.SendNetconf(ctx, "login", sessionID, username, "")
	if err != nil {
		fmt.Fprintf(rw, "%v\n", err)
		return
	}
	if hello.Code != 200 {
		fmt.Fprintf(rw, "%d: %s\n", hello.Code, hello.Body)
		return
	}
	io.WriteString(rw, hello.Body+frameSeparator)

	reader := bufio.NewReader(rw)

	// Client hello carries no rpc to forward.
	if _, err := readFrame(reader); err != nil {
		return
	}

	for {
		frame, err := readFrame(reader)
		if err != nil {
			return
		}

		rpc, err := xmltree.Parse(frame)
		if err != nil {
			util.Debugf("discarding unparsable rpc: %v", err)
			continue
		}
		messageID := rpc.AttrDefault("message-id", "")

		if rpc.FindChild("close-session") != nil {
			reply := netconf.NewOKReply(messageID)
			io.WriteString(rw, reply.String()+frameSeparator)
			return
		}

		result, err := s.client.SendNetconf(ctx, "established", sessionID, username, frame)
		if err != nil {
			util.Errorf("forwarding rpc: %v", err)
			return
		}
		if result.Code != 200 {
			msg := fmt.Sprintf("invalid response from manager: %d: %s", result.Code, result.Body)
			util.Error(msg)
			reply := netconf.NewErrorReply(messageID, msg)
			io.WriteString(rw, reply.String()+frameSeparator)
			continue
		}
		io.WriteString(rw, result.Body+frameSeparator)
	}
}

// readFrame reads up to the next frame separator and returns the frame
// without it.
func readFrame(reader *bufio.Reader) (string, error) {
	var b strings.Builder
	for {
		chunk, err := reader.ReadString('>')
		b.WriteString(chunk)
		if strings.HasSuffix(b.String(), frameSeparator) {
			return strings.TrimSuffix(b.String(), frameSeparator), nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) && b.Len() == 0 {
				return "", io.EOF
			}
			return "", fmt.Errorf("reading frame: %w", err)
		}
	}
}
