package agent

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/netmimic/netmimic/pkg/util"
)

// HTTPServer forwards every received request to the manager as an http
// or https protocol event and relays the handler's nested reply.
type HTTPServer struct {
	client *Client
	secure bool
	srv    *http.Server
}

// NewHTTPServer creates a pass-through server bound to addr. With secure
// set, it terminates TLS using a self-signed certificate and tags events
// with the https protocol.
func NewHTTPServer(addr string, client *Client, secure bool) *HTTPServer {
	s := &HTTPServer{client: client, secure: secure}
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	return s
}

// Handler builds the pass-through handler. Exposed for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.writeFailure(w, err)
			return
		}

		protocol := "http"
		if s.secure {
			protocol = "https"
		}
		headers := map[string]string{}
		for name := range r.Header {
			headers[name] = r.Header.Get(name)
		}

		result, err := s.client.SendHTTP(r.Context(), protocol, r.Method, r.URL.Path,
			r.URL.Query(), headers, string(body))
		if err != nil {
			s.writeFailure(w, err)
			return
		}

		for name, value := range result.Headers {
			w.Header().Set(name, value)
		}
		w.WriteHeader(result.Code)
		io.WriteString(w, result.Body)
	})
}

func (s *HTTPServer) writeFailure(w http.ResponseWriter, err error) {
	util.Errorf("forwarding http request: %v", err)
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"errorCode":    500,
		"errorMessage": err.Error(),
		"moreInfo":     nil,
	})
}

// Start serves until Shutdown or a listener error.
func (s *HTTPServer) Start() error {
	if !s.secure {
		util.Infof("http server is running on %s", s.srv.Addr)
		return ignoreServerClosed(s.srv.ListenAndServe())
	}

	cert, err := selfSignedCert()
	if err != nil {
		return err
	}
	s.srv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	util.Infof("https server is running on %s", s.srv.Addr)
	return ignoreServerClosed(s.srv.ListenAndServeTLS("", ""))
}

// Shutdown drains in-flight requests until ctx expires.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func ignoreServerClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// selfSignedCert creates a throwaway certificate for the https
// front-end. Clients testing against the simulator skip verification.
func selfSignedCert() (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, err
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "netmimic-stub"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(10 * 365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}, nil
}
