// Package transport drives one HTTP/1.0 request/response pair against the
// remote random service over a plain or TLS-wrapped TCP stream. A fresh
// Exchange is built per request and owns its connection until Close.
package transport

import (
	"crypto/rsa"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"epf/internal/errs"
	"epf/internal/session"
)

const (
	sendTimeout = 5 * time.Second
	recvTimeout = 15 * time.Second
)

// Exchange is one request/response cycle. It is single-use: dial, send,
// retrieve, close.
type Exchange struct {
	host            string
	port            int
	useTLS          bool
	authToken       string
	streamEncrypted bool
	pub             *rsa.PublicKey

	conn net.Conn // nil until Dial succeeds, nil again after Close
}

// New builds an unconnected Exchange.
func New(host string, port int, useTLS bool, authToken string, streamEncrypted bool, pub *rsa.PublicKey) *Exchange {
	return &Exchange{
		host:            host,
		port:            port,
		useTLS:          useTLS,
		authToken:       authToken,
		streamEncrypted: streamEncrypted,
		pub:             pub,
	}
}

// Dial resolves the host, opens a TCP connection with Nagle disabled and
// the fixed send/receive timeouts, and negotiates TLS when enabled.
func (e *Exchange) Dial() error {
	if e.host == "" {
		return errs.New(errs.KindConnect, "host name cannot be empty")
	}
	if e.port == 0 {
		return errs.New(errs.KindConnect, "port cannot be zero")
	}

	addrs, err := net.LookupHost(e.host)
	if err != nil {
		return errs.Wrap(errs.KindResolve, "could not find the host", err)
	}

	raw, err := net.DialTimeout("tcp", net.JoinHostPort(addrs[0], strconv.Itoa(e.port)), recvTimeout)
	if err != nil {
		return errs.Wrap(errs.KindConnect, "could not connect to remote host", err)
	}
	if tc, ok := raw.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			raw.Close()
			return errs.Wrap(errs.KindConnect, "could not disable Nagle", err)
		}
	}

	conn := net.Conn(&timeoutConn{Conn: raw})
	if e.useTLS {
		// SSLv2/v3 do not exist in crypto/tls; the floor here is TLS 1.2.
		tlsConn := tls.Client(conn, &tls.Config{
			ServerName: e.host,
			MinVersion: tls.VersionTLS12,
		})
		if err := tlsConn.Handshake(); err != nil {
			raw.Close()
			return errs.Wrap(errs.KindTLSHandshake, "could not build a TLS session to remote host", err)
		}
		conn = tlsConn
	}

	e.conn = conn
	return nil
}

// SendGet writes the literal HTTP/1.0 GET request for resource. The
// crypto-token header is emitted only when stream encryption is engaged,
// wrapping tok's key under the server public key.
func (e *Exchange) SendGet(resource string, tok *session.Token) error {
	if e.conn == nil {
		return errs.New(errs.KindSend, "not connected")
	}

	cmd := "GET " + resource + " HTTP/1.0\r\n" +
		"Host: " + e.host + "\r\n"
	if e.authToken != "" {
		cmd += "tl-ent-sce-auth-token: " + e.authToken + "\r\n"
	}
	if e.streamEncrypted {
		hex, err := tok.Emit()
		if err != nil {
			return errs.Wrap(errs.KindSend, "could not create crypto token", err)
		}
		cmd += "tl-ent-sce-crypto-token: " + hex + "\r\n"
	}
	cmd += "\r\n"

	n, err := e.conn.Write([]byte(cmd))
	if err != nil || n != len(cmd) {
		return errs.Wrap(errs.KindSend, "could not send HTTP GET request", err)
	}
	return nil
}

// RetrieveResponse parses the response headers off the connection and
// returns a Response bound to the remaining body stream and tok's key.
func (e *Exchange) RetrieveResponse(tok *session.Token) (*Response, error) {
	if e.conn == nil {
		return nil, errs.New(errs.KindMalformedHeader, "not connected")
	}
	return newResponse(e.conn, e.streamEncrypted, tok)
}

// Close releases the connection. It is safe to call in any state, and more
// than once.
func (e *Exchange) Close() error {
	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	return err
}

// timeoutConn re-arms the fixed per-operation deadlines before every read
// and write so a stalled peer cannot hold an exchange open indefinitely.
type timeoutConn struct {
	net.Conn
}

func (c *timeoutConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *timeoutConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(sendTimeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}
