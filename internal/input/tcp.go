package input

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/awslabs/flowgger/internal/framing"
)

// TLSConfig carries the handshake parameters named in spec.md §6:
// certificate/key, optional client-CA for mutual auth, and a minimum
// protocol version (TLS 1.2 when unset). No cipher list is carried, so
// crypto/tls's default cipher suites apply. Compression is not wired
// to crypto/tls, which never supported TLS-level compression (it was
// deprecated for CRIME-style attacks); the option is accepted for
// configuration compatibility and ignored.
type TLSConfig struct {
	CertFile   string
	KeyFile    string
	CAFile     string
	VerifyPeer bool
	MinVersion uint16
}

func (c *TLSConfig) build() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, err
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   c.MinVersion,
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	if c.VerifyPeer {
		pool, err := loadCAPool(c.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg, nil
}

// TCPListener accepts connections and spawns one Pipeline run per
// connection — the thread-per-connection scheduling variant from
// spec.md §4.6, and the default.
type TCPListener struct {
	Addr      string
	TLS       *TLSConfig
	Framing   framing.Policy
	Timeout   time.Duration
	NewDecoder func() Pipeline
}

// Serve listens and blocks until ctx is cancelled or a fatal listener
// error occurs.
func (l *TCPListener) Serve(ctx context.Context) error {
	var ln net.Listener
	var err error

	if l.TLS != nil {
		tlsCfg, berr := l.TLS.build()
		if berr != nil {
			return berr
		}
		ln, err = tls.Listen("tcp", l.Addr, tlsCfg)
	} else {
		ln, err = net.Listen("tcp", l.Addr)
	}
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go l.serveConn(ctx, conn)
	}
}

func (l *TCPListener) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	p := l.NewDecoder()
	r := &deadlineReader{conn: conn, timeout: l.Timeout}
	sp, err := framing.New(l.Framing, r, 0)
	if err != nil {
		p.Logger.Error().Err(err).Msg("failed to build splitter")
		return
	}

	if err := p.RunSplitter(ctx, sp); err != nil {
		p.Logger.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("connection closed")
	}
}

// deadlineReader resets a read deadline before every Read, implementing
// the per-connection inactivity timeout from spec.md §5.
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	if r.timeout > 0 {
		_ = r.conn.SetReadDeadline(time.Now().Add(r.timeout))
	}
	return r.conn.Read(p)
}
