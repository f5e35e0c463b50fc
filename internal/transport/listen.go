package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Listen opens the accepting side for cfg.Network. Websocket networks serve
// HTTP on cfg.Address and hand out one net.Conn per upgraded request on
// cfg.Path.
func Listen(cfg Config) (net.Listener, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.validateNetwork(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}

	var tlsCfg *tls.Config
	if cfg.TLS.Enabled {
		var err error
		if tlsCfg, err = cfg.serverTLSConfig(); err != nil {
			return nil, err
		}
	}

	network := cfg.Network
	if network == NetworkWebSocket || network == NetworkWSS {
		network = NetworkTCP
	}
	ln, err := net.Listen(network, cfg.Address)
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
	}
	if cfg.Network == NetworkWebSocket || cfg.Network == NetworkWSS {
		return newWebSocketListener(ln, cfg.Path, cfg.HandshakeTimeout), nil
	}
	return ln, nil
}

// NewUpgrader accepts any origin when allowedOrigins is empty.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		},
	}
}

type wsListener struct {
	inner  net.Listener
	server *http.Server
	conns  chan net.Conn

	closeOnce sync.Once
	closed    chan struct{}
}

func newWebSocketListener(inner net.Listener, path string, handshakeTimeout time.Duration) *wsListener {
	l := &wsListener{
		inner:  inner,
		conns:  make(chan net.Conn),
		closed: make(chan struct{}),
	}
	upgrader := NewUpgrader(nil)
	upgrader.HandshakeTimeout = handshakeTimeout

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("component", "transport").Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
			return
		}
		conn := NewWebSocketConn(ws)
		select {
		case l.conns <- conn:
		case <-l.closed:
			_ = conn.Close()
		}
	})
	l.server = &http.Server{Handler: mux, ReadHeaderTimeout: handshakeTimeout}
	go func() {
		err := l.server.Serve(inner)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("component", "transport").Msg("websocket listener stopped")
		}
		_ = l.Close()
	}()
	return l
}

func (l *wsListener) Accept() (net.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *wsListener) Close() error {
	l.closeOnce.Do(func() {
		close(l.closed)
		ctx, cancel := context.WithTimeout(context.Background(), closeWait)
		defer cancel()
		_ = l.server.Shutdown(ctx)
	})
	return nil
}

func (l *wsListener) Addr() net.Addr { return l.inner.Addr() }
