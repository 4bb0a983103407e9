package tlsserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fryholic/cctv-coordinator/internal/apperr"
	"github.com/fryholic/cctv-coordinator/internal/metrics"
)

// Server is the TLS listener: one goroutine accepts connections, one
// goroutine per accepted connection runs its dispatch loop (spec.md C9).
type Server struct {
	deps Deps
	log  zerolog.Logger

	listener net.Listener
	wg       sync.WaitGroup
}

// New constructs a Server bound to listenAddr once certFile/keyFile load
// successfully.
func New(listenAddr, certFile, keyFile string, deps Deps) (*Server, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTLS, "load keypair", err)
	}
	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	ln, err := tls.Listen("tcp", listenAddr, tlsCfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTLS, "listen", err)
	}
	deps.Log = deps.Log.With().Str("component", "tlsserver").Logger()
	return &Server{deps: deps, log: deps.Log, listener: ln}, nil
}

// Serve accepts connections until ctx is cancelled or the listener fails.
// It blocks; callers run it on its own goroutine.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("tlsserver: accept: %w", err)
			}
		}
		s.wg.Add(1)
		metrics.ConnectionsActive.Inc()
		go func() {
			defer s.wg.Done()
			defer metrics.ConnectionsActive.Dec()
			newConnection(conn, s.deps, s.log).serve(ctx)
		}()
	}
}

// Close stops accepting new connections without waiting for existing ones.
func (s *Server) Close() error {
	return s.listener.Close()
}
