// Package server accepts TCP connections and runs the per-connection
// request loop: one goroutine per connection, and within a connection
// requests are handled strictly one after another — the loop does not read
// the next line until the previous response has been written. Failures are
// contained to their connection; only the dispatcher touches shared state,
// and it does so through its own synchronization.
package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"

	"github.com/iliyamo/cinema-ticket-server/internal/protocol"
)

// Dispatcher handles one decoded request and always returns a response.
type Dispatcher interface {
	Handle(ctx context.Context, req protocol.Request) protocol.Response
}

// Server owns the accept loop.
type Server struct {
	dispatcher Dispatcher
}

// New constructs a Server around a dispatcher.
func New(d Dispatcher) *Server {
	if d == nil {
		panic("nil dispatcher passed to server.New")
	}
	return &Server{dispatcher: d}
}

// ListenAndServe binds addr and serves until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("server: listening on %s", l.Addr())
	return s.Serve(l)
}

// Serve accepts connections on l and spawns one handling goroutine per
// connection. It returns when Accept fails, e.g. after the listener is
// closed.
func (s *Server) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// handleConn runs one connection's request loop until the peer disconnects
// or the connection becomes unusable.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	defer func() {
		// A panic here must not take the process down with it; sibling
		// connections keep running.
		if r := recover(); r != nil {
			log.Printf("server: panic on connection %s: %v", conn.RemoteAddr(), r)
		}
	}()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if len(line) == 0 || errors.Is(err, io.EOF) {
				// Clean or mid-line disconnect; nothing to answer.
				return
			}
			// A final unterminated line is still a complete request
			// attempt; fall through and try to answer it.
		}

		var resp protocol.Response
		req, decErr := protocol.DecodeRequest(line)
		if decErr != nil {
			// Malformed input is a per-request failure: report it and
			// keep the connection open.
			resp = protocol.Errorf("Bad request: %v", decErr)
		} else {
			resp = s.dispatcher.Handle(context.Background(), req)
		}

		out, encErr := protocol.EncodeResponse(resp)
		if encErr != nil {
			log.Printf("server: encode response failed: %v", encErr)
			out, _ = protocol.EncodeResponse(protocol.Errorf("Server error"))
		}
		if _, err := conn.Write(out); err != nil {
			return
		}
		if err != nil {
			// The read that produced this request already hit EOF.
			return
		}
	}
}
