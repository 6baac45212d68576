package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/extwallet/extwallet/wallet"
)

// Request is the wire form of one provider call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is the wire form of one provider reply.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Server carries provider calls over websocket connections.  Each
// connection is bound at upgrade time to a call context: connections
// presenting the internal auth token act for the trusted UI, everything
// else is an untrusted web origin identified by its Origin header.
type Server struct {
	dispatcher *Dispatcher

	// internalToken authenticates the UI connection.  An empty token
	// disables the internal tier entirely.
	internalToken string

	upgrader websocket.Upgrader

	wg   sync.WaitGroup
	quit chan struct{}

	// connMtx guards conns, the set of live websocket connections.  Stop
	// closes every member to unblock its read loop.
	connMtx sync.Mutex
	conns   map[*websocket.Conn]struct{}
}

// NewServer builds a websocket server over the dispatcher.
func NewServer(d *Dispatcher, internalToken string) *Server {
	return &Server{
		dispatcher:    d,
		internalToken: internalToken,
		upgrader: websocket.Upgrader{
			// Origin trust is decided per method by the
			// dispatcher, not at upgrade time.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		quit:  make(chan struct{}),
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// trackConn registers a live connection, or refuses it when the server is
// already stopping.
func (s *Server) trackConn(conn *websocket.Conn) bool {
	s.connMtx.Lock()
	defer s.connMtx.Unlock()

	select {
	case <-s.quit:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrackConn(conn *websocket.Conn) {
	s.connMtx.Lock()
	defer s.connMtx.Unlock()
	delete(s.conns, conn)
}

// callContext derives the call context of a connection from its upgrade
// request.  The internal sentinel is only granted on a matching auth token;
// no Origin header value can produce it.
func (s *Server) callContext(r *http.Request) wallet.Context {
	if s.internalToken != "" && r.Header.Get("X-Extwallet-Auth") == s.internalToken {
		return wallet.InternalContext()
	}
	return wallet.OriginContext(r.Header.Get("Origin"))
}

// ServeHTTP upgrades the connection and services provider calls until the
// peer goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := s.callContext(r)
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	log.Debugf("new provider connection from %s (internal=%v origin=%q)",
		r.RemoteAddr, call.Internal, call.Origin)

	if !s.trackConn(conn) {
		conn.Close()
		return
	}
	s.wg.Add(1)
	go s.serviceConn(conn, call)
}

// serviceConn reads requests off one connection.  Each request runs in its
// own goroutine so a call suspended on a confirmation round trip does not
// wedge the connection; writes are serialized by a per-connection mutex.
func (s *Server) serviceConn(conn *websocket.Conn, call wallet.Context) {
	defer s.wg.Done()
	defer s.untrackConn(conn)
	defer conn.Close()

	var writeMtx sync.Mutex
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		// Stop closes the connection, so a blocked read below returns
		// with an error as well.
		select {
		case <-s.quit:
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("provider connection closed: %v", err)
			}
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.writeResponse(conn, &writeMtx, &Response{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: CodeParse, Message: "malformed request"},
			})
			continue
		}

		go func() {
			resp := &Response{JSONRPC: "2.0", ID: req.ID}
			result, rpcErr := s.dispatcher.Dispatch(ctx, call, req.Method, req.Params)
			if rpcErr != nil {
				resp.Error = rpcErr
			} else {
				resp.Result = result
			}
			s.writeResponse(conn, &writeMtx, resp)
		}()
	}
}

func (s *Server) writeResponse(conn *websocket.Conn, mtx *sync.Mutex, resp *Response) {
	mtx.Lock()
	defer mtx.Unlock()

	if err := conn.WriteJSON(resp); err != nil {
		log.Warnf("failed to write provider response: %v", err)
	}
}

// Stop closes every live connection to unblock its handler and waits for
// all of them to finish.
func (s *Server) Stop() {
	close(s.quit)

	s.connMtx.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connMtx.Unlock()

	s.wg.Wait()
}
