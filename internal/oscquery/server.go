package oscquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	hostInfoQuery     = "HOST_INFO"
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 2 * time.Second
)

// Server serves this application's OSCQuery HOST_INFO and node tree.
type Server struct {
	info HostInfo
	root *Node
	srv  *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer builds the HOST_INFO and node tree for an application named
// name that receives OSC on oscAddr.
func NewServer(name string, oscAddr netip.AddrPort) *Server {
	s := &Server{
		info: HostInfo{
			Name:         name,
			OSCIP:        oscAddr.Addr().String(),
			OSCPort:      int(oscAddr.Port()),
			OSCTransport: "UDP",
			Extensions: map[string]bool{
				"ACCESS":      true,
				"CLIPMODE":    false,
				"RANGE":       true,
				"TYPE":        true,
				"VALUE":       true,
				"DESCRIPTION": true,
			},
		},
		root: defaultTree(),
	}

	r := chi.NewRouter()
	r.Get("/*", s.handleGet)
	s.srv = &http.Server{Handler: r, ReadHeaderTimeout: readHeaderTimeout}
	return s
}

// defaultTree requests avatar change notifications from the client.
func defaultTree() *Node {
	return &Node{
		FullPath: "/",
		Access:   AccessNone,
		Contents: map[string]*Node{
			"avatar": {
				FullPath: "/avatar",
				Access:   AccessNone,
				Contents: map[string]*Node{
					"change": {
						FullPath:    "/avatar/change",
						Access:      AccessWrite,
						Type:        "s",
						Description: "avatar change notification",
					},
				},
			},
		},
	}
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Listen binds the HTTP listener on addr ("ip:0" picks a free port).
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("oscquery listen %s: %w", addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// closeListener releases a listener that will never be served.
func (s *Server) closeListener() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close() //nolint:errcheck // nothing to do on a failed close
		s.listener = nil
	}
}

// Port returns the bound HTTP port, or 0 before Listen.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Serve serves on the bound listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("oscquery: Serve called before Listen")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return fmt.Errorf("oscquery serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("oscquery shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := r.URL.Query()[hostInfoQuery]; ok {
		writeJSON(w, s.info)
		return
	}

	node := s.root.Find(r.URL.Path)
	if node == nil {
		http.NotFound(w, r)
		return
	}

	// A single attribute query (e.g. ?ACCESS) returns just that attribute.
	for attr := range r.URL.Query() {
		if v, ok := nodeAttribute(node, strings.ToUpper(attr)); ok {
			writeJSON(w, map[string]any{strings.ToUpper(attr): v})
			return
		}
	}
	writeJSON(w, node)
}

func nodeAttribute(n *Node, attr string) (any, bool) {
	switch attr {
	case "FULL_PATH":
		return n.FullPath, true
	case "ACCESS":
		return n.Access, true
	case "DESCRIPTION":
		return n.Description, true
	case "TYPE":
		return n.Type, true
	case "VALUE":
		return n.Value, true
	case "CONTENTS":
		return n.Contents, true
	default:
		return nil, false
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client gone
}
