// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/lineserve/lineserve/internal/core/serverbase"
	"github.com/lineserve/lineserve/pkg/types"
)

type (
	// Server is a restartable line server. Run opens the listener and starts
	// accepting; Stop closes it. Both may be called any number of times from
	// any goroutine.
	Server struct {
		base *serverbase.Base

		// Immutable configuration (set at creation, never modified)
		cfg        Config
		logger     *log.Logger
		dispatcher Dispatcher

		observers *Registry[ServerStatusObserver]

		// acceptor is non-nil exactly while a run is in progress.
		acceptorMu sync.RWMutex
		acceptor   *Acceptor

		// transitions numbers every completed Run and Stop, under the
		// lifecycle lock. Status events are delivered in that order.
		transitions atomic.Uint64

		statusMu     sync.Mutex
		statusQueued uint64
		statusQueue  []statusEvent
		delivering   bool
	}

	statusEvent struct {
		name   string
		notify func(ServerStatusObserver)
	}

	// Option configures a Server.
	Option func(*Server)
)

var (
	defaultOnce   sync.Once
	defaultServer *Server
)

// WithLogger sets the logger used by the server and its connections.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDispatcher sets how background events reach observers.
// The default runs callbacks on the goroutine that raised them.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Server) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// New creates a halted server. Call Run to begin accepting connections.
func New(cfg Config, opts ...Option) *Server {
	s := &Server{
		base:       serverbase.NewBase(serverbase.WithErrorChannel(16)),
		cfg:        cfg.withDefaults(),
		logger:     log.NewWithOptions(os.Stderr, log.Options{Prefix: "lineserve"}),
		dispatcher: InlineDispatcher{},
		observers:  NewRegistry[ServerStatusObserver](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Default returns the process-wide server, creating it with DefaultConfig
// on first use. It is never torn down before the process exits.
func Default() *Server {
	defaultOnce.Do(func() {
		defaultServer = New(DefaultConfig())
	})
	return defaultServer
}

// Subscribe registers a status observer. It takes effect immediately in any state.
func (s *Server) Subscribe(observer ServerStatusObserver) Subscription {
	return s.observers.Subscribe(observer)
}

// Unsubscribe removes a registration made with Subscribe.
func (s *Server) Unsubscribe(sub Subscription) bool {
	return s.observers.Unsubscribe(sub)
}

// State returns the current lifecycle state.
func (s *Server) State() serverbase.State {
	return s.base.State()
}

// IsRunning returns whether the server is currently accepting connections.
func (s *Server) IsRunning() bool {
	return s.base.IsRunning()
}

// Err returns a channel of non-fatal background errors (failed accepts).
// Errors are dropped when nobody drains the channel.
func (s *Server) Err() <-chan error {
	return s.base.Err()
}

// Config returns the server's configuration.
func (s *Server) Config() Config {
	return s.cfg
}

// Addr returns the bound listen address while running, or "" when halted.
func (s *Server) Addr() string {
	a := s.currentAcceptor()
	if a == nil {
		return ""
	}
	return a.Addr().String()
}

// Port returns the bound port while running, or 0 when halted. With a
// configured port of 0 this is the port the kernel picked.
func (s *Server) Port() types.ListenPort {
	a := s.currentAcceptor()
	if a == nil {
		return 0
	}
	if tcp, ok := a.Addr().(*net.TCPAddr); ok {
		return types.ListenPort(tcp.Port)
	}
	return 0
}

// Connections returns the live connections accepted during the current run.
// It returns nil while halted.
func (s *Server) Connections() []*Connection {
	a := s.currentAcceptor()
	if a == nil {
		return nil
	}
	return a.Connections()
}

func (s *Server) currentAcceptor() *Acceptor {
	s.acceptorMu.RLock()
	defer s.acceptorMu.RUnlock()
	return s.acceptor
}

func (s *Server) swapAcceptor(a *Acceptor) *Acceptor {
	s.acceptorMu.Lock()
	defer s.acceptorMu.Unlock()
	prev := s.acceptor
	s.acceptor = a
	return prev
}

// notifyStatus delivers a Run or Stop event numbered gen. An event older than
// one already queued is dropped, so observers never see a stale state last.
// A call made while another goroutine (or an observer callback further up the
// stack) is delivering queues the event for that deliverer and returns.
func (s *Server) notifyStatus(gen uint64, name string, notify func(ServerStatusObserver)) {
	s.statusMu.Lock()
	if gen <= s.statusQueued {
		s.statusMu.Unlock()
		s.logger.Debug("dropping superseded status event", "event", name)
		return
	}
	s.statusQueued = gen
	s.statusQueue = append(s.statusQueue, statusEvent{name: name, notify: notify})
	if s.delivering {
		s.statusMu.Unlock()
		return
	}

	s.delivering = true
	for len(s.statusQueue) > 0 {
		ev := s.statusQueue[0]
		s.statusQueue = s.statusQueue[1:]
		s.statusMu.Unlock()
		notifyEach(s.logger, s.observers.Snapshot(), ev.name, ev.notify)
		s.statusMu.Lock()
	}
	s.delivering = false
	s.statusMu.Unlock()
}
