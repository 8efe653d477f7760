// SPDX-License-Identifier: MPL-2.0

package lineserver

import (
	"context"
	"errors"
	"net"

	"github.com/lineserve/lineserve/internal/core/serverbase"
)

// Run opens the listening socket and starts the accept loop, then notifies
// status observers with NotifyOnRun. Status events reach observers in the
// order the transitions happened; see notifyStatus.
//
// Calling Run while already running logs and returns nil. If the socket cannot
// be opened the server stays halted and a *BindError is returned. The context
// only bounds the bind; the accept loop runs until Stop.
func (s *Server) Run(ctx context.Context) error {
	var gen uint64
	err := s.base.TransitionToRunning(ctx, func(context.Context) error {
		addr := s.cfg.Address()

		var lc net.ListenConfig
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			return &BindError{Addr: addr, Err: err}
		}

		a := newAcceptor(listener, s.observers, s.dispatcher, s.logger, s.cfg.MaxLineBytes)
		a.reportErr = s.base.SendError
		s.swapAcceptor(a)

		s.base.Go(a.Serve)
		gen = s.transitions.Add(1)
		return nil
	})

	switch {
	case errors.Is(err, serverbase.ErrAlreadyRunning):
		s.logger.Info("already running", "addr", s.Addr())
		return nil
	case err != nil:
		s.logger.Error("run failed", "error", err)
		return err
	}

	s.logger.Info("server running", "addr", s.Addr())
	s.notifyStatus(gen, "run", func(o ServerStatusObserver) { o.NotifyOnRun() })
	return nil
}

// Stop closes the listening socket, waits for the accept loop to exit and
// notifies status observers with NotifyOnShutdown.
//
// Connections accepted earlier keep running until their peers disconnect,
// unless Config.CloseConnectionsOnStop is set. Calling Stop while halted logs
// and does nothing. Errors closing sockets are logged, never returned.
func (s *Server) Stop() {
	var (
		stopped *Acceptor
		gen     uint64
	)
	err := s.base.TransitionToHalted(func() {
		gen = s.transitions.Add(1)
		stopped = s.swapAcceptor(nil)
		if stopped == nil {
			return
		}
		if err := stopped.Close(); err != nil {
			s.logger.Warn("closing listener failed", "error", err)
		}
	})

	if errors.Is(err, serverbase.ErrAlreadyHalted) {
		s.logger.Info("already stopped")
		return
	}

	if stopped != nil && s.cfg.CloseConnectionsOnStop {
		stopped.CloseConnections()
	}

	s.logger.Info("server stopped")
	s.notifyStatus(gen, "shutdown", func(o ServerStatusObserver) { o.NotifyOnShutdown() })
}
