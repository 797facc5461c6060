package control

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"hotconsole/internal/executor"
	"hotconsole/internal/logging"
	"hotconsole/internal/runner"

	"github.com/sirupsen/logrus"
)

// Backend answers control requests. *runner.Runner implements it.
type Backend interface {
	Status(ctx context.Context) (runner.Status, error)
	Commands(ctx context.Context) ([]runner.CommandInfo, error)
	Exec(ctx context.Context, name string, option int) (executor.Result, error)
}

// Server accepts control connections, one request per connection.
type Server struct {
	backend Backend
	logger  logrus.FieldLogger
	wg      sync.WaitGroup
}

func NewServer(b Backend, logger logrus.FieldLogger) *Server {
	return &Server{backend: b, logger: logging.Component(logger, "control")}
}

// Serve accepts on ln until ctx is done, then closes ln and waits for open
// connections.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	defer s.wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Errorf("control accept: %v", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil && ctx.Err() == nil {
			s.logger.Debugf("control connection close: %v", err)
		}
	}()
	sc := bufio.NewScanner(conn)
	if !sc.Scan() {
		return
	}
	var req Request
	var resp Response
	if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
		resp = Response{Error: "bad request: " + err.Error()}
	} else {
		resp = s.handle(ctx, req)
	}
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Debugf("control write: %v", err)
	}
}

func (s *Server) handle(ctx context.Context, req Request) Response {
	s.logger.WithField("op", req.Op).Debug("control request")
	switch req.Op {
	case OpHealth:
		return Response{OK: true, Message: "ok"}
	case OpStatus:
		st, err := s.backend.Status(ctx)
		if err != nil {
			return failed(err)
		}
		return Response{OK: true, Status: &st}
	case OpList:
		cmds, err := s.backend.Commands(ctx)
		if err != nil {
			return failed(err)
		}
		return Response{OK: true, Commands: cmds}
	case OpExec:
		if req.Name == "" {
			return Response{Error: "exec: name is required"}
		}
		res, err := s.backend.Exec(ctx, req.Name, req.Option)
		if err != nil {
			return failed(err)
		}
		return Response{OK: res.Outcome != executor.OutcomeFailed, Result: newExecResult(res)}
	default:
		return Response{Error: "unknown op " + req.Op}
	}
}

func failed(err error) Response {
	return Response{Error: err.Error()}
}
