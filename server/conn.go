package server

import (
	"errors"
	"log/slog"
	"time"

	"static-httpd/httpwire"
)

const tooManyRequestsBody = "Too many requests. Please try again later."

// handleConn é a função do worker: dona da conexão até fechá-la.
func (s *Server) handleConn(task ConnectionTask) {
	conn := task.Conn
	log := s.logger.With("conn", task.ID, "client", task.Addr.String())

	s.track(conn, true)
	defer func() {
		s.track(conn, false)
		_ = conn.Close()
	}()
	// panic de uma conexão não derruba o worker nem as outras conexões
	defer func() {
		if r := recover(); r != nil {
			log.Error("connection handler panicked", "panic", r)
		}
	}()

	log.Debug("connection accepted", "queued_for", s.now().Sub(task.Accepted))

	reader := httpwire.NewReader(conn)
	if s.cfg.MaxHeaderBytes > 0 {
		reader.MaxHeaderBytes = s.cfg.MaxHeaderBytes
	}
	if s.cfg.MaxBodyBytes > 0 {
		reader.MaxBodyBytes = s.cfg.MaxBodyBytes
	}

	served := 0
	for {
		dec := s.guard.Check(s.ctx, task.Addr)
		if !dec.Allowed {
			resp := httpwire.NewTextResponse(429, tooManyRequestsBody, false)
			resp.RetryAfter = dec.RetryAfter
			if err := s.writer.Write(conn, resp); err != nil {
				log.Debug("write 429 failed", "error", err)
			}
			return
		}

		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.KeepAlive)); err != nil {
			log.Debug("set read deadline failed", "error", err)
			return
		}

		req, err := reader.ReadRequest(task.Addr)
		if err != nil {
			s.logReadError(log, err, served)
			return
		}

		resp := s.handler.Serve(req)
		if s.closing.Load() {
			resp.KeepAlive = false
		}

		if err := s.writer.Write(conn, resp); err != nil {
			log.Debug("write failed", "error", err)
			return
		}
		served++
		log.Info("request served",
			"method", req.Method,
			"path", req.Path,
			"status", resp.Status,
			"ua", req.UserAgent,
		)

		if !resp.KeepAlive {
			return
		}
	}
}

func (s *Server) logReadError(log *slog.Logger, err error, served int) {
	switch {
	case errors.Is(err, httpwire.ErrConnClosed):
		log.Debug("connection closed by client", "requests", served)
	case errors.Is(err, httpwire.ErrTimeout):
		log.Debug("keep-alive timeout", "requests", served)
	case errors.Is(err, httpwire.ErrMalformed),
		errors.Is(err, httpwire.ErrHeaderTooLarge),
		errors.Is(err, httpwire.ErrBodyTooLarge):
		log.Warn("bad request, closing", "error", err)
	default:
		log.Debug("read failed", "error", err)
	}
}
