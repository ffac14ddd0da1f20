package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/endgame-trainer/internal/chessboard"
	"github.com/park285/endgame-trainer/internal/msgcat"
	"github.com/park285/endgame-trainer/internal/trainer"
	"github.com/park285/endgame-trainer/pkg/boarddto"
)

const sessionsPrefix = "/api/sessions"

// Server exposes a trainer.Service over loopback HTTP so a thin client
// (a web view, a mobile shell) can host the board.
type Server struct {
	svc    *trainer.Service
	msgs   *msgcat.Catalog
	logger *zap.Logger
	srv    *fasthttp.Server
}

func NewServer(svc *trainer.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, msgs: svc.Messages(), logger: logger}
	s.srv = &fasthttp.Server{
		Handler:      s.Handle,
		Name:         "endgame-trainer",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

func (s *Server) Shutdown() error { return s.srv.Shutdown() }

// Handle routes one request.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	if path != sessionsPrefix && !strings.HasPrefix(path, sessionsPrefix+"/") {
		s.noRoute(ctx)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(path, sessionsPrefix), "/")
	parts := strings.Split(rest, "/")
	method := string(ctx.Method())

	switch {
	case rest == "":
		if method != fasthttp.MethodPost {
			s.methodNotAllowed(ctx)
			return
		}
		s.handleCreate(ctx)
	case len(parts) == 1:
		switch method {
		case fasthttp.MethodGet:
			s.handleGet(ctx, parts[0])
		case fasthttp.MethodDelete:
			s.handleClose(ctx, parts[0])
		default:
			s.methodNotAllowed(ctx)
		}
	case len(parts) == 2 && parts[1] == "board.png":
		if method != fasthttp.MethodGet {
			s.methodNotAllowed(ctx)
			return
		}
		s.handlePNG(ctx, parts[0])
	case len(parts) == 2 && parts[1] == "pointer":
		if method != fasthttp.MethodPost {
			s.methodNotAllowed(ctx)
			return
		}
		s.handlePointer(ctx, parts[0])
	case len(parts) == 2 && parts[1] == "save":
		if method != fasthttp.MethodPost {
			s.methodNotAllowed(ctx)
			return
		}
		s.handleSave(ctx, parts[0])
	default:
		s.noRoute(ctx)
	}
}

func (s *Server) handleCreate(ctx *fasthttp.RequestCtx) {
	var req boarddto.CreateSessionRequest
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			s.badRequest(ctx, "invalid json: "+err.Error())
			return
		}
	}
	resp, err := s.svc.Create(ctx, req)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusCreated, resp)
}

func (s *Server) handleGet(ctx *fasthttp.RequestCtx, id string) {
	st, err := s.svc.Get(ctx, id)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, st)
}

func (s *Server) handlePNG(ctx *fasthttp.RequestCtx, id string) {
	data, err := s.svc.PNG(ctx, id)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("image/png")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(data)
}

func (s *Server) handlePointer(ctx *fasthttp.RequestCtx, id string) {
	var req boarddto.PointerRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		s.badRequest(ctx, "invalid json: "+err.Error())
		return
	}
	resp, err := s.svc.Pointer(ctx, id, req)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handleSave(ctx *fasthttp.RequestCtx, id string) {
	resp, err := s.svc.Save(ctx, id)
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, resp)
}

// DELETE saves and closes; ?discard=1 drops the saved board as well.
func (s *Server) handleClose(ctx *fasthttp.RequestCtx, id string) {
	var err error
	if ctx.QueryArgs().GetBool("discard") {
		err = s.svc.Discard(ctx, id)
	} else {
		err = s.svc.Close(ctx, id)
	}
	if err != nil {
		s.writeError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, err error) {
	var de boarddto.DomainError
	switch {
	case errors.As(err, &de):
		status := fasthttp.StatusBadRequest
		switch de.Code {
		case boarddto.CodeNotFound:
			status = fasthttp.StatusNotFound
		case boarddto.CodeConflict:
			status = fasthttp.StatusConflict
		case boarddto.CodeInternal:
			status = fasthttp.StatusInternalServerError
		}
		s.fail(ctx, status, de)
	case errors.Is(err, trainer.ErrSessionNotFound):
		s.fail(ctx, fasthttp.StatusNotFound, boarddto.DomainError{Code: boarddto.CodeNotFound, Message: s.msgs.Text("error.not_found", s.routeData(ctx))})
	case errors.Is(err, trainer.ErrSaveConflict):
		msg := s.msgs.Text("error.conflict", map[string]string{"Detail": err.Error()})
		s.fail(ctx, fasthttp.StatusConflict, boarddto.DomainError{Code: boarddto.CodeConflict, Message: msg, Retryable: true})
	case errors.Is(err, chessboard.ErrMalformedNotation), errors.Is(err, trainer.ErrUnknownAction):
		s.badRequest(ctx, err.Error())
	default:
		s.logger.Error("http_request_failed",
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())),
			zap.Error(err),
		)
		s.fail(ctx, fasthttp.StatusInternalServerError, boarddto.DomainError{Code: boarddto.CodeInternal, Message: s.msgs.Text("error.internal", nil)})
	}
}

func (s *Server) routeData(ctx *fasthttp.RequestCtx) map[string]string {
	return map[string]string{"Path": string(ctx.Path()), "Method": string(ctx.Method())}
}

func (s *Server) badRequest(ctx *fasthttp.RequestCtx, detail string) {
	msg := s.msgs.Text("error.bad_request", map[string]string{"Detail": detail})
	s.fail(ctx, fasthttp.StatusBadRequest, boarddto.DomainError{Code: boarddto.CodeBadRequest, Message: msg})
}

func (s *Server) noRoute(ctx *fasthttp.RequestCtx) {
	msg := s.msgs.Text("error.no_route", s.routeData(ctx))
	s.fail(ctx, fasthttp.StatusNotFound, boarddto.DomainError{Code: boarddto.CodeNotFound, Message: msg})
}

func (s *Server) methodNotAllowed(ctx *fasthttp.RequestCtx) {
	msg := s.msgs.Text("error.method_not_allowed", s.routeData(ctx))
	s.fail(ctx, fasthttp.StatusMethodNotAllowed, boarddto.DomainError{Code: boarddto.CodeBadRequest, Message: msg})
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, status int, de boarddto.DomainError) {
	s.writeJSON(ctx, status, de)
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("http_encode_failed", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}
