package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/mibandtool/wftool/internal/model"
)

// CallbackPath is the route the authorisation page redirects to.
const CallbackPath = "/callback"

// ErrDenied is returned when the authorisation page reports an error instead
// of a code.
var ErrDenied = errors.New("授权被拒绝")

// StateVerifier checks the state parameter echoed back by the authorisation page.
type StateVerifier interface {
	VerifyState(state string) error
}

// Result is the outcome of one callback request.
type Result struct {
	Code string
	Err  error
}

// CallbackServer receives the OAuth redirect on a loopback address and hands
// the first valid authorisation code to Wait.
type CallbackServer struct {
	app      *fiber.App
	addr     string
	verifier StateVerifier
	logger   zerolog.Logger

	once    sync.Once
	results chan Result
}

// New builds a callback server for addr.
func New(addr string, verifier StateVerifier, logger zerolog.Logger) *CallbackServer {
	app := fiber.New(fiber.Config{
		IdleTimeout:           10 * time.Second,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		AppName:               "wftool",
		DisableStartupMessage: true,
	})
	s := &CallbackServer{
		app:      app,
		addr:     addr,
		verifier: verifier,
		logger:   logger,
		results:  make(chan Result, 1),
	}
	s.registerRoutes()
	return s
}

// RedirectURI is the callback URL to register with the authorisation page.
func (s *CallbackServer) RedirectURI() string {
	return "http://" + s.addr + CallbackPath
}

// Listen binds addr. Serve must be called afterwards.
func (s *CallbackServer) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, err
	}
	// Port 0 picks a free port; report the bound one.
	s.addr = ln.Addr().String()
	return ln, nil
}

// Serve handles requests on ln until Shutdown.
func (s *CallbackServer) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Wait blocks until a callback delivered a result or ctx ends.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case r := <-s.results:
		return r.Code, r.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *CallbackServer) registerRoutes() {
	s.app.Get("/healthz", s.handleHealth)
	s.app.Get(CallbackPath, s.handleCallback)
}

func (s *CallbackServer) handleHealth(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

func (s *CallbackServer) handleCallback(c *fiber.Ctx) error {
	if reason := strings.TrimSpace(c.Query("error")); reason != "" {
		s.logger.Warn().Str("error", reason).Str("description", c.Query("error_description")).Msg("authorisation denied")
		s.deliver(Result{Err: ErrDenied})
		return c.Status(http.StatusForbidden).JSON(model.Error(ErrDenied.Error()))
	}
	if err := s.verifier.VerifyState(c.Query("state")); err != nil {
		// A forged or stale request must not end the wait.
		s.logger.Warn().Err(err).Str("ip", c.IP()).Msg("callback with invalid state")
		return c.Status(http.StatusBadRequest).JSON(model.Error(err.Error()))
	}
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		return c.Status(http.StatusBadRequest).JSON(model.Error("缺少授权码"))
	}
	if !s.deliver(Result{Code: code}) {
		return c.JSON(model.Success("已完成登录，可以关闭此页面", fiber.Map{}))
	}
	s.logger.Debug().Msg("authorisation code received")
	return c.JSON(model.Success("授权成功，请返回终端", fiber.Map{}))
}

// deliver hands over the first result only.
func (s *CallbackServer) deliver(r Result) bool {
	delivered := false
	s.once.Do(func() {
		s.results <- r
		delivered = true
	})
	return delivered
}
