// Package server exposes the chat pipeline over HTTP.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corpusqa/corpusqa/internal/chatbot"
	"github.com/corpusqa/corpusqa/models"
)

// Server wires the orchestrator into an echo application.
type Server struct {
	bot    *chatbot.Chatbot
	logger *log.Logger
}

func New(bot *chatbot.Chatbot, logger *log.Logger) *Server {
	return &Server{bot: bot, logger: logger}
}

// Echo builds the configured echo instance; split out from Run so tests can
// drive it with httptest.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/auth/register", s.register)
	api.POST("/chat", s.chat)
	api.GET("/sessions", s.sessions)
	api.GET("/sessions/:id/context", s.sessionContext)
	return e
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Echo().Start(addr)
}

func (s *Server) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Identity == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "identity is required")
	}
	token := s.bot.Register(req.Identity)
	return c.JSON(http.StatusOK, RegisterResponse{Identity: req.Identity, Token: token})
}

// chat maps the pipeline's structured result onto the HTTP status line: the
// result code on error, 200 on success.
func (s *Server) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result := s.bot.Chat(c.Request().Context(), req.Question, req.SessionID, req.Identity, req.Token)
	if result.Status == models.StatusError {
		return c.JSON(result.Code, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) sessions(c echo.Context) error {
	return c.JSON(http.StatusOK, s.bot.Sessions())
}

func (s *Server) sessionContext(c echo.Context) error {
	n := 6
	if raw := c.QueryParam("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "n must be a positive integer")
		}
		n = v
	}
	id := c.Param("id")
	return c.JSON(http.StatusOK, ContextResponse{SessionID: id, Context: s.bot.Context(id, n)})
}
