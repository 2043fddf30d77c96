package internalhttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/lomoval/murinahi/internal/app"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host string
	Port int
}

type Server struct {
	srv     *http.Server
	addr    string
	app     *app.App
	metrics http.Handler
}

// NewServer prepares the REST API. metrics may be nil.
func NewServer(config Config, app *app.App, metrics http.Handler) *Server {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	return &Server{
		addr:    addr,
		srv:     &http.Server{Addr: addr, ReadHeaderTimeout: 10 * time.Second},
		app:     app,
		metrics: metrics,
	}
}

type route struct {
	method  string
	pattern string
	handler runtime.HandlerFunc
}

// Handler builds the routed handler wrapped with request logging.
func (s *Server) Handler() (http.Handler, error) {
	mux := runtime.NewServeMux()
	routes := []route{
		{http.MethodPost, "/events", s.createEvent},
		{http.MethodGet, "/events/{id}", s.getEvent},
		{http.MethodPut, "/events/{id}/participants/{participantId}", s.updateParticipant},
		{http.MethodGet, "/events/{id}/summary", s.summary},
		{http.MethodGet, "/events/{id}/ical", s.exportICal},
		{http.MethodGet, "/healthz", s.health},
	}
	if s.metrics != nil {
		routes = append(routes, route{http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			s.metrics.ServeHTTP(w, r)
		}})
	}
	for _, route := range routes {
		if err := mux.HandlePath(route.method, route.pattern, route.handler); err != nil {
			return nil, fmt.Errorf("failed to register %s %s: %w", route.method, route.pattern, err)
		}
	}
	return loggingMiddleware(mux), nil
}

func (s *Server) Start(_ context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	s.srv.Handler = handler

	log.Printf("starting http server on %s", s.addr)
	err = s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func getIP(req *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}

	if parsed := net.ParseIP(ip); parsed == nil {
		return "", fmt.Errorf("userip: %q is not IP:port", req.RemoteAddr)
	}
	return ip, nil
}
