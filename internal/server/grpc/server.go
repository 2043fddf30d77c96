package internalgrpc

import (
	"context"
	"net"
	"strconv"

	"github.com/lomoval/murinahi/internal/app"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const (
	errEventNotFound       = "event not found"
	errServiceUnavailable  = "service temporarily unavailable"
	errInternalServerError = "internal server error"
)

type Config struct {
	Host string
	Port int
}

var _ EventsServer = (*Server)(nil)

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	app        *app.App
	addr       string
}

func NewServer(config Config, app *app.App) *Server {
	s := &Server{app: app, addr: net.JoinHostPort(config.Host, strconv.Itoa(config.Port))}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(loggingHandler))
	s.health = health.NewServer()
	RegisterEventsServer(s.grpcServer, s)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	return s
}

func (s *Server) Start(_ context.Context) error {
	lsn, err := net.Listen("tcp", s.addr)
	if err != nil {
		log.Errorf("failed to listen grpc endpoint: %v", err)
		return err
	}

	log.Printf("starting grpc server on %s", s.addr)
	return s.Serve(lsn)
}

func (s *Server) Serve(lsn net.Listener) error {
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s.grpcServer.Serve(lsn)
}

func (s *Server) Stop(_ context.Context) error {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	return nil
}

func (s *Server) CreateEvent(ctx context.Context, r *CreateEventRequest) (*CreateEventResponse, error) {
	id, err := s.app.CreateEvent(ctx, app.CreateEventParams{
		Title:     r.Title,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &CreateEventResponse{ID: id}, nil
}

func (s *Server) GetEvent(ctx context.Context, r *GetEventRequest) (*GetEventResponse, error) {
	e, err := s.app.GetEvent(ctx, r.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	if e == nil {
		return nil, status.Error(codes.NotFound, errEventNotFound)
	}
	return &GetEventResponse{Event: e}, nil
}

func (s *Server) UpdateParticipant(ctx context.Context, r *UpdateParticipantRequest) (*app.UpdateResult, error) {
	res, err := s.app.UpdateParticipant(ctx, app.UpdateParticipantParams{
		EventID:        r.EventID,
		ParticipantID:  r.ParticipantID,
		NgDates:        r.NgDates,
		Name:           r.Name,
		InputCompleted: r.InputCompleted,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &res, nil
}

func (s *Server) GetSummary(ctx context.Context, r *GetSummaryRequest) (*GetSummaryResponse, error) {
	summary, err := s.app.Summary(ctx, r.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetSummaryResponse{Summary: summary}, nil
}

func toStatus(err error) error {
	switch app.KindOf(err) {
	case app.KindInvalid:
		return status.Error(codes.InvalidArgument, err.Error())
	case app.KindNotFound:
		return status.Error(codes.NotFound, errEventNotFound)
	case app.KindUnavailable:
		log.Warnf("store unavailable: %v", err)
		return status.Error(codes.Unavailable, errServiceUnavailable)
	default:
		log.Errorf("request failed: %v", err)
		return status.Error(codes.Internal, errInternalServerError)
	}
}
