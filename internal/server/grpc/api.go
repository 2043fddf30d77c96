package internalgrpc

import (
	"context"

	"github.com/lomoval/murinahi/internal/app"
	"github.com/lomoval/murinahi/internal/event"
	"google.golang.org/grpc"
)

const ServiceName = "murinahi.Events"

type CreateEventRequest struct {
	Title     string `json:"title,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

type CreateEventResponse struct {
	ID string `json:"id"`
}

type GetEventRequest struct {
	ID string `json:"id"`
}

type GetEventResponse struct {
	Event *event.Event `json:"event"`
}

type UpdateParticipantRequest struct {
	EventID        string   `json:"eventId"`
	ParticipantID  string   `json:"participantId"`
	NgDates        []string `json:"ng_dates"`
	Name           string   `json:"name,omitempty"`
	InputCompleted *bool    `json:"inputCompleted,omitempty"`
}

type GetSummaryRequest struct {
	ID string `json:"id"`
}

type GetSummaryResponse struct {
	Summary *event.Summary `json:"summary"`
}

type EventsServer interface {
	CreateEvent(context.Context, *CreateEventRequest) (*CreateEventResponse, error)
	GetEvent(context.Context, *GetEventRequest) (*GetEventResponse, error)
	UpdateParticipant(context.Context, *UpdateParticipantRequest) (*app.UpdateResult, error)
	GetSummary(context.Context, *GetSummaryRequest) (*GetSummaryResponse, error)
}

func unaryHandler[Req any, Resp any](
	method string,
	call func(EventsServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error,
			interceptor grpc.UnaryServerInterceptor,
		) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EventsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(EventsServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EventsServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateEvent", EventsServer.CreateEvent),
		unaryHandler("GetEvent", EventsServer.GetEvent),
		unaryHandler("UpdateParticipant", EventsServer.UpdateParticipant),
		unaryHandler("GetSummary", EventsServer.GetSummary),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "murinahi/events",
}

func RegisterEventsServer(s grpc.ServiceRegistrar, srv EventsServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Client calls the events service with the json codec.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Req any, Resp any](ctx context.Context, c *Client, method string, in *Req) (*Resp, error) {
	out := new(Resp)
	err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, grpc.CallContentSubtype(CodecName))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateEvent(ctx context.Context, in *CreateEventRequest) (*CreateEventResponse, error) {
	return invoke[CreateEventRequest, CreateEventResponse](ctx, c, "CreateEvent", in)
}

func (c *Client) GetEvent(ctx context.Context, in *GetEventRequest) (*GetEventResponse, error) {
	return invoke[GetEventRequest, GetEventResponse](ctx, c, "GetEvent", in)
}

func (c *Client) UpdateParticipant(ctx context.Context, in *UpdateParticipantRequest) (*app.UpdateResult, error) {
	return invoke[UpdateParticipantRequest, app.UpdateResult](ctx, c, "UpdateParticipant", in)
}

func (c *Client) GetSummary(ctx context.Context, in *GetSummaryRequest) (*GetSummaryResponse, error) {
	return invoke[GetSummaryRequest, GetSummaryResponse](ctx, c, "GetSummary", in)
}
