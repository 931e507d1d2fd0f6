// Package apiconnect wires the warikan.v1 services to Connect handlers and
// clients. Every handler and client it builds speaks the JSON codec from
// package api.
package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/warikan/pkg/api"
)

const (
	// CalculatorServiceName is the fully-qualified name of the CalculatorService service.
	CalculatorServiceName = "warikan.v1.CalculatorService"
	// ShareServiceName is the fully-qualified name of the ShareService service.
	ShareServiceName = "warikan.v1.ShareService"
)

const (
	CalculatorServiceCalculateProcedure = "/warikan.v1.CalculatorService/Calculate"
	CalculatorServiceExportCSVProcedure = "/warikan.v1.CalculatorService/ExportCSV"
	ShareServiceCreateShareProcedure    = "/warikan.v1.ShareService/CreateShare"
	ShareServiceGetShareProcedure       = "/warikan.v1.ShareService/GetShare"
)

// CalculatorServiceClient is a client for the warikan.v1.CalculatorService service.
type CalculatorServiceClient interface {
	Calculate(context.Context, *connect.Request[api.CalculateRequest]) (*connect.Response[api.CalculateResponse], error)
	ExportCSV(context.Context, *connect.Request[api.CalculateRequest]) (*connect.Response[api.ExportCSVResponse], error)
}

// NewCalculatorServiceClient constructs a client for the warikan.v1.CalculatorService service.
func NewCalculatorServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CalculatorServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &calculatorServiceClient{
		calculate: connect.NewClient[api.CalculateRequest, api.CalculateResponse](
			httpClient,
			baseURL+CalculatorServiceCalculateProcedure,
			api.WithJSON(),
			connect.WithClientOptions(opts...),
		),
		exportCSV: connect.NewClient[api.CalculateRequest, api.ExportCSVResponse](
			httpClient,
			baseURL+CalculatorServiceExportCSVProcedure,
			api.WithJSON(),
			connect.WithClientOptions(opts...),
		),
	}
}

type calculatorServiceClient struct {
	calculate *connect.Client[api.CalculateRequest, api.CalculateResponse]
	exportCSV *connect.Client[api.CalculateRequest, api.ExportCSVResponse]
}

func (c *calculatorServiceClient) Calculate(ctx context.Context, req *connect.Request[api.CalculateRequest]) (*connect.Response[api.CalculateResponse], error) {
	return c.calculate.CallUnary(ctx, req)
}

func (c *calculatorServiceClient) ExportCSV(ctx context.Context, req *connect.Request[api.CalculateRequest]) (*connect.Response[api.ExportCSVResponse], error) {
	return c.exportCSV.CallUnary(ctx, req)
}

// CalculatorServiceHandler is an implementation of the warikan.v1.CalculatorService service.
type CalculatorServiceHandler interface {
	Calculate(context.Context, *connect.Request[api.CalculateRequest]) (*connect.Response[api.CalculateResponse], error)
	ExportCSV(context.Context, *connect.Request[api.CalculateRequest]) (*connect.Response[api.ExportCSVResponse], error)
}

// NewCalculatorServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewCalculatorServiceHandler(svc CalculatorServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	calculateHandler := connect.NewUnaryHandler(
		CalculatorServiceCalculateProcedure,
		svc.Calculate,
		api.WithJSON(),
		connect.WithHandlerOptions(opts...),
	)
	exportCSVHandler := connect.NewUnaryHandler(
		CalculatorServiceExportCSVProcedure,
		svc.ExportCSV,
		api.WithJSON(),
		connect.WithHandlerOptions(opts...),
	)
	return "/" + CalculatorServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CalculatorServiceCalculateProcedure:
			calculateHandler.ServeHTTP(w, r)
		case CalculatorServiceExportCSVProcedure:
			exportCSVHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedCalculatorServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedCalculatorServiceHandler struct{}

func (UnimplementedCalculatorServiceHandler) Calculate(context.Context, *connect.Request[api.CalculateRequest]) (*connect.Response[api.CalculateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("warikan.v1.CalculatorService.Calculate is not implemented"))
}

func (UnimplementedCalculatorServiceHandler) ExportCSV(context.Context, *connect.Request[api.CalculateRequest]) (*connect.Response[api.ExportCSVResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("warikan.v1.CalculatorService.ExportCSV is not implemented"))
}

// ShareServiceClient is a client for the warikan.v1.ShareService service.
type ShareServiceClient interface {
	CreateShare(context.Context, *connect.Request[api.CalculateRequest]) (*connect.Response[api.CreateShareResponse], error)
	GetShare(context.Context, *connect.Request[api.GetShareRequest]) (*connect.Response[api.GetShareResponse], error)
}

// NewShareServiceClient constructs a client for the warikan.v1.ShareService service.
func NewShareServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ShareServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &shareServiceClient{
		createShare: connect.NewClient[api.CalculateRequest, api.CreateShareResponse](
			httpClient,
			baseURL+ShareServiceCreateShareProcedure,
			api.WithJSON(),
			connect.WithClientOptions(opts...),
		),
		getShare: connect.NewClient[api.GetShareRequest, api.GetShareResponse](
			httpClient,
			baseURL+ShareServiceGetShareProcedure,
			api.WithJSON(),
			connect.WithClientOptions(opts...),
		),
	}
}

type shareServiceClient struct {
	createShare *connect.Client[api.CalculateRequest, api.CreateShareResponse]
	getShare    *connect.Client[api.GetShareRequest, api.GetShareResponse]
}

func (c *shareServiceClient) CreateShare(ctx context.Context, req *connect.Request[api.CalculateRequest]) (*connect.Response[api.CreateShareResponse], error) {
	return c.createShare.CallUnary(ctx, req)
}

func (c *shareServiceClient) GetShare(ctx context.Context, req *connect.Request[api.GetShareRequest]) (*connect.Response[api.GetShareResponse], error) {
	return c.getShare.CallUnary(ctx, req)
}

// ShareServiceHandler is an implementation of the warikan.v1.ShareService service.
type ShareServiceHandler interface {
	CreateShare(context.Context, *connect.Request[api.CalculateRequest]) (*connect.Response[api.CreateShareResponse], error)
	GetShare(context.Context, *connect.Request[api.GetShareRequest]) (*connect.Response[api.GetShareResponse], error)
}

// NewShareServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewShareServiceHandler(svc ShareServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	createShareHandler := connect.NewUnaryHandler(
		ShareServiceCreateShareProcedure,
		svc.CreateShare,
		api.WithJSON(),
		connect.WithHandlerOptions(opts...),
	)
	getShareHandler := connect.NewUnaryHandler(
		ShareServiceGetShareProcedure,
		svc.GetShare,
		api.WithJSON(),
		connect.WithHandlerOptions(opts...),
	)
	return "/" + ShareServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ShareServiceCreateShareProcedure:
			createShareHandler.ServeHTTP(w, r)
		case ShareServiceGetShareProcedure:
			getShareHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedShareServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedShareServiceHandler struct{}

func (UnimplementedShareServiceHandler) CreateShare(context.Context, *connect.Request[api.CalculateRequest]) (*connect.Response[api.CreateShareResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("warikan.v1.ShareService.CreateShare is not implemented"))
}

func (UnimplementedShareServiceHandler) GetShare(context.Context, *connect.Request[api.GetShareRequest]) (*connect.Response[api.GetShareResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("warikan.v1.ShareService.GetShare is not implemented"))
}
