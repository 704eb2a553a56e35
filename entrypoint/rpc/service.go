package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const EntryPointServiceName = "entrypoint.v1.EntryPointService"

const (
	PlanUserSwapProcedure           = "/entrypoint.v1.EntryPointService/PlanUserSwap"
	SimulateSwapProcedure           = "/entrypoint.v1.EntryPointService/SimulateSwap"
	BuildSwapAndActionMemoProcedure = "/entrypoint.v1.EntryPointService/BuildSwapAndActionMemo"
	ListSwapVenuesProcedure         = "/entrypoint.v1.EntryPointService/ListSwapVenues"
)

// jsonCodec lets connect carry the contract message types as they are, the
// same json the contracts exchange. Unknown fields are rejected.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// EntryPointServiceHandler is implemented by EntryPointServer
type EntryPointServiceHandler interface {
	PlanUserSwap(context.Context, *connect.Request[PlanUserSwapRequest]) (*connect.Response[PlanUserSwapResponse], error)
	SimulateSwap(context.Context, *connect.Request[SimulateSwapRequest]) (*connect.Response[SimulateSwapResponse], error)
	BuildSwapAndActionMemo(context.Context, *connect.Request[BuildMemoRequest]) (*connect.Response[BuildMemoResponse], error)
	ListSwapVenues(context.Context, *connect.Request[ListSwapVenuesRequest]) (*connect.Response[ListSwapVenuesResponse], error)
}

// NewEntryPointServiceHandler builds an HTTP handler for every procedure of the
// service. It returns the path to mount it on.
func NewEntryPointServiceHandler(svc EntryPointServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PlanUserSwapProcedure, connect.NewUnaryHandler(
		PlanUserSwapProcedure, svc.PlanUserSwap,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	))
	mux.Handle(SimulateSwapProcedure, connect.NewUnaryHandler(
		SimulateSwapProcedure, svc.SimulateSwap,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	))
	mux.Handle(BuildSwapAndActionMemoProcedure, connect.NewUnaryHandler(
		BuildSwapAndActionMemoProcedure, svc.BuildSwapAndActionMemo, opts...,
	))
	mux.Handle(ListSwapVenuesProcedure, connect.NewUnaryHandler(
		ListSwapVenuesProcedure, svc.ListSwapVenues,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	))
	return "/" + EntryPointServiceName + "/", mux
}

// EntryPointServiceClient calls the service over the connect protocol
type EntryPointServiceClient struct {
	planUserSwap           *connect.Client[PlanUserSwapRequest, PlanUserSwapResponse]
	simulateSwap           *connect.Client[SimulateSwapRequest, SimulateSwapResponse]
	buildSwapAndActionMemo *connect.Client[BuildMemoRequest, BuildMemoResponse]
	listSwapVenues         *connect.Client[ListSwapVenuesRequest, ListSwapVenuesResponse]
}

func NewEntryPointServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *EntryPointServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &EntryPointServiceClient{
		planUserSwap:           connect.NewClient[PlanUserSwapRequest, PlanUserSwapResponse](httpClient, baseURL+PlanUserSwapProcedure, opts...),
		simulateSwap:           connect.NewClient[SimulateSwapRequest, SimulateSwapResponse](httpClient, baseURL+SimulateSwapProcedure, opts...),
		buildSwapAndActionMemo: connect.NewClient[BuildMemoRequest, BuildMemoResponse](httpClient, baseURL+BuildSwapAndActionMemoProcedure, opts...),
		listSwapVenues:         connect.NewClient[ListSwapVenuesRequest, ListSwapVenuesResponse](httpClient, baseURL+ListSwapVenuesProcedure, opts...),
	}
}

func (c *EntryPointServiceClient) PlanUserSwap(ctx context.Context, req *PlanUserSwapRequest) (*PlanUserSwapResponse, error) {
	resp, err := c.planUserSwap.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *EntryPointServiceClient) SimulateSwap(ctx context.Context, req *SimulateSwapRequest) (*SimulateSwapResponse, error) {
	resp, err := c.simulateSwap.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *EntryPointServiceClient) BuildSwapAndActionMemo(ctx context.Context, req *BuildMemoRequest) (*BuildMemoResponse, error) {
	resp, err := c.buildSwapAndActionMemo.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *EntryPointServiceClient) ListSwapVenues(ctx context.Context) (*ListSwapVenuesResponse, error) {
	resp, err := c.listSwapVenues.CallUnary(ctx, connect.NewRequest(&ListSwapVenuesRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
