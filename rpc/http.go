package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stableamm/core"
	"stableamm/gateway/middleware"
	"stableamm/observability/eventlog"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError      = -32700
	codeInvalidRequest  = -32600
	codeMethodNotFound  = -32601
	codeInvalidParams   = -32602
	codeUnauthorized    = -32001
	codeServerError     = -32000
	codeOperationFailed = -32030
)

// scopeOperate is required for every state-changing method.
const scopeOperate = "pools:write"

// Options configures optional collaborators of the server.
type Options struct {
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          *middleware.CORSConfig
	EventLog      *eventlog.Sink
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger
}

type handlerFunc func(s *Server, r *http.Request, req *RPCRequest) (interface{}, *RPCError)

type method struct {
	write   bool
	handler handlerFunc
}

// Server exposes the node over JSON-RPC 2.0.
type Server struct {
	node    *core.Node
	opts    Options
	logger  *slog.Logger
	methods map[string]method
}

// NewServer builds a server. Mutating methods need an Authenticator; without
// one they are rejected.
func NewServer(node *core.Node, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{node: node, opts: opts, logger: logger}
	s.methods = map[string]method{
		"stableamm_height":                              {handler: (*Server).handleHeight},
		"stableamm_getBalance":                          {handler: (*Server).handleGetBalance},
		"stableamm_poolCount":                           {handler: (*Server).handlePoolCount},
		"stableamm_getPool":                             {handler: (*Server).handleGetPool},
		"stableamm_getPoolByLpCurrency":                 {handler: (*Server).handleGetPoolByLpCurrency},
		"stableamm_getA":                                {handler: (*Server).handleGetA},
		"stableamm_virtualPrice":                        {handler: (*Server).handleVirtualPrice},
		"stableamm_calculateSwap":                       {handler: (*Server).handleCalculateSwap},
		"stableamm_calculateCurrencyAmount":             {handler: (*Server).handleCalculateCurrencyAmount},
		"stableamm_calculateRemoveLiquidity":            {handler: (*Server).handleCalculateRemoveLiquidity},
		"stableamm_calculateRemoveLiquidityOneCurrency": {handler: (*Server).handleCalculateRemoveLiquidityOneCurrency},
		"stableamm_adminBalances":                       {handler: (*Server).handleAdminBalances},
		"stableamm_events":                              {handler: (*Server).handleEvents},
		"stableamm_addLiquidity":                        {write: true, handler: (*Server).handleAddLiquidity},
		"stableamm_swap":                                {write: true, handler: (*Server).handleSwap},
		"stableamm_removeLiquidity":                     {write: true, handler: (*Server).handleRemoveLiquidity},
		"stableamm_removeLiquidityOneCurrency":          {write: true, handler: (*Server).handleRemoveLiquidityOneCurrency},
		"stableamm_removeLiquidityImbalance":            {write: true, handler: (*Server).handleRemoveLiquidityImbalance},
		"stableamm_createPool":                          {write: true, handler: (*Server).handleCreatePool},
		"stableamm_setFee":                              {write: true, handler: (*Server).handleSetFee},
		"stableamm_updateFeeReceiver":                   {write: true, handler: (*Server).handleUpdateFeeReceiver},
		"stableamm_rampA":                               {write: true, handler: (*Server).handleRampA},
		"stableamm_stopRampA":                           {write: true, handler: (*Server).handleStopRampA},
		"stableamm_withdrawAdminFee":                    {write: true, handler: (*Server).handleWithdrawAdminFee},
	}
	return s
}

// Router mounts the JSON-RPC endpoint, health check and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if s.opts.CORS != nil {
		r.Use(middleware.CORS(*s.opts.CORS))
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Group(func(rr chi.Router) {
		if s.opts.RateLimiter != nil {
			rr.Use(s.opts.RateLimiter.Middleware("rpc"))
		}
		if s.opts.Observability != nil {
			rr.Use(s.opts.Observability.Middleware("rpc"))
		}
		rr.Post("/rpc", s.handle)
	})

	gatherers := prometheus.Gatherers{s.opts.Gatherer}
	if s.opts.Observability != nil {
		gatherers = append(gatherers, s.opts.Observability.Registry())
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
	return r
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	status  int
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	m, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	if m.write {
		actor, authErr := s.authenticate(r)
		if authErr != nil {
			writeError(w, authErr.status, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		r = r.WithContext(withActor(r.Context(), actor))
	}

	result, rpcErr := m.handler(s, r, req)
	if rpcErr != nil {
		writeError(w, rpcErr.status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	writeResult(w, req.ID, result)
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}
