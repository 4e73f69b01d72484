package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	collect "github.com/hanpama/graphplan/internal/collect"
	eventbus "github.com/hanpama/graphplan/internal/eventbus"
	events "github.com/hanpama/graphplan/internal/events"
	language "github.com/hanpama/graphplan/internal/language"
	reqid "github.com/hanpama/graphplan/internal/reqid"
	schema "github.com/hanpama/graphplan/internal/schema"
	validation "github.com/hanpama/graphplan/internal/validation"
	"go.uber.org/zap"
)

// Handler is an http.Handler exposing the analysis endpoints:
//
//	POST /validate  run merge validation, respond with diagnostics
//	POST /plan      build the collection plan for one operation
//
// It parses requests, runs the analysis, and formats JSON responses.
type Handler struct {
	opt Options
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// Logger receives per-request logs. Defaults to a nop logger.
	Logger *zap.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithLogger(l *zap.Logger) Option { return func(o *Options) { o.Logger = l } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a new analysis HTTP handler.
func New(opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second, Logger: zap.NewNop()}
	for _, f := range opts {
		f(&op)
	}
	if op.Logger == nil {
		op.Logger = zap.NewNop()
	}
	return &Handler{opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, _ = reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
		h.opt.Logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		)
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse("method not allowed"), h.opt.Pretty)
		return
	}

	req, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != "" {
		status = http.StatusBadRequest
		if berr == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	sch, err := schema.FromSDL("request", req.Schema)
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse("invalid schema: "+err.Error()), h.opt.Pretty)
		return
	}
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse("invalid query: "+err.Error()), h.opt.Pretty)
		return
	}

	switch r.URL.Path {
	case "/validate":
		writeJSON(w, status, h.validate(ctx, sch, doc, req), h.opt.Pretty)
	case "/plan":
		res, perr := h.plan(ctx, sch, doc, req)
		if perr != nil {
			status = http.StatusUnprocessableEntity
			writeJSON(w, status, errorResponse(perr.Error()), h.opt.Pretty)
			return
		}
		writeJSON(w, status, res, h.opt.Pretty)
	default:
		status = http.StatusNotFound
		writeJSON(w, status, errorResponse("not found"), h.opt.Pretty)
	}
}

// ValidateResponse is the body returned by POST /validate.
type ValidateResponse struct {
	Valid       bool                    `json:"valid"`
	Diagnostics []validation.Diagnostic `json:"diagnostics"`
}

func (h *Handler) validate(ctx context.Context, sch *schema.Schema, doc *language.QueryDocument, req AnalyzeRequest) ValidateResponse {
	start := time.Now()
	eventbus.Publish(ctx, events.ValidationStart{Query: req.Query, OperationName: req.OperationName})
	diagnostics := validation.Validate(sch, doc)
	eventbus.Publish(ctx, events.ValidationFinish{
		Query:           req.Query,
		OperationName:   req.OperationName,
		DiagnosticCount: len(diagnostics),
		Duration:        time.Since(start),
	})
	if diagnostics == nil {
		diagnostics = []validation.Diagnostic{}
	}
	return ValidateResponse{Valid: len(diagnostics) == 0, Diagnostics: diagnostics}
}

// PlanResponse is the body returned by POST /plan.
type PlanResponse struct {
	Plan *collect.Plan `json:"plan"`
}

func (h *Handler) plan(ctx context.Context, sch *schema.Schema, doc *language.QueryDocument, req AnalyzeRequest) (PlanResponse, error) {
	start := time.Now()
	eventbus.Publish(ctx, events.PlanStart{Query: req.Query, OperationName: req.OperationName})
	plan, err := collect.BuildPlan(sch, doc, req.OperationName, req.Variables)
	eventbus.Publish(ctx, events.PlanFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		Err:           err,
		Duration:      time.Since(start),
	})
	if err != nil {
		return PlanResponse{}, err
	}
	return PlanResponse{Plan: plan}, nil
}

// ------------------ Request parsing ------------------

// AnalyzeRequest is the shared request body of the analysis endpoints.
type AnalyzeRequest struct {
	Schema        string         `json:"schema"`
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (AnalyzeRequest, string) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return AnalyzeRequest{}, "unsupported Content-Type"
	}
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return AnalyzeRequest{}, "failed to read body"
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return AnalyzeRequest{}, errBodyTooLargeMessage
	}

	var req AnalyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return AnalyzeRequest{}, "invalid JSON"
	}
	if req.Schema == "" {
		return AnalyzeRequest{}, "missing 'schema'"
	}
	if req.Query == "" {
		return AnalyzeRequest{}, "missing 'query'"
	}
	return req, ""
}

// ------------------ Response formatting ------------------

type errorBody struct {
	Error string `json:"error"`
}

func errorResponse(message string) errorBody { return errorBody{Error: message} }

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
