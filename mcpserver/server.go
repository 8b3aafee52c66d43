package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jonwraymond/profilemcp/auth"
	"github.com/jonwraymond/profilemcp/cache"
	"github.com/jonwraymond/profilemcp/observe"
	"github.com/jonwraymond/profilemcp/profile"
	"github.com/jonwraymond/profilemcp/resilience"
	"github.com/jonwraymond/profilemcp/upstream"
)

// MessageArg is the only tool argument, accepted by send_message.
const MessageArg = "message"

// Caller runs one profile operation. *profile.Service implements it.
type Caller interface {
	Call(ctx context.Context, tool, message string) (upstream.Result, error)
}

// Options configures a Server. Zero values disable the optional layers.
type Options struct {
	Name    string
	Version string

	Middleware *observe.Middleware
	Logger     observe.Logger

	// ResultCache and ResultTTL enable caching of successful reads.
	ResultCache cache.Cache
	ResultTTL   time.Duration

	// Bulkhead caps concurrent tool calls.
	Bulkhead *resilience.Bulkhead
}

// Server is an MCP server backed by a Caller.
type Server struct {
	mcp      *server.MCPServer
	caller   Caller
	exec     observe.ExecuteFunc
	cache    *cache.CacheMiddleware
	bulkhead *resilience.Bulkhead
	logger   observe.Logger
}

// New builds the server and registers every profile operation.
func New(caller Caller, opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "profile-mcp"
	}
	if opts.Middleware == nil {
		opts.Middleware = observe.NewMiddleware(nil, nil, opts.Logger)
	}
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}

	policy := cache.NoCachePolicy()
	if opts.ResultCache != nil {
		policy = cache.TTLPolicy(opts.ResultTTL)
	}

	s := &Server{
		mcp: server.NewMCPServer(opts.Name, opts.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		caller:   caller,
		cache:    cache.NewCacheMiddleware(opts.ResultCache, nil, policy, nil),
		bulkhead: opts.Bulkhead,
		logger:   opts.Logger,
	}
	s.exec = opts.Middleware.Wrap(s.execute)

	for _, op := range profile.Operations {
		s.mcp.AddTool(toolFor(op), s.handler(op))
	}
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio speaks MCP over in and out until ctx ends or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// HTTPHandler serves streamable HTTP. A non-empty apiKey is required in
// the X-API-Key header of every request.
func (s *Server) HTTPHandler(apiKey string) http.Handler {
	return auth.RequireAPIKey(apiKey, server.NewStreamableHTTPServer(s.mcp))
}

func toolFor(op profile.Operation) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(op.Description),
		mcp.WithTitleAnnotation(op.Title),
		mcp.WithReadOnlyHintAnnotation(op.ReadOnly),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(op.ReadOnly),
		mcp.WithOpenWorldHintAnnotation(true),
	}
	if op.Tool == profile.ToolSendMessage {
		opts = append(opts, mcp.WithString(MessageArg,
			mcp.Description("Text of the message to send. Empty text is replaced by the default."),
			mcp.DefaultString(profile.DefaultMessage),
		))
	}
	return mcp.NewTool(op.Tool, opts...)
}

func tagsFor(op profile.Operation) []string {
	if op.ReadOnly {
		return []string{"read"}
	}
	return []string{"write"}
}

func (s *Server) handler(op profile.Operation) server.ToolHandlerFunc {
	meta := observe.ToolMeta{Name: op.Tool, Tags: tagsFor(op)}

	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = observe.WithRequestID(ctx, uuid.NewString())

		input := map[string]any{}
		if op.Tool == profile.ToolSendMessage {
			input[MessageArg] = req.GetString(MessageArg, profile.DefaultMessage)
		}

		var out any
		call := func(ctx context.Context) (err error) {
			out, err = s.exec(ctx, meta, input)
			return err
		}
		var err error
		if s.bulkhead != nil {
			err = s.bulkhead.Execute(ctx, call)
			if errors.Is(err, resilience.ErrBulkheadFull) {
				s.logger.Warn(ctx, "tool call shed", observe.F("tool", op.Tool), observe.F("error", err.Error()))
			}
		} else {
			err = call(ctx)
		}
		if err != nil {
			return nil, err
		}
		res := out.(output)
		if res.outcome != upstream.OutcomeSuccess {
			return mcp.NewToolResultError(string(res.text)), nil
		}
		return mcp.NewToolResultText(string(res.text)), nil
	}
}

// output is a serialized Result. It implements observe.Outcomer.
type output struct {
	outcome string
	text    []byte
}

func (o output) Outcome() string { return o.outcome }

func (s *Server) execute(ctx context.Context, tool observe.ToolMeta, input any) (any, error) {
	outcome := upstream.OutcomeSuccess
	text, _, err := s.cache.Execute(ctx, tool.Name, input, tool.Tags,
		func(ctx context.Context, name string, input any) ([]byte, bool, error) {
			message, _ := input.(map[string]any)[MessageArg].(string)
			res, err := s.caller.Call(ctx, name, message)
			if err != nil {
				return nil, false, err
			}
			outcome = res.Outcome()
			data, err := json.Marshal(res.Value())
			if err != nil {
				return nil, false, fmt.Errorf("encode %s result: %w", name, err)
			}
			return data, upstream.IsSuccess(res), nil
		})
	if err != nil {
		return nil, err
	}
	return output{outcome: outcome, text: text}, nil
}
