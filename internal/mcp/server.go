// Package mcp serves the record tools over newline-delimited JSON-RPC 2.0
// on stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recordui/internal/tools"
)

// ProtocolVersion is the MCP revision announced during initialize.
const ProtocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
)

const maxLineSize = 8 << 20

// Request is a JSON-RPC request or notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response is a JSON-RPC response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ServerInfo      serverInfo     `json:"serverInfo"`
	Capabilities    map[string]any `json:"capabilities"`
}

type listToolsResult struct {
	Tools []tools.Definition `json:"tools"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Server handles MCP requests for a tools.Handler.
type Server struct {
	handler *tools.Handler
	info    serverInfo

	mu  sync.Mutex
	out io.Writer
}

// NewServer creates a Server that writes responses to out.
func NewServer(h *tools.Handler, version string, out io.Writer) *Server {
	return &Server{
		handler: h,
		info:    serverInfo{Name: "recordui", Version: version},
		out:     out,
	}
}

// Run reads requests from in until EOF or ctx is cancelled.
func (s *Server) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			zap.L().Warn("mcp: parse request", zap.Error(err))
			if err := s.send(&Response{JSONRPC: "2.0", ID: json.RawMessage("null"), Error: &Error{Code: CodeParseError, Message: "Parse error"}}); err != nil {
				return err
			}
			continue
		}

		resp := s.Handle(ctx, &req)
		if resp == nil {
			continue
		}
		if err := s.send(resp); err != nil {
			return err
		}
	}
	return eris.Wrap(scanner.Err(), "mcp: read")
}

// Handle dispatches one request. Notifications return nil.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	log := zap.L().With(zap.String("method", req.Method))

	var result any
	var rpcErr *Error

	switch req.Method {
	case "initialize":
		result = initializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      s.info,
			Capabilities:    map[string]any{"tools": map[string]any{}},
		}
	case "ping":
		result = map[string]any{}
	case "tools/list":
		result = listToolsResult{Tools: s.handler.Definitions()}
	case "tools/call":
		var params callToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			rpcErr = &Error{Code: CodeInvalidParams, Message: "Invalid params"}
			break
		}
		result = s.handler.Call(ctx, params.Name, params.Arguments)
	default:
		if req.IsNotification() {
			log.Debug("mcp: notification")
			return nil
		}
		rpcErr = &Error{Code: CodeMethodNotFound, Message: "Method not found"}
	}

	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		log.Warn("mcp: request failed", zap.Int("code", rpcErr.Code))
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result, Error: rpcErr}
}

func (s *Server) send(resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return eris.Wrap(err, "mcp: marshal response")
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		return eris.Wrap(err, "mcp: write response")
	}
	return nil
}
