package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recordui/internal/render"
	"github.com/sells-group/recordui/internal/tools"
)

func newTestServer(t *testing.T, out *bytes.Buffer) *Server {
	t.Helper()
	r, err := render.New()
	require.NoError(t, err)
	return NewServer(tools.New(r), "test", out)
}

type rawResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

func run(t *testing.T, lines ...string) []rawResponse {
	t.Helper()
	var out bytes.Buffer
	s := newTestServer(t, &out)
	require.NoError(t, s.Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")+"\n")))

	var resps []rawResponse
	sc := bufio.NewScanner(&out)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		var r rawResponse
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		resps = append(resps, r)
	}
	return resps
}

func TestServer_InitializeAndList(t *testing.T) {
	resps := run(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	require.Len(t, resps, 2, "notifications get no response")

	var init initializeResult
	require.NoError(t, json.Unmarshal(resps[0].Result, &init))
	assert.Equal(t, ProtocolVersion, init.ProtocolVersion)
	assert.Equal(t, "recordui", init.ServerInfo.Name)
	assert.JSONEq(t, "1", string(resps[0].ID))

	var list listToolsResult
	require.NoError(t, json.Unmarshal(resps[1].Result, &list))
	require.Len(t, list.Tools, 3)
	assert.Equal(t, tools.ToolRenderForm, list.Tools[0].Name)
}

func TestServer_ToolsCall(t *testing.T) {
	call := `{"jsonrpc":"2.0","id":"a","method":"tools/call","params":{"name":"render_record_form","arguments":{"text":"Acme\n* Id: 1\n* Stage: New"}}}`
	resps := run(t, call)
	require.Len(t, resps, 1)
	require.Nil(t, resps[0].Error)

	var res tools.Result
	require.NoError(t, json.Unmarshal(resps[0].Result, &res))
	assert.False(t, res.IsError)
	require.Len(t, res.Content, 2)
	assert.Equal(t, "resource", res.Content[1].Type)
	assert.Equal(t, "ui://record/form/1", res.Content[1].Resource.URI)
	assert.Contains(t, res.Content[1].Resource.Text, "<form")
}

func TestServer_ToolFailureIsResultNotRPCError(t *testing.T) {
	resps := run(t, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"render_record_form","arguments":{"text":"Acme"}}}`)
	require.Len(t, resps, 1)
	assert.Nil(t, resps[0].Error)

	var res tools.Result
	require.NoError(t, json.Unmarshal(resps[0].Result, &res))
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "Error: missing required fields: Id")
}

func TestServer_ProtocolErrors(t *testing.T) {
	resps := run(t,
		`{not json`,
		`{"jsonrpc":"2.0","id":4,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"arguments":{}}}`,
		`{"jsonrpc":"2.0","id":6,"method":"ping"}`,
	)
	require.Len(t, resps, 4)
	assert.Equal(t, CodeParseError, resps[0].Error.Code)
	assert.Equal(t, CodeMethodNotFound, resps[1].Error.Code)
	assert.Equal(t, CodeInvalidParams, resps[2].Error.Code)
	assert.Nil(t, resps[3].Error)
	assert.JSONEq(t, "{}", string(resps[3].Result))
}

func TestServer_CancelledContext(t *testing.T) {
	var out bytes.Buffer
	s := newTestServer(t, &out)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Len())
}
