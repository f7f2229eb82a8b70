package mcpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"burn-casino/internal/session"
	"burn-casino/internal/store"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestMCPServerToolsAndFlows(t *testing.T) {
	mgr := newManager(t)
	srv := New(mgr)
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	mcpClient, closeClient := newMCPClient(t, httpSrv.URL+"/mcp")
	defer closeClient()

	tools := mustListTools(t, mcpClient)
	assertToolNames(t, tools,
		"create_session",
		"list_sessions",
		"join_session",
		"start_session",
		"get_state",
		"submit_bet",
		"submit_burn",
		"reveal",
	)

	created := mustCallTool(t, mcpClient, "create_session", map[string]any{})
	if created.IsError {
		t.Fatalf("create_session error: %v", created.StructuredContent)
	}
	sessionID := asString(mapFromStructured(t, created)["session_id"])
	if sessionID == "" {
		t.Fatal("session_id should not be empty")
	}
	for _, id := range []string{"ann", "bob"} {
		res := mustCallTool(t, mcpClient, "join_session", map[string]any{"session_id": sessionID, "player_id": id})
		if res.IsError {
			t.Fatalf("join_session %s error: %v", id, res.StructuredContent)
		}
	}
	if res := mustCallTool(t, mcpClient, "start_session", map[string]any{"session_id": sessionID}); res.IsError {
		t.Fatalf("start_session error: %v", res.StructuredContent)
	}

	state := mapFromStructured(t, mustCallTool(t, mcpClient, "get_state", map[string]any{"session_id": sessionID, "player_id": "ann"}))
	if state["my_turn"] != true || asString(state["phase"]) != "betting" {
		t.Fatalf("expected ann to open betting, got %v", state)
	}
	for _, id := range []string{"ann", "bob"} {
		res := mustCallTool(t, mcpClient, "submit_bet", map[string]any{"session_id": sessionID, "player_id": id, "action": "check"})
		if res.IsError {
			t.Fatalf("submit_bet %s error: %v", id, res.StructuredContent)
		}
	}

	state = mapFromStructured(t, mustCallTool(t, mcpClient, "get_state", map[string]any{"session_id": sessionID, "player_id": "ann"}))
	hand, _ := state["my_hand"].([]any)
	if len(hand) != 4 {
		t.Fatalf("expected four cards, got %v", state["my_hand"])
	}
	burn := asString(hand[0]) + "," + asString(hand[1])
	res := mustCallTool(t, mcpClient, "submit_burn", map[string]any{"session_id": sessionID, "player_id": "ann", "cards": burn, "request_id": "burn-1"})
	if res.IsError {
		t.Fatalf("submit_burn error: %v", res.StructuredContent)
	}
	after, _ := mapFromStructured(t, res)["state"].(map[string]any)
	newHand, _ := after["my_hand"].([]any)
	if strings.Contains(","+joinAny(newHand)+",", ","+asString(hand[0])+",") {
		t.Fatalf("burned card %v still in hand %v", hand[0], newHand)
	}

	res = mustCallTool(t, mcpClient, "reveal", map[string]any{"session_id": sessionID, "player_id": "bob"})
	if res.IsError {
		t.Fatalf("reveal error: %v", res.StructuredContent)
	}
	public := mapFromStructured(t, mustCallTool(t, mcpClient, "get_state", map[string]any{"session_id": sessionID}))
	if asString(public["stage"]) != "revealed" {
		t.Fatalf("expected revealed stage, got %v", public["stage"])
	}

	listed := mapFromStructured(t, mustCallTool(t, mcpClient, "list_sessions", map[string]any{}))
	if items, _ := listed["items"].([]any); len(items) != 1 {
		t.Fatalf("expected one listed session, got %v", listed)
	}
}

func TestMCPServerToolErrors(t *testing.T) {
	srv := New(newManager(t))
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	mcpClient, closeClient := newMCPClient(t, httpSrv.URL+"/mcp")
	defer closeClient()

	missing := mustCallTool(t, mcpClient, "get_state", map[string]any{})
	assertToolErrorCode(t, missing, "invalid_request")

	unknown := mustCallTool(t, mcpClient, "get_state", map[string]any{"session_id": "nope"})
	assertToolErrorCode(t, unknown, "session_not_found")

	badTier := mustCallTool(t, mcpClient, "create_session", map[string]any{"ai_tiers": "easy,legendary"})
	assertToolErrorCode(t, badTier, "unknown_tier")

	created := mapFromStructured(t, mustCallTool(t, mcpClient, "create_session", map[string]any{"ai_tiers": "easy"}))
	sessionID := asString(created["session_id"])
	mustCallTool(t, mcpClient, "join_session", map[string]any{"session_id": sessionID, "player_id": "ann"})
	early := mustCallTool(t, mcpClient, "submit_bet", map[string]any{"session_id": sessionID, "player_id": "ann", "action": "check"})
	assertToolErrorCode(t, early, "game_not_started")

	badCard := mustCallTool(t, mcpClient, "submit_burn", map[string]any{"session_id": sessionID, "player_id": "ann", "cards": "Zz"})
	assertToolErrorCode(t, badCard, "invalid_card")
}

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	st := store.NewMemoryStore()
	mgr := session.NewManager(st, session.Options{Seed: 7}, 10)
	t.Cleanup(func() {
		mgr.Shutdown()
		st.Close()
	})
	return mgr
}

func joinAny(items []any) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, asString(it))
	}
	return strings.Join(parts, ",")
}

func newMCPClient(t *testing.T, endpoint string) (*client.Client, func()) {
	t.Helper()
	ctx := context.Background()
	trans, err := transport.NewStreamableHTTP(endpoint)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	if err := trans.Start(ctx); err != nil {
		t.Fatalf("transport start: %v", err)
	}
	c := client.NewClient(trans)
	_, err = c.Initialize(ctx, mcp.InitializeRequest{Params: mcp.InitializeParams{ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION}})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return c, func() { _ = trans.Close() }
}

func mustListTools(t *testing.T, c *client.Client) []mcp.Tool {
	t.Helper()
	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	return res.Tools
}

func assertToolNames(t *testing.T, tools []mcp.Tool, expected ...string) {
	t.Helper()
	got := make([]string, 0, len(tools))
	for _, tool := range tools {
		got = append(got, tool.Name)
	}
	sort.Strings(got)
	sort.Strings(expected)
	if len(got) != len(expected) {
		t.Fatalf("tool count mismatch got=%v expected=%v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("tool list mismatch got=%v expected=%v", got, expected)
		}
	}
}

func mustCallTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
	if err != nil {
		t.Fatalf("call tool %s: %v", name, err)
	}
	return res
}

func assertToolErrorCode(t *testing.T, res *mcp.CallToolResult, want string) {
	t.Helper()
	if !res.IsError {
		t.Fatalf("expected tool error %q, got success: %v", want, res.StructuredContent)
	}
	payload := mapFromStructured(t, res)
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("error payload missing 'error': %v", payload)
	}
	if got := asString(errObj["code"]); got != want {
		t.Fatalf("error code=%q want=%q payload=%v", got, want, payload)
	}
}

func mapFromStructured(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	b, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
