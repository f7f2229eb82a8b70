package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"burn-casino/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// instructions is the rules digest handed to agents on initialize.
const instructions = `Burn is a 4-card game over three days. Each day has a betting
phase (check, bet, fold, call or raise) and then a burning phase where the
seat to act replaces up to max_burn_cards cards: 3 on day 1, 2 on day 2,
1 on day 3. A made hand has four different ranks and four different suits.
After day 3's burn, or when any player calls reveal, hands are shown.
Poll get_state and act only when my_turn is true.`

type Server struct {
	mgr *session.Manager

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(mgr *session.Manager) *Server {
	mcpSrv := server.NewMCPServer(
		"burn-casino",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
		server.WithInstructions(instructions),
	)
	s := &Server{
		mgr:        mgr,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerSessionTools()
	s.registerGameplayTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"session://{session_id}/public_state",
			"session_public_state",
			mcp.WithTemplateDescription("Public state of a burn session, hands hidden until reveal"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := string(request.Params.URI)
			if !strings.HasPrefix(raw, "session://") || !strings.HasSuffix(raw, "/public_state") {
				return nil, nil
			}
			sessionID := strings.TrimSuffix(strings.TrimPrefix(raw, "session://"), "/public_state")
			if sessionID == "" {
				return nil, nil
			}
			t, err := s.mgr.Get(sessionID)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(t.PublicView())
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}

func (s *Server) table(request mcp.CallToolRequest) (*session.Table, *mcp.CallToolResult) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return nil, toolError("invalid_request", err.Error())
	}
	t, err := s.mgr.Get(strings.TrimSpace(sessionID))
	if err != nil {
		return nil, sessionError(err)
	}
	return t, nil
}
