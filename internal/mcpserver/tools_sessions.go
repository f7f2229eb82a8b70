package mcpserver

import (
	"context"
	"strings"

	"burn-casino/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSessionTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_session",
			mcp.WithDescription("Create a burn session, optionally pre-seated with AI players."),
			mcp.WithString("ai_tiers", mcp.Description("Comma-separated AI tiers to seat, e.g. easy,hard")),
		),
		s.handleCreateSession,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_sessions",
			mcp.WithDescription("List live sessions, newest first."),
		),
		s.handleListSessions,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"join_session",
			mcp.WithDescription("Seat a player in a session that has not started."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
			mcp.WithString("name", mcp.Description("Display name, defaults to player_id")),
		),
		s.handleJoinSession,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_session",
			mcp.WithDescription("Deal four cards to every seat and open day 1 betting."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
		),
		s.handleStartSession,
	)
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var req session.CreateRequest
	for _, tier := range strings.Split(request.GetString("ai_tiers", ""), ",") {
		tier = strings.TrimSpace(tier)
		if tier == "" {
			continue
		}
		req.AISeats = append(req.AISeats, session.AISeat{Tier: tier})
	}
	t, err := s.mgr.Create(ctx, req)
	if err != nil {
		return sessionError(err), nil
	}
	return toolResult(map[string]any{
		"session_id": t.ID(),
		"state":      t.PublicView(),
	}), nil
}

func (s *Server) handleListSessions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(map[string]any{"items": s.mgr.List()}), nil
}

func (s *Server) handleJoinSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, errRes := s.table(request)
	if errRes != nil {
		return errRes, nil
	}
	playerID, err := request.RequireString("player_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	p, err := t.Join(ctx, session.JoinRequest{PlayerID: playerID, Name: request.GetString("name", "")})
	if err != nil {
		return sessionError(err), nil
	}
	return toolResult(map[string]any{
		"session_id": t.ID(),
		"player_id":  p.ID,
		"name":       p.Name,
		"bankroll":   p.Bankroll,
	}), nil
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, errRes := s.table(request)
	if errRes != nil {
		return errRes, nil
	}
	if err := t.Start(ctx); err != nil {
		return sessionError(err), nil
	}
	return toolResult(t.PublicView()), nil
}
