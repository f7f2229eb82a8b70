package mcpserver

import (
	"context"
	"strings"

	"burn-casino/internal/game"
	"burn-casino/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerGameplayTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_state",
			mcp.WithDescription("Seat view for player_id (own hand, legal actions), or the public view when omitted."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("player_id", mcp.Description("Player id")),
		),
		s.handleGetState,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_bet",
			mcp.WithDescription("Take a betting-phase action on your turn."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
			mcp.WithString("action", mcp.Required(), mcp.Description("check|bet|fold|call|raise")),
			mcp.WithString("request_id", mcp.Description("Idempotency key, up to 64 chars")),
		),
		s.handleSubmitBet,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_burn",
			mcp.WithDescription("Burn up to the day's allowance of cards from your hand; empty burns nothing."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
			mcp.WithString("cards", mcp.Description("Comma-separated cards, e.g. Ah,10s")),
			mcp.WithString("request_id", mcp.Description("Idempotency key, up to 64 chars")),
		),
		s.handleSubmitBurn,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"reveal",
			mcp.WithDescription("End the game immediately and show every hand."),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
			mcp.WithString("player_id", mcp.Required(), mcp.Description("Player id")),
		),
		s.handleReveal,
	)
}

func (s *Server) handleGetState(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, errRes := s.table(request)
	if errRes != nil {
		return errRes, nil
	}
	playerID := request.GetString("player_id", "")
	if playerID == "" {
		return toolResult(t.PublicView()), nil
	}
	view, err := t.PlayerView(playerID)
	if err != nil {
		return sessionError(err), nil
	}
	return toolResult(view), nil
}

func (s *Server) handleSubmitBet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := request.RequireString("action")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	return s.submit(ctx, request, session.ActionRequest{
		Kind:   session.KindBet,
		Action: game.ActionType(strings.ToLower(strings.TrimSpace(action))),
	})
}

func (s *Server) handleSubmitBurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cards, err := session.ParseCards(strings.Split(request.GetString("cards", ""), ","))
	if err != nil {
		return sessionError(err), nil
	}
	return s.submit(ctx, request, session.ActionRequest{Kind: session.KindBurn, Cards: cards})
}

func (s *Server) handleReveal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.submit(ctx, request, session.ActionRequest{Kind: session.KindReveal})
}

func (s *Server) submit(ctx context.Context, request mcp.CallToolRequest, req session.ActionRequest) (*mcp.CallToolResult, error) {
	t, errRes := s.table(request)
	if errRes != nil {
		return errRes, nil
	}
	playerID, err := request.RequireString("player_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	req.PlayerID = playerID
	req.RequestID = request.GetString("request_id", "")
	res, err := t.Submit(ctx, req)
	if err != nil {
		return sessionError(err), nil
	}
	view, _ := t.PlayerView(playerID)
	return toolResult(map[string]any{
		"result": res,
		"state":  view,
	}), nil
}
