package mcpserver

import (
	"fmt"

	"burn-casino/internal/session"

	"github.com/mark3labs/mcp-go/mcp"
)

// hints tell an agent what to do next after a rejected call.
var hints = map[string]string{
	"not_your_turn":        "call get_state and wait until my_turn is true",
	"invalid_phase_action": "check phase in get_state: submit_bet while betting, submit_burn while burning",
	"invalid_selection":    "burn only cards from my_hand, at most max_burn_cards of them, each once",
	"invalid_card":         "cards look like 10h, Qs, Ad, 2c",
	"game_not_started":     "call start_session once two or more players have joined",
	"game_over":            "the game is revealed; read the final hands with get_state",
	"empty_deck":           "the deck ran out mid-burn; submit_burn with fewer or no cards",
	"session_not_found":    "call list_sessions for live session ids",
}

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	body := map[string]any{"code": code, "message": message}
	text := fmt.Sprintf("%s: %s", code, message)
	if hint, ok := hints[code]; ok {
		body["hint"] = hint
		text += " (" + hint + ")"
	}
	result := mcp.NewToolResultStructured(map[string]any{"error": body}, text)
	result.IsError = true
	return result
}

func sessionError(err error) *mcp.CallToolResult {
	_, code := session.MapError(err)
	return toolError(code, err.Error())
}
