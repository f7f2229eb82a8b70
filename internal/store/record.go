package store

import (
	"encoding/json"
	"fmt"
	"time"

	"burn-casino/internal/game"
)

// SessionRecord is the persisted session document.
type SessionRecord struct {
	SessionID           string              `json:"session_id"`
	Version             int64               `json:"version"`
	Players             []game.PlayerRecord `json:"players"`
	GameState           game.StateRecord    `json:"game_state"`
	CurrentTurnPlayerID string              `json:"current_turn_player_id,omitempty"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

func RecordFromSnapshot(sessionID string, snap game.Snapshot) SessionRecord {
	players := make([]game.PlayerRecord, 0, len(snap.Players))
	for _, p := range snap.Players {
		players = append(players, game.EncodePlayer(p))
	}
	rec := SessionRecord{
		SessionID: sessionID,
		Players:   players,
		GameState: game.EncodeState(snap.State),
		UpdatedAt: time.Now().UTC(),
	}
	if p, ok := snap.CurrentPlayer(); ok {
		rec.CurrentTurnPlayerID = p.ID
	}
	return rec
}

func EncodeRecord(rec SessionRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// DecodeRecord parses and validates a stored document. Any malformed player,
// card or state field is an error; nothing is defaulted except bankroll.
func DecodeRecord(b []byte) (SessionRecord, error) {
	var rec SessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return SessionRecord{}, fmt.Errorf("%w: %v", game.ErrInvalidRecord, err)
	}
	if err := Validate(rec); err != nil {
		return SessionRecord{}, err
	}
	return rec, nil
}

func Validate(rec SessionRecord) error {
	if rec.SessionID == "" {
		return fmt.Errorf("%w: missing session_id", game.ErrInvalidRecord)
	}
	seen := map[string]struct{}{}
	cards := map[game.Card]string{}
	for i, pr := range rec.Players {
		p, err := game.DecodePlayer(pr)
		if err != nil {
			return fmt.Errorf("players[%d]: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate player %s", game.ErrInvalidRecord, p.ID)
		}
		seen[p.ID] = struct{}{}
		for _, c := range p.Hand {
			if owner, dup := cards[c]; dup {
				return fmt.Errorf("%w: card %s held by %s and %s", game.ErrInvalidRecord, c, owner, p.ID)
			}
			cards[c] = p.ID
		}
	}
	st, err := game.DecodeState(rec.GameState, len(rec.Players))
	if err != nil {
		return err
	}
	if rec.CurrentTurnPlayerID != "" {
		if st.Day == 0 || st.GameOver || len(rec.Players) == 0 || rec.Players[st.CurrentPlayerIndex].ID != rec.CurrentTurnPlayerID {
			return fmt.Errorf("%w: current_turn_player_id %s disagrees with game_state", game.ErrInvalidRecord, rec.CurrentTurnPlayerID)
		}
	}
	return nil
}

// DecodePlayers decodes the record's player list.
func (r SessionRecord) DecodePlayers() ([]*game.Player, error) {
	out := make([]*game.Player, 0, len(r.Players))
	for i, pr := range r.Players {
		p, err := game.DecodePlayer(pr)
		if err != nil {
			return nil, fmt.Errorf("players[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
