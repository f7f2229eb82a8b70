package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"burn-casino/internal/config"
	"burn-casino/internal/game"
	"burn-casino/internal/game/viewmodel"
	"burn-casino/internal/policy"
	"burn-casino/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}
	if cfg.SessionID == "" {
		log.Fatal().Msg("SESSION_ID is required")
	}
	tier, err := policy.ParseTier(cfg.Tier)
	if err != nil {
		log.Fatal().Str("tier", cfg.Tier).Msg("unknown tier")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	pol, err := policy.For(tier, rand.New(rand.NewSource(seed)))
	if err != nil {
		log.Fatal().Err(err).Msg("policy init failed")
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.WSURL, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.WSURL).Msg("dial failed")
	}
	defer conn.Close()

	b := &bot{conn: conn, cfg: cfg, policy: pol, lastVersion: -1}
	if err := b.run(); err != nil {
		log.Error().Err(err).Msg("bot stopped")
	}
}

type bot struct {
	conn   *websocket.Conn
	cfg    config.BotConfig
	policy policy.Policy

	lastVersion int64
}

func (b *bot) run() error {
	if err := b.conn.WriteJSON(ws.JoinMessage{
		Type:      "join",
		SessionID: b.cfg.SessionID,
		PlayerID:  b.cfg.PlayerID,
		Name:      b.cfg.PlayerName,
	}); err != nil {
		return err
	}
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			return err
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &base); err != nil {
			continue
		}
		switch base.Type {
		case "join_result":
			var res ws.JoinResult
			if err := json.Unmarshal(data, &res); err != nil {
				continue
			}
			if err := b.onJoinResult(res); err != nil {
				return err
			}
		case "state_update":
			var msg struct {
				State viewmodel.PlayerStateView `json:"state"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if err := b.onState(msg.State); err != nil {
				return err
			}
		case "action_result":
			var res ws.ActionResult
			if err := json.Unmarshal(data, &res); err != nil {
				continue
			}
			if !res.Ok {
				log.Warn().Str("request_id", res.RequestID).Str("error", res.Error).Msg("action rejected")
			}
		case "session_closed":
			log.Info().Str("session_id", b.cfg.SessionID).Msg("session closed")
			return nil
		}
	}
}

// onJoinResult falls back to a seat subscription when the bot is already
// seated, so a restarted bot can resume its game.
func (b *bot) onJoinResult(res ws.JoinResult) error {
	if res.Ok {
		log.Info().Str("session_id", res.SessionID).Str("player_id", res.PlayerID).Msg("joined")
		return nil
	}
	if res.Error == "duplicate_player" || res.Error == "game_already_started" {
		return b.conn.WriteJSON(ws.SubscribeMessage{
			Type:      "subscribe",
			SessionID: b.cfg.SessionID,
			PlayerID:  b.cfg.PlayerID,
		})
	}
	return fmt.Errorf("join failed: %s", res.Error)
}

func (b *bot) onState(s viewmodel.PlayerStateView) error {
	if !s.MyTurn || s.Version <= b.lastVersion {
		return nil
	}
	msg, ok := decide(b.policy, s)
	if !ok {
		return nil
	}
	b.lastVersion = s.Version
	log.Debug().Str("kind", msg.Kind).Str("action", msg.Action).Strs("cards", msg.Cards).Int("day", s.Day).Msg("acting")
	return b.conn.WriteJSON(msg)
}

// decide maps the seat view to the next action message. ok is false when
// there is nothing the bot can do.
func decide(p policy.Policy, s viewmodel.PlayerStateView) (ws.ActionMessage, bool) {
	requestID := fmt.Sprintf("bot-%s-%d", s.SessionID, s.Version)
	switch game.Phase(s.Phase) {
	case game.PhaseBetting:
		return ws.ActionMessage{
			Type:      "action",
			RequestID: requestID,
			Kind:      "bet",
			Action:    string(p.ChooseBet()),
		}, true
	case game.PhaseBurning:
		hand := make([]game.Card, 0, len(s.MyHand))
		for _, raw := range s.MyHand {
			c, err := game.ParseCard(raw)
			if err != nil {
				log.Warn().Str("card", raw).Msg("unparseable card in state")
				return ws.ActionMessage{}, false
			}
			hand = append(hand, c)
		}
		burn := policy.Clamp(p.ChooseBurn(hand, s.Day), s.MaxBurnCards)
		cards := make([]string, 0, len(burn))
		for _, c := range burn {
			cards = append(cards, c.String())
		}
		return ws.ActionMessage{
			Type:      "action",
			RequestID: requestID,
			Kind:      "burn",
			Cards:     cards,
		}, true
	default:
		return ws.ActionMessage{}, false
	}
}
