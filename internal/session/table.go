package session

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"burn-casino/internal/game"
	"burn-casino/internal/game/viewmodel"
	"burn-casino/internal/notify"
	"burn-casino/internal/policy"
	"burn-casino/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	commandQueueSize  = 64
	storeWriteTimeout = 5 * time.Second
	maxRememberedReqs = 512
)

type Options struct {
	// TurnTimeout auto-plays a stalled human seat; zero disables it.
	TurnTimeout time.Duration
	// AIStepDelay paces AI seats so watchers can follow along.
	AIStepDelay time.Duration
	EventBuffer int
	// Seed makes deals and AI choices reproducible; zero uses the clock.
	Seed     int64
	Notifier notify.Dispatcher
}

type JoinRequest struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Bankroll *int64 `json:"bankroll,omitempty"`
	AITier   string `json:"ai_tier,omitempty"`
}

type ActionKind string

const (
	KindBet    ActionKind = "bet"
	KindBurn   ActionKind = "burn"
	KindReveal ActionKind = "reveal"
)

type ActionRequest struct {
	RequestID string          `json:"request_id,omitempty"`
	PlayerID  string          `json:"player_id"`
	Kind      ActionKind      `json:"type"`
	Action    game.ActionType `json:"action,omitempty"`
	Cards     []game.Card     `json:"-"`
}

type ActionResult struct {
	Accepted        bool   `json:"accepted"`
	RequestID       string `json:"request_id,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Version         int64  `json:"version"`
	Stage           string `json:"stage"`
	Day             int    `json:"day"`
	Phase           string `json:"phase,omitempty"`
	CurrentPlayerID string `json:"current_player_id,omitempty"`
}

type cmdKind int

const (
	cmdJoin cmdKind = iota
	cmdStart
	cmdAction
)

type command struct {
	kind   cmdKind
	join   JoinRequest
	action ActionRequest
	reply  chan reply
}

type reply struct {
	player game.Player
	result ActionResult
	err    error
}

type turnKey struct {
	day   int
	phase game.Phase
	idx   int
}

// Table is the single authority for one session. Its run goroutine owns the
// engine; everything else talks to it through commands and reads published
// snapshots.
type Table struct {
	id     string
	store  store.SessionStore
	buffer *Buffer
	opts   Options

	cmds      chan command
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// Owned by run.
	engine   *game.Engine
	version  int64
	ais      map[string]policy.Policy
	aiRnd    *rand.Rand
	results  map[string]ActionResult
	resOrder []string
	turn     turnKey
	deadline time.Time

	mu        sync.RWMutex
	snap      game.Snapshot
	published int64
	createdAt time.Time
}

func newTable(id string, st store.SessionStore, opts Options) *Table {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	t := &Table{
		id:        id,
		store:     st,
		buffer:    NewBuffer(opts.EventBuffer),
		opts:      opts,
		cmds:      make(chan command, commandQueueSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		engine:    game.NewEngine(rand.New(rand.NewSource(seed))),
		ais:       map[string]policy.Policy{},
		aiRnd:     rand.New(rand.NewSource(seed + 1)),
		results:   map[string]ActionResult{},
		createdAt: time.Now().UTC(),
	}
	// Session ids are ulids; their timestamp is the creation time.
	if minted, ok := store.IDTime(id); ok {
		t.createdAt = minted.UTC()
	}
	t.snap = t.engine.Snapshot()
	return t
}

func (t *Table) ID() string           { return t.id }
func (t *Table) Buffer() *Buffer      { return t.buffer }
func (t *Table) CreatedAt() time.Time { return t.createdAt }

// Snapshot returns the last published state and its store version.
func (t *Table) Snapshot() (game.Snapshot, int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap, t.published
}

func (t *Table) Summary() Summary {
	snap, v := t.Snapshot()
	s := Summary{
		SessionID: t.id,
		Version:   v,
		Stage:     string(snap.State.Stage()),
		Day:       snap.State.Day,
		Players:   len(snap.Players),
		CreatedAt: t.createdAt,
	}
	if p, ok := snap.CurrentPlayer(); ok {
		s.CurrentPlayerID = p.ID
	}
	return s
}

func (t *Table) meta(version int64) viewmodel.Meta {
	return viewmodel.Meta{
		SessionID:     t.id,
		Version:       version,
		TurnTimeoutMS: t.opts.TurnTimeout.Milliseconds(),
	}
}

func (t *Table) PublicView() viewmodel.PublicStateView {
	snap, v := t.Snapshot()
	return viewmodel.BuildPublicState(snap, t.meta(v))
}

func (t *Table) PlayerView(playerID string) (viewmodel.PlayerStateView, error) {
	snap, v := t.Snapshot()
	for i, p := range snap.Players {
		if p.ID == playerID {
			return viewmodel.BuildPlayerState(snap, t.meta(v), i), nil
		}
	}
	return viewmodel.PlayerStateView{}, ErrPlayerNotFound
}

func (t *Table) Join(ctx context.Context, req JoinRequest) (game.Player, error) {
	r, err := t.send(ctx, command{kind: cmdJoin, join: req})
	if err != nil {
		return game.Player{}, err
	}
	return r.player, r.err
}

func (t *Table) Start(ctx context.Context) error {
	r, err := t.send(ctx, command{kind: cmdStart})
	if err != nil {
		return err
	}
	return r.err
}

// Submit queues one player action. A rejected action still returns a result
// with the reason; err carries the engine error kind.
func (t *Table) Submit(ctx context.Context, req ActionRequest) (ActionResult, error) {
	if len(req.RequestID) > 64 {
		return ActionResult{}, ErrInvalidRequestID
	}
	r, err := t.send(ctx, command{kind: cmdAction, action: req})
	if err != nil {
		return ActionResult{}, err
	}
	return r.result, r.err
}

func (t *Table) send(ctx context.Context, cmd command) (reply, error) {
	cmd.reply = make(chan reply, 1)
	select {
	case <-t.quit:
		return reply{}, ErrSessionClosed
	default:
	}
	select {
	case t.cmds <- cmd:
	case <-t.quit:
		return reply{}, ErrSessionClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
	select {
	case r := <-cmd.reply:
		return r, nil
	case <-t.done:
		return reply{}, ErrSessionClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

// Close stops the table goroutine and ends every event subscription.
func (t *Table) Close() {
	t.closeOnce.Do(func() {
		close(t.quit)
	})
	<-t.done
}

func (t *Table) Done() <-chan struct{} { return t.done }

func (t *Table) run() {
	defer close(t.done)
	defer t.buffer.Close()
	for {
		if t.aiToAct() && t.opts.AIStepDelay <= 0 {
			select {
			case <-t.quit:
				return
			default:
			}
			t.playAI()
			continue
		}

		var (
			timer  *time.Timer
			wake   <-chan time.Time
			aiWake bool
		)
		switch {
		case t.aiToAct():
			timer = time.NewTimer(t.opts.AIStepDelay)
			wake, aiWake = timer.C, true
		case t.opts.TurnTimeout > 0 && t.live():
			timer = time.NewTimer(time.Until(t.deadline))
			wake = timer.C
		}

		select {
		case <-t.quit:
			stopTimer(timer)
			return
		case cmd := <-t.cmds:
			cmd.reply <- t.handle(cmd)
		case <-wake:
			if aiWake {
				t.playAI()
			} else {
				t.timeoutTurn()
			}
		}
		stopTimer(timer)
	}
}

func stopTimer(timer *time.Timer) {
	if timer != nil {
		timer.Stop()
	}
}

func (t *Table) live() bool {
	return t.engine.State.Day > 0 && !t.engine.State.GameOver
}

func (t *Table) current() *game.Player {
	if !t.live() {
		return nil
	}
	return t.engine.Players[t.engine.State.CurrentPlayerIndex]
}

func (t *Table) aiToAct() bool {
	p := t.current()
	return p != nil && t.ais[p.ID] != nil
}

func (t *Table) handle(cmd command) reply {
	switch cmd.kind {
	case cmdJoin:
		p, err := t.join(cmd.join)
		return reply{player: p, err: err}
	case cmdStart:
		return reply{err: t.start()}
	case cmdAction:
		res, err := t.act(cmd.action)
		return reply{result: res, err: err}
	default:
		return reply{err: ErrInvalidActionKind}
	}
}

func (t *Table) join(req JoinRequest) (game.Player, error) {
	id := strings.TrimSpace(req.PlayerID)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = id
	}
	p := game.NewPlayer(id, name)
	if req.Bankroll != nil {
		p.Bankroll = *req.Bankroll
	}
	var pol policy.Policy
	if req.AITier != "" {
		tier, err := policy.ParseTier(req.AITier)
		if err != nil {
			return game.Player{}, err
		}
		pol, _ = policy.For(tier, rand.New(rand.NewSource(t.aiRnd.Int63())))
		p.AITier = string(tier)
	}
	if err := t.engine.AddPlayer(p); err != nil {
		return game.Player{}, err
	}
	if pol != nil {
		t.ais[p.ID] = pol
	}
	log.Info().Str("session_id", t.id).Str("player_id", p.ID).Str("ai_tier", p.AITier).Msg("player joined")
	t.publish("player_joined", map[string]any{"player_id": p.ID, "name": p.Name, "ai_tier": p.AITier})
	return *p, nil
}

func (t *Table) start() error {
	if err := t.engine.StartGame(); err != nil {
		return err
	}
	log.Info().Str("session_id", t.id).Int("players", len(t.engine.Players)).Msg("game started")
	t.publish("game_started", nil)
	t.afterTurnChange()
	return nil
}

func (t *Table) act(req ActionRequest) (ActionResult, error) {
	metricActionSubmitTotal.Add(1)
	if req.RequestID != "" {
		if prev, ok := t.results[req.RequestID]; ok {
			return prev, nil
		}
	}
	res, err := t.apply(req, "action")
	if req.RequestID != "" && !errors.Is(err, ErrPlayerNotFound) {
		t.remember(req.RequestID, res)
	}
	return res, err
}

func (t *Table) remember(requestID string, res ActionResult) {
	t.results[requestID] = res
	t.resOrder = append(t.resOrder, requestID)
	if len(t.resOrder) > maxRememberedReqs {
		delete(t.results, t.resOrder[0])
		t.resOrder = t.resOrder[1:]
	}
}

func toEngineAction(idx int, req ActionRequest) (game.Action, error) {
	switch req.Kind {
	case KindBet:
		if !req.Action.IsBet() {
			return game.Action{}, game.ErrInvalidAction
		}
		return game.Action{Player: idx, Type: req.Action}, nil
	case KindBurn:
		return game.Action{Player: idx, Type: game.ActionBurn, Cards: req.Cards}, nil
	case KindReveal:
		return game.Action{Player: idx, Type: game.ActionReveal}, nil
	default:
		return game.Action{}, ErrInvalidActionKind
	}
}

// apply runs one action through the engine and publishes the outcome. source
// is "action", "ai" or "timeout".
func (t *Table) apply(req ActionRequest, source string) (ActionResult, error) {
	idx := t.engine.PlayerIndex(req.PlayerID)
	if idx < 0 {
		metricActionRejectTotal.Add(1)
		return t.result(req, ErrPlayerNotFound), ErrPlayerNotFound
	}
	action, err := toEngineAction(idx, req)
	if err == nil {
		err = t.engine.ApplyAction(action)
	}
	if err != nil && !errors.Is(err, game.ErrEmptyDeck) {
		metricActionRejectTotal.Add(1)
		log.Info().Err(err).Str("session_id", t.id).Str("player_id", req.PlayerID).Str("action", string(action.Type)).Msg("action rejected")
		t.buffer.Append("action_rejected", t.id, t.version, map[string]any{
			"request_id": req.RequestID,
			"player_id":  req.PlayerID,
			"reason":     err.Error(),
		})
		return t.result(req, err), err
	}

	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("session_id", t.id).Str("player_id", req.PlayerID).Str("action", string(action.Type)).
		Str("source", source).Int("day", t.engine.State.Day).Str("phase", string(t.engine.State.Phase)).Msg("action applied")

	data := map[string]any{
		"request_id": req.RequestID,
		"player_id":  req.PlayerID,
		"action":     string(action.Type),
		"source":     source,
	}
	if action.Type == game.ActionBurn {
		data["burned"] = len(action.Cards)
	}
	if err != nil {
		data["error"] = err.Error()
	}
	t.publish("action_applied", data)
	t.afterTurnChange()
	return t.result(req, err), err
}

func (t *Table) result(req ActionRequest, err error) ActionResult {
	st := t.engine.State
	res := ActionResult{
		Accepted:  err == nil || errors.Is(err, game.ErrEmptyDeck),
		RequestID: req.RequestID,
		Version:   t.version,
		Stage:     string(st.Stage()),
		Day:       st.Day,
		Phase:     string(st.Phase),
	}
	if err != nil {
		res.Reason = err.Error()
	}
	if p := t.current(); p != nil {
		res.CurrentPlayerID = p.ID
	}
	return res
}

// afterTurnChange emits lifecycle events once the acting seat, phase or day
// moved, resets the turn deadline and pings the next human seat.
func (t *Table) afterTurnChange() {
	st := t.engine.State
	next := turnKey{day: st.Day, phase: st.Phase, idx: st.CurrentPlayerIndex}
	prev := t.turn
	if st.GameOver {
		if prev != (turnKey{}) {
			metricGamesRevealed.Add(1)
			log.Info().Str("session_id", t.id).Bool("made_hand", st.MadeHand).Msg("game revealed")
			t.buffer.Append("revealed", t.id, t.version, t.PublicView())
		}
		t.turn = turnKey{}
		return
	}
	if next == prev {
		return
	}
	if prev.day != 0 && next.day != prev.day {
		log.Info().Str("session_id", t.id).Int("day", next.day).Int("max_burn_cards", st.MaxBurnCards).Msg("day advanced")
		t.buffer.Append("day_advanced", t.id, t.version, map[string]any{"day": next.day, "max_burn_cards": st.MaxBurnCards})
	} else if prev.day != 0 && next.phase != prev.phase {
		t.buffer.Append("phase_changed", t.id, t.version, map[string]any{"day": next.day, "phase": string(next.phase)})
	}
	t.turn = next
	if t.opts.TurnTimeout > 0 {
		t.deadline = time.Now().Add(t.opts.TurnTimeout)
	}
	p := t.current()
	t.buffer.Append("turn_started", t.id, t.version, map[string]any{
		"player_id": p.ID,
		"day":       st.Day,
		"phase":     string(st.Phase),
	})
	if t.ais[p.ID] == nil && t.opts.Notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := t.opts.Notifier.Notify(ctx, p.ID, notify.TurnMessage(t.id, st.Day, string(st.Phase))); err != nil {
			log.Warn().Err(err).Str("session_id", t.id).Str("player_id", p.ID).Msg("turn notify failed")
		}
		cancel()
	}
}

func (t *Table) playAI() {
	p := t.current()
	pol := t.ais[p.ID]
	req := ActionRequest{PlayerID: p.ID}
	if t.engine.State.Phase == game.PhaseBetting {
		req.Kind = KindBet
		req.Action = pol.ChooseBet()
	} else {
		req.Kind = KindBurn
		pick := pol.ChooseBurn(p.Hand, t.engine.State.Day)
		req.Cards = policy.Clamp(pick, t.engine.State.MaxBurnCards)
	}
	metricAIActionTotal.Add(1)
	_, err := t.apply(req, "ai")
	switch {
	case err == nil:
	case errors.Is(err, game.ErrEmptyDeck):
		// The partial burn stands; finish the turn with an empty burn.
		t.passTurn(p.ID, "ai")
	default:
		log.Error().Err(err).Str("session_id", t.id).Str("player_id", p.ID).Str("ai_tier", string(pol.Tier())).Msg("ai action rejected")
		t.passTurn(p.ID, "ai")
	}
}

func (t *Table) timeoutTurn() {
	p := t.current()
	if p == nil || time.Now().Before(t.deadline) {
		return
	}
	metricTurnTimeoutTotal.Add(1)
	log.Info().Str("session_id", t.id).Str("player_id", p.ID).Int("day", t.engine.State.Day).Str("phase", string(t.engine.State.Phase)).Msg("turn timeout")
	t.buffer.Append("turn_timeout", t.id, t.version, map[string]any{"player_id": p.ID})
	t.passTurn(p.ID, "timeout")
}

// passTurn plays the neutral move for the current phase: Check while betting,
// an empty burn while burning.
func (t *Table) passTurn(playerID, source string) {
	req := ActionRequest{PlayerID: playerID, Kind: KindBurn}
	if t.engine.State.Phase == game.PhaseBetting {
		req = ActionRequest{PlayerID: playerID, Kind: KindBet, Action: game.ActionCheck}
	}
	if _, err := t.apply(req, source); err != nil {
		log.Error().Err(err).Str("session_id", t.id).Str("player_id", playerID).Msg("pass turn failed")
	}
}
