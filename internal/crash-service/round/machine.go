package round

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/fair"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/games"
	"github.com/radieske/casino-games-platform-poc/internal/shared/metrics"
	"github.com/radieske/casino-games-platform-poc/pkg/contracts/events"
)

// State é a fase corrente da rodada contínua.
type State string

const (
	StateWaiting State = "WAITING"
	StateRunning State = "RUNNING"
	StateCrashed State = "CRASHED"
)

var (
	ErrNotAcceptingBets = errors.New("round: not accepting bets")
	ErrAlreadyJoined    = errors.New("round: user already joined this round")
	ErrNoActiveBet      = errors.New("round: no active bet for this user")
	ErrAlreadyCashedOut = errors.New("round: bet already cashed out")
	ErrRoundNotRunning  = errors.New("round: round is not running")
)

// Round é o registro persistido de uma rodada encerrada.
type Round struct {
	ID               string
	Sequence         uint64
	ServerSecret     string
	ServerSecretHash string
	CrashPoint       float64
	TotalBets        int
	TotalCashouts    int
	StartedAt        time.Time
	CrashedAt        time.Time
}

// Snapshot é o estado publicado a cada tick pro canal Redis e
// repassado aos clientes WebSocket. O seed só aparece após o crash.
type Snapshot struct {
	RoundID        string  `json:"roundId"`
	Sequence       uint64  `json:"sequence"`
	State          State   `json:"state"`
	Multiplier     float64 `json:"multiplier"`
	CrashPoint     float64 `json:"crash_point,omitempty"`
	ServerSeedHash string  `json:"serverSeedHash"`
	ServerSeed     string  `json:"serverSeed,omitempty"`
	CountdownMs    int64   `json:"countdown_ms,omitempty"`
	Players        int     `json:"players"`
	TsUnixMs       int64   `json:"ts_unix_ms"`
}

type JoinRequest struct {
	UserID      string
	AmountCents int64
	AutoCashout float64 // 0 = sem auto cashout
}

type JoinResult struct {
	BetID   string
	RoundID string
}

type CashoutResult struct {
	BetID       string
	Multiplier  float64
	PayoutCents int64
}

// Wallet movimenta saldo; débito e crédito idempotentes por reference.
type Wallet interface {
	Debit(ctx context.Context, userID string, cents int64, reference string) (int64, error)
	Credit(ctx context.Context, userID string, cents int64, reference string) (int64, error)
}

// Directives consulta overrides do operador antes do sorteio do ponto
// de crash. A rodada é compartilhada, então só a diretiva global conta.
type Directives interface {
	Peek(ctx context.Context, userID, gameID string) (*control.Directive, error)
}

// History persiste rodadas encerradas.
type History interface {
	SaveRound(ctx context.Context, r *Round) error
}

// Broadcaster publica snapshots no canal Redis Pub/Sub.
type Broadcaster interface {
	Publish(ctx context.Context, payload []byte) error
}

// Publisher emite os eventos da rodada no Kafka: um RoundFinished por
// rodada e um BetSettled por aposta resolvida, pro settlement-worker
// auditar as apostas de crash junto com as dos jogos instantâneos.
type Publisher interface {
	PublishRoundFinished(ctx context.Context, e events.RoundFinished) error
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
}

// Config são os parâmetros de tempo e de curva da rodada.
type Config struct {
	Edge        float64       // fator do sorteio do ponto de crash
	GrowthRate  float64       // multiplier = e^(GrowthRate * segundos)
	Countdown   time.Duration // fase Waiting
	Tick        time.Duration // intervalo de atualização em Running
	RestartWait time.Duration // pausa após o crash
}

type joinMsg struct {
	ctx   context.Context
	req   JoinRequest
	reply chan joinReply
}

type joinReply struct {
	res JoinResult
	err error
}

type cashoutMsg struct {
	ctx    context.Context
	userID string
	reply  chan cashoutReply
}

type cashoutReply struct {
	res CashoutResult
	err error
}

type roundBet struct {
	betID       string
	amountCents int64
	autoCashout float64
	cashedOut   bool
	cashoutMult float64
	payoutCents int64
	auto        bool
}

// Machine é a máquina de estados da rodada contínua. Uma única
// goroutine (Run) é dona de todo o estado; Join, Cashout e Current
// conversam com ela por canal, então não existe corrida em cima das
// apostas nem do multiplier.
type Machine struct {
	log        *zap.Logger
	cfg        Config
	wallet     Wallet
	directives Directives
	history    History
	broadcast  Broadcaster
	publ       Publisher
	newID      func() string

	joinCh    chan joinMsg
	cashoutCh chan cashoutMsg
	stateCh   chan chan Snapshot

	// estado da rodada corrente; tocado só pela goroutine do Run
	roundID    string
	sequence   uint64
	secret     string
	secretHash string
	state      State
	multiplier float64
	crashPoint float64
	forced     bool
	startedAt  time.Time
	deadline   time.Time
	bets       map[string]*roundBet
	cashouts   int
}

func NewMachine(log *zap.Logger, cfg Config, w Wallet, d Directives, h History, b Broadcaster, p Publisher, newID func() string) *Machine {
	return &Machine{
		log:        log,
		cfg:        cfg,
		wallet:     w,
		directives: d,
		history:    h,
		broadcast:  b,
		publ:       p,
		newID:      newID,
		joinCh:     make(chan joinMsg),
		cashoutCh:  make(chan cashoutMsg),
		stateCh:    make(chan chan Snapshot),
	}
}

// Join entra na rodada corrente durante a fase Waiting. O débito da
// carteira acontece antes da aposta valer; débito recusado, aposta fora.
func (m *Machine) Join(ctx context.Context, req JoinRequest) (JoinResult, error) {
	msg := joinMsg{ctx: ctx, req: req, reply: make(chan joinReply, 1)}
	select {
	case m.joinCh <- msg:
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
	select {
	case r := <-msg.reply:
		return r.res, r.err
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}
}

// Cashout saca no multiplier corrente. Válido uma única vez por aposta
// e somente enquanto a rodada está em Running.
func (m *Machine) Cashout(ctx context.Context, userID string) (CashoutResult, error) {
	msg := cashoutMsg{ctx: ctx, userID: userID, reply: make(chan cashoutReply, 1)}
	select {
	case m.cashoutCh <- msg:
	case <-ctx.Done():
		return CashoutResult{}, ctx.Err()
	}
	select {
	case r := <-msg.reply:
		return r.res, r.err
	case <-ctx.Done():
		return CashoutResult{}, ctx.Err()
	}
}

// Current devolve um snapshot do estado corrente da rodada.
func (m *Machine) Current(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case m.stateCh <- reply:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Run roda o loop de rodadas até o contexto encerrar.
func (m *Machine) Run(ctx context.Context) {
	for seq := uint64(1); ; seq++ {
		if !m.playRound(ctx, seq) {
			return
		}
	}
}

func (m *Machine) playRound(ctx context.Context, seq uint64) bool {
	m.roundID = m.newID()
	m.sequence = seq
	m.secret = fair.GenerateServerSecret()
	m.secretHash = fair.CommitmentHash(m.secret)
	m.state = StateWaiting
	m.multiplier = 1.0
	m.crashPoint = 0
	m.forced = false
	m.bets = make(map[string]*roundBet)
	m.cashouts = 0
	m.deadline = time.Now().Add(m.cfg.Countdown)

	m.publishSnapshot(ctx)

	if !m.waitingPhase(ctx) {
		return false
	}
	if !m.runningPhase(ctx) {
		return false
	}
	return m.crashedPhase(ctx)
}

func (m *Machine) waitingPhase(ctx context.Context) bool {
	timer := time.NewTimer(time.Until(m.deadline))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case msg := <-m.joinCh:
			msg.reply <- m.handleJoin(msg.ctx, msg.req)
		case msg := <-m.cashoutCh:
			msg.reply <- cashoutReply{err: ErrRoundNotRunning}
		case reply := <-m.stateCh:
			reply <- m.snapshot()
		}
	}
}

func (m *Machine) handleJoin(ctx context.Context, req JoinRequest) joinReply {
	if m.state != StateWaiting {
		return joinReply{err: ErrNotAcceptingBets}
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		return joinReply{err: errors.New("round: invalid join request")}
	}
	if _, ok := m.bets[req.UserID]; ok {
		return joinReply{err: ErrAlreadyJoined}
	}

	betID := m.newID()
	if _, err := m.wallet.Debit(ctx, req.UserID, req.AmountCents, betID); err != nil {
		return joinReply{err: err}
	}
	m.bets[req.UserID] = &roundBet{
		betID:       betID,
		amountCents: req.AmountCents,
		autoCashout: req.AutoCashout,
	}
	metrics.BetsPlaced.WithLabelValues(games.GameCrash).Inc()
	return joinReply{res: JoinResult{BetID: betID, RoundID: m.roundID}}
}

func (m *Machine) runningPhase(ctx context.Context) bool {
	natural, err := games.NaturalCrashPoint(fair.Commitment{
		ServerSecret: m.secret,
		ClientSeed:   m.roundID,
		Nonce:        m.sequence,
	}, m.cfg.Edge)
	if err != nil {
		m.log.Error("crash point draw failed", zap.Error(err))
		natural = 1.0
	}

	directive, err := m.directives.Peek(ctx, "", games.GameCrash)
	if err != nil {
		m.log.Error("peek directive", zap.Error(err))
		directive = nil
	}
	u, err := fair.Uniform(m.secret, m.roundID, m.sequence, "control")
	if err != nil {
		u = 0
	}
	m.crashPoint = control.ControlledCrashPoint(directive, natural, u)
	m.forced = directive != nil
	if directive != nil {
		metrics.OverridesApplied.WithLabelValues(directive.Source, string(directive.Type)).Inc()
	}

	m.state = StateRunning
	m.multiplier = 1.0
	m.startedAt = time.Now()

	ticker := time.NewTicker(m.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			t := time.Since(m.startedAt).Seconds()
			mult := round2(math.Exp(m.cfg.GrowthRate * t))
			if mult < 1.0 {
				mult = 1.0
			}
			if mult >= m.crashPoint {
				// aposta vence sse sacou no crash point ou antes, então
				// todo alvo de auto cashout <= crash point paga antes da
				// rodada encerrar, mesmo que o tick tenha pulado o alvo
				m.multiplier = m.crashPoint
				m.runAutoCashouts(ctx)
				return true
			}
			m.multiplier = mult
			m.runAutoCashouts(ctx)
			m.publishSnapshot(ctx)
		case msg := <-m.joinCh:
			msg.reply <- joinReply{err: ErrNotAcceptingBets}
		case msg := <-m.cashoutCh:
			msg.reply <- m.handleCashout(msg.ctx, msg.userID, m.multiplier, false)
		case reply := <-m.stateCh:
			reply <- m.snapshot()
		}
	}
}

func (m *Machine) runAutoCashouts(ctx context.Context) {
	for userID, b := range m.bets {
		if b.cashedOut || b.autoCashout <= 0 || b.autoCashout > m.multiplier {
			continue
		}
		// paga no valor pedido, não no multiplier do tick
		if r := m.handleCashout(ctx, userID, b.autoCashout, true); r.err != nil {
			m.log.Error("auto cashout failed",
				zap.String("userId", userID),
				zap.String("betId", b.betID),
				zap.Error(r.err),
			)
		}
	}
}

func (m *Machine) handleCashout(ctx context.Context, userID string, mult float64, auto bool) cashoutReply {
	b, ok := m.bets[userID]
	if !ok {
		return cashoutReply{err: ErrNoActiveBet}
	}
	if b.cashedOut {
		return cashoutReply{err: ErrAlreadyCashedOut}
	}

	payout := int64(math.Round(float64(b.amountCents) * mult))
	if _, err := m.wallet.Credit(ctx, userID, payout, b.betID); err != nil {
		return cashoutReply{err: err}
	}
	b.cashedOut = true
	b.cashoutMult = mult
	b.payoutCents = payout
	b.auto = auto
	m.cashouts++
	metrics.BetsSettled.WithLabelValues(games.GameCrash, "win").Inc()
	return cashoutReply{res: CashoutResult{BetID: b.betID, Multiplier: mult, PayoutCents: payout}}
}

func (m *Machine) crashedPhase(ctx context.Context) bool {
	m.state = StateCrashed
	crashedAt := time.Now()

	for _, b := range m.bets {
		if !b.cashedOut {
			metrics.BetsSettled.WithLabelValues(games.GameCrash, "lose").Inc()
		}
	}
	metrics.CrashRounds.Inc()

	rec := &Round{
		ID:               m.roundID,
		Sequence:         m.sequence,
		ServerSecret:     m.secret,
		ServerSecretHash: m.secretHash,
		CrashPoint:       m.crashPoint,
		TotalBets:        len(m.bets),
		TotalCashouts:    m.cashouts,
		StartedAt:        m.startedAt,
		CrashedAt:        crashedAt,
	}
	if m.history != nil {
		if err := m.history.SaveRound(ctx, rec); err != nil {
			m.log.Error("save round", zap.String("roundId", m.roundID), zap.Error(err))
		}
	}
	if m.publ != nil {
		e := events.RoundFinished{
			RoundID:        m.roundID,
			Sequence:       m.sequence,
			CrashPoint:     m.crashPoint,
			ServerSeed:     m.secret,
			ServerSeedHash: m.secretHash,
			TotalBets:      len(m.bets),
			TotalCashouts:  m.cashouts,
			TsUnixMs:       crashedAt.UnixMilli(),
		}
		if err := m.publ.PublishRoundFinished(ctx, e); err != nil {
			m.log.Warn("publish round_finished", zap.String("roundId", m.roundID), zap.Error(err))
		}
		m.publishBetResults(ctx, crashedAt)
	}

	m.publishSnapshot(ctx)

	timer := time.NewTimer(m.cfg.RestartWait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case msg := <-m.joinCh:
			msg.reply <- joinReply{err: ErrNotAcceptingBets}
		case msg := <-m.cashoutCh:
			msg.reply <- cashoutReply{err: ErrRoundNotRunning}
		case reply := <-m.stateCh:
			reply <- m.snapshot()
		}
	}
}

// publishBetResults emite um BetSettled por aposta da rodada, vencedora
// ou não, pro mesmo tópico que os jogos instantâneos usam.
func (m *Machine) publishBetResults(ctx context.Context, crashedAt time.Time) {
	for userID, b := range m.bets {
		out := games.CrashOutcome(m.crashPoint, b.cashoutMult, b.auto)
		raw, err := out.Marshal()
		if err != nil {
			m.log.Error("marshal crash outcome", zap.String("betId", b.betID), zap.Error(err))
			raw = nil
		}
		e := events.BetSettled{
			BetID:          b.betID,
			UserID:         userID,
			GameID:         games.GameCrash,
			AmountCents:    b.amountCents,
			PayoutCents:    b.payoutCents,
			Multiplier:     b.cashoutMult,
			Win:            b.cashedOut,
			Forced:         m.forced,
			ServerSeed:     m.secret,
			ServerSeedHash: m.secretHash,
			Outcome:        raw,
			TsUnixMs:       crashedAt.UnixMilli(),
		}
		if err := m.publ.PublishBetSettled(ctx, e); err != nil {
			m.log.Warn("publish bet_settled", zap.String("betId", b.betID), zap.Error(err))
		}
	}
}

func (m *Machine) snapshot() Snapshot {
	s := Snapshot{
		RoundID:        m.roundID,
		Sequence:       m.sequence,
		State:          m.state,
		Multiplier:     m.multiplier,
		ServerSeedHash: m.secretHash,
		Players:        len(m.bets),
		TsUnixMs:       time.Now().UnixMilli(),
	}
	switch m.state {
	case StateWaiting:
		if rem := time.Until(m.deadline); rem > 0 {
			s.CountdownMs = rem.Milliseconds()
		}
	case StateCrashed:
		// crash encerrado revela ponto e segredo pra auditoria
		s.CrashPoint = m.crashPoint
		s.ServerSeed = m.secret
	}
	return s
}

func (m *Machine) publishSnapshot(ctx context.Context) {
	if m.broadcast == nil {
		return
	}
	b, err := json.Marshal(m.snapshot())
	if err != nil {
		return
	}
	if err := m.broadcast.Publish(ctx, b); err != nil {
		m.log.Warn("publish snapshot", zap.Error(err))
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
