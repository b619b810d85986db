package room

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const (
	MaxPlayers     = 2
	maxChatLength  = 500
	playerLeftText = "Opponent left the game"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
	PhaseEmpty    Phase = "empty"
)

// OutboundChannel delivers events to one client. Sending to a closed channel returns an error
// and must not block.
type OutboundChannel interface {
	Send(event Event) error
}

type participant struct {
	entity.Player
	out OutboundChannel
}

type delivery struct {
	to    []*participant
	event Event
}

// JoinRequest describes a participant entering a room.
type JoinRequest struct {
	PlayerID string
	Name     string
	Out      OutboundChannel
	// Creator selects room_created instead of room_joined as the ack.
	Creator bool
}

// MoveOutcome is the result of an accepted move. Match is set when the move ended the game.
type MoveOutcome struct {
	Move  entity.Move
	Match *entity.Match
}

// Snapshot is a consistent copy of the public room state.
type Snapshot struct {
	ID            string          `json:"id"`
	Phase         Phase           `json:"phase"`
	PlayerCount   int             `json:"playerCount"`
	Players       []entity.Player `json:"players"`
	Board         [][]int         `json:"board"`
	CurrentPlayer entity.Seat     `json:"currentPlayer"`
	Winner        entity.Result   `json:"winner"`
	Round         int             `json:"round"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Room owns one board and its two seats. State changes happen under mu; events are delivered
// after mu is released while sendMu keeps them in the order the changes were accepted.
type Room struct {
	id        string
	createdAt time.Time
	logger    *slog.Logger

	mu     sync.Mutex
	roster []*participant
	board  *entity.Board
	turn   entity.Seat
	phase  Phase
	winner entity.Result
	round  int
	moves  []entity.Move

	// retired rooms are no longer reachable from the registry and refuse joins.
	retired bool

	sendMu sync.Mutex
}

func New(logger *slog.Logger, id string, createdAt time.Time) *Room {
	return &Room{
		id:        id,
		createdAt: createdAt,
		logger:    logger.With("component", "room", "roomID", id),
		roster:    make([]*participant, 0, MaxPlayers),
		board:     entity.NewBoard(),
		turn:      entity.SeatOne,
		phase:     PhaseWaiting,
		winner:    entity.ResultNone,
	}
}

func (that *Room) ID() string {
	return that.id
}

func (that *Room) CreatedAt() time.Time {
	return that.createdAt
}

// Join - seats a participant in the lowest free seat and starts the game when both seats are taken.
func (that *Room) Join(req JoinRequest) (entity.Player, error) {
	that.mu.Lock()

	if that.retired {
		that.release(nil)
		return entity.Player{}, apperror.ErrRoomNotFound
	}

	if len(that.roster) >= MaxPlayers {
		that.release(nil)
		return entity.Player{}, apperror.ErrRoomFull
	}

	if that.find(req.PlayerID) != nil {
		that.release(nil)
		return entity.Player{}, apperror.ErrAlreadyInRoom
	}

	seat := that.freeSeat()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("Player %d", seat)
	}

	joined := &participant{
		Player: entity.Player{ID: req.PlayerID, Name: name, PlayerNumber: seat},
		out:    req.Out,
	}
	that.roster = append(that.roster, joined)
	slices.SortFunc(that.roster, func(a, b *participant) int {
		return int(a.PlayerNumber - b.PlayerNumber)
	})

	if that.phase == PhaseEmpty {
		that.phase = PhaseWaiting
	}

	started := len(that.roster) == MaxPlayers
	if started {
		that.start()
	}

	ackType := EventRoomJoined
	if req.Creator {
		ackType = EventRoomCreated
	}

	players := that.players()
	batch := []delivery{
		{
			to: []*participant{joined},
			event: AckEvent{
				header:       header{Type: ackType},
				RoomID:       that.id,
				PlayerID:     joined.ID,
				PlayerNumber: seat,
				GameState:    that.phase,
				State:        that.state(),
			},
		},
		{
			to: that.everyone(),
			event: PlayerJoinedEvent{
				header:       header{Type: EventPlayerJoined},
				PlayersCount: len(players),
				Players:      players,
			},
		},
	}

	if started {
		batch = append(batch, delivery{
			to: that.everyone(),
			event: GameStartEvent{
				header:        header{Type: EventGameStart},
				Players:       players,
				CurrentPlayer: that.turn,
			},
		})
	}

	that.logger.Info("player joined", "playerID", joined.ID, "seat", seat, "started", started)
	that.release(batch)

	return joined.Player, nil
}

// Leave - removes a participant. It returns the number of participants still seated.
func (that *Room) Leave(playerID string) (int, error) {
	that.mu.Lock()

	idx := slices.IndexFunc(that.roster, func(p *participant) bool { return p.ID == playerID })
	if idx < 0 {
		that.release(nil)
		return len(that.roster), apperror.ErrNotInRoom
	}

	that.roster = slices.Delete(that.roster, idx, idx+1)
	remaining := len(that.roster)

	if remaining == 0 {
		that.phase = PhaseEmpty
		that.logger.Info("room is empty", "playerID", playerID)
		that.release(nil)

		return 0, nil
	}

	that.phase = PhaseWaiting
	batch := []delivery{{
		to: that.everyone(),
		event: PlayerLeftEvent{
			header:       header{Type: EventPlayerLeft},
			PlayerID:     playerID,
			PlayersCount: remaining,
			Message:      playerLeftText,
		},
	}}

	that.logger.Info("player left", "playerID", playerID, "remaining", remaining)
	that.release(batch)

	return remaining, nil
}

// Move - places the participant's stone. Rejected moves change nothing and emit nothing.
func (that *Room) Move(playerID string, row, col int) (MoveOutcome, error) {
	that.mu.Lock()

	mover := that.find(playerID)
	if mover == nil {
		that.release(nil)
		return MoveOutcome{}, apperror.ErrNotInRoom
	}

	if mover.PlayerNumber != that.turn {
		that.release(nil)
		return MoveOutcome{}, apperror.ErrNotYourTurn
	}

	if that.phase != PhasePlaying {
		that.release(nil)
		return MoveOutcome{}, apperror.ErrGameNotInProgress
	}

	seat := mover.PlayerNumber
	if err := that.board.Place(row, col, seat); err != nil {
		that.release(nil)
		return MoveOutcome{}, fmt.Errorf("%w: %v", apperror.ErrIllegalPlacement, err) //nolint: errorlint // engine errors stay internal
	}

	move := entity.Move{Row: row, Col: col, Player: seat}
	that.moves = append(that.moves, move)
	outcome := MoveOutcome{Move: move}

	var event Event
	switch {
	case that.board.CheckWin(row, col, seat):
		that.finish(entity.WinFor(seat))
		event = GameOverEvent{header: header{Type: EventGameOver}, Winner: that.winner, Move: move}
	case that.board.IsFull():
		that.finish(entity.ResultDraw)
		event = GameOverEvent{header: header{Type: EventGameOver}, Winner: that.winner, Move: move}
	default:
		that.turn = seat.Opponent()
		event = MoveEvent{header: header{Type: EventMove}, Move: move, CurrentPlayer: that.turn}
	}

	if that.phase == PhaseFinished {
		outcome.Match = that.match()
		that.logger.Info("game over", "winner", that.winner, "moves", len(that.moves))
	}

	that.release([]delivery{{to: that.everyone(), event: event}})

	return outcome, nil
}

// Reset - clears the board and starts a new round with seat one to move.
func (that *Room) Reset(playerID string) error {
	that.mu.Lock()

	if that.find(playerID) == nil {
		that.release(nil)
		return apperror.ErrNotInRoom
	}

	if that.phase != PhasePlaying && that.phase != PhaseFinished {
		that.release(nil)
		return apperror.ErrGameNotInProgress
	}

	that.start()
	batch := []delivery{{
		to:    that.everyone(),
		event: GameResetEvent{header: header{Type: EventGameReset}, CurrentPlayer: that.turn},
	}}

	that.logger.Info("game reset", "playerID", playerID, "round", that.round)
	that.release(batch)

	return nil
}

// Chat - relays a trimmed text message to the room. Blank messages are dropped.
func (that *Room) Chat(playerID, text string) error {
	that.mu.Lock()

	sender := that.find(playerID)
	if sender == nil {
		that.release(nil)
		return apperror.ErrNotInRoom
	}

	text = strings.TrimSpace(text)
	if text == "" {
		that.release(nil)
		return nil
	}

	if runes := []rune(text); len(runes) > maxChatLength {
		text = string(runes[:maxChatLength])
	}

	that.release([]delivery{{
		to:    that.everyone(),
		event: newChatMessageEvent(sender.Player, text, time.Now()),
	}})

	return nil
}

// Broadcast - delivers an event to every participant in order with the room's other events.
func (that *Room) Broadcast(event Event) {
	that.mu.Lock()
	that.release([]delivery{{to: that.everyone(), event: event}})
}

func (that *Room) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	state := that.state()

	return Snapshot{
		ID:            that.id,
		Phase:         state.Phase,
		PlayerCount:   len(that.roster),
		Players:       state.Players,
		Board:         state.Board,
		CurrentPlayer: state.CurrentPlayer,
		Winner:        state.Winner,
		Round:         state.Round,
		CreatedAt:     that.createdAt,
	}
}

func (that *Room) PlayerCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.roster)
}

func (that *Room) Phase() Phase {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.phase
}

// IsAbandoned - reports whether the room holds nobody.
func (that *Room) IsAbandoned() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.phase == PhaseEmpty || len(that.roster) == 0
}

// Retire - marks an abandoned room as removed. It returns false when somebody is still seated.
func (that *Room) Retire() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.roster) > 0 {
		return false
	}

	that.phase = PhaseEmpty
	that.retired = true

	return true
}

// release hands the send lock over before unlocking state, so deliveries leave in acceptance order.
// Must be called with mu held.
func (that *Room) release(batch []delivery) {
	if len(batch) == 0 {
		that.mu.Unlock()
		return
	}

	that.sendMu.Lock()
	that.mu.Unlock()
	defer that.sendMu.Unlock()

	for _, d := range batch {
		for _, p := range d.to {
			if err := p.out.Send(d.event); err != nil {
				that.logger.Debug("skipping closed channel", "playerID", p.ID, "event", d.event.EventType(), "error", err)
			}
		}
	}
}

func (that *Room) start() {
	that.board.Reset()
	that.turn = entity.SeatOne
	that.phase = PhasePlaying
	that.winner = entity.ResultNone
	that.moves = nil
	that.round++
}

func (that *Room) finish(result entity.Result) {
	that.phase = PhaseFinished
	that.winner = result
}

func (that *Room) match() *entity.Match {
	return &entity.Match{
		ID:         entity.MatchID(that.id, that.round),
		RoomID:     that.id,
		Round:      that.round,
		Players:    that.players(),
		Winner:     that.winner,
		Moves:      slices.Clone(that.moves),
		FinishedAt: time.Now().UTC(),
	}
}

func (that *Room) find(playerID string) *participant {
	for _, p := range that.roster {
		if p.ID == playerID {
			return p
		}
	}

	return nil
}

func (that *Room) freeSeat() entity.Seat {
	for _, seat := range []entity.Seat{entity.SeatOne, entity.SeatTwo} {
		if !slices.ContainsFunc(that.roster, func(p *participant) bool { return p.PlayerNumber == seat }) {
			return seat
		}
	}

	return entity.NoSeat
}

func (that *Room) everyone() []*participant {
	return slices.Clone(that.roster)
}

func (that *Room) players() []entity.Player {
	players := make([]entity.Player, 0, len(that.roster))
	for _, p := range that.roster {
		players = append(players, p.Player)
	}

	return players
}

func (that *Room) state() RoomState {
	return RoomState{
		Phase:         that.phase,
		Board:         that.board.Cells(),
		CurrentPlayer: that.turn,
		Winner:        that.winner,
		Players:       that.players(),
		Round:         that.round,
	}
}
