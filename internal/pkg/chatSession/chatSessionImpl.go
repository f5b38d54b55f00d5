package chatSession

import (
	"chester/internal/pkg/advice"
	"chester/internal/pkg/advisor"
	"chester/internal/pkg/board"
	"chester/internal/pkg/commands"
	"chester/internal/pkg/failures"
	"chester/internal/pkg/game"
	"chester/internal/pkg/store"
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"strings"
	"sync"
	"time"
)

const storeTimeout = 5 * time.Second

// The assistant always plays black.
const assistantColor = game.Black

type Dependencies struct {
	Advisor      Advisor
	Board        board.Board
	Store        store.Store
	ResponseFunc ResponseFunc
}

// flight is a request that holds the single-flight slot.
type flight struct {
	request         commands.Request
	advisorRequest  advisor.Request
	rollbackHistory int
}

type chatSessionImpl struct {
	id           string
	advisor      Advisor
	board        board.Board
	store        store.Store
	responseFunc ResponseFunc

	mutex      sync.Mutex
	history    []ChatInteraction
	skillLevel commands.SkillLevel
	turnOwner  TurnOwner
	processing bool
	pending    *commands.Request
	// opponentArmed defers the opponent request until the request in flight completes.
	opponentArmed bool
	version       uint64

	saveMutex    sync.Mutex
	savedVersion uint64

	ctx        context.Context
	cancel     context.CancelFunc
	background sync.WaitGroup
}

func New(id string, dependencies Dependencies) (ChatSession, error) {
	return Restore(id, dependencies, nil)
}

// Restore rebuilds a session from a snapshot. The board in dependencies must already hold the
// snapshot's position. A nil record starts a fresh session.
func Restore(id string, dependencies Dependencies, record *store.SessionRecord) (ChatSession, error) {
	if dependencies.Advisor == nil || dependencies.Board == nil {
		return nil, errors.New("chat session requires an advisor and a board")
	}

	ctx, cancel := context.WithCancel(context.Background())
	instance := &chatSessionImpl{
		id:           id,
		advisor:      dependencies.Advisor,
		board:        dependencies.Board,
		store:        dependencies.Store,
		responseFunc: dependencies.ResponseFunc,
		history:      greetingHistory(),
		skillLevel:   commands.DefaultSkillLevel,
		turnOwner:    Human,
		ctx:          ctx,
		cancel:       cancel,
	}

	if record != nil {
		if len(record.History) > 0 {
			instance.history = fromRecordHistory(record.History)
		}
		if level, ok := commands.ParseSkillLevel(record.SkillLevel); ok {
			instance.skillLevel = level
		}
		if TurnOwner(record.TurnOwner) == Assistant {
			instance.turnOwner = Assistant
		}
	}

	return instance, nil
}

func greetingHistory() []ChatInteraction {
	return []ChatInteraction{{IsBot: true, Message: Greeting}}
}

func (instance *chatSessionImpl) ID() string {
	return instance.id
}

func (instance *chatSessionImpl) Submit(ctx context.Context, input string) (Update, error) {
	if strings.TrimSpace(input) == "" {
		return Update{}, fmt.Errorf("%w: request", failures.ErrMissingParameter)
	}
	return instance.submit(ctx, commands.Parse(input))
}

func (instance *chatSessionImpl) Reask(ctx context.Context) (Update, error) {
	instance.mutex.Lock()
	if instance.processing {
		instance.mutex.Unlock()
		return Update{}, failures.ErrBusy
	}
	request, err := instance.lastRequestLocked()
	instance.mutex.Unlock()
	if err != nil {
		return Update{}, err
	}

	log.Info().Str("session_id", instance.id).Str("command", request.Command.String()).Msg("re-asking")
	return instance.submit(ctx, request)
}

// lastRequestLocked finds the request behind the newest bot interaction. The echo of a request
// always sits right before its answer.
func (instance *chatSessionImpl) lastRequestLocked() (commands.Request, error) {
	for index := len(instance.history) - 1; index >= 0; index-- {
		interaction := instance.history[index]
		if !interaction.IsBot {
			continue
		}
		if interaction.Command == "" || index == 0 || instance.history[index-1].IsBot {
			return commands.Request{}, failures.ErrNothingToReask
		}
		request := commands.Parse(instance.history[index-1].Message)
		if request.Command == commands.Opponent {
			return commands.Request{}, failures.ErrReaskRefused
		}
		return request, nil
	}
	return commands.Request{}, failures.ErrNothingToReask
}

func (instance *chatSessionImpl) submit(ctx context.Context, request commands.Request) (Update, error) {
	instance.mutex.Lock()
	current, err := instance.beginLocked(request)
	if err != nil {
		instance.mutex.Unlock()
		return Update{}, err
	}
	submitted := instance.updateLocked(EventSubmitted)
	instance.mutex.Unlock()

	instance.publish(submitted)
	return instance.run(ctx, current)
}

// beginLocked takes the single-flight slot and echoes the request into the history.
func (instance *chatSessionImpl) beginLocked(request commands.Request) (*flight, error) {
	if instance.processing {
		return nil, failures.ErrBusy
	}
	if request.Command == commands.Opponent {
		instance.opponentArmed = false
	}

	current := &flight{
		request: request,
		advisorRequest: advisor.Request{
			Command:    request,
			SkillLevel: instance.skillLevel,
			GameState:  instance.board.State(),
			LegalMoves: instance.board.LegalMoves(),
		},
		rollbackHistory: len(instance.history),
	}

	instance.processing = true
	instance.pending = &request
	instance.history = append(instance.history, ChatInteraction{
		IsBot:   false,
		Message: request.Raw,
		Command: request.Command.String(),
	})

	log.Info().Str("session_id", instance.id).Str("command", request.Command.String()).
		Str("turn_owner", string(instance.turnOwner)).Msg("processing request")
	return current, nil
}

func (instance *chatSessionImpl) run(ctx context.Context, current *flight) (Update, error) {
	response, err := instance.advisor.Advise(ctx, current.advisorRequest)

	instance.mutex.Lock()
	update, err := instance.finishLocked(current, response, err)
	next := instance.takeOpponentLocked()
	var nextUpdate Update
	if next != nil {
		nextUpdate = instance.updateLocked(EventSubmitted)
	}
	record, version := instance.recordLocked()
	instance.mutex.Unlock()

	instance.persist(record, version)
	instance.publish(update)
	if next != nil {
		instance.publish(nextUpdate)
		instance.runInBackground(next)
	}
	return update, err
}

// finishLocked commits a successful answer or rolls the echo back. Nothing else changes on failure.
func (instance *chatSessionImpl) finishLocked(current *flight, response advice.Response, err error) (Update, error) {
	instance.processing = false
	instance.pending = nil

	var applied *game.LegalMove
	if err == nil && instance.turnOwner == Assistant && response.HasMove() {
		if moveErr := instance.board.ApplyMove(response.From, response.To); moveErr != nil {
			err = fmt.Errorf("%w: %w", failures.ErrValidation, moveErr)
		} else {
			applied = &game.LegalMove{From: response.From, To: response.To}
			instance.turnOwner = Human
		}
	}

	if err != nil {
		instance.history = instance.history[:current.rollbackHistory]
		log.Error().Err(err).Str("session_id", instance.id).
			Str("command", current.request.Command.String()).Msg("request failed")

		update := instance.updateLocked(EventFailed)
		update.Message = failures.Message(err)
		return update, err
	}

	instance.history = append(instance.history, ChatInteraction{
		IsBot:   true,
		Message: response.Explanation,
		Command: current.request.Command.String(),
	})
	instance.version++

	update := instance.updateLocked(EventCompleted)
	update.Response = &response
	update.AppliedMove = applied
	return update, nil
}

func (instance *chatSessionImpl) ApplyHumanMove(ctx context.Context, from game.Square, to game.Square) (Update, error) {
	if !from.IsValid() || !to.IsValid() {
		return Update{}, fmt.Errorf("%w: move %s%s", failures.ErrInvalidParameter, from, to)
	}

	instance.mutex.Lock()
	if instance.processing {
		instance.mutex.Unlock()
		return Update{}, failures.ErrBusy
	}
	if instance.turnOwner != Human || instance.board.Turn() == assistantColor {
		instance.mutex.Unlock()
		return Update{}, failures.ErrNotYourTurn
	}
	if err := instance.board.ApplyMove(from, to); err != nil {
		instance.mutex.Unlock()
		return Update{}, err
	}
	instance.version++

	update := instance.updateLocked(EventMoved)
	update.AppliedMove = &game.LegalMove{From: from, To: to}
	next, nextUpdate := instance.syncTurnLocked()
	record, version := instance.recordLocked()
	instance.mutex.Unlock()

	log.Info().Str("session_id", instance.id).Str("from", string(from)).Str("to", string(to)).Msg("human move applied")

	instance.persist(record, version)
	instance.publish(update)
	if next != nil {
		instance.publish(nextUpdate)
		instance.runInBackground(next)
		update.TurnOwner = nextUpdate.TurnOwner
		update.Processing = true
	}
	return update, nil
}

func (instance *chatSessionImpl) SyncTurn(_ context.Context) (Update, error) {
	instance.mutex.Lock()
	next, nextUpdate := instance.syncTurnLocked()
	update := instance.updateLocked(EventState)
	record, version := instance.recordLocked()
	instance.mutex.Unlock()

	instance.persist(record, version)
	if next != nil {
		instance.publish(nextUpdate)
		instance.runInBackground(next)
	}
	return update, nil
}

// syncTurnLocked arms the opponent trigger when the board expects black to move, and fires it
// immediately when the slot is free.
func (instance *chatSessionImpl) syncTurnLocked() (*flight, Update) {
	if instance.board.Turn() != assistantColor || instance.board.IsOver() {
		return nil, Update{}
	}

	instance.opponentArmed = true
	if instance.processing {
		return nil, Update{}
	}

	next := instance.takeOpponentLocked()
	if next == nil {
		return nil, Update{}
	}
	return next, instance.updateLocked(EventSubmitted)
}

// takeOpponentLocked starts the armed opponent request, at most once per arming.
func (instance *chatSessionImpl) takeOpponentLocked() *flight {
	if !instance.opponentArmed || instance.processing {
		return nil
	}
	if instance.board.Turn() != assistantColor || instance.board.IsOver() {
		instance.opponentArmed = false
		return nil
	}

	if instance.turnOwner != Assistant {
		instance.turnOwner = Assistant
		instance.version++
	}
	next, err := instance.beginLocked(commands.New(commands.Opponent))
	if err != nil {
		return nil
	}
	return next
}

func (instance *chatSessionImpl) runInBackground(next *flight) {
	instance.background.Add(1)
	go func() {
		defer instance.background.Done()
		if _, err := instance.run(instance.ctx, next); err != nil {
			log.Warn().Err(err).Str("session_id", instance.id).Msg("opponent request failed, waiting for /opponent")
		}
	}()
}

func (instance *chatSessionImpl) Clear(_ context.Context) (Update, error) {
	instance.mutex.Lock()
	if instance.processing {
		instance.mutex.Unlock()
		return Update{}, failures.ErrBusy
	}

	instance.history = greetingHistory()
	instance.turnOwner = Human
	instance.opponentArmed = false
	instance.board.Reset()
	instance.version++

	update := instance.updateLocked(EventCleared)
	record, version := instance.recordLocked()
	instance.mutex.Unlock()

	log.Info().Str("session_id", instance.id).Msg("session cleared")

	instance.persist(record, version)
	instance.publish(update)
	return update, nil
}

// SetSkillLevel takes effect from the next request; a request in flight keeps its level.
func (instance *chatSessionImpl) SetSkillLevel(_ context.Context, level string) (Update, error) {
	skillLevel, ok := commands.ParseSkillLevel(level)
	if !ok {
		return Update{}, fmt.Errorf("%w: unknown skill level %q", failures.ErrInvalidParameter, level)
	}

	instance.mutex.Lock()
	instance.skillLevel = skillLevel
	instance.version++
	update := instance.updateLocked(EventSkillLevel)
	record, version := instance.recordLocked()
	instance.mutex.Unlock()

	instance.persist(record, version)
	instance.publish(update)
	return update, nil
}

func (instance *chatSessionImpl) Snapshot() Update {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()

	return instance.updateLocked(EventState)
}

func (instance *chatSessionImpl) Interactions() []ChatInteraction {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()

	return instance.historyLocked()
}

func (instance *chatSessionImpl) Processing() bool {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()

	return instance.processing
}

func (instance *chatSessionImpl) Wait() {
	instance.background.Wait()
}

func (instance *chatSessionImpl) Shutdown() {
	instance.cancel()
	instance.background.Wait()
	log.Info().Str("session_id", instance.id).Msg("chat session shut down")
}

func (instance *chatSessionImpl) historyLocked() []ChatInteraction {
	history := make([]ChatInteraction, len(instance.history))
	copy(history, instance.history)
	return history
}

func (instance *chatSessionImpl) updateLocked(event Event) Update {
	pending := ""
	if instance.pending != nil {
		pending = instance.pending.Command.String()
	}
	return Update{
		Event:      event,
		History:    instance.historyLocked(),
		TurnOwner:  instance.turnOwner,
		Processing: instance.processing,
		Pending:    pending,
		SkillLevel: instance.skillLevel,
		Board:      instance.board.State(),
		Outcome:    instance.board.Outcome(),
	}
}

func (instance *chatSessionImpl) publish(update Update) {
	if instance.responseFunc != nil {
		instance.responseFunc(update)
	}
}

func (instance *chatSessionImpl) recordLocked() (*store.SessionRecord, uint64) {
	history := make([]store.Interaction, len(instance.history))
	for index, interaction := range instance.history {
		history[index] = store.Interaction{
			IsBot:   interaction.IsBot,
			Message: interaction.Message,
			Command: interaction.Command,
		}
	}
	if instance.processing {
		// The echo of the request in flight is not committed yet.
		history = history[:instance.pendingRollbackLocked()]
	}

	return &store.SessionRecord{
		ID:         instance.id,
		History:    history,
		SkillLevel: instance.skillLevel.String(),
		TurnOwner:  string(instance.turnOwner),
		PGN:        instance.board.State().MoveHistoryNotation,
		UpdatedAt:  time.Now().UTC(),
	}, instance.version
}

func (instance *chatSessionImpl) pendingRollbackLocked() int {
	if len(instance.history) > 0 && !instance.history[len(instance.history)-1].IsBot {
		return len(instance.history) - 1
	}
	return len(instance.history)
}

// persist writes snapshots in version order; a stale snapshot never overwrites a newer one.
func (instance *chatSessionImpl) persist(record *store.SessionRecord, version uint64) {
	if instance.store == nil {
		return
	}

	instance.saveMutex.Lock()
	defer instance.saveMutex.Unlock()

	if version <= instance.savedVersion {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := instance.store.Save(ctx, record); err != nil {
		log.Error().Err(err).Str("session_id", instance.id).Msg("store.Save() failed")
		return
	}
	instance.savedVersion = version
}

func fromRecordHistory(records []store.Interaction) []ChatInteraction {
	history := make([]ChatInteraction, len(records))
	for index, record := range records {
		history[index] = ChatInteraction{IsBot: record.IsBot, Message: record.Message, Command: record.Command}
	}
	return history
}
