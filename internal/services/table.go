package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"adaptive-dice-backend/internal/config"
	"adaptive-dice-backend/internal/console"
	"adaptive-dice-backend/internal/dice"
	"adaptive-dice-backend/internal/models"
)

var (
	ErrTableNotFound  = errors.New("table not found")
	ErrUnknownPreset  = errors.New("unknown preset")
	ErrInvalidCommand = errors.New("invalid command")
)

// tableRoller is what a table needs from either engine.
type tableRoller interface {
	dice.Roller
	NumDice() int
	NumSides() int
	Aggressiveness() float64
}

// turnRoller is implemented by engines that rotate between players.
type turnRoller interface {
	CurrentActor() int
	NumActors() int
}

// Table is one game session. Its mutex serializes every engine operation.
type Table struct {
	mu         sync.Mutex
	id         string
	preset     string
	roller     tableRoller
	createdAt  time.Time
	lastUpdate time.Time
}

// TableManager owns the open tables.
type TableManager struct {
	mu          sync.RWMutex
	tables      map[string]*Table
	presets     *config.Presets
	tokens      *JWTService
	recorder    EventRecorder
	broadcaster Broadcaster
}

// NewTableManager returns an empty manager. recorder may be nil.
func NewTableManager(presets *config.Presets, tokens *JWTService, recorder EventRecorder) *TableManager {
	return &TableManager{
		tables:   make(map[string]*Table),
		presets:  presets,
		tokens:   tokens,
		recorder: recorder,
	}
}

// SetBroadcaster attaches the spectator feed. It must be called before the
// manager is shared.
func (tm *TableManager) SetBroadcaster(b Broadcaster) {
	tm.broadcaster = b
}

func (tm *TableManager) Presets() []config.Preset {
	return tm.presets.List()
}

func (tm *TableManager) CreateTable(ctx context.Context, req *models.CreateTableRequest) (*models.TableCreated, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", dice.ErrInvalidArgument, err)
	}

	preset, err := tm.resolvePreset(req)
	if err != nil {
		return nil, err
	}

	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	} else if seed, err = dice.NewSeed(); err != nil {
		return nil, err
	}

	roller, err := preset.NewRoller(dice.NewRandomSource(seed))
	if err != nil {
		return nil, err
	}
	tr, ok := roller.(tableRoller)
	if !ok {
		return nil, fmt.Errorf("unsupported roller %T", roller)
	}

	now := time.Now()
	table := &Table{
		id:         models.GenerateTableID(),
		preset:     req.Preset,
		roller:     tr,
		createdAt:  now,
		lastUpdate: now,
	}

	token, expiresAt, err := tm.tokens.GenerateToken(table.id)
	if err != nil {
		return nil, err
	}

	tm.mu.Lock()
	tm.tables[table.id] = table
	tm.mu.Unlock()

	log.Printf("Table %s created: %dd%d, aggressiveness %g", table.id, preset.NumDice, preset.NumSides, preset.Aggressiveness)

	table.mu.Lock()
	state := table.stateLocked()
	table.mu.Unlock()

	return &models.TableCreated{
		Table:     state,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (tm *TableManager) resolvePreset(req *models.CreateTableRequest) (config.Preset, error) {
	if req.Preset != "" {
		preset, ok := tm.presets.Get(req.Preset)
		if !ok {
			return config.Preset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, req.Preset)
		}
		return preset, nil
	}

	preset := config.Preset{
		Name:           "custom",
		NumDice:        req.NumDice,
		NumSides:       req.NumSides,
		Aggressiveness: *req.Aggressiveness,
	}
	if req.NumPlayers > 0 {
		outcome := req.ContestedOutcome
		if outcome == 0 {
			outcome = dice.DefaultContestedOutcome
		}
		preset.Contested = &config.ContestedPreset{Outcome: outcome, Players: req.NumPlayers}
	}
	if err := preset.Validate(); err != nil {
		return config.Preset{}, err
	}
	return preset, nil
}

func (tm *TableManager) getTable(tableID string) (*Table, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	table, ok := tm.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}
	return table, nil
}

func (tm *TableManager) State(tableID string) (*models.TableState, error) {
	table, err := tm.getTable(tableID)
	if err != nil {
		return nil, err
	}

	table.mu.Lock()
	defer table.mu.Unlock()
	return table.stateLocked(), nil
}

// Snapshot calls fn with the table's state while holding the table lock, so
// fn is ordered with the updates passed to the broadcaster.
func (tm *TableManager) Snapshot(tableID string, fn func(*models.TableState)) error {
	table, err := tm.getTable(tableID)
	if err != nil {
		return err
	}

	table.mu.Lock()
	defer table.mu.Unlock()
	fn(table.stateLocked())
	return nil
}

// Roll rolls for the player whose turn it is.
func (tm *TableManager) Roll(ctx context.Context, tableID string) (*models.RollResult, error) {
	return tm.apply(ctx, tableID, models.TableActionRoll)
}

func (tm *TableManager) Undo(ctx context.Context, tableID string) (*models.RollResult, error) {
	return tm.apply(ctx, tableID, models.TableActionUndo)
}

func (tm *TableManager) Redo(ctx context.Context, tableID string) (*models.RollResult, error) {
	return tm.apply(ctx, tableID, models.TableActionRedo)
}

// Execute runs one line of console input against a table.
func (tm *TableManager) Execute(ctx context.Context, tableID, input string) (*models.RollResult, error) {
	switch cmd := console.ParseCommand(input); cmd {
	case console.CommandRoll:
		return tm.Roll(ctx, tableID)
	case console.CommandUndo:
		return tm.Undo(ctx, tableID)
	case console.CommandRedo:
		return tm.Redo(ctx, tableID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCommand, input)
	}
}

func (tm *TableManager) apply(ctx context.Context, tableID string, action models.TableAction) (*models.RollResult, error) {
	table, err := tm.getTable(tableID)
	if err != nil {
		return nil, err
	}

	table.mu.Lock()
	defer table.mu.Unlock()

	event := &models.RollEvent{
		ID:      models.GenerateEventID(),
		TableID: tableID,
		Action:  action,
	}

	switch action {
	case models.TableActionRoll:
		event.Player = table.currentPlayerLocked()
		event.Roll = table.roller.Roll()
	case models.TableActionUndo:
		err = table.roller.Undo()
	case models.TableActionRedo:
		err = table.roller.Redo()
	}
	if err != nil {
		return nil, err
	}

	table.lastUpdate = time.Now()
	state := table.stateLocked()
	event.TotalRolls = state.TotalRolls
	event.CreatedAt = table.lastUpdate

	tm.publish(ctx, event, state)

	return &models.RollResult{
		TableID: tableID,
		Action:  action,
		Roll:    event.Roll,
		Player:  event.Player,
		Table:   state,
	}, nil
}

// publish is called with the table locked so spectators see updates in
// order.
func (tm *TableManager) publish(ctx context.Context, event *models.RollEvent, state *models.TableState) {
	if tm.recorder != nil {
		if err := tm.recorder.RecordEvent(ctx, event); err != nil {
			log.Printf("Failed to record %s on table %s: %v", event.Action, event.TableID, err)
		}
	}
	if tm.broadcaster != nil {
		tm.broadcaster.BroadcastTableUpdate(event, state)
	}
}

// DeleteTable closes a table and drops its activity feed.
func (tm *TableManager) DeleteTable(ctx context.Context, tableID string) error {
	tm.mu.Lock()
	_, ok := tm.tables[tableID]
	delete(tm.tables, tableID)
	tm.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, tableID)
	}

	if tm.recorder != nil {
		if err := tm.recorder.DeleteEvents(ctx, tableID); err != nil {
			log.Printf("Failed to delete feed of table %s: %v", tableID, err)
		}
	}
	if tm.broadcaster != nil {
		tm.broadcaster.BroadcastTableClosed(tableID)
	}
	log.Printf("Table %s closed", tableID)
	return nil
}

// CleanupStaleTables closes tables idle for longer than maxAge and returns
// how many were closed.
func (tm *TableManager) CleanupStaleTables(ctx context.Context, maxAge time.Duration) int {
	tm.mu.RLock()
	var stale []string
	for id, table := range tm.tables {
		table.mu.Lock()
		if time.Since(table.lastUpdate) > maxAge {
			stale = append(stale, id)
		}
		table.mu.Unlock()
	}
	tm.mu.RUnlock()

	closed := 0
	for _, id := range stale {
		if err := tm.DeleteTable(ctx, id); err == nil {
			closed++
		}
	}
	if closed > 0 {
		log.Printf("Closed %d stale tables", closed)
	}
	return closed
}

// TableIDs returns the open table IDs in sorted order.
func (tm *TableManager) TableIDs() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	ids := make([]string, 0, len(tm.tables))
	for id := range tm.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (t *Table) currentPlayerLocked() int {
	if tr, ok := t.roller.(turnRoller); ok {
		return tr.CurrentActor()
	}
	return 0
}

func (t *Table) stateLocked() *models.TableState {
	rows := t.roller.Rows()

	outcomes := make([]models.OutcomeState, 0, len(rows))
	for _, row := range rows {
		o := models.OutcomeState{
			Label:     row.Outcome.String(),
			Sum:       row.Outcome.Sum,
			Player:    row.Outcome.Actor,
			Frequency: row.Frequency,
		}
		if row.HasProbability {
			p := row.Probability
			pct := console.Percent(p)
			o.Probability = &p
			o.Percent = &pct
		}
		outcomes = append(outcomes, o)
	}

	state := &models.TableState{
		ID:             t.id,
		Preset:         t.preset,
		NumDice:        t.roller.NumDice(),
		NumSides:       t.roller.NumSides(),
		Aggressiveness: t.roller.Aggressiveness(),
		TotalRolls:     t.roller.TotalRolls(),
		CanUndo:        t.roller.CanUndo(),
		CanRedo:        t.roller.CanRedo(),
		Outcomes:       outcomes,
		Rendered:       console.Render(rows),
		CreatedAt:      t.createdAt,
		UpdatedAt:      t.lastUpdate,
	}
	if tr, ok := t.roller.(turnRoller); ok {
		state.NumPlayers = tr.NumActors()
		state.CurrentPlayer = tr.CurrentActor()
	}
	return state
}
