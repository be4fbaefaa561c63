package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"adaptive-dice-backend/internal/config"
	"adaptive-dice-backend/internal/dice"
	"adaptive-dice-backend/internal/models"
	"adaptive-dice-backend/internal/services"
)

type recordedEvents struct {
	mu      sync.Mutex
	events  []*models.RollEvent
	deleted []string
	err     error
}

func (r *recordedEvents) RecordEvent(ctx context.Context, event *models.RollEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordedEvents) DeleteEvents(ctx context.Context, tableID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, tableID)
	return r.err
}

type capturedBroadcasts struct {
	mu      sync.Mutex
	updates []*models.TableState
	closed  []string
}

func (c *capturedBroadcasts) BroadcastTableUpdate(event *models.RollEvent, state *models.TableState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, state)
}

func (c *capturedBroadcasts) BroadcastTableClosed(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = append(c.closed, tableID)
}

func ptr[T any](v T) *T { return &v }

func newTestManager(t *testing.T, recorder services.EventRecorder) (*services.TableManager, *services.JWTService) {
	t.Helper()
	presets, err := config.LoadPresets("")
	if err != nil {
		t.Fatalf("LoadPresets() error = %v", err)
	}
	tokens := services.NewJWTService(&config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour})
	return services.NewTableManager(presets, tokens, recorder), tokens
}

func TestTableManager(t *testing.T) {
	recorder := &recordedEvents{}
	broadcasts := &capturedBroadcasts{}
	tm, tokens := newTestManager(t, recorder)
	tm.SetBroadcaster(broadcasts)
	ctx := context.Background()

	created, err := tm.CreateTable(ctx, &models.CreateTableRequest{Preset: "catan", Seed: ptr(int64(42))})
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if created.Table.ID == "" {
		t.Fatal("Table should have an ID")
	}
	if created.Table.NumPlayers != 2 || created.Table.CurrentPlayer != 1 {
		t.Errorf("Expected player 1 of 2, got %d of %d", created.Table.CurrentPlayer, created.Table.NumPlayers)
	}

	claims, err := tokens.ValidateToken(created.Token)
	if err != nil {
		t.Fatalf("Owner token should validate: %v", err)
	}
	if claims.TableID != created.Table.ID {
		t.Errorf("Token table %s, want %s", claims.TableID, created.Table.ID)
	}

	id := created.Table.ID
	result, err := tm.Roll(ctx, id)
	if err != nil {
		t.Fatalf("Failed to roll: %v", err)
	}
	if result.Roll < 2 || result.Roll > 12 {
		t.Errorf("Roll should be between 2 and 12, got %d", result.Roll)
	}
	if result.Player != 1 || result.Table.CurrentPlayer != 2 {
		t.Errorf("Expected player 1 to roll and player 2 to be next, got %d then %d", result.Player, result.Table.CurrentPlayer)
	}

	if _, err := tm.Undo(ctx, id); err != nil {
		t.Fatalf("Failed to undo: %v", err)
	}
	if _, err := tm.Undo(ctx, id); !errors.Is(err, dice.ErrNoHistory) {
		t.Errorf("Second undo error = %v, want %v", err, dice.ErrNoHistory)
	}

	redone, err := tm.Redo(ctx, id)
	if err != nil {
		t.Fatalf("Failed to redo: %v", err)
	}
	if redone.Table.TotalRolls != 1 || redone.Table.CanRedo {
		t.Errorf("After redo expected 1 roll and no redo, got %d and %v", redone.Table.TotalRolls, redone.Table.CanRedo)
	}

	if len(recorder.events) != 3 {
		t.Errorf("Expected 3 recorded events, got %d", len(recorder.events))
	}
	if len(broadcasts.updates) != 3 {
		t.Errorf("Expected 3 broadcasts, got %d", len(broadcasts.updates))
	}

	if err := tm.DeleteTable(ctx, id); err != nil {
		t.Fatalf("Failed to delete table: %v", err)
	}
	if _, err := tm.State(id); !errors.Is(err, services.ErrTableNotFound) {
		t.Errorf("State after delete error = %v, want %v", err, services.ErrTableNotFound)
	}
	if len(broadcasts.closed) != 1 || broadcasts.closed[0] != id {
		t.Errorf("Expected close broadcast for %s, got %v", id, broadcasts.closed)
	}
	if len(recorder.deleted) != 1 || recorder.deleted[0] != id {
		t.Errorf("Expected feed of %s to be deleted, got %v", id, recorder.deleted)
	}
}

func TestTableManagerStateRendersContestedRows(t *testing.T) {
	tm, _ := newTestManager(t, nil)
	created, err := tm.CreateTable(context.Background(), &models.CreateTableRequest{
		NumDice:        2,
		NumSides:       6,
		Aggressiveness: ptr(15.0),
		NumPlayers:     3,
	})
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	state := created.Table
	if len(state.Outcomes) != 13 {
		t.Fatalf("Expected 13 outcome rows, got %d", len(state.Outcomes))
	}
	hidden := 0
	for _, o := range state.Outcomes {
		if o.Probability == nil {
			hidden++
			if o.Sum != 7 || o.Player == 1 {
				t.Errorf("Only other players' 7s should be hidden, got %+v", o)
			}
		}
	}
	if hidden != 2 {
		t.Errorf("Expected 2 hidden rows, got %d", hidden)
	}
	if !strings.Contains(state.Rendered, "7 (player 1):  17% chance, 0") {
		t.Errorf("Rendered table missing player 1 line:\n%s", state.Rendered)
	}
}

func TestTableManagerSeedIsReproducible(t *testing.T) {
	tm, _ := newTestManager(t, nil)
	ctx := context.Background()

	rolls := func() []int {
		created, err := tm.CreateTable(ctx, &models.CreateTableRequest{Preset: "catan-shared-sevens", Seed: ptr(int64(7))})
		if err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
		var out []int
		for i := 0; i < 20; i++ {
			r, err := tm.Roll(ctx, created.Table.ID)
			if err != nil {
				t.Fatalf("Failed to roll: %v", err)
			}
			out = append(out, r.Roll)
		}
		return out
	}

	a, b := rolls(), rolls()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Roll %d differs between equally seeded tables: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestTableManagerCreateErrors(t *testing.T) {
	tm, _ := newTestManager(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *models.CreateTableRequest
		want error
	}{
		{"unknown preset", &models.CreateTableRequest{Preset: "craps"}, services.ErrUnknownPreset},
		{"invalid request", &models.CreateTableRequest{NumDice: 0, NumSides: 6, Aggressiveness: ptr(1.0)}, dice.ErrInvalidArgument},
		{"contested outcome out of range", &models.CreateTableRequest{NumDice: 2, NumSides: 6, Aggressiveness: ptr(1.0), NumPlayers: 2, ContestedOutcome: 40}, dice.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tm.CreateTable(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("CreateTable() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTableManagerExecute(t *testing.T) {
	tm, _ := newTestManager(t, nil)
	ctx := context.Background()
	created, err := tm.CreateTable(ctx, &models.CreateTableRequest{Preset: "d20", Seed: ptr(int64(1))})
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	id := created.Table.ID

	result, err := tm.Execute(ctx, id, "")
	if err != nil || result.Action != models.TableActionRoll {
		t.Fatalf("Empty input should roll, got %+v, %v", result, err)
	}
	if result, err = tm.Execute(ctx, id, "UNDO"); err != nil || result.Action != models.TableActionUndo {
		t.Fatalf("UNDO should undo, got %+v, %v", result, err)
	}
	if result, err = tm.Execute(ctx, id, "REDO"); err != nil || result.Action != models.TableActionRedo {
		t.Fatalf("REDO should redo, got %+v, %v", result, err)
	}
	if _, err := tm.Execute(ctx, id, "roll please"); !errors.Is(err, services.ErrInvalidCommand) {
		t.Errorf("Invalid input error = %v, want %v", err, services.ErrInvalidCommand)
	}
	if _, err := tm.Execute(ctx, "missing", ""); !errors.Is(err, services.ErrTableNotFound) {
		t.Errorf("Missing table error = %v, want %v", err, services.ErrTableNotFound)
	}
}

func TestTableManagerRecorderFailureIsNotFatal(t *testing.T) {
	tm, _ := newTestManager(t, &recordedEvents{err: errors.New("redis down")})
	ctx := context.Background()
	created, err := tm.CreateTable(ctx, &models.CreateTableRequest{Preset: "fair-2d6"})
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if _, err := tm.Roll(ctx, created.Table.ID); err != nil {
		t.Errorf("Roll should succeed when the feed fails, got %v", err)
	}
}

func TestTableManagerConcurrentRolls(t *testing.T) {
	tm, _ := newTestManager(t, nil)
	ctx := context.Background()
	created, err := tm.CreateTable(ctx, &models.CreateTableRequest{Preset: "catan"})
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := tm.Roll(ctx, created.Table.ID); err != nil {
					t.Errorf("Failed to roll: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	state, err := tm.State(created.Table.ID)
	if err != nil {
		t.Fatalf("Failed to get state: %v", err)
	}
	if state.TotalRolls != 200 {
		t.Errorf("Expected 200 rolls, got %d", state.TotalRolls)
	}
	if state.CurrentPlayer != 1 {
		t.Errorf("Expected player 1 after an even number of rolls, got %d", state.CurrentPlayer)
	}
}

func TestCleanupStaleTables(t *testing.T) {
	recorder := &recordedEvents{}
	tm, _ := newTestManager(t, recorder)
	ctx := context.Background()
	created, err := tm.CreateTable(ctx, &models.CreateTableRequest{Preset: "fair-2d6"})
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	if n := tm.CleanupStaleTables(ctx, time.Hour); n != 0 {
		t.Errorf("Fresh table should not be stale, closed %d", n)
	}
	time.Sleep(5 * time.Millisecond)
	if n := tm.CleanupStaleTables(ctx, time.Millisecond); n != 1 {
		t.Errorf("Expected 1 stale table closed, got %d", n)
	}
	if len(recorder.deleted) != 1 || recorder.deleted[0] != created.Table.ID {
		t.Errorf("Expected feed of %s to be deleted, got %v", created.Table.ID, recorder.deleted)
	}
	if ids := tm.TableIDs(); len(ids) != 0 {
		t.Errorf("Expected no open tables, got %v", ids)
	}
}
