package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"keybrame/internal/hotkey"
	"keybrame/internal/input"
)

const (
	directionIn  = "in"
	directionOut = "out"
)

// TransitionPatch updates one transition of a binding. Absent leaves it
// unchanged; an explicit JSON null removes it.
type TransitionPatch struct {
	Set   bool
	Value *hotkey.Transition
}

// UnmarshalJSON records that the field was present
func (p *TransitionPatch) UnmarshalJSON(data []byte) error {
	p.Set = true
	if string(data) == "null" {
		p.Value = nil
		return nil
	}
	var t hotkey.Transition
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	p.Value = &t
	return nil
}

// BindingPatch is a partial update. Nil fields are left unchanged.
type BindingPatch struct {
	Keys          *[]input.Key    `json:"keys"`
	Kind          *hotkey.Kind    `json:"type"`
	Image         *string         `json:"image"`
	Description   *string         `json:"description"`
	Enabled       *bool           `json:"enabled"`
	Priority      *int            `json:"priority"`
	TransitionIn  TransitionPatch `json:"transition_in"`
	TransitionOut TransitionPatch `json:"transition_out"`
}

// ListBindings returns all bindings, enabled or not, in priority order
func (s *Store) ListBindings(ctx context.Context) ([]hotkey.Binding, error) {
	return s.queryBindings(ctx, false)
}

// EnabledBindings returns the enabled bindings in priority order
func (s *Store) EnabledBindings(ctx context.Context) ([]hotkey.Binding, error) {
	return s.queryBindings(ctx, true)
}

// GetBinding returns one binding by id
func (s *Store) GetBinding(ctx context.Context, id int64) (hotkey.Binding, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, keys, type, image, description, priority, enabled
		FROM keybindings WHERE id = ?`, id)
	b, err := scanBinding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return hotkey.Binding{}, ErrNotFound
	}
	if err != nil {
		return hotkey.Binding{}, err
	}

	trans, err := s.transitions(ctx)
	if err != nil {
		return hotkey.Binding{}, err
	}
	attach(&b, trans)
	return b, nil
}

// CreateBinding inserts b with a priority above every existing binding and
// returns its id. b.ID, b.Priority and b.Enabled are ignored; new bindings
// start enabled.
func (s *Store) CreateBinding(ctx context.Context, b hotkey.Binding) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := insertBinding(ctx, tx, b, -1)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit keybinding: %w", err)
	}
	return id, nil
}

// insertBinding writes b and its transitions. A negative priority means
// max(priority)+1.
func insertBinding(ctx context.Context, tx *sql.Tx, b hotkey.Binding, priority int) (int64, error) {
	if priority < 0 {
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(priority), 0) + 1 FROM keybindings").Scan(&priority); err != nil {
			return 0, fmt.Errorf("failed to compute priority: %w", err)
		}
	}

	keys, err := json.Marshal(b.Keys)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO keybindings (keys, type, image, description, priority)
		VALUES (?, ?, ?, ?, ?)`,
		string(keys), b.Kind.String(), b.Image, b.Description, priority)
	if err != nil {
		return 0, fmt.Errorf("failed to insert keybinding: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := putTransition(ctx, tx, id, directionIn, b.TransitionIn); err != nil {
		return 0, err
	}
	if err := putTransition(ctx, tx, id, directionOut, b.TransitionOut); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateBinding applies a partial update
func (s *Store) UpdateBinding(ctx context.Context, id int64, p BindingPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM keybindings WHERE id = ?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	if p.Keys != nil {
		keys, err := json.Marshal(*p.Keys)
		if err != nil {
			return err
		}
		sets = append(sets, "keys = ?")
		args = append(args, string(keys))
	}
	if p.Kind != nil {
		sets = append(sets, "type = ?")
		args = append(args, p.Kind.String())
	}
	if p.Image != nil {
		sets = append(sets, "image = ?")
		args = append(args, *p.Image)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Enabled != nil {
		sets = append(sets, "enabled = ?")
		args = append(args, *p.Enabled)
	}
	if p.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *p.Priority)
	}
	args = append(args, id)

	q := "UPDATE keybindings SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("failed to update keybinding %d: %w", id, err)
	}

	if p.TransitionIn.Set {
		if err := putTransition(ctx, tx, id, directionIn, p.TransitionIn.Value); err != nil {
			return err
		}
	}
	if p.TransitionOut.Set {
		if err := putTransition(ctx, tx, id, directionOut, p.TransitionOut.Value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteBinding removes a binding and its transitions
func (s *Store) DeleteBinding(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM keybindings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete keybinding %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder assigns priorities so that order[0] ranks highest. Ids not in
// order keep their priority; unknown ids are ignored.
func (s *Store) Reorder(ctx context.Context, order []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, id := range order {
		if _, err := tx.ExecContext(ctx,
			"UPDATE keybindings SET priority = ? WHERE id = ?", len(order)-i, id); err != nil {
			return fmt.Errorf("failed to reorder keybinding %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// putTransition replaces the transition for one direction; nil deletes it.
// A zero duration is stored as NULL so it can be derived from the image.
func putTransition(ctx context.Context, tx *sql.Tx, id int64, direction string, t *hotkey.Transition) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transitions WHERE keybinding_id = ? AND direction = ?", id, direction); err != nil {
		return fmt.Errorf("failed to clear transition: %w", err)
	}
	if t == nil {
		return nil
	}

	var duration sql.NullInt64
	if t.Duration > 0 {
		duration = sql.NullInt64{Int64: int64(t.Duration), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO transitions (keybinding_id, direction, image, duration) VALUES (?, ?, ?, ?)",
		id, direction, t.Image, duration); err != nil {
		return fmt.Errorf("failed to store transition: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBinding(r rowScanner) (hotkey.Binding, error) {
	var (
		b           hotkey.Binding
		keys, kind  string
		description sql.NullString
	)
	if err := r.Scan(&b.ID, &keys, &kind, &b.Image, &description, &b.Priority, &b.Enabled); err != nil {
		return b, err
	}
	if err := json.Unmarshal([]byte(keys), &b.Keys); err != nil {
		return b, fmt.Errorf("keybinding %d: bad keys column: %w", b.ID, err)
	}
	k, err := hotkey.ParseKind(kind)
	if err != nil {
		return b, fmt.Errorf("keybinding %d: %w", b.ID, err)
	}
	b.Kind = k
	b.Description = description.String
	return b, nil
}

type transitionPair struct {
	in, out *hotkey.Transition
}

func (s *Store) transitions(ctx context.Context) (map[int64]transitionPair, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT keybinding_id, direction, image, duration FROM transitions")
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]transitionPair)
	for rows.Next() {
		var (
			id        int64
			direction string
			t         hotkey.Transition
			duration  sql.NullInt64
		)
		if err := rows.Scan(&id, &direction, &t.Image, &duration); err != nil {
			return nil, err
		}
		t.Duration = int(duration.Int64)

		pair := out[id]
		switch direction {
		case directionIn:
			pair.in = &t
		case directionOut:
			pair.out = &t
		}
		out[id] = pair
	}
	return out, rows.Err()
}

func attach(b *hotkey.Binding, trans map[int64]transitionPair) {
	if pair, ok := trans[b.ID]; ok {
		b.TransitionIn = pair.in
		b.TransitionOut = pair.out
	}
}

func (s *Store) queryBindings(ctx context.Context, enabledOnly bool) ([]hotkey.Binding, error) {
	q := "SELECT id, keys, type, image, description, priority, enabled FROM keybindings"
	if enabledOnly {
		q += " WHERE enabled = 1"
	}
	q += " ORDER BY priority DESC, id"

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query keybindings: %w", err)
	}
	var bindings []hotkey.Binding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		bindings = append(bindings, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Transitions are read after the cursor is closed: the pool has a
	// single connection.
	trans, err := s.transitions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bindings {
		attach(&bindings[i], trans)
	}
	if bindings == nil {
		bindings = []hotkey.Binding{}
	}
	return bindings, nil
}
