package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"keybrame/internal/hotkey"
	"keybrame/internal/input"
)

const (
	keyPort          = "port"
	keyShutdownCombo = "shutdown_combo"
	keyDefaultImage  = "default_image"

	typeString  = "string"
	typeInteger = "integer"
	typeArray   = "array"
)

// Settings holds the global options stored next to the bindings.
type Settings struct {
	Port          int         `json:"port"`
	ShutdownCombo []input.Key `json:"shutdown_combo"`
	DefaultImage  string      `json:"default_image"`
}

// SettingsPatch is a partial settings update
type SettingsPatch struct {
	Port          *int         `json:"port"`
	ShutdownCombo *[]input.Key `json:"shutdown_combo"`
	DefaultImage  *string      `json:"default_image"`
}

// Settings reads the global settings, falling back to defaults for missing
// or malformed rows.
func (s *Store) Settings(ctx context.Context) (Settings, error) {
	out := Settings{
		Port:          DefaultPort,
		ShutdownCombo: append([]input.Key(nil), DefaultShutdownCombo...),
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, value, type FROM settings")
	if err != nil {
		return out, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value, typ string
		if err := rows.Scan(&key, &value, &typ); err != nil {
			return out, err
		}
		switch key {
		case keyPort:
			if p, err := strconv.Atoi(value); err == nil {
				out.Port = p
			} else {
				slog.Warn("[store] ignoring malformed port setting", "value", value)
			}
		case keyShutdownCombo:
			var combo []input.Key
			if err := json.Unmarshal([]byte(value), &combo); err == nil {
				out.ShutdownCombo = combo
			} else {
				slog.Warn("[store] ignoring malformed shutdown_combo setting", "value", value)
			}
		case keyDefaultImage:
			out.DefaultImage = value
		}
	}
	return out, rows.Err()
}

// UpdateSettings applies p and reports whether the port changed, which only
// takes effect after a restart.
func (s *Store) UpdateSettings(ctx context.Context, p SettingsPatch) (portChanged bool, err error) {
	current, err := s.Settings(ctx)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	put := func(key, value, typ string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, type) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, type = excluded.type`,
			key, value, typ)
		if err != nil {
			return fmt.Errorf("failed to store setting %s: %w", key, err)
		}
		return nil
	}

	if p.Port != nil {
		portChanged = *p.Port != current.Port
		if err := put(keyPort, strconv.Itoa(*p.Port), typeInteger); err != nil {
			return false, err
		}
	}
	if p.ShutdownCombo != nil {
		combo, err := json.Marshal(*p.ShutdownCombo)
		if err != nil {
			return false, err
		}
		if err := put(keyShutdownCombo, string(combo), typeArray); err != nil {
			return false, err
		}
	}
	if p.DefaultImage != nil {
		if err := put(keyDefaultImage, *p.DefaultImage, typeString); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return portChanged, nil
}

// Document is the portable form of the whole configuration, used for
// export and import.
type Document struct {
	Settings
	Keybindings []hotkey.Binding `json:"keybindings"`
}

// Export returns the settings and the enabled bindings in priority order
func (s *Store) Export(ctx context.Context) (Document, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return Document{}, err
	}
	bindings, err := s.EnabledBindings(ctx)
	if err != nil {
		return Document{}, err
	}
	return Document{Settings: settings, Keybindings: bindings}, nil
}

// Import replaces every binding and setting with doc in one transaction.
// Bindings get priorities in document order, first highest.
func (s *Store) Import(ctx context.Context, doc Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{"DELETE FROM transitions", "DELETE FROM keybindings"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to clear keybindings: %w", err)
		}
	}

	combo := doc.ShutdownCombo
	if combo == nil {
		combo = DefaultShutdownCombo
	}
	comboJSON, _ := json.Marshal(combo)
	port := doc.Port
	if port == 0 {
		port = DefaultPort
	}
	for _, kv := range []struct{ key, value, typ string }{
		{keyPort, strconv.Itoa(port), typeInteger},
		{keyShutdownCombo, string(comboJSON), typeArray},
		{keyDefaultImage, doc.DefaultImage, typeString},
	} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, type) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, type = excluded.type`,
			kv.key, kv.value, kv.typ); err != nil {
			return fmt.Errorf("failed to import setting %s: %w", kv.key, err)
		}
	}

	n := len(doc.Keybindings)
	for i, b := range doc.Keybindings {
		if _, err := insertBinding(ctx, tx, b, n-i); err != nil {
			return fmt.Errorf("keybinding #%d: %w", i+1, err)
		}
	}
	return tx.Commit()
}
