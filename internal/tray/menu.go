package tray

import "log/slog"

// Callbacks are the actions behind the keybrame menu. Nil entries are
// left out of the menu.
type Callbacks struct {
	OnOpen      func()
	OnReload    func()
	OnImport    func()
	OnAutostart func(enabled bool) error
	OnQuit      func()
}

// Menu is the built keybrame menu.
type Menu struct {
	*Tray
	status    int
	autostart int
}

// NewMenu builds the menu on a new tray. autostart is the initial state of
// the "Start at login" item.
func NewMenu(url string, autostart bool, cb Callbacks) *Menu {
	m := &Menu{Tray: New("keybrame", "keybrame - "+url), autostart: -1}
	m.status = m.AddLabel("Starting...")
	m.AddSeparator()

	if cb.OnOpen != nil {
		m.AddMenuItem("Open overlay", cb.OnOpen)
	}
	if cb.OnReload != nil {
		m.AddMenuItem("Reload bindings", cb.OnReload)
	}
	if cb.OnImport != nil {
		m.AddMenuItem("Import image...", cb.OnImport)
	}
	if cb.OnAutostart != nil {
		m.autostart = m.AddCheckbox("Start at login", autostart, func(enabled bool) {
			if err := cb.OnAutostart(enabled); err != nil {
				slog.Warn("[tray] failed to change autostart", "enabled", enabled, "error", err)
				m.SetItemChecked(m.autostart, !enabled)
			}
		})
	}

	m.AddSeparator()
	m.AddMenuItem("Quit", func() {
		if cb.OnQuit != nil {
			cb.OnQuit()
		}
		m.Stop()
	})
	return m
}

// SetStatus shows text in the status line of the menu
func (m *Menu) SetStatus(text string) {
	m.SetItemTitle(m.status, text)
}
