// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// MenuItem is one entry of the tray menu. A nil entry is a separator.
type MenuItem struct {
	ID        int
	Title     string
	Checkable bool
	Checked   bool
	Disabled  bool
	Callback  func()
	item      *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	mu      sync.Mutex
	title   string
	tooltip string
	items   []*MenuItem
	quitCh  chan struct{}
	running bool
}

// New creates a tray with the given title and tooltip
func New(title, tooltip string) *Tray {
	return &Tray{
		title:   title,
		tooltip: tooltip,
		quitCh:  make(chan struct{}),
	}
}

// AddMenuItem adds a clickable menu item and returns its id
func (t *Tray) AddMenuItem(title string, callback func()) int {
	return t.add(&MenuItem{Title: title, Callback: callback})
}

// AddCheckbox adds a checkable item. callback receives the new state.
func (t *Tray) AddCheckbox(title string, checked bool, callback func(checked bool)) int {
	mi := &MenuItem{Title: title, Checkable: true, Checked: checked}
	mi.Callback = func() {
		t.mu.Lock()
		mi.Checked = !mi.Checked
		now := mi.Checked
		t.syncItem(mi)
		t.mu.Unlock()
		callback(now)
	}
	return t.add(mi)
}

// AddLabel adds a disabled item used to show status text
func (t *Tray) AddLabel(title string) int {
	return t.add(&MenuItem{Title: title, Disabled: true})
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, nil)
}

func (t *Tray) add(mi *MenuItem) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi.ID = len(t.items)
	t.items = append(t.items, mi)
	return mi.ID
}

// Item returns a copy of the item with id, or false for separators and
// unknown ids
func (t *Tray) Item(id int) (MenuItem, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mi := t.lookup(id)
	if mi == nil {
		return MenuItem{}, false
	}
	return *mi, true
}

// Click invokes the callback of item id as if it was selected in the menu
func (t *Tray) Click(id int) {
	t.mu.Lock()
	mi := t.lookup(id)
	t.mu.Unlock()
	if mi != nil && mi.Callback != nil && !mi.Disabled {
		mi.Callback()
	}
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if mi := t.lookup(id); mi != nil {
		mi.Checked = checked
		t.syncItem(mi)
	}
}

// SetItemTitle changes the text of a menu item
func (t *Tray) SetItemTitle(id int, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if mi := t.lookup(id); mi != nil {
		mi.Title = title
		t.syncItem(mi)
	}
}

// SetTooltip changes the icon tooltip
func (t *Tray) SetTooltip(tooltip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tooltip = tooltip
	if t.running {
		systray.SetTooltip(tooltip)
	}
}

func (t *Tray) lookup(id int) *MenuItem {
	if id < 0 || id >= len(t.items) {
		return nil
	}
	return t.items[id]
}

// syncItem pushes item state to the native menu. Caller holds t.mu.
func (t *Tray) syncItem(mi *MenuItem) {
	if mi.item == nil {
		return
	}
	mi.item.SetTitle(mi.Title)
	if mi.Checkable {
		if mi.Checked {
			mi.item.Check()
		} else {
			mi.item.Uncheck()
		}
	}
}

// Run starts the tray event loop and blocks until Stop. onReady runs once
// the menu exists.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.setupMenu()
		if onReady != nil {
			onReady()
		}
	}, func() {
		close(t.quitCh)
	})
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	t.mu.Lock()
	defer t.mu.Unlock()

	systray.SetIcon(icon())
	systray.SetTitle(t.title)
	systray.SetTooltip(t.tooltip)
	t.running = true

	for _, mi := range t.items {
		if mi == nil {
			systray.AddSeparator()
			continue
		}
		if mi.Checkable {
			mi.item = systray.AddMenuItemCheckbox(mi.Title, "", mi.Checked)
		} else {
			mi.item = systray.AddMenuItem(mi.Title, "")
		}
		if mi.Disabled {
			mi.item.Disable()
		}
		if mi.Callback != nil {
			go t.listen(mi)
		}
	}
}

func (t *Tray) listen(mi *MenuItem) {
	for {
		select {
		case <-mi.item.ClickedCh:
			mi.Callback()
		case <-t.quitCh:
			return
		}
	}
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}
