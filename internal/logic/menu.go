package logic

import (
	"errors"
	"fmt"

	"github.com/sweeney/exposure-timer/internal/input"
)

// ErrUnknownMenuItem is returned by ParseMenuItem for an unrecognised name.
var ErrUnknownMenuItem = errors.New("unknown menu item")

// MenuItem is one entry of the settings menu.
type MenuItem uint8

const (
	MenuRecall MenuItem = iota
	MenuStore
	MenuBrightness
	MenuAlertType
	MenuAlertLength
)

// String returns the configuration name of the item.
func (i MenuItem) String() string {
	switch i {
	case MenuRecall:
		return "recall"
	case MenuStore:
		return "store"
	case MenuBrightness:
		return "brightness"
	case MenuAlertType:
		return "alert_type"
	case MenuAlertLength:
		return "alert_length"
	default:
		return "unknown"
	}
}

// Label returns the 4-character display text of the item.
func (i MenuItem) Label() string {
	switch i {
	case MenuRecall:
		return "LOAd"
	case MenuStore:
		return "SAVE"
	case MenuBrightness:
		return "brIt"
	case MenuAlertType:
		return "AL t"
	case MenuAlertLength:
		return "AL L"
	default:
		return "----"
	}
}

// ParseMenuItem maps a configuration name to a MenuItem.
func ParseMenuItem(s string) (MenuItem, error) {
	for i := MenuRecall; i <= MenuAlertLength; i++ {
		if i.String() == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMenuItem, s)
}

// DefaultMenuItems is the full menu.
func DefaultMenuItems() []MenuItem {
	return []MenuItem{MenuRecall, MenuStore, MenuBrightness, MenuAlertType, MenuAlertLength}
}

// BasicMenuItems is the menu of boards without a buzzer.
func BasicMenuItems() []MenuItem {
	return []MenuItem{MenuRecall, MenuStore, MenuBrightness}
}

// Menu walks the item list and runs the item editors as sub-states, so the
// control loop keeps ticking while a value is being edited.
type Menu struct {
	items          []MenuItem
	index          int
	editing        bool
	working        int
	slot           int // last slot used, offered first next time
	prevBrightness int
}

func newMenu(items []MenuItem) *Menu {
	return &Menu{
		items: append([]MenuItem(nil), items...),
		slot:  1,
	}
}

// Item returns the highlighted item.
func (mu *Menu) Item() MenuItem {
	if len(mu.items) == 0 {
		return 0
	}
	return mu.items[mu.index]
}

// Editing reports whether an item editor is open.
func (mu *Menu) Editing() bool {
	return mu.editing
}

// enter resets the menu to its first item. It reports false when the
// menu has no items.
func (mu *Menu) enter(m *Machine) bool {
	if len(mu.items) == 0 {
		return false
	}
	mu.index = 0
	mu.editing = false
	m.hw.Display.Clear()
	mu.showItem(m)
	return true
}

func (mu *Menu) handle(m *Machine, in Input) {
	if !mu.editing {
		switch {
		case in.Secondary == input.PressShort:
			m.exitMenu()
		case in.Primary == input.PressShort:
			mu.beginEdit(m)
		case in.Step != 0:
			mu.index = clamp(mu.index+in.Step, 0, len(mu.items)-1)
			mu.showItem(m)
		}
		return
	}

	switch {
	case in.Secondary == input.PressShort:
		mu.cancel(m)
	case in.Primary == input.PressShort:
		mu.commit(m)
	case in.Step != 0:
		lo, hi := mu.bounds()
		mu.working = clamp(mu.working+in.Step, lo, hi)
		if mu.Item() == MenuBrightness {
			m.hw.Display.SetIntensity(mu.working)
		}
		mu.showWorking(m)
	}
}

func (mu *Menu) bounds() (int, int) {
	switch mu.Item() {
	case MenuRecall, MenuStore:
		return 1, SlotCount
	case MenuBrightness:
		return 0, MaxBrightness
	case MenuAlertType:
		return 0, MaxAlertType
	case MenuAlertLength:
		return 0, MaxAlertLength
	default:
		return 0, 0
	}
}

func (mu *Menu) beginEdit(m *Machine) {
	switch mu.Item() {
	case MenuRecall, MenuStore:
		mu.working = mu.slot
	case MenuBrightness:
		mu.working = m.brightness
		mu.prevBrightness = m.brightness
	case MenuAlertType:
		mu.working = m.alert.Type
	case MenuAlertLength:
		mu.working = m.alert.Length
	}
	mu.editing = true
	mu.showWorking(m)
}

func (mu *Menu) cancel(m *Machine) {
	if mu.Item() == MenuBrightness {
		m.hw.Display.SetIntensity(mu.prevBrightness)
	}
	mu.editing = false
	mu.showItem(m)
}

func (mu *Menu) commit(m *Machine) {
	item := mu.Item()
	mu.editing = false

	switch item {
	case MenuRecall:
		mu.slot = mu.working
		d, err := m.settings.Slot(mu.slot)
		if err != nil {
			m.fail(err)
			mu.showItem(m)
			return
		}
		m.acc.Set(d)
		m.emit(EventSlotRecalled, mu.slot, "")
		m.exitMenu()
		return

	case MenuStore:
		mu.slot = mu.working
		if err := m.settings.StoreSlot(mu.slot, m.acc.Duration()); err != nil {
			m.fail(err)
		} else {
			m.emit(EventSlotStored, mu.slot, "")
		}

	case MenuBrightness:
		m.brightness = mu.working
		m.hw.Display.SetIntensity(m.brightness)
		mu.persist(m, item, m.settings.SetBrightness(m.brightness))

	case MenuAlertType:
		m.alert.SetType(mu.working)
		mu.persist(m, item, m.settings.SetAlertType(m.alert.Type))

	case MenuAlertLength:
		m.alert.SetLength(mu.working)
		mu.persist(m, item, m.settings.SetAlertLength(m.alert.Length))
	}

	mu.showItem(m)
}

func (mu *Menu) persist(m *Machine, item MenuItem, err error) {
	if err != nil {
		m.fail(err)
		return
	}
	m.emit(EventSettingChanged, 0, item.String())
}

func (mu *Menu) showItem(m *Machine) {
	m.hw.Display.SetDots(false)
	m.hw.Display.SetText(mu.Item().Label())
}

func (mu *Menu) showWorking(m *Machine) {
	var text string
	switch mu.Item() {
	case MenuRecall, MenuStore:
		text = fmt.Sprintf("P %02d", mu.working)
	case MenuBrightness:
		text = fmt.Sprintf("b %2d", mu.working)
	case MenuAlertType:
		text = fmt.Sprintf("t %2d", mu.working)
	case MenuAlertLength:
		text = fmt.Sprintf("L %2d", mu.working)
	}
	m.hw.Display.SetText(text)
}
