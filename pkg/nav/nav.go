// Package nav tracks which screen of the dashboard is active and which
// platform and sensor are selected.
package nav

import (
	"errors"
	"fmt"
)

type State int

const (
	Auth State = iota
	Main
	PlatformDetail
)

func (s State) String() string {
	switch s {
	case Auth:
		return "auth"
	case Main:
		return "main"
	case PlatformDetail:
		return "platform_detail"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var ErrInvalidTransition = errors.New("invalid navigation transition")

func invalid(action string, from State) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
}

// Machine is not safe for concurrent use; its owner serializes access. The
// zero value starts on the auth screen.
type Machine struct {
	state            State
	platformListOpen bool
	dashboardOpen    bool

	selectedPlatform     string
	selectedSensor       string
	sensorsModalPlatform string
}

func (m *Machine) State() State                 { return m.state }
func (m *Machine) PlatformListOpen() bool       { return m.platformListOpen }
func (m *Machine) DashboardOpen() bool          { return m.dashboardOpen }
func (m *Machine) SelectedPlatform() string     { return m.selectedPlatform }
func (m *Machine) SelectedSensor() string       { return m.selectedSensor }
func (m *Machine) SensorsModalPlatform() string { return m.sensorsModalPlatform }

// Login moves from the auth screen to the main screen.
func (m *Machine) Login() error {
	if m.state != Auth {
		return invalid("login", m.state)
	}
	m.state = Main
	return nil
}

// Logout returns to the auth screen from anywhere and forgets all selections
// and toggles.
func (m *Machine) Logout() {
	*m = Machine{state: Auth}
}

func (m *Machine) TogglePlatformList() (bool, error) {
	if m.state != Main {
		return m.platformListOpen, invalid("toggle platform list", m.state)
	}
	m.platformListOpen = !m.platformListOpen
	return m.platformListOpen, nil
}

func (m *Machine) ToggleDashboard() (bool, error) {
	if m.state != Main {
		return m.dashboardOpen, invalid("toggle dashboard", m.state)
	}
	m.dashboardOpen = !m.dashboardOpen
	if !m.dashboardOpen {
		m.sensorsModalPlatform = ""
	}
	return m.dashboardOpen, nil
}

// SelectPlatform picks a platform from the open list. An empty id clears the
// selection.
func (m *Machine) SelectPlatform(platformID string) error {
	if m.state != Main || !m.platformListOpen {
		return invalid("select platform", m.state)
	}
	m.selectedPlatform = platformID
	return nil
}

// EnterDetail opens the detail screen of the selected platform.
func (m *Machine) EnterDetail(platformID string) error {
	if m.state != Main || platformID == "" || m.selectedPlatform != platformID {
		return invalid("view details", m.state)
	}
	m.state = PlatformDetail
	m.selectedSensor = ""
	return nil
}

// Back leaves the detail screen and clears the platform and sensor selection.
func (m *Machine) Back() error {
	if m.state != PlatformDetail {
		return invalid("back", m.state)
	}
	m.state = Main
	m.selectedPlatform = ""
	m.selectedSensor = ""
	return nil
}

// SelectSensor picks a sensor on the detail screen. An empty id clears it.
func (m *Machine) SelectSensor(sensorID string) error {
	if m.state != PlatformDetail {
		return invalid("select sensor", m.state)
	}
	m.selectedSensor = sensorID
	return nil
}

func (m *Machine) OpenSensorsModal(platformID string) error {
	if m.state == Auth || !m.dashboardOpen || platformID == "" {
		return invalid("open sensors", m.state)
	}
	m.sensorsModalPlatform = platformID
	return nil
}

func (m *Machine) CloseSensorsModal() {
	m.sensorsModalPlatform = ""
}
