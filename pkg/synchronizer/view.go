package synchronizer

import (
	"slices"

	"liyu1981.xyz/platform-dashboard/pkg/cache"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/models"
	"liyu1981.xyz/platform-dashboard/pkg/nav"
)

// PlatformCard is a listed platform as the dashboard shows it. SensorCount is
// nil until the platform's detail has been fetched.
type PlatformCard struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Fleet       string `json:"fleet"`
	Img         string `json:"img"`
	SensorCount *int   `json:"sensor_count"`
}

// View is a snapshot of everything the presentation layer renders. It shares
// no memory with the synchronizer.
type View struct {
	Version uint64    `json:"version"`
	Epoch   uint64    `json:"epoch"`
	Screen  nav.State `json:"screen"`

	Authenticated bool   `json:"authenticated"`
	LoginError    string `json:"login_error,omitempty"`

	PlatformListOpen bool `json:"platform_list_open"`
	DashboardOpen    bool `json:"dashboard_open"`

	SelectedPlatformID string `json:"selected_platform_id,omitempty"`
	SelectedSensorID   string `json:"selected_sensor_id,omitempty"`

	Platforms []PlatformCard `json:"platforms"`
	// Detail is set on the platform detail screen.
	Detail *models.Platform `json:"detail,omitempty"`
	// Records holds the series of the selected sensor once it has loaded.
	Records       []models.Record `json:"records,omitempty"`
	RecordsLoaded bool            `json:"records_loaded"`
	// SensorsModal is the dashboard card whose sensors are shown.
	SensorsModal *models.Platform `json:"sensors_modal,omitempty"`

	Totals  cache.Totals `json:"totals"`
	Pending int          `json:"pending"`
	Notices []Notice     `json:"notices"`
}

func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Version:            s.version,
		Epoch:              s.epoch,
		Screen:             s.nav.State(),
		Authenticated:      s.session.Authenticated(),
		LoginError:         s.session.LoginError(),
		PlatformListOpen:   s.nav.PlatformListOpen(),
		DashboardOpen:      s.nav.DashboardOpen(),
		SelectedPlatformID: s.nav.SelectedPlatform(),
		SelectedSensorID:   s.nav.SelectedSensor(),
		Totals:             s.cache.Totals(),
		Pending:            s.pendingLocked(),
		Notices:            slices.Clone(s.notices),
	}
	if v.Notices == nil {
		v.Notices = []Notice{}
	}

	v.Platforms = common.Mapper(s.cache.Platforms(), func(p models.Platform) PlatformCard {
		card := PlatformCard{ID: p.ID, Name: p.Name, Fleet: p.Fleet, Img: p.Img}
		if n, ok := s.cache.SensorCount(p.ID); ok {
			card.SensorCount = &n
		}
		return card
	})

	if v.Screen == nav.PlatformDetail {
		if p, ok := s.cache.Platform(v.SelectedPlatformID); ok {
			v.Detail = &p
		}
		if v.SelectedSensorID != "" {
			v.Records, v.RecordsLoaded = s.cache.Records(v.SelectedSensorID)
		}
	}

	if id := s.nav.SensorsModalPlatform(); id != "" && s.cache.HasDetail(id) {
		p, _ := s.cache.Platform(id)
		v.SensorsModal = &p
	}

	return v
}

func (s *Synchronizer) pendingLocked() int {
	n := len(s.pendingDetails) + len(s.pendingRecords)
	if s.pendingPlatforms {
		n++
	}
	return n
}
