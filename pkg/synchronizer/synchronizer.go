// Package synchronizer owns the dashboard's session, view cache and navigation
// state, and decides which telemetry API calls to issue as the user moves
// between the login, list, detail and dashboard screens.
//
// Fetches run on their own goroutines. Their results are applied under the
// synchronizer's lock, and only if the cache epoch that dispatched them is
// still current: every cache reset (logout, back from detail) starts a new
// epoch and cancels whatever the previous one still had in flight.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"liyu1981.xyz/platform-dashboard/pkg/cache"
	"liyu1981.xyz/platform-dashboard/pkg/common"
	"liyu1981.xyz/platform-dashboard/pkg/gateway"
	"liyu1981.xyz/platform-dashboard/pkg/models"
	"liyu1981.xyz/platform-dashboard/pkg/nav"
	"liyu1981.xyz/platform-dashboard/pkg/observability"
	"liyu1981.xyz/platform-dashboard/pkg/session"
)

const DefaultMaxConcurrentDetails = 8

var (
	ErrNoPlatformSelected = errors.New("no platform selected")
	ErrUnknownPlatform    = errors.New("unknown platform")
	ErrUnknownSensor      = errors.New("unknown sensor")
)

type Opts struct {
	Gateway gateway.IGateway
	Metrics *observability.Collector
	// MaxConcurrentDetails caps platform detail fetches in flight at once.
	MaxConcurrentDetails int
	// Context bounds every fetch; cancelling it behaves like Close.
	Context context.Context
}

type Synchronizer struct {
	gateway  gateway.IGateway
	metrics  *observability.Collector
	slots    chan struct{}
	baseCtx  context.Context
	stop     context.CancelFunc
	inflight sync.WaitGroup

	mu          sync.Mutex
	session     session.Session
	cache       *cache.ViewCache
	nav         nav.Machine
	epoch       uint64
	epochCtx    context.Context
	epochCancel context.CancelFunc
	version     uint64
	notices     []Notice

	pendingPlatforms bool
	pendingDetails   map[string]struct{}
	pendingRecords   map[string]struct{}
	awaitingDetail   string
}

func New(opts Opts) *Synchronizer {
	if opts.MaxConcurrentDetails <= 0 {
		opts.MaxConcurrentDetails = DefaultMaxConcurrentDetails
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	s := &Synchronizer{
		gateway:        opts.Gateway,
		metrics:        opts.Metrics,
		slots:          make(chan struct{}, opts.MaxConcurrentDetails),
		cache:          cache.New(),
		pendingDetails: make(map[string]struct{}),
		pendingRecords: make(map[string]struct{}),
	}
	s.baseCtx, s.stop = context.WithCancel(opts.Context)
	s.epochCtx, s.epochCancel = context.WithCancel(s.baseCtx)
	return s
}

func logger(category string) *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameSynchronizer,
		zap.String(common.LoggerFieldCategory, category),
	)
}

func invalidFrom(action string, from nav.State) error {
	return fmt.Errorf("%w: %s from %s", nav.ErrInvalidTransition, action, from)
}

// Login authenticates and, on success, moves to the main screen and starts
// loading the platform list. It returns a *session.ValidationError for empty
// credentials (no network call is made) and a *session.AuthError when the API
// rejects them; either way the user stays on the auth screen.
func (s *Synchronizer) Login(ctx context.Context, email, password string) error {
	s.mu.Lock()
	if state := s.nav.State(); state != nav.Auth {
		s.mu.Unlock()
		return invalidFrom("login", state)
	}
	s.mu.Unlock()

	token, err := session.Authenticate(ctx, s.gateway, email, password)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		// a concurrent login may have succeeded meanwhile; it wins
		if !s.session.Authenticated() {
			var verr *session.ValidationError
			if errors.As(err, &verr) {
				s.session.Fail(verr.UserMessage())
			} else {
				s.session.Fail(session.MessageInvalidCredentials)
			}
			s.touchLocked()
		}
		return err
	}

	s.session.Acquire(token)
	if s.nav.State() != nav.Auth {
		// a concurrent login already moved on; only the token changes
		s.touchLocked()
		return nil
	}
	_ = s.nav.Login()
	s.resetLocked()
	s.fetchPlatformsLocked()
	return nil
}

// Logout clears the session, the view cache and every selection, and returns
// to the auth screen. Fetches still in flight are cancelled and their results
// dropped.
func (s *Synchronizer) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Clear()
	s.nav.Logout()
	s.notices = nil
	s.resetLocked()

	logger(common.LoggerCategorySession).Info("Logged out", zap.Uint64("epoch", s.epoch))
}

func (s *Synchronizer) TogglePlatformList() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.nav.TogglePlatformList()
	if err != nil {
		return open, err
	}
	s.touchLocked()
	return open, nil
}

// ToggleDashboard opens or closes the dashboard. Opening it fetches the detail
// of every listed platform whose sensors are not cached yet.
func (s *Synchronizer) ToggleDashboard() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.nav.ToggleDashboard()
	if err != nil {
		return open, err
	}
	if open {
		s.fanOutDetailsLocked()
	}
	s.touchLocked()
	return open, nil
}

// SelectPlatform picks a listed platform. An empty id clears the selection.
func (s *Synchronizer) SelectPlatform(platformID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if platformID != "" && s.nav.State() == nav.Main {
		if _, ok := s.cache.Platform(platformID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlatform, platformID)
		}
	}
	if err := s.nav.SelectPlatform(platformID); err != nil {
		return err
	}
	if s.awaitingDetail != platformID {
		s.awaitingDetail = ""
	}
	s.touchLocked()
	return nil
}

// ViewDetails opens the detail screen of the selected platform. Cached detail
// opens it right away; otherwise the detail is fetched and the screen changes
// when it arrives, provided the platform is still selected. A failed fetch
// leaves the user on the main screen with a notice.
func (s *Synchronizer) ViewDetails() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state := s.nav.State(); state != nav.Main {
		return invalidFrom("view details", state)
	}
	platformID := s.nav.SelectedPlatform()
	if platformID == "" {
		return ErrNoPlatformSelected
	}

	if s.cache.HasDetail(platformID) {
		if err := s.nav.EnterDetail(platformID); err != nil {
			return err
		}
		s.touchLocked()
		return nil
	}

	s.awaitingDetail = platformID
	s.fetchDetailLocked(platformID)
	s.touchLocked()
	return nil
}

// SelectSensor picks a sensor of the platform on the detail screen and loads
// its records unless they are cached. An empty id clears the selection.
func (s *Synchronizer) SelectSensor(sensorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state := s.nav.State(); state != nav.PlatformDetail {
		return invalidFrom("select sensor", state)
	}
	if sensorID != "" {
		platform, _ := s.cache.Platform(s.nav.SelectedPlatform())
		if _, ok := platform.SensorByID(sensorID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSensor, sensorID)
		}
	}
	if err := s.nav.SelectSensor(sensorID); err != nil {
		return err
	}
	if sensorID != "" {
		s.fetchRecordsLocked(sensorID)
	}
	s.touchLocked()
	return nil
}

// Back leaves the detail screen, clears the selections and resets the whole
// view cache.
func (s *Synchronizer) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.nav.Back(); err != nil {
		return err
	}
	s.resetLocked()

	logger(common.LoggerCategoryNavigation).Info("Back to main screen", zap.Uint64("epoch", s.epoch))
	return nil
}

// RefreshPlatforms reloads the platform list, e.g. after a failed load or a
// back-navigation emptied the cache.
func (s *Synchronizer) RefreshPlatforms() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Authenticated() {
		return invalidFrom("refresh platforms", s.nav.State())
	}
	s.fetchPlatformsLocked()
	s.touchLocked()
	return nil
}

// OpenSensorsModal shows the sensors of one platform card on the dashboard,
// fetching its detail if an earlier attempt failed.
func (s *Synchronizer) OpenSensorsModal(platformID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state := s.nav.State(); state == nav.Auth || !s.nav.DashboardOpen() {
		return invalidFrom("open sensors", state)
	}
	if _, ok := s.cache.Platform(platformID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlatform, platformID)
	}
	if err := s.nav.OpenSensorsModal(platformID); err != nil {
		return err
	}
	if !s.cache.HasDetail(platformID) {
		s.fetchDetailLocked(platformID)
	}
	s.touchLocked()
	return nil
}

func (s *Synchronizer) CloseSensorsModal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nav.CloseSensorsModal()
	s.touchLocked()
}

func (s *Synchronizer) DismissNotices() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notices = nil
	s.touchLocked()
}

// Totals recomputes the dashboard totals from the current cache contents.
func (s *Synchronizer) Totals() cache.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Totals()
}

// Wait blocks until every dispatched fetch has settled, including fetches
// dispatched by the ones it waits for.
func (s *Synchronizer) Wait() {
	s.inflight.Wait()
}

// Close cancels everything in flight and waits for it to settle.
func (s *Synchronizer) Close() {
	s.stop()
	s.inflight.Wait()
}

func (s *Synchronizer) resetLocked() {
	s.epochCancel()
	s.epoch++
	s.epochCtx, s.epochCancel = context.WithCancel(s.baseCtx)

	s.cache.Reset()
	s.pendingPlatforms = false
	s.pendingDetails = make(map[string]struct{})
	s.pendingRecords = make(map[string]struct{})
	s.awaitingDetail = ""
	s.touchLocked()
}

func (s *Synchronizer) touchLocked() {
	s.version++
	s.metrics.SetCacheSizes(s.cache.Len(), s.cache.DetailLen(), s.cache.RecordSeriesLen())
}

func (s *Synchronizer) fanOutDetailsLocked() {
	missing := s.cache.MissingDetail()
	for _, platformID := range missing {
		s.fetchDetailLocked(platformID)
	}
	if len(missing) > 0 {
		logger(common.LoggerCategoryDetail).Info("Fetching missing platform details",
			zap.Int("count", len(missing)), zap.Uint64("epoch", s.epoch))
	}
}

func (s *Synchronizer) fetchPlatformsLocked() {
	if s.pendingPlatforms {
		return
	}
	s.pendingPlatforms = true

	var list []models.Platform
	s.dispatchLocked(gateway.OpListPlatforms, "", false,
		func(ctx context.Context, token string) (err error) {
			list, err = s.gateway.ListPlatforms(ctx, token)
			return err
		},
		func(err error) {
			s.pendingPlatforms = false
			if err != nil {
				s.noticeLocked(gateway.OpListPlatforms, "", err)
				return
			}
			var keep []string
			if s.nav.State() == nav.PlatformDetail {
				keep = append(keep, s.nav.SelectedPlatform())
			}
			s.cache.ReplacePlatforms(list, keep...)
			logger(common.LoggerCategoryPlatforms).Info("Platforms loaded", zap.Int("count", len(list)))

			if s.nav.DashboardOpen() {
				s.fanOutDetailsLocked()
			}
		})
}

func (s *Synchronizer) fetchDetailLocked(platformID string) {
	if _, pending := s.pendingDetails[platformID]; pending {
		return
	}
	s.pendingDetails[platformID] = struct{}{}

	var detail models.Platform
	s.dispatchLocked(gateway.OpGetPlatformDetail, platformID, true,
		func(ctx context.Context, token string) (err error) {
			detail, err = s.gateway.GetPlatformDetail(ctx, token, platformID)
			return err
		},
		func(err error) {
			delete(s.pendingDetails, platformID)
			awaited := s.awaitingDetail == platformID
			if awaited {
				s.awaitingDetail = ""
			}
			if err != nil {
				s.noticeLocked(gateway.OpGetPlatformDetail, platformID, err)
				return
			}

			if _, listed := s.cache.Platform(platformID); !listed && !awaited {
				return
			}
			detail.ID = platformID
			s.cache.PutDetail(detail)

			if awaited && s.nav.State() == nav.Main && s.nav.SelectedPlatform() == platformID {
				_ = s.nav.EnterDetail(platformID)
				logger(common.LoggerCategoryNavigation).Info("Entered platform detail", zap.String("platform_id", platformID))
			}
		})
}

func (s *Synchronizer) fetchRecordsLocked(sensorID string) {
	if s.cache.HasRecords(sensorID) {
		return
	}
	if _, pending := s.pendingRecords[sensorID]; pending {
		return
	}
	s.pendingRecords[sensorID] = struct{}{}

	var records []models.Record
	s.dispatchLocked(gateway.OpGetSensorRecords, sensorID, false,
		func(ctx context.Context, token string) (err error) {
			records, err = s.gateway.GetSensorRecords(ctx, token, sensorID)
			return err
		},
		func(err error) {
			delete(s.pendingRecords, sensorID)
			if err != nil {
				s.noticeLocked(gateway.OpGetSensorRecords, sensorID, err)
				return
			}
			s.cache.PutRecords(sensorID, records)
		})
}

// dispatchLocked runs call on its own goroutine with the current token, then
// hands the outcome to apply under the lock. Outcomes from an older epoch, or
// arriving after Close, are dropped. Detail fetches wait for a free slot first.
func (s *Synchronizer) dispatchLocked(
	op gateway.Operation,
	subject string,
	slotted bool,
	call func(ctx context.Context, token string) error,
	apply func(err error),
) {
	epoch, ctx, token := s.epoch, s.epochCtx, s.session.Token()

	s.inflight.Add(1)
	s.metrics.FetchStarted()

	go func() {
		defer s.inflight.Done()
		defer s.metrics.FetchSettled()

		err := s.acquire(ctx, slotted)
		if err == nil {
			err = call(ctx, token)
			s.release(slotted)
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if epoch != s.epoch || s.baseCtx.Err() != nil {
			s.metrics.Discarded(string(op))
			logger(string(op)).Debug("Dropped stale response",
				zap.String("subject", subject),
				zap.Uint64("dispatched_epoch", epoch),
				zap.Uint64("current_epoch", s.epoch),
			)
			return
		}

		apply(err)
		s.touchLocked()
	}()
}

func (s *Synchronizer) acquire(ctx context.Context, slotted bool) error {
	if !slotted {
		return ctx.Err()
	}
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Synchronizer) release(slotted bool) {
	if slotted {
		<-s.slots
	}
}
