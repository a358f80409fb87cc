package designer

import (
	"context"
	"errors"
	"io"
	"time"
	"unicode/utf8"

	"seatstudio/internal/canvas"
	"seatstudio/internal/layout"
	"seatstudio/internal/notifications"
	"seatstudio/internal/shared/constants"
	"seatstudio/internal/shared/session"
	"seatstudio/pkg/logger"
)

// LayoutStore is the part of the seating service the designer uses.
type LayoutStore interface {
	GetLayout(ctx context.Context, eventID string) (string, error)
	SaveLayout(ctx context.Context, eventID, layoutJSON string) error
}

// SaveLocker guards concurrent saves of the same event across instances.
type SaveLocker interface {
	AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, owner string) error
}

// CacheInvalidator drops cached read-only copies of a layout.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, eventID string) error
}

// Dependencies of the designer service. Drafts, Locker, Cache and Publisher
// are optional.
type Dependencies struct {
	Store     LayoutStore
	Drafts    DraftRepository
	Locker    SaveLocker
	Cache     CacheInvalidator
	Publisher notifications.Publisher
}

type Options struct {
	SessionTTL            time.Duration
	SaveLockTTL           time.Duration
	PreserveSeatOverrides bool
}

type Service interface {
	Mount(ctx context.Context, req MountRequest) (*SessionResponse, error)
	GetSession(ctx context.Context, id string) (*SessionResponse, error)
	RenderSVG(ctx context.Context, id string, w io.Writer) error
	Drag(ctx context.Context, id string, req DragRequest) (*GestureResponse, error)
	Click(ctx context.Context, id string, req ClickRequest) (*GestureResponse, error)
	UpdatePricing(ctx context.Context, id string, req PricingRequest) (*SessionResponse, error)
	PatchSeat(ctx context.Context, id, seatNumber string, req PatchSeatRequest) (*layout.Seat, error)
	Regenerate(ctx context.Context, id string, req RegenerateRequest) (*SessionResponse, error)
	Save(ctx context.Context, id string) (*SaveResponse, error)
	Unmount(ctx context.Context, id string) error
	GetDraft(ctx context.Context, eventID string) (*DraftResponse, error)

	// RunReaper expires idle sessions until ctx is done.
	RunReaper(ctx context.Context, interval time.Duration)
	Shutdown()
}

type service struct {
	store      LayoutStore
	drafts     DraftRepository
	locker     SaveLocker
	cache      CacheInvalidator
	publisher  notifications.Publisher
	loader     *layout.Loader
	reclassify layout.Reclassifier
	lockTTL    time.Duration
	sessions   *session.Registry[*Session]
}

func NewService(deps Dependencies, opts Options) Service {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	lockTTL := opts.SaveLockTTL
	if lockTTL <= 0 {
		lockTTL = constants.TTL_LAYOUT_SAVE
	}

	reclassify := layout.ByGenerationIndex
	if opts.PreserveSeatOverrides {
		reclassify = layout.PreservingToggles
	}

	loader := layout.NewLoader(deps.Store)
	loader.SetReclassifier(reclassify)

	return &service{
		store:      deps.Store,
		drafts:     deps.Drafts,
		locker:     deps.Locker,
		cache:      deps.Cache,
		publisher:  publisher,
		loader:     loader,
		reclassify: reclassify,
		lockTTL:    lockTTL,
		sessions:   session.NewRegistry[*Session]("designer", opts.SessionTTL),
	}
}

func (s *service) Mount(ctx context.Context, req MountRequest) (*SessionResponse, error) {
	pricing := req.Pricing()
	shape := canvas.Shape(req.Shape)
	if shape == "" {
		shape = canvas.ShapeCircle
	}

	var res layout.LoadResult
	if req.ResumeDraft {
		draft, err := s.resumeDraft(ctx, req.EventID)
		if err != nil {
			return nil, err
		}
		res = *draft
	} else {
		res = s.loader.LoadLayout(ctx, req.EventID, pricing)
	}

	sess, err := newSession(req.EventID, pricing, res, canvas.Size{Width: req.Width, Height: req.Height}, shape)
	if err != nil {
		return nil, err
	}

	id := s.sessions.Add(sess)
	logger.GetDefault().WithSession(id).Info("Designer session mounted",
		"event_id", req.EventID,
		"origin", string(res.Origin),
		"seats", res.Layout.Len(),
	)
	return toSessionResponse(id, sess.Snapshot()), nil
}

func (s *service) resumeDraft(ctx context.Context, eventID string) (*layout.LoadResult, error) {
	if s.drafts == nil {
		return nil, ErrDraftsDisabled
	}
	draft, err := s.drafts.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	l, err := layout.Deserialize(eventID, draft.LayoutJSON)
	if err != nil {
		return nil, err
	}
	l.Reclassify = s.reclassify
	return &layout.LoadResult{Layout: l, Origin: OriginDraft}, nil
}

func (s *service) session(id string) (*Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *service) GetSession(ctx context.Context, id string) (*SessionResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(id, sess.Snapshot()), nil
}

func (s *service) RenderSVG(ctx context.Context, id string, w io.Writer) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	return sess.RenderSVG(w)
}

func (s *service) Drag(ctx context.Context, id string, req DragRequest) (*GestureResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	res, err := sess.Drag(req.SeatNumber, req.X, req.Y, req.Phase)
	if err != nil {
		return nil, err
	}
	return toGestureResponse(res), nil
}

func (s *service) Click(ctx context.Context, id string, req ClickRequest) (*GestureResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	res, err := sess.Click(req.SeatNumber)
	if err != nil {
		return nil, err
	}
	return toGestureResponse(res), nil
}

func (s *service) UpdatePricing(ctx context.Context, id string, req PricingRequest) (*SessionResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if err := sess.UpdatePricing(req.Pricing()); err != nil {
		return nil, err
	}
	return toSessionResponse(id, sess.Snapshot()), nil
}

func (s *service) PatchSeat(ctx context.Context, id, seatNumber string, req PatchSeatRequest) (*layout.Seat, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	seat, err := sess.PatchSeat(seatNumber, req.patch())
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (s *service) Regenerate(ctx context.Context, id string, req RegenerateRequest) (*SessionResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	pricing := req.apply(sess.Snapshot().Pricing)
	if err := sess.Regenerate(pricing, s.reclassify); err != nil {
		return nil, err
	}
	return toSessionResponse(id, sess.Snapshot()), nil
}

// Save serializes the session's layout and persists it through the seating
// service. A failed save is kept as a local draft and surfaced to the caller.
func (s *service) Save(ctx context.Context, id string) (*SaveResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	raw, seats, err := sess.beginSave()
	if err != nil {
		return nil, err
	}
	saved := false
	defer func() { sess.endSave(raw, saved) }()

	eventID := sess.EventID()
	release, err := s.acquireSaveLock(ctx, eventID, id)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	if err := s.store.SaveLayout(ctx, eventID, raw); err != nil {
		failure := &SaveFailure{EventID: eventID, Cause: err}
		failure.DraftKept = s.keepDraft(ctx, eventID, raw, seats, err)
		logger.GetDefault().ErrorWithContext(ctx, "Layout save failed", err, map[string]interface{}{
			"event_id":   eventID,
			"session_id": id,
			"draft_kept": failure.DraftKept,
		})
		return nil, failure
	}
	saved = true
	logger.GetDefault().LogLayoutSaved(ctx, eventID, seats, time.Since(start))

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, eventID); err != nil {
			logger.GetDefault().ErrorWithContext(ctx, "Failed to invalidate cached layout", err, map[string]interface{}{
				"event_id": eventID,
			})
		}
	}
	if s.drafts != nil {
		if err := s.drafts.DeleteByEventID(ctx, eventID); err != nil {
			logger.GetDefault().ErrorWithContext(ctx, "Failed to delete layout draft", err, map[string]interface{}{
				"event_id": eventID,
			})
		}
	}

	event := notifications.NewDomainEvent(notifications.EventLayoutSaved, eventID)
	event.SessionID = id
	event.SeatCount = seats
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "Failed to publish domain event", err, map[string]interface{}{
			"type":     event.Type,
			"event_id": eventID,
		})
	}

	return &SaveResponse{EventID: eventID, SeatCount: seats, SavedAt: time.Now().UTC()}, nil
}

// acquireSaveLock takes the per-event save lock. An unreachable lock store
// does not block saving; the session's own guard still applies.
func (s *service) acquireSaveLock(ctx context.Context, eventID, owner string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	key := constants.BuildLayoutSaveLockKey(eventID)
	acquired, err := s.locker.AcquireLock(ctx, key, owner, s.lockTTL)
	if err != nil {
		logger.GetDefault().WarnContext(ctx, "Save lock unavailable, saving without it",
			"event_id", eventID,
			"error", err.Error(),
		)
		return noop, nil
	}
	if !acquired {
		return nil, ErrSaveInProgress
	}

	return func() {
		if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key, owner); err != nil {
			logger.GetDefault().WarnContext(ctx, "Failed to release save lock",
				"event_id", eventID,
				"error", err.Error(),
			)
		}
	}, nil
}

func (s *service) keepDraft(ctx context.Context, eventID, raw string, seats int, cause error) bool {
	if s.drafts == nil {
		return false
	}
	draft := &LayoutDraft{
		EventID:    eventID,
		LayoutJSON: raw,
		SeatCount:  seats,
		LastError:  truncate(cause.Error(), 1000),
	}
	if err := s.drafts.Upsert(context.WithoutCancel(ctx), draft); err != nil {
		logger.GetDefault().ErrorWithContext(ctx, "Failed to store layout draft", err, map[string]interface{}{
			"event_id": eventID,
		})
		return false
	}
	return true
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (s *service) Unmount(ctx context.Context, id string) error {
	if !s.sessions.Remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

func (s *service) GetDraft(ctx context.Context, eventID string) (*DraftResponse, error) {
	if s.drafts == nil {
		return nil, ErrDraftsDisabled
	}
	draft, err := s.drafts.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	resp := draft.ToResponse()
	return &resp, nil
}

func (s *service) RunReaper(ctx context.Context, interval time.Duration) {
	s.sessions.Run(ctx, interval)
}

func (s *service) Shutdown() {
	s.sessions.CloseAll()
}

// IsClientError reports whether err was caused by the request rather than
// by a dependency.
func IsClientError(err error) bool {
	return errors.Is(err, layout.ErrInvalidSeatType) ||
		errors.Is(err, layout.ErrInvalidPrice) ||
		errors.Is(err, layout.ErrMalformedLayout) ||
		errors.Is(err, canvas.ErrInvalidShape) ||
		errors.Is(err, ErrInvalidPhase)
}
