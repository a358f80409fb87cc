package designer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"seatstudio/internal/canvas"
	"seatstudio/internal/layout"
	"seatstudio/internal/notifications"
	"seatstudio/internal/seating"
	"seatstudio/internal/shared/constants"
	"seatstudio/pkg/cache"
)

var testPricing = layout.Pricing{Capacity: 20, VIPCount: 5, VIPPrice: 100, RegularPrice: 50}

type memoryStore struct {
	mu      sync.Mutex
	layouts map[string]string
	saveErr error
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{layouts: make(map[string]string)}
}

func (m *memoryStore) GetLayout(ctx context.Context, eventID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.layouts[eventID]
	if !ok {
		return "", seating.ErrLayoutNotFound
	}
	return raw, nil
}

func (m *memoryStore) SaveLayout(ctx context.Context, eventID, layoutJSON string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.layouts[eventID] = layoutJSON
	return nil
}

type memoryDrafts struct {
	mu     sync.Mutex
	drafts map[string]*LayoutDraft
}

func newMemoryDrafts() *memoryDrafts {
	return &memoryDrafts{drafts: make(map[string]*LayoutDraft)}
}

func (m *memoryDrafts) Upsert(ctx context.Context, draft *LayoutDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := *draft
	d.UpdatedAt = time.Now()
	m.drafts[draft.EventID] = &d
	return nil
}

func (m *memoryDrafts) GetByEventID(ctx context.Context, eventID string) (*LayoutDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[eventID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	out := *d
	return &out, nil
}

func (m *memoryDrafts) DeleteByEventID(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, eventID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*notifications.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event *notifications.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}
func (p *recordingPublisher) Close() error                          { return nil }
func (p *recordingPublisher) HealthCheck(ctx context.Context) error { return nil }

type fixture struct {
	store     *memoryStore
	drafts    *memoryDrafts
	cache     cache.Service
	publisher *recordingPublisher
	service   Service
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		store:     newMemoryStore(),
		drafts:    newMemoryDrafts(),
		cache:     cache.NewService(client),
		publisher: &recordingPublisher{},
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = time.Hour
	}
	f.service = NewService(Dependencies{
		Store:     f.store,
		Drafts:    f.drafts,
		Locker:    f.cache,
		Cache:     layout.NewCachedSource(f.store, f.cache, time.Minute),
		Publisher: f.publisher,
	}, opts)
	t.Cleanup(f.service.Shutdown)
	return f
}

func (f *fixture) mount(t *testing.T, eventID string) *SessionResponse {
	t.Helper()
	resp, err := f.service.Mount(context.Background(), MountRequest{
		EventID: eventID, Capacity: 20, VIPCount: 5, VIPPrice: 100, RegularPrice: 50,
	})
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	return resp
}

func seatOf(t *testing.T, resp *SessionResponse, seatNumber string) layout.Seat {
	t.Helper()
	for _, s := range resp.Seats {
		if s.SeatNumber == seatNumber {
			return s
		}
	}
	t.Fatalf("seat %s missing", seatNumber)
	return layout.Seat{}
}

func TestMountGeneratesDefaultGrid(t *testing.T) {
	f := newFixture(t, Options{})
	resp := f.mount(t, "evt-1")

	if resp.Origin != string(layout.OriginGenerated) || resp.FallbackReason != layout.ReasonNotFound {
		t.Fatalf("expected generated/not_found, got %s/%s", resp.Origin, resp.FallbackReason)
	}
	if len(resp.Seats) != 20 || len(resp.Nodes) != 20 {
		t.Fatalf("expected 20 seats and nodes, got %d/%d", len(resp.Seats), len(resp.Nodes))
	}
	if !resp.Dirty {
		t.Error("generated layout should start dirty")
	}
	if vip := seatOf(t, resp, "S5"); !vip.IsVIP() || vip.Price != 100 {
		t.Errorf("S5 should be VIP at 100, got %+v", vip)
	}
}

func TestMountLoadsPersistedLayout(t *testing.T) {
	f := newFixture(t, Options{})
	raw, _ := layout.GenerateDefaultGrid("evt-1", layout.Pricing{Capacity: 3, VIPCount: 1, VIPPrice: 80, RegularPrice: 30}).Serialize()
	f.store.layouts["evt-1"] = raw

	resp := f.mount(t, "evt-1")
	if resp.Origin != string(layout.OriginPersisted) || len(resp.Seats) != 3 || resp.Dirty {
		t.Fatalf("unexpected session: origin=%s seats=%d dirty=%v", resp.Origin, len(resp.Seats), resp.Dirty)
	}
}

func TestDragSnapsAndIgnoresUnknownSeats(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.mount(t, "evt-1").SessionID
	ctx := context.Background()

	for _, phase := range []DragPhase{DragStart, DragMove, DragEnd} {
		res, err := f.service.Drag(ctx, id, DragRequest{SeatNumber: "S3", X: 123, Y: 77, Phase: phase})
		if err != nil || !res.Applied {
			t.Fatalf("drag %s: applied=%v err=%v", phase, res != nil && res.Applied, err)
		}
	}

	got, _ := f.service.GetSession(ctx, id)
	if s := seatOf(t, got, "S3"); s.X != 100 || s.Y != 50 {
		t.Errorf("expected S3 at (100,50), got (%d,%d)", s.X, s.Y)
	}

	res, err := f.service.Drag(ctx, id, DragRequest{SeatNumber: "S404", X: 10, Y: 10, Phase: DragMove})
	if err != nil || res.Applied {
		t.Errorf("unknown seat drag: applied=%v err=%v", res.Applied, err)
	}

	if _, err := f.service.Drag(ctx, id, DragRequest{SeatNumber: "S1", Phase: "fling"}); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("expected ErrInvalidPhase, got %v", err)
	}
}

func TestClickTogglesCategory(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.mount(t, "evt-1").SessionID

	res, err := f.service.Click(context.Background(), id, ClickRequest{SeatNumber: "S10"})
	if err != nil || !res.Applied {
		t.Fatalf("click: %v", err)
	}
	if !res.Seat.IsVIP() || res.Seat.Price != 100 {
		t.Errorf("S10 should be VIP at 100 after click, got %+v", res.Seat)
	}
	if res.Node == nil || res.Node.Fill == "" {
		t.Error("click response is missing the redrawn node")
	}
}

func TestUpdatePricingReclassifies(t *testing.T) {
	cases := []struct {
		name     string
		preserve bool
		wantVIP  bool
	}{
		{"overwrite toggles", false, false},
		{"preserve toggles", true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, Options{PreserveSeatOverrides: tc.preserve})
			id := f.mount(t, "evt-1").SessionID
			ctx := context.Background()

			if _, err := f.service.Click(ctx, id, ClickRequest{SeatNumber: "S10"}); err != nil {
				t.Fatal(err)
			}
			vip := "VIP"
			if _, err := f.service.PatchSeat(ctx, id, "S12", PatchSeatRequest{SeatType: &vip}); err != nil {
				t.Fatal(err)
			}
			resp, err := f.service.UpdatePricing(ctx, id, PricingRequest{Capacity: 20, VIPCount: 2, VIPPrice: 150, RegularPrice: 60})
			if err != nil {
				t.Fatal(err)
			}

			if s := seatOf(t, resp, "S2"); !s.IsVIP() || s.Price != 150 {
				t.Errorf("S2 should be VIP at 150, got %+v", s)
			}
			if s := seatOf(t, resp, "S3"); s.IsVIP() || s.Price != 60 {
				t.Errorf("S3 should be Regular at 60, got %+v", s)
			}
			if s := seatOf(t, resp, "S10"); s.IsVIP() != tc.wantVIP {
				t.Errorf("clicked S10 VIP = %v, want %v", s.IsVIP(), tc.wantVIP)
			}
			if s := seatOf(t, resp, "S12"); s.IsVIP() != tc.wantVIP {
				t.Errorf("patched S12 VIP = %v, want %v", s.IsVIP(), tc.wantVIP)
			}
		})
	}
}

func TestPatchSeat(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.mount(t, "evt-1").SessionID
	ctx := context.Background()

	vip := "VIP"
	seat, err := f.service.PatchSeat(ctx, id, "S12", PatchSeatRequest{SeatType: &vip, Row: "Z", Section: "Balcony"})
	if err != nil {
		t.Fatal(err)
	}
	if !seat.IsVIP() || seat.Price != 100 || seat.Row != "Z" || seat.Section != "Balcony" {
		t.Errorf("unexpected patched seat: %+v", seat)
	}

	price := 42.5
	seat, err = f.service.PatchSeat(ctx, id, "S12", PatchSeatRequest{Price: &price})
	if err != nil || seat.Price != 42.5 || !seat.IsVIP() {
		t.Errorf("price override: %+v %v", seat, err)
	}

	if _, err := f.service.PatchSeat(ctx, id, "S404", PatchSeatRequest{Price: &price}); !errors.Is(err, layout.ErrSeatNotFound) {
		t.Errorf("expected ErrSeatNotFound, got %v", err)
	}
}

func TestRegenerateDropsStaleGestures(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.mount(t, "evt-1").SessionID
	ctx := context.Background()

	capacity := 10
	resp, err := f.service.Regenerate(ctx, id, RegenerateRequest{Capacity: &capacity})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Seats) != 10 || len(resp.Nodes) != 10 || resp.Pricing.VIPPrice != 100 {
		t.Fatalf("unexpected regenerated session: seats=%d nodes=%d pricing=%+v", len(resp.Seats), len(resp.Nodes), resp.Pricing)
	}

	res, err := f.service.Click(ctx, id, ClickRequest{SeatNumber: "S15"})
	if err != nil || res.Applied {
		t.Errorf("stale seat S15: applied=%v err=%v", res.Applied, err)
	}
}

func TestSaveRoundTripsAndInvalidatesCache(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.mount(t, "evt-1").SessionID
	ctx := context.Background()

	_, _ = f.service.Drag(ctx, id, DragRequest{SeatNumber: "S1", X: 420, Y: 311, Phase: DragMove})
	_ = f.drafts.Upsert(ctx, &LayoutDraft{EventID: "evt-1", LayoutJSON: "{}"})
	if err := f.cache.Set(ctx, constants.BuildReadOnlyLayoutKey("evt-1"), "stale", time.Minute); err != nil {
		t.Fatal(err)
	}

	resp, err := f.service.Save(ctx, id)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if resp.SeatCount != 20 {
		t.Errorf("expected 20 saved seats, got %d", resp.SeatCount)
	}

	raw := f.store.layouts["evt-1"]
	if strings.Contains(raw, "selected") {
		t.Error("saved layout carries the attendee-only selected status")
	}
	saved, err := layout.Deserialize("evt-1", raw)
	if err != nil {
		t.Fatalf("saved layout does not parse: %v", err)
	}
	session, _ := f.service.GetSession(ctx, id)
	for i, s := range saved.Seats() {
		if s != session.Seats[i] {
			t.Fatalf("round trip mismatch at %d: %+v != %+v", i, s, session.Seats[i])
		}
	}
	if session.Dirty || session.Origin != string(layout.OriginPersisted) || session.LastSavedAt == nil {
		t.Errorf("session not marked saved: %+v", session)
	}

	if f.cache.Exists(ctx, constants.BuildReadOnlyLayoutKey("evt-1")) {
		t.Error("read-only cache not invalidated")
	}
	if _, err := f.drafts.GetByEventID(ctx, "evt-1"); !errors.Is(err, ErrDraftNotFound) {
		t.Error("draft not removed after a successful save")
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Type != notifications.EventLayoutSaved {
		t.Errorf("expected one LAYOUT_SAVED event, got %+v", f.publisher.events)
	}
	if f.cache.Exists(ctx, constants.BuildLayoutSaveLockKey("evt-1")) {
		t.Error("save lock not released")
	}
}

func TestFailedSaveKeepsDraft(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.mount(t, "evt-1").SessionID
	ctx := context.Background()
	f.store.saveErr = errors.New("seating service down")

	_, _ = f.service.Click(ctx, id, ClickRequest{SeatNumber: "S20"})
	_, err := f.service.Save(ctx, id)

	var failure *SaveFailure
	if !errors.As(err, &failure) || !failure.DraftKept {
		t.Fatalf("expected SaveFailure with draft, got %v", err)
	}
	session, _ := f.service.GetSession(ctx, id)
	if !session.Dirty || session.Saving {
		t.Errorf("failed save should leave the session dirty and idle: %+v", session)
	}

	draft, err := f.service.GetDraft(ctx, "evt-1")
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if draft.SeatCount != 20 || !strings.Contains(draft.LastError, "seating service down") {
		t.Errorf("unexpected draft: %+v", draft)
	}

	resumed, err := f.service.Mount(ctx, MountRequest{EventID: "evt-1", Capacity: 20, VIPCount: 5, VIPPrice: 100, RegularPrice: 50, ResumeDraft: true})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Origin != string(OriginDraft) {
		t.Errorf("expected draft origin, got %s", resumed.Origin)
	}
	if s := seatOf(t, resumed, "S20"); !s.IsVIP() {
		t.Error("draft lost the unsaved toggle on S20")
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	cases := []struct {
		name  string
		input string
		limit int
		want  int
	}{
		{"short ascii untouched", "save failed", 1000, 11},
		{"ascii cut at limit", strings.Repeat("x", 1200), 1000, 1000},
		{"two byte runes", strings.Repeat("é", 700), 1001, 1000},
		{"three byte runes", "xy" + strings.Repeat("€", 500), 1000, 998},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.input, tc.limit)
			if !utf8.ValidString(got) {
				t.Fatalf("truncated text is not valid UTF-8: %q", got[len(got)-4:])
			}
			if len(got) != tc.want {
				t.Errorf("len = %d, want %d", len(got), tc.want)
			}
			if !strings.HasPrefix(tc.input, got) {
				t.Error("truncated text is not a prefix of the input")
			}
		})
	}
}

func TestSaveRejectedWhileLocked(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.mount(t, "evt-1").SessionID
	ctx := context.Background()

	ok, err := f.cache.AcquireLock(ctx, constants.BuildLayoutSaveLockKey("evt-1"), "other-session", time.Minute)
	if err != nil || !ok {
		t.Fatalf("pre-acquire lock: %v", err)
	}

	if _, err := f.service.Save(ctx, id); !errors.Is(err, ErrSaveInProgress) {
		t.Fatalf("expected ErrSaveInProgress, got %v", err)
	}
	if f.store.saves != 0 {
		t.Error("seating service called while another save held the lock")
	}

	// the session guard is released, so a later save succeeds
	_ = f.cache.ReleaseLock(ctx, constants.BuildLayoutSaveLockKey("evt-1"), "other-session")
	if _, err := f.service.Save(ctx, id); err != nil {
		t.Fatalf("save after lock release: %v", err)
	}
}

func TestUnmountReleasesSession(t *testing.T) {
	f := newFixture(t, Options{})
	id := f.mount(t, "evt-1").SessionID
	ctx := context.Background()

	if err := f.service.Unmount(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.GetSession(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := f.service.Unmount(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second unmount: expected ErrSessionNotFound, got %v", err)
	}
}

func TestGestureAfterCloseIsRejected(t *testing.T) {
	res := layout.LoadResult{Layout: layout.GenerateDefaultGrid("evt-1", testPricing), Origin: layout.OriginGenerated}
	sess, err := newSession("evt-1", testPricing, res, canvasSize(), "circle")
	if err != nil {
		t.Fatal(err)
	}
	sess.Close()

	if _, err := sess.Click("S1"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestDraftsDisabled(t *testing.T) {
	svc := NewService(Dependencies{Store: newMemoryStore()}, Options{SessionTTL: time.Hour})
	defer svc.Shutdown()

	if _, err := svc.GetDraft(context.Background(), "evt-1"); !errors.Is(err, ErrDraftsDisabled) {
		t.Errorf("expected ErrDraftsDisabled, got %v", err)
	}
	if _, err := svc.Mount(context.Background(), MountRequest{EventID: "evt-1", ResumeDraft: true}); !errors.Is(err, ErrDraftsDisabled) {
		t.Errorf("resume without drafts: expected ErrDraftsDisabled, got %v", err)
	}
}

func canvasSize() canvas.Size {
	return canvas.Size{Width: 800, Height: 600}
}
