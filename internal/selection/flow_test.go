package selection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"seatstudio/internal/layout"
	"seatstudio/internal/seating"
)

const testLayout = `{"seats":[
	{"seatNumber":"S1","row":"A","section":"Main","seatType":"VIP","price":100,"x":50,"y":50,"status":"available"},
	{"seatNumber":"S2","row":"A","section":"Main","seatType":"Regular","price":75,"x":100,"y":50,"status":"available"},
	{"seatNumber":"S3","row":"A","section":"Main","seatType":"Regular","price":50,"x":150,"y":50,"status":"available"},
	{"seatNumber":"S4","row":"A","section":"Main","seatType":"Regular","price":50,"x":200,"y":50,"status":"booked"}
]}`

var testPricing = layout.Pricing{Capacity: 4, VIPCount: 1, VIPPrice: 100, RegularPrice: 50}

// fakeSeating is an in-process seating service.
type fakeSeating struct {
	t *testing.T

	mu          sync.Mutex
	layoutJSON  string
	reserveCode int
	reserveBody string
	confirmCode int
	reserved    [][]string
	confirmed   [][]string
	authHeaders []string

	// when set, reserve blocks until release is closed
	entered chan struct{}
	release chan struct{}

	// when set, layout reads block until layoutRelease is closed
	layoutEntered chan struct{}
	layoutRelease chan struct{}
}

func newFakeSeating(t *testing.T) (*fakeSeating, *seating.Client) {
	t.Helper()
	f := &fakeSeating{
		t:           t,
		layoutJSON:  testLayout,
		reserveCode: http.StatusOK,
		reserveBody: `{"success":true,"reservationId":"res-1"}`,
		confirmCode: http.StatusOK,
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, seating.NewClient(seating.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func (f *fakeSeating) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/layouts/"):
		f.mu.Lock()
		body, _ := json.Marshal(seating.LayoutResponse{LayoutJSON: f.layoutJSON})
		entered, release := f.layoutEntered, f.layoutRelease
		f.mu.Unlock()
		if entered != nil {
			entered <- struct{}{}
			<-release
		}
		_, _ = w.Write(body)

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/reserve"):
		var req seating.SeatNumbersRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.reserved = append(f.reserved, req.SeatNumbers)
		code, body := f.reserveCode, f.reserveBody
		entered, release := f.entered, f.release
		f.mu.Unlock()
		if entered != nil {
			entered <- struct{}{}
			<-release
		}
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/confirm"):
		var req seating.SeatNumbersRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.confirmed = append(f.confirmed, req.SeatNumbers)
		code := f.confirmCode
		f.mu.Unlock()
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"success":true}`))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeSeating) setReserve(code int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserveCode, f.reserveBody = code, body
}

func (f *fakeSeating) reserveCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reserved)
}

func loadedFlow(t *testing.T) (*Flow, *fakeSeating) {
	t.Helper()
	fake, client := newFakeSeating(t)
	flow := NewFlow(client, layout.NewLoader(client))
	res, err := flow.LoadReadOnlyLayout(context.Background(), "evt-1", testPricing)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Origin != layout.OriginPersisted {
		t.Fatalf("expected persisted layout, got %s (%s)", res.Origin, res.FallbackReason)
	}
	return flow, fake
}

func selectSeats(t *testing.T, flow *Flow, seats ...string) {
	t.Helper()
	for _, s := range seats {
		if !flow.ToggleSelect(s) {
			t.Fatalf("toggle %s was not applied", s)
		}
	}
}

func TestSelectionTotalFollowsSelection(t *testing.T) {
	flow, _ := loadedFlow(t)

	selectSeats(t, flow, "S1", "S2", "S3")
	if got := flow.Total(); got != 225 {
		t.Fatalf("expected total 225, got %v", got)
	}

	selectSeats(t, flow, "S3")
	if got := flow.Total(); got != 175 {
		t.Fatalf("expected total 175 after deselecting S3, got %v", got)
	}

	snap := flow.Snapshot()
	if strings.Join(snap.Selected, ",") != "S1,S2" {
		t.Errorf("unexpected selection order: %v", snap.Selected)
	}
}

func TestBookedAndUnknownSeatsCannotBeSelected(t *testing.T) {
	flow, _ := loadedFlow(t)

	if flow.ToggleSelect("S4") {
		t.Error("booked seat S4 was selected")
	}
	if flow.ToggleSelect("S99") {
		t.Error("unknown seat S99 was selected")
	}
	if flow.Total() != 0 {
		t.Errorf("expected empty selection, total %v", flow.Total())
	}
}

func TestReserveSuccessAndPaymentHandoff(t *testing.T) {
	flow, fake := loadedFlow(t)
	selectSeats(t, flow, "S2", "S1")

	if _, err := flow.BeginPayment(); !errors.Is(err, ErrPaymentNotAllowed) {
		t.Fatalf("payment before reservation: expected ErrPaymentNotAllowed, got %v", err)
	}

	ctx := seating.ContextWithToken(context.Background(), "tok-123")
	res, err := flow.Reserve(ctx)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if res.ReservationID != "res-1" || res.Total != 175 {
		t.Errorf("unexpected reservation: %+v", res)
	}
	if strings.Join(fake.reserved[0], ",") != "S1,S2" {
		t.Errorf("unexpected reserved seats: %v", fake.reserved[0])
	}
	if fake.authHeaders[len(fake.authHeaders)-1] != "Bearer tok-123" {
		t.Errorf("token not forwarded: %q", fake.authHeaders[len(fake.authHeaders)-1])
	}
	if flow.State() != StateReserved {
		t.Fatalf("expected reserved, got %s", flow.State())
	}

	if flow.ToggleSelect("S3") {
		t.Error("selection changed while reserved")
	}
	if _, err := flow.Reserve(ctx); !errors.Is(err, ErrAlreadyReserved) {
		t.Errorf("second reserve: expected ErrAlreadyReserved, got %v", err)
	}

	handoff, err := flow.BeginPayment()
	if err != nil {
		t.Fatalf("begin payment: %v", err)
	}
	if handoff.Amount != 175 || handoff.ReservationID != "res-1" {
		t.Errorf("unexpected handoff: %+v", handoff)
	}
	if _, err := flow.BeginPayment(); !errors.Is(err, ErrPaymentAlreadyStarted) {
		t.Errorf("second payment: expected ErrPaymentAlreadyStarted, got %v", err)
	}

	if _, err := flow.Confirm(ctx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	snap := flow.Snapshot()
	if snap.State != StateConfirmed || len(snap.Selected) != 0 {
		t.Errorf("unexpected snapshot after confirm: %s %v", snap.State, snap.Selected)
	}
	for _, s := range snap.Seats {
		if (s.SeatNumber == "S1" || s.SeatNumber == "S2") && !s.IsBooked() {
			t.Errorf("seat %s should be booked after confirm", s.SeatNumber)
		}
	}
}

func TestReserveFailsClosed(t *testing.T) {
	cases := []struct {
		name   string
		code   int
		body   string
		reason string
	}{
		{"explicit rejection", http.StatusOK, `{"success":false,"message":"sold out"}`, ReasonRejected},
		{"missing success flag", http.StatusOK, `{"reservationId":"r"}`, ReasonNotConfirmed},
		{"garbage body", http.StatusOK, `not json`, ReasonMalformedResponse},
		{"server error with success body", http.StatusInternalServerError, `{"success":true}`, ReasonUnexpectedStatus},
		{"conflict", http.StatusConflict, `{"success":false,"conflicts":["S2"]}`, ReasonRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flow, fake := loadedFlow(t)
			fake.setReserve(tc.code, tc.body)
			selectSeats(t, flow, "S1", "S2")

			_, err := flow.Reserve(context.Background())
			var failure *ReservationFailure
			if !errors.As(err, &failure) {
				t.Fatalf("expected ReservationFailure, got %v", err)
			}
			if failure.Reason != tc.reason {
				t.Errorf("expected reason %s, got %s", tc.reason, failure.Reason)
			}
			snap := flow.Snapshot()
			if snap.State != StateFailed || len(snap.Selected) != 0 || snap.Total != 0 {
				t.Errorf("selection not cleared: state=%s selected=%v total=%v", snap.State, snap.Selected, snap.Total)
			}
			if _, err := flow.BeginPayment(); !errors.Is(err, ErrPaymentNotAllowed) {
				t.Errorf("payment after failure: expected ErrPaymentNotAllowed, got %v", err)
			}
		})
	}
}

func TestPartialHoldFailsClosed(t *testing.T) {
	flow, fake := loadedFlow(t)
	fake.setReserve(http.StatusOK, `{"success":true,"reservationId":"res-2","seatNumbers":["S1"]}`)
	selectSeats(t, flow, "S1", "S2", "S3")

	res, err := flow.Reserve(context.Background())
	if res != nil {
		t.Fatalf("partial hold produced a reservation: %+v", res)
	}
	var failure *ReservationFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected ReservationFailure, got %v", err)
	}
	if failure.Reason != ReasonNotConfirmed {
		t.Errorf("expected reason %s, got %s", ReasonNotConfirmed, failure.Reason)
	}
	if strings.Join(failure.Conflicts, ",") != "S2,S3" {
		t.Errorf("expected S2,S3 reported missing, got %v", failure.Conflicts)
	}
	if _, err := flow.BeginPayment(); !errors.Is(err, ErrPaymentNotAllowed) {
		t.Errorf("payment after partial hold: expected ErrPaymentNotAllowed, got %v", err)
	}

	// seats the service did not hold are not known to be taken
	if !flow.ToggleSelect("S2") {
		t.Error("S2 should stay selectable after a partial hold")
	}
}

func TestHeldSeatsMustMatchRequest(t *testing.T) {
	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{"exact set in another order", `{"success":true,"seatNumbers":["S2","S1"]}`, true},
		{"no seat list", `{"success":true}`, true},
		{"extra seat", `{"success":true,"seatNumbers":["S1","S2","S3"]}`, false},
		{"different seat", `{"success":true,"seatNumbers":["S1","S3"]}`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flow, fake := loadedFlow(t)
			fake.setReserve(http.StatusOK, tc.body)
			selectSeats(t, flow, "S1", "S2")

			_, err := flow.Reserve(context.Background())
			if tc.ok && err != nil {
				t.Fatalf("expected reservation, got %v", err)
			}
			if !tc.ok {
				var failure *ReservationFailure
				if !errors.As(err, &failure) || failure.Reason != ReasonNotConfirmed {
					t.Fatalf("expected not_confirmed failure, got %v", err)
				}
			}
		})
	}
}

func TestReserveTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"layoutJson":` + jsonString(testLayout) + `}`))
	}))
	client := seating.NewClient(seating.Config{BaseURL: srv.URL, Timeout: time.Second})
	flow := NewFlow(client, layout.NewLoader(client))
	if _, err := flow.LoadReadOnlyLayout(context.Background(), "evt-1", testPricing); err != nil {
		t.Fatalf("load: %v", err)
	}
	selectSeats(t, flow, "S1")
	srv.Close()

	_, err := flow.Reserve(context.Background())
	var failure *ReservationFailure
	if !errors.As(err, &failure) || failure.Reason != ReasonTransport {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if flow.Total() != 0 {
		t.Error("selection kept after transport failure")
	}
}

func TestConflictsAreMarkedBooked(t *testing.T) {
	flow, fake := loadedFlow(t)
	fake.setReserve(http.StatusConflict, `{"success":false,"conflicts":["S2","S77"]}`)
	selectSeats(t, flow, "S1", "S2")

	if _, err := flow.Reserve(context.Background()); err == nil {
		t.Fatal("expected failure")
	}

	if flow.ToggleSelect("S2") {
		t.Error("conflicting seat S2 should now be booked")
	}
	if !flow.ToggleSelect("S1") {
		t.Fatal("S1 should be selectable again after a failure")
	}
	if flow.State() != StateBrowsing {
		t.Errorf("expected browsing after reselect, got %s", flow.State())
	}
}

func TestDuplicateReserveWhileInFlight(t *testing.T) {
	flow, fake := loadedFlow(t)
	fake.mu.Lock()
	fake.entered = make(chan struct{})
	fake.release = make(chan struct{})
	fake.mu.Unlock()
	selectSeats(t, flow, "S1")

	done := make(chan error, 1)
	go func() {
		_, err := flow.Reserve(context.Background())
		done <- err
	}()
	<-fake.entered

	if _, err := flow.Reserve(context.Background()); !errors.Is(err, ErrReservationInFlight) {
		t.Errorf("expected ErrReservationInFlight, got %v", err)
	}
	if flow.ToggleSelect("S2") {
		t.Error("selection changed while reserving")
	}

	close(fake.release)
	if err := <-done; err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if fake.reserveCalls() != 1 {
		t.Errorf("expected exactly one reserve call, got %d", fake.reserveCalls())
	}
}

func TestLateReserveResponseAfterClose(t *testing.T) {
	flow, fake := loadedFlow(t)
	fake.mu.Lock()
	fake.entered = make(chan struct{})
	fake.release = make(chan struct{})
	fake.mu.Unlock()
	selectSeats(t, flow, "S1")

	done := make(chan error, 1)
	go func() {
		_, err := flow.Reserve(context.Background())
		done <- err
	}()
	<-fake.entered

	flow.Close()
	close(fake.release)

	if err := <-done; !errors.Is(err, ErrFlowClosed) {
		t.Fatalf("expected ErrFlowClosed, got %v", err)
	}
	if flow.State() == StateReserved {
		t.Error("closed flow moved to reserved")
	}
	if err := flow.RenderSVG(&bytes.Buffer{}); !errors.Is(err, ErrFlowClosed) {
		t.Errorf("render after close: expected ErrFlowClosed, got %v", err)
	}
}

func TestLateLayoutResponseAfterClose(t *testing.T) {
	fake, client := newFakeSeating(t)
	fake.layoutEntered = make(chan struct{})
	fake.layoutRelease = make(chan struct{})
	flow := NewFlow(client, layout.NewLoader(client))

	done := make(chan error, 1)
	go func() {
		_, err := flow.LoadReadOnlyLayout(context.Background(), "evt-1", testPricing)
		done <- err
	}()
	<-fake.layoutEntered

	flow.Close()
	close(fake.layoutRelease)

	if err := <-done; !errors.Is(err, ErrFlowClosed) {
		t.Fatalf("expected ErrFlowClosed, got %v", err)
	}

	flow.mu.Lock()
	renderer, loaded := flow.renderer, flow.layout
	flow.mu.Unlock()
	if renderer != nil || loaded != nil {
		t.Error("closed flow mounted the late layout")
	}
	if flow.ToggleSelect("S1") {
		t.Error("toggle applied on a closed flow")
	}
	if err := flow.RenderSVG(&bytes.Buffer{}); !errors.Is(err, ErrFlowClosed) {
		t.Errorf("render after close: expected ErrFlowClosed, got %v", err)
	}
}

func TestRefreshAvailabilityDropsBookedSeats(t *testing.T) {
	flow, fake := loadedFlow(t)
	selectSeats(t, flow, "S1", "S3")

	fake.mu.Lock()
	fake.layoutJSON = strings.Replace(testLayout,
		`"seatNumber":"S3","row":"A","section":"Main","seatType":"Regular","price":50,"x":150,"y":50,"status":"available"`,
		`"seatNumber":"S3","row":"A","section":"Main","seatType":"Regular","price":50,"x":150,"y":50,"status":"booked"`, 1)
	fake.mu.Unlock()

	dropped, err := flow.RefreshAvailability(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(dropped) != 1 || dropped[0] != "S3" {
		t.Fatalf("expected S3 dropped, got %v", dropped)
	}
	if flow.Total() != 100 {
		t.Errorf("expected total 100, got %v", flow.Total())
	}
}

func TestMarkSeatsTakenRespectsReservation(t *testing.T) {
	flow, _ := loadedFlow(t)
	selectSeats(t, flow, "S1", "S2")

	if dropped := flow.MarkSeatsTaken([]string{"S2"}); len(dropped) != 1 {
		t.Fatalf("expected S2 dropped, got %v", dropped)
	}

	if _, err := flow.Reserve(context.Background()); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if dropped := flow.MarkSeatsTaken([]string{"S1", "S3"}); len(dropped) != 0 {
		t.Errorf("reserved selection must not be dropped, got %v", dropped)
	}
	snap := flow.Snapshot()
	for _, s := range snap.Seats {
		if s.SeatNumber == "S1" && s.IsBooked() {
			t.Error("held seat S1 was marked booked")
		}
		if s.SeatNumber == "S3" && !s.IsBooked() {
			t.Error("S3 should be booked")
		}
	}
}

func TestLoadFallsBackToDefaultGrid(t *testing.T) {
	fake, client := newFakeSeating(t)
	fake.layoutJSON = `{"seats":[{"seatNumber":"S1","seatType":"BALCONY"}]}`

	flow := NewFlow(client, layout.NewLoader(client))
	res, err := flow.LoadReadOnlyLayout(context.Background(), "evt-1", testPricing)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Origin != layout.OriginGenerated || res.FallbackReason != layout.ReasonMalformed {
		t.Fatalf("expected generated grid for malformed layout, got %s/%s", res.Origin, res.FallbackReason)
	}
	if n := len(flow.Snapshot().Seats); n != testPricing.Capacity {
		t.Errorf("expected %d generated seats, got %d", testPricing.Capacity, n)
	}
}

func TestRenderSVGMarksSelection(t *testing.T) {
	flow, _ := loadedFlow(t)
	selectSeats(t, flow, "S2")

	var buf bytes.Buffer
	if err := flow.RenderSVG(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `id="seat-S2"`) {
		t.Error("rendered picker is missing seat S2")
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
