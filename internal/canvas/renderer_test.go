package canvas

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"seatstudio/internal/layout"
)

func testPricing() layout.Pricing {
	return layout.Pricing{Capacity: 20, VIPCount: 5, VIPPrice: 100, RegularPrice: 50}
}

func mountDesigner(t *testing.T) (*Renderer, *layout.Layout) {
	t.Helper()
	l := layout.GenerateDefaultGrid("evt-1", testPricing())
	r := New(l, WithPricing(testPricing()))
	if err := r.Mount(Size{}, ShapeCircle, ModeDesign); err != nil {
		t.Fatalf("mount: %v", err)
	}
	return r, l
}

type fakeSelection map[string]bool

func (f fakeSelection) IsSelected(seatNumber string) bool { return f[seatNumber] }

func TestMountProjectsEverySeat(t *testing.T) {
	r, l := mountDesigner(t)

	nodes := r.Nodes()
	if len(nodes) != l.Len() {
		t.Fatalf("expected %d nodes, got %d", l.Len(), len(nodes))
	}
	for i, seat := range l.Seats() {
		n := nodes[i]
		if n.SeatNumber != seat.SeatNumber || n.X != seat.X || n.Y != seat.Y {
			t.Errorf("node %d does not mirror seat: %+v vs %+v", i, n, seat)
		}
		want := FillRegular
		if seat.IsVIP() {
			want = FillVIP
		}
		if n.Fill != want {
			t.Errorf("node %s fill %s, want %s", n.SeatNumber, n.Fill, want)
		}
		if n.Redraws != 1 {
			t.Errorf("node %s drawn %d times on mount", n.SeatNumber, n.Redraws)
		}
	}

	size, ok := r.SurfaceSize()
	if !ok || size.Width != DefaultWidth || size.Height != DefaultHeight {
		t.Errorf("expected default surface, got %+v", size)
	}
}

func TestMountErrors(t *testing.T) {
	r, _ := mountDesigner(t)
	if err := r.Mount(Size{}, ShapeCircle, ModeDesign); !errors.Is(err, ErrAlreadyMounted) {
		t.Errorf("second mount: got %v", err)
	}

	fresh := New(layout.GenerateDefaultGrid("evt", testPricing()))
	if err := fresh.Mount(Size{}, Shape("hexagon"), ModeDesign); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("bad shape: got %v", err)
	}
	if err := fresh.Mount(Size{}, ShapeSquare, Mode("kiosk")); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("bad mode: got %v", err)
	}
}

func TestSurfaceGrowsToFitSeats(t *testing.T) {
	l, err := layout.New("evt", []layout.Seat{
		{SeatNumber: "S1", SeatType: layout.SeatTypeRegular, X: 1000, Y: 900},
	})
	if err != nil {
		t.Fatal(err)
	}
	r := New(l)
	if err := r.Mount(Size{Width: 400, Height: 300}, ShapeSquare, ModeDesign); err != nil {
		t.Fatal(err)
	}
	size, _ := r.SurfaceSize()
	if size.Width < 1000+SeatRadius || size.Height < 900+SeatRadius {
		t.Errorf("surface %+v does not contain seat at (1000,900)", size)
	}
}

func TestDragMoveSnapsAndRedrawsOnlyThatNode(t *testing.T) {
	r, l := mountDesigner(t)

	if !r.OnDragStart("S3") {
		t.Fatal("drag start dropped")
	}
	if !r.OnDragMove("S3", 123, 77) {
		t.Fatal("drag move dropped")
	}

	seat, _ := l.Seat("S3")
	if seat.X != 100 || seat.Y != 50 {
		t.Errorf("model not snapped: (%d,%d)", seat.X, seat.Y)
	}
	n, _ := r.Node("S3")
	if n.X != 100 || n.Y != 50 || !n.Dragging {
		t.Errorf("node not updated: %+v", n)
	}

	for _, other := range r.Nodes() {
		if other.SeatNumber == "S3" {
			if other.Redraws != 2 {
				t.Errorf("S3 redraws = %d, want 2", other.Redraws)
			}
			continue
		}
		if other.Redraws != 1 {
			t.Errorf("%s redrawn during S3 drag", other.SeatNumber)
		}
	}

	if !r.OnDragEnd("S3") {
		t.Fatal("drag end dropped")
	}
	if n, _ := r.Node("S3"); n.Dragging {
		t.Error("node still dragging after drag end")
	}
	if r.OnDragEnd("S3") {
		t.Error("drag end without an active drag should be dropped")
	}
}

func TestClickTogglesCategoryAndPrice(t *testing.T) {
	r, l := mountDesigner(t)

	if !r.OnClick("S1") {
		t.Fatal("click dropped")
	}
	seat, _ := l.Seat("S1")
	if seat.SeatType != layout.SeatTypeRegular || seat.Price != 50 {
		t.Errorf("expected Regular@50, got %s@%.0f", seat.SeatType, seat.Price)
	}
	if n, _ := r.Node("S1"); n.Fill != FillRegular {
		t.Errorf("fill %s, want %s", n.Fill, FillRegular)
	}

	r.SetPricing(layout.Pricing{Capacity: 20, VIPCount: 5, VIPPrice: 150, RegularPrice: 50})
	r.OnClick("S1")
	seat, _ = l.Seat("S1")
	if seat.SeatType != layout.SeatTypeVIP || seat.Price != 150 {
		t.Errorf("expected VIP at the current default 150, got %s@%.0f", seat.SeatType, seat.Price)
	}
	if n, _ := r.Node("S1"); n.Fill != FillVIP {
		t.Errorf("fill %s, want %s", n.Fill, FillVIP)
	}
}

func TestGesturesOnUnknownSeatsAreDropped(t *testing.T) {
	r, l := mountDesigner(t)
	before, _ := l.Serialize()

	if r.OnClick("S999") || r.OnDragStart("S999") || r.OnDragMove("S999", 10, 10) || r.OnDragEnd("S999") {
		t.Error("gesture on unknown seat was applied")
	}
	if r.Refresh("nope") {
		t.Error("refresh of unknown seat reported success")
	}

	after, _ := l.Serialize()
	if before != after {
		t.Error("layout changed by dropped gestures")
	}
}

func TestGesturesAfterUnmountAreDropped(t *testing.T) {
	r, l := mountDesigner(t)
	r.Unmount()

	if r.Mounted() {
		t.Fatal("still mounted")
	}
	if r.OnClick("S1") || r.OnDragMove("S1", 300, 300) {
		t.Error("gesture applied after unmount")
	}
	seat, _ := l.Seat("S1")
	if seat.SeatType != layout.SeatTypeVIP || seat.X != layout.OriginX {
		t.Errorf("layout mutated after unmount: %+v", seat)
	}
	if r.Nodes() != nil {
		t.Error("nodes still reachable after unmount")
	}
	if err := r.RenderSVG(&bytes.Buffer{}); !errors.Is(err, ErrNotMounted) {
		t.Errorf("render after unmount: got %v", err)
	}
}

func TestSyncAfterBulkReclassification(t *testing.T) {
	r, l := mountDesigner(t)

	l.RecolorForCategoryChange(layout.Pricing{Capacity: 20, VIPCount: 10, VIPPrice: 120, RegularPrice: 60})
	r.Sync()

	for i, n := range r.Nodes() {
		want := FillRegular
		if i < 10 {
			want = FillVIP
		}
		if n.Fill != want {
			t.Errorf("node %s fill %s, want %s", n.SeatNumber, n.Fill, want)
		}
	}
}

func TestRebindReplacesScene(t *testing.T) {
	r, _ := mountDesigner(t)
	r.Rebind(layout.GenerateDefaultGrid("evt-1", layout.Pricing{Capacity: 3, VIPCount: 0, RegularPrice: 10}))

	if got := len(r.Nodes()); got != 3 {
		t.Fatalf("expected 3 nodes after rebind, got %d", got)
	}
	if _, ok := r.Node("S4"); ok {
		t.Error("stale node survived rebind")
	}
}

func TestReadOnlyMode(t *testing.T) {
	l := layout.GenerateDefaultGrid("evt-1", testPricing())
	if _, err := l.SetSeatStatus("S2", layout.StatusBooked); err != nil {
		t.Fatal(err)
	}

	selected := fakeSelection{}
	var calls []string
	r := New(l, WithSelection(selected, func(seatNumber string) bool {
		calls = append(calls, seatNumber)
		selected[seatNumber] = !selected[seatNumber]
		return true
	}))
	if err := r.Mount(Size{}, ShapeCircle, ModeReadOnly); err != nil {
		t.Fatal(err)
	}

	booked, _ := r.Node("S2")
	if booked.Clickable || booked.Fill != FillBooked {
		t.Errorf("booked node should be grey and unclickable: %+v", booked)
	}
	if r.OnClick("S2") {
		t.Error("click on booked seat was applied")
	}

	if !r.OnClick("S4") {
		t.Fatal("click on available seat dropped")
	}
	if n, _ := r.Node("S4"); n.Fill != FillSelected {
		t.Errorf("selected seat fill %s, want %s", n.Fill, FillSelected)
	}
	if len(calls) != 1 || calls[0] != "S4" {
		t.Errorf("selection callback calls = %v", calls)
	}

	seat, _ := l.Seat("S4")
	if seat.SeatType != layout.SeatTypeVIP {
		t.Error("read-only click changed the seat category")
	}
	if r.OnDragMove("S4", 300, 300) {
		t.Error("drag applied in read-only mode")
	}
}

func TestRenderSVG(t *testing.T) {
	r, _ := mountDesigner(t)

	var buf bytes.Buffer
	if err := r.RenderSVG(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{"<svg", `id="seat-S1"`, `id="seat-S20"`, "<circle", FillVIP, FillRegular, "</svg>"} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q", want)
		}
	}

	square := New(layout.GenerateDefaultGrid("evt", testPricing()))
	if err := square.Mount(Size{}, ShapeSquare, ModeReadOnly); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if err := square.RenderSVG(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Booked") {
		t.Error("read-only legend missing booked entry")
	}
}

func TestRenderSVGEscapesSeatNumbers(t *testing.T) {
	l, err := layout.New("evt", []layout.Seat{
		{SeatNumber: `S"1<x>&`, SeatType: layout.SeatTypeRegular, X: 40, Y: 40},
	})
	if err != nil {
		t.Fatal(err)
	}
	r := New(l)
	if err := r.Mount(Size{}, ShapeCircle, ModeDesign); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := r.RenderSVG(&buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), `"1<x>`) {
		t.Fatal("seat number written unescaped")
	}

	var ids []string
	dec := xml.NewDecoder(&buf)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("svg is not well-formed: %v", err)
		}
		if el, ok := tok.(xml.StartElement); ok && el.Name.Local == "g" {
			for _, a := range el.Attr {
				if a.Name.Local == "id" {
					ids = append(ids, a.Value)
				}
			}
		}
	}
	if len(ids) != 1 || ids[0] != `seat-S"1<x>&` {
		t.Errorf("group ids = %q", ids)
	}
}
