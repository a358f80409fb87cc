package canvas

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
)

const legendHeight = 40

// RenderSVG draws the mounted scene: one group per seat carrying the seat
// number as its id, followed by a legend strip.
func (r *Renderer) RenderSVG(w io.Writer) error {
	if r.surface == nil {
		return ErrNotMounted
	}

	width, height := r.surface.Width, r.surface.Height+legendHeight
	doc := svg.New(w)
	doc.Start(width, height)
	doc.Rect(0, 0, width, height, "fill:#FFFFFF")

	for _, n := range r.Nodes() {
		doc.Gid("seat-" + n.SeatNumber)
		style := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", n.Fill, strokeColor)
		if !n.Clickable {
			style += ";opacity:0.6"
		}
		if n.Dragging {
			style += ";stroke-dasharray:4,2"
		}
		switch n.Shape {
		case ShapeSquare:
			doc.Rect(n.X-SeatRadius, n.Y-SeatRadius, 2*SeatRadius, 2*SeatRadius, style)
		default:
			doc.Circle(n.X, n.Y, SeatRadius, style)
		}
		doc.Text(n.X, n.Y+4, n.Label, "font-size:10px;font-family:sans-serif;text-anchor:middle;fill:#000000")
		doc.Gend()
	}

	r.renderLegend(doc, r.surface.Height)
	doc.End()
	return nil
}

type legendEntry struct {
	label string
	fill  string
}

func (r *Renderer) renderLegend(doc *svg.SVG, top int) {
	entries := []legendEntry{
		{"VIP", FillVIP},
		{"Regular", FillRegular},
	}
	if r.mode == ModeReadOnly {
		entries = append(entries, legendEntry{"Selected", FillSelected}, legendEntry{"Booked", FillBooked})
	}

	x := surfaceMargin
	y := top + legendHeight/2
	for _, e := range entries {
		doc.Circle(x, y, 8, fmt.Sprintf("fill:%s;stroke:%s", e.fill, strokeColor))
		doc.Text(x+14, y+4, e.label, "font-size:12px;font-family:sans-serif;fill:#000000")
		x += 110
	}
}
