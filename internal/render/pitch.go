// Package render draws pitch frames from tick snapshots. Used for replay
// thumbnails and the stream preview; never touched by the simulation loop.
package render

import (
	"image"

	"github.com/fogleman/gg"

	"matchday/internal/match"
	"matchday/internal/match/geom"
)

// Scale is pixels per metre.
const Scale = 8.0

// Margin is the border around the pitch in pixels.
const Margin = 20.0

// FrameWidth and FrameHeight are the output dimensions.
var (
	FrameWidth  = int(geom.FieldLengthM*Scale + 2*Margin)
	FrameHeight = int(geom.FieldWidthM*Scale + 2*Margin)
)

// Frame renders one snapshot to an image.
func Frame(snap *match.TickSnapshot) image.Image {
	dc := gg.NewContext(FrameWidth, FrameHeight)

	// Turf.
	dc.SetHexColor("#2d7d3a")
	dc.Clear()

	drawMarkings(dc)
	drawPlayers(dc, snap)
	drawBall(dc, snap)

	return dc.Image()
}

// SavePNG renders a snapshot straight to disk.
func SavePNG(path string, snap *match.TickSnapshot) error {
	dc := gg.NewContextForImage(Frame(snap))
	return dc.SavePNG(path)
}

func px(xM, yM float64) (float64, float64) {
	return Margin + xM*Scale, Margin + yM*Scale
}

func drawMarkings(dc *gg.Context) {
	dc.SetHexColor("#e8f0e8")
	dc.SetLineWidth(2)

	// Outline.
	x0, y0 := px(0, 0)
	x1, y1 := px(geom.FieldLengthM, geom.FieldWidthM)
	dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
	dc.Stroke()

	// Halfway line and centre circle.
	hx, _ := px(geom.FieldLengthM/2, 0)
	dc.DrawLine(hx, y0, hx, y1)
	dc.Stroke()
	cx, cy := px(geom.FieldLengthM/2, geom.FieldWidthM/2)
	dc.DrawCircle(cx, cy, geom.CentreCircleM*Scale)
	dc.Stroke()

	// Penalty areas.
	boxY := (geom.FieldWidthM - geom.PenaltyWidthM) / 2
	for _, left := range []bool{true, false} {
		bx := 0.0
		if !left {
			bx = geom.FieldLengthM - geom.PenaltyDepthM
		}
		rx, ry := px(bx, boxY)
		dc.DrawRectangle(rx, ry, geom.PenaltyDepthM*Scale, geom.PenaltyWidthM*Scale)
		dc.Stroke()
	}

	// Goals.
	gy := (geom.FieldWidthM - geom.GoalWidthM) / 2
	for _, left := range []bool{true, false} {
		gx := -1.0
		if !left {
			gx = geom.FieldLengthM
		}
		rx, ry := px(gx, gy)
		dc.DrawRectangle(rx, ry, Scale, geom.GoalWidthM*Scale)
		dc.Stroke()
	}
}

func drawPlayers(dc *gg.Context, snap *match.TickSnapshot) {
	for i := range snap.Players {
		p := &snap.Players[i]
		if p.SentOff {
			continue
		}
		if match.PlayerID(i).Side() == match.Home {
			dc.SetHexColor("#d64545")
		} else {
			dc.SetHexColor("#4573d6")
		}
		x, y := px(p.Pos.MetresX(), p.Pos.MetresY())
		dc.DrawCircle(x, y, 6)
		dc.Fill()
		if p.HasBall {
			dc.SetHexColor("#ffffff")
			dc.DrawCircle(x, y, 8)
			dc.Stroke()
		}
	}
}

func drawBall(dc *gg.Context, snap *match.TickSnapshot) {
	x, y := px(snap.Ball.Pos.MetresX(), snap.Ball.Pos.MetresY())
	// Height reads as a slightly larger shadow-less ball.
	r := 3.5 + float64(snap.Ball.HeightU)*geom.Unit*0.4
	dc.SetHexColor("#f5f5f5")
	dc.DrawCircle(x, y, r)
	dc.Fill()
	dc.SetHexColor("#222222")
	dc.DrawCircle(x, y, r)
	dc.Stroke()
}
