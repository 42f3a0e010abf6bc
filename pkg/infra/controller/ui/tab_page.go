// 指示: miu200521358
package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/miu200521358/mu_vrm_ik/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
	"github.com/miu200521358/mu_vrm_ik/pkg/usecase/minteractor"
	"golang.org/x/text/message"
)

const (
	panelPadding    = 6
	panelLineHeight = 16
)

var panelBackground = color.RGBA{0, 0, 0, 0x80}

// infoPanel は画面左上の情報表示を表す。
type infoPanel struct {
	printer *message.Printer
	face    text.Face
}

// panelLines は表示する行を返す。
func (p *infoPanel) panelLines(frame *minteractor.FrameContext) []string {
	lines := []string{messages.Translate(p.printer, messages.LabelPoseInfo, frame.Pose.Info)}
	if frame.Rig != nil {
		lines = append(lines, messages.Translate(p.printer, messages.LabelModel, frame.Rig.Name))
	} else {
		lines = append(lines, messages.Translate(p.printer, messages.LabelModelAbsent))
	}
	lines = append(lines,
		messages.Translate(p.printer, messages.LabelHead)+": "+model.FormatCoordinate(frame.Pose.Head),
		messages.Translate(p.printer, messages.HelpControls),
	)
	return lines
}

// draw は情報パネルを描画する。
func (p *infoPanel) draw(screen *ebiten.Image, frame *minteractor.FrameContext) {
	lines := p.panelLines(frame)
	width := 0.0
	for _, line := range lines {
		w, _ := text.Measure(line, p.face, panelLineHeight)
		if w > width {
			width = w
		}
	}
	height := float32(len(lines)*panelLineHeight + panelPadding*2)
	vector.DrawFilledRect(screen, 4, 4, float32(width)+panelPadding*2, height, panelBackground, false)
	for i, line := range lines {
		drawLabel(screen, p.face, line, 4+panelPadding, float64(4+panelPadding+i*panelLineHeight), color.White)
	}
}

// drawLabel は指定位置へ文字列を描画する。
func drawLabel(screen *ebiten.Image, face text.Face, label string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, label, face, op)
}

// drawHandLabel はマーカー横に背景付きで座標を描画する。
func drawHandLabel(screen *ebiten.Image, face text.Face, label string, x, y float64) {
	w, _ := text.Measure(label, face, panelLineHeight)
	vector.DrawFilledRect(screen, float32(x+8), float32(y-2), float32(w)+8, panelLineHeight, panelBackground, false)
	drawLabel(screen, face, label, x+12, y, color.White)
}
