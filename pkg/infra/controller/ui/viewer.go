// 指示: miu200521358
// Package ui はアバターを描画するウィンドウを提供する。
package ui

import (
	"context"
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/miu200521358/mu_vrm_ik/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_vrm_ik/pkg/usecase/minteractor"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/text/message"
)

const viewerTPS = 60

// Viewer はフレーム文脈を毎フレーム進めて描画する ebiten.Game 実装。
type Viewer struct {
	ctx     context.Context
	frame   *minteractor.FrameContext
	printer *message.Printer
	face    text.Face
	panel   *infoPanel
	width   int
	height  int
}

// NewViewer はビューアを生成する。
func NewViewer(ctx context.Context, frame *minteractor.FrameContext, printer *message.Printer, width, height int) *Viewer {
	face := text.NewGoXFace(basicfont.Face7x13)
	return &Viewer{
		ctx:     ctx,
		frame:   frame,
		printer: printer,
		face:    face,
		panel:   &infoPanel{printer: printer, face: face},
		width:   width,
		height:  height,
	}
}

// Update は入力を反映し、フレームを1つ進める。
func (v *Viewer) Update() error {
	v.applyActions(collectActions(ebiten.IsKeyPressed, inpututil.IsKeyJustPressed))
	if err := v.frame.Step(v.ctx, v.frame.Clock.Delta()); err != nil {
		if errors.Is(err, context.Canceled) {
			return ebiten.Termination
		}
		return err
	}
	return nil
}

// applyActions はキー操作をカメラ操作とリセットへ振り分ける。
func (v *Viewer) applyActions(actions []viewerAction) {
	controls := v.frame.Controls
	for _, action := range actions {
		switch action {
		case actionOrbitLeft:
			controls.Rotate(-orbitStepRadian, 0)
		case actionOrbitRight:
			controls.Rotate(orbitStepRadian, 0)
		case actionOrbitUp:
			controls.Rotate(0, -orbitStepRadian)
		case actionOrbitDown:
			controls.Rotate(0, orbitStepRadian)
		case actionZoomIn:
			controls.Zoom(zoomStepScale)
		case actionZoomOut:
			controls.Zoom(1 / zoomStepScale)
		case actionReset:
			logging.DefaultLogger().Info("%s", messages.Translate(v.printer, messages.LogResetRequested))
			if err := v.frame.Reset(v.ctx); err != nil {
				logging.DefaultLogger().Error("リセット失敗: %v", err)
			}
		}
	}
}

// Draw はシーンを描画する。
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	camera := v.frame.Camera

	drawSegments(screen, camera, gridSegments(gridSize, gridDivisions), lineWidth)
	drawSegments(screen, camera, skeletonSegments(v.frame.Rig), boneLineWidth)
	if v.frame.IK != nil {
		drawSegments(screen, camera, chainSegments(v.frame.IK), chainLineWidth)
		for _, chain := range v.frame.IK.Chains() {
			for _, joint := range chain.Joints() {
				drawPoint(screen, camera, joint.Bone.MatrixWorld().Translation(), jointRadius, colorChain)
			}
		}
	}
	drawSegments(screen, camera, axesSegments(axesLength), boneLineWidth)

	targets := v.frame.Targets
	if x, y, ok := drawPoint(screen, camera, targets.HandL.Position, markerRadius, colorHandL); ok {
		drawHandLabel(screen, v.face, messages.Translate(v.printer, messages.LabelHandL)+" "+model.FormatCoordinate(targets.HandL.Position), x, y)
	}
	if x, y, ok := drawPoint(screen, camera, targets.HandR.Position, markerRadius, colorHandR); ok {
		drawHandLabel(screen, v.face, messages.Translate(v.printer, messages.LabelHandR)+" "+model.FormatCoordinate(targets.HandR.Position), x, y)
	}
	drawPoint(screen, camera, targets.Head.Position, markerRadius, colorHead)

	v.panel.draw(screen, v.frame)
}

// Layout は論理画面サイズを返す。
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.width, v.height
}

// RunWindow はウィンドウを開き、閉じられるまでブロックする。
func RunWindow(viewer *Viewer) error {
	ebiten.SetWindowTitle(messages.Translate(viewer.printer, messages.WindowTitle))
	ebiten.SetWindowSize(viewer.width, viewer.height)
	ebiten.SetTPS(viewerTPS)
	if err := ebiten.RunGame(viewer); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
