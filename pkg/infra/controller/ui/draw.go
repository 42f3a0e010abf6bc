// 指示: miu200521358
package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/ik"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/scene"
)

const (
	gridSize       = 10.0
	gridDivisions  = 10
	axesLength     = 2.0
	markerRadius   = 6
	jointRadius    = 3
	lineWidth      = 1
	boneLineWidth  = 2
	chainLineWidth = 3
)

var (
	colorBackground = color.RGBA{0xaa, 0xaa, 0xaa, 0xff}
	colorGrid       = color.RGBA{0x88, 0x88, 0x88, 0xff}
	colorGridCenter = color.RGBA{0x44, 0x44, 0x44, 0xff}
	colorAxisX      = color.RGBA{0xff, 0x00, 0x00, 0xff}
	colorAxisY      = color.RGBA{0x00, 0xff, 0x00, 0xff}
	colorAxisZ      = color.RGBA{0x00, 0x00, 0xff, 0xff}
	colorBone       = color.RGBA{0x20, 0x20, 0x60, 0xff}
	colorChain      = color.RGBA{0xff, 0xa0, 0x00, 0xff}
	colorHandL      = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorHandR      = color.RGBA{0xff, 0x00, 0x00, 0xff}
	colorHead       = color.RGBA{0x00, 0xff, 0x00, 0xff}
)

// segment はワールド座標の線分を表す。
type segment struct {
	from  mmath.Vec3
	to    mmath.Vec3
	color color.Color
}

// gridSegments はXZ平面のグリッド線分を返す。
func gridSegments(size float64, divisions int) []segment {
	half := size / 2
	step := size / float64(divisions)
	segments := make([]segment, 0, (divisions+1)*2)
	for i := 0; i <= divisions; i++ {
		offset := -half + float64(i)*step
		clr := color.Color(colorGrid)
		if i*2 == divisions {
			clr = colorGridCenter
		}
		segments = append(segments,
			segment{from: mmath.NewVec3(offset, 0, -half), to: mmath.NewVec3(offset, 0, half), color: clr},
			segment{from: mmath.NewVec3(-half, 0, offset), to: mmath.NewVec3(half, 0, offset), color: clr},
		)
	}
	return segments
}

// axesSegments は原点からのXYZ軸線分を返す。
func axesSegments(length float64) []segment {
	return []segment{
		{from: mmath.ZERO_VEC3, to: mmath.UNIT_X_VEC3.MuledScalar(length), color: colorAxisX},
		{from: mmath.ZERO_VEC3, to: mmath.UNIT_Y_VEC3.MuledScalar(length), color: colorAxisY},
		{from: mmath.ZERO_VEC3, to: mmath.UNIT_Z_VEC3.MuledScalar(length), color: colorAxisZ},
	}
}

// skeletonSegments はリグの親子ボーン間の線分を返す。モデルルートからの線は含めない。
func skeletonSegments(rig *humanoid.Rig) []segment {
	if rig == nil || rig.Scene == nil {
		return nil
	}
	segments := []segment{}
	rig.Scene.Traverse(func(node *scene.Node) {
		if node == rig.Scene {
			return
		}
		from := node.MatrixWorld().Translation()
		for _, child := range node.Children() {
			segments = append(segments, segment{from: from, to: child.MatrixWorld().Translation(), color: colorBone})
		}
	})
	return segments
}

// chainSegments はダミーチェーンの関節間の線分を返す。
func chainSegments(solver *ik.IK) []segment {
	segments := []segment{}
	for _, chain := range solver.Chains() {
		joints := chain.Joints()
		for i := 0; i+1 < len(joints); i++ {
			segments = append(segments, segment{
				from:  joints[i].Bone.MatrixWorld().Translation(),
				to:    joints[i+1].Bone.MatrixWorld().Translation(),
				color: colorChain,
			})
		}
	}
	return segments
}

// drawSegments は線分を投影して描画する。カメラ背面にかかる線分は描かない。
func drawSegments(screen *ebiten.Image, camera *scene.Camera, segments []segment, width float32) {
	bounds := screen.Bounds()
	for _, s := range segments {
		x0, y0, ok0 := camera.Project(s.from, bounds.Dx(), bounds.Dy())
		x1, y1, ok1 := camera.Project(s.to, bounds.Dx(), bounds.Dy())
		if !ok0 || !ok1 {
			continue
		}
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), width, s.color, true)
	}
}

// drawPoint は投影位置に円を描画し、スクリーン座標を返す。
func drawPoint(screen *ebiten.Image, camera *scene.Camera, position mmath.Vec3, radius float32, clr color.Color) (float64, float64, bool) {
	bounds := screen.Bounds()
	x, y, ok := camera.Project(position, bounds.Dx(), bounds.Dy())
	if !ok {
		return 0, 0, false
	}
	vector.DrawFilledCircle(screen, float32(x), float32(y), radius, clr, true)
	return x, y, true
}
