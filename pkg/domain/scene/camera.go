// 指示: miu200521358
package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
)

const (
	defaultCameraFovDegree = 45.0
	defaultCameraNear      = 0.1
	defaultCameraFar       = 1000.0

	orbitMinDistance = 0.2
	orbitMaxDistance = 50.0
	orbitPolarMargin = 0.01
)

// Camera は透視投影カメラを表す。
type Camera struct {
	Position mmath.Vec3
	Target   mmath.Vec3
	Up       mmath.Vec3
	Fov      float64
	Aspect   float64
	Near     float64
	Far      float64
}

// NewCamera は既定画角のカメラを生成する。
func NewCamera(aspect float64) *Camera {
	return &Camera{
		Position: mmath.NewVec3(1, 2, 1.5),
		Target:   mmath.NewVec3(0, 1.2, 0),
		Up:       mmath.UNIT_Y_VEC3,
		Fov:      defaultCameraFovDegree,
		Aspect:   aspect,
		Near:     defaultCameraNear,
		Far:      defaultCameraFar,
	}
}

// ViewMatrix はビュー行列を返す。
func (c *Camera) ViewMatrix() mmath.Mat4 {
	return mmath.Mat4(mgl64.LookAtV(c.Position.Mgl(), c.Target.Mgl(), c.Up.Mgl()))
}

// ProjectionMatrix は投影行列を返す。
func (c *Camera) ProjectionMatrix() mmath.Mat4 {
	return mmath.Mat4(mgl64.Perspective(mgl64.DegToRad(c.Fov), c.Aspect, c.Near, c.Far))
}

// Project はワールド座標をスクリーン座標へ変換する。
// スクリーンは左上原点。カメラ背面の点は ok=false を返す。
func (c *Camera) Project(world mmath.Vec3, width, height int) (x, y float64, ok bool) {
	view := c.ViewMatrix().Mgl()
	eye := view.Mul4x1(world.Mgl().Vec4(1))
	if eye[2] >= -c.Near {
		return 0, 0, false
	}
	win := mgl64.Project(world.Mgl(), view, c.ProjectionMatrix().Mgl(), 0, 0, width, height)
	return win[0], float64(height) - win[1], true
}

// OrbitControls はターゲット周りを周回するカメラ操作を表す。
type OrbitControls struct {
	camera   *Camera
	azimuth  float64
	polar    float64
	distance float64

	pendingAzimuth  float64
	pendingPolar    float64
	pendingDistance float64
}

// NewOrbitControls は現在のカメラ位置から周回パラメータを初期化する。
func NewOrbitControls(camera *Camera) *OrbitControls {
	oc := &OrbitControls{camera: camera, pendingDistance: 1}
	offset := camera.Position.Subed(camera.Target)
	oc.distance = offset.Length()
	if oc.distance > 0 {
		oc.polar = math.Acos(clamp(offset.Y/oc.distance, -1, 1))
	}
	oc.azimuth = math.Atan2(offset.X, offset.Z)
	return oc
}

// Rotate は次回 Update で反映する回転量(ラジアン)を積む。
func (oc *OrbitControls) Rotate(deltaAzimuth, deltaPolar float64) {
	oc.pendingAzimuth += deltaAzimuth
	oc.pendingPolar += deltaPolar
}

// Zoom は次回 Update で反映する距離倍率を積む。
func (oc *OrbitControls) Zoom(scale float64) {
	if scale <= 0 {
		return
	}
	oc.pendingDistance *= scale
}

// Update は積まれた操作をカメラ位置へ反映する。
func (oc *OrbitControls) Update() {
	if oc == nil || oc.camera == nil {
		return
	}
	oc.azimuth += oc.pendingAzimuth
	oc.polar = clamp(oc.polar+oc.pendingPolar, orbitPolarMargin, math.Pi-orbitPolarMargin)
	oc.distance = clamp(oc.distance*oc.pendingDistance, orbitMinDistance, orbitMaxDistance)
	oc.pendingAzimuth = 0
	oc.pendingPolar = 0
	oc.pendingDistance = 1

	sinPolar := math.Sin(oc.polar)
	offset := mmath.NewVec3(
		oc.distance*sinPolar*math.Sin(oc.azimuth),
		oc.distance*math.Cos(oc.polar),
		oc.distance*sinPolar*math.Cos(oc.azimuth),
	)
	oc.camera.Position = oc.camera.Target.Added(offset)
}

// clamp はmin-maxで値をクランプする。
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
