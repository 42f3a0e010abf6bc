// 指示: miu200521358
package mmath

import "github.com/go-gl/mathgl/mgl64"

// Mat4 は列優先の4x4行列を表す。
type Mat4 mgl64.Mat4

// NewMat4 は単位行列を生成する。
func NewMat4() Mat4 {
	return Mat4(mgl64.Ident4())
}

// NewMat4FromTRS は移動・回転・スケールから T*R*S 行列を生成する。
func NewMat4FromTRS(translation Vec3, rotation Quaternion, scale Vec3) Mat4 {
	t := mgl64.Translate3D(translation.X, translation.Y, translation.Z)
	s := mgl64.Scale3D(scale.X, scale.Y, scale.Z)
	return Mat4(t.Mul4(rotation.q.Normalize().Mat4()).Mul4(s))
}

// Muled は m * other を返す。
func (m Mat4) Muled(other Mat4) Mat4 {
	return Mat4(mgl64.Mat4(m).Mul4(mgl64.Mat4(other)))
}

// Inverted は逆行列を返す。正則でない場合は零行列。
func (m Mat4) Inverted() Mat4 {
	return Mat4(mgl64.Mat4(m).Inv())
}

// MuledVec3 は点として変換した結果を返す。
func (m Mat4) MuledVec3(v Vec3) Vec3 {
	return Vec3FromMgl(mgl64.TransformCoordinate(v.Mgl(), mgl64.Mat4(m)))
}

// Translation は移動成分を返す。
func (m Mat4) Translation() Vec3 {
	return NewVec3(m[12], m[13], m[14])
}

// Quaternion はスケールを除いた回転成分を返す。
func (m Mat4) Quaternion() Quaternion {
	mm := mgl64.Mat4(m)
	x := mm.Col(0).Vec3().Normalize()
	y := mm.Col(1).Vec3().Normalize()
	z := mm.Col(2).Vec3().Normalize()
	rot := mgl64.Mat3FromCols(x, y, z)
	return Quaternion{q: mgl64.Mat4ToQuat(rot.Mat4()).Normalize()}
}

// Mgl はmathgl形式へ変換する。
func (m Mat4) Mgl() mgl64.Mat4 {
	return mgl64.Mat4(m)
}
