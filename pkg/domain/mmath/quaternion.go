// 指示: miu200521358
package mmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quaternion は回転を表すクォータニオン。
type Quaternion struct {
	q mgl64.Quat
}

// NewQuaternion は単位クォータニオンを生成する。
func NewQuaternion() Quaternion {
	return Quaternion{q: mgl64.QuatIdent()}
}

// NewQuaternionByValues はXYZW指定でクォータニオンを生成する。
func NewQuaternionByValues(x, y, z, w float64) Quaternion {
	return Quaternion{q: mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}}}
}

// NewQuaternionFromAxisAngle は軸と角度(ラジアン)からクォータニオンを生成する。
func NewQuaternionFromAxisAngle(axis Vec3, angle float64) Quaternion {
	return Quaternion{q: mgl64.QuatRotate(angle, axis.Normalized().Mgl())}
}

// NewQuaternionFromDirection は +Z 軸が direction を向くクォータニオンを生成する。
// up と direction が平行な場合は direction をわずかにずらして基底を作る。
func NewQuaternionFromDirection(direction Vec3, up Vec3) Quaternion {
	z := direction.Normalized()
	if z.LengthSqr() == 0 {
		return NewQuaternion()
	}
	x := up.Cross(z)
	if x.LengthSqr() == 0 {
		if math.Abs(up.Z) == 1 {
			z.X += 0.0001
		} else {
			z.Z += 0.0001
		}
		z = z.Normalized()
		x = up.Cross(z)
	}
	x = x.Normalized()
	y := z.Cross(x)

	m := mgl64.Mat3FromCols(x.Mgl(), y.Mgl(), z.Mgl())
	return Quaternion{q: mgl64.Mat4ToQuat(m.Mat4()).Normalize()}
}

// X はX成分を返す。
func (q Quaternion) X() float64 { return q.q.V[0] }

// Y はY成分を返す。
func (q Quaternion) Y() float64 { return q.q.V[1] }

// Z はZ成分を返す。
func (q Quaternion) Z() float64 { return q.q.V[2] }

// W はW成分を返す。
func (q Quaternion) W() float64 { return q.q.W }

// Muled は q * other を返す。other の回転を先に適用する。
func (q Quaternion) Muled(other Quaternion) Quaternion {
	return Quaternion{q: q.q.Mul(other.q)}
}

// Inverted は逆回転を返す。
func (q Quaternion) Inverted() Quaternion {
	return Quaternion{q: q.q.Inverse()}
}

// Normalized は正規化したクォータニオンを返す。
func (q Quaternion) Normalized() Quaternion {
	return Quaternion{q: q.q.Normalize()}
}

// Rotated はベクトルを回転させた結果を返す。
func (q Quaternion) Rotated(v Vec3) Vec3 {
	return Vec3FromMgl(q.q.Rotate(v.Mgl()))
}

// Dot は内積を返す。
func (q Quaternion) Dot(other Quaternion) float64 {
	return q.q.Dot(other.q)
}

// ToMat4 は回転行列を返す。
func (q Quaternion) ToMat4() Mat4 {
	return Mat4(q.q.Normalize().Mat4())
}

// NearEquals は同じ回転を表すか判定する。q と -q は同一回転として扱う。
func (q Quaternion) NearEquals(other Quaternion, epsilon float64) bool {
	return 1-math.Abs(q.Normalized().Dot(other.Normalized())) <= epsilon
}

// Equals は成分が完全一致するか判定する。
func (q Quaternion) Equals(other Quaternion) bool {
	return q.q.W == other.q.W && q.q.V == other.q.V
}

// String は表示用文字列を返す。
func (q Quaternion) String() string {
	return fmt.Sprintf("[x=%.5f, y=%.5f, z=%.5f, w=%.5f]", q.X(), q.Y(), q.Z(), q.W())
}

// Mgl はmathgl形式へ変換する。
func (q Quaternion) Mgl() mgl64.Quat {
	return q.q
}
