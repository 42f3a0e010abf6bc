// 指示: miu200521358
package model

import (
	"fmt"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
)

// PoseRecord は頭・左手・右手の目標座標一式を表す。
// 受信後は変更せず、丸ごと差し替えて扱う。
type PoseRecord struct {
	Head  mmath.Vec3
	HandL mmath.Vec3
	HandR mmath.Vec3
	Info  string
}

// NewPoseRecord はPoseRecordを生成する。
func NewPoseRecord(head, handL, handR mmath.Vec3, info string) PoseRecord {
	return PoseRecord{Head: head, HandL: handL, HandR: handR, Info: info}
}

// InitialPoseRecord は受信前に使う初期ポーズを返す。
func InitialPoseRecord() PoseRecord {
	return NewPoseRecord(
		mmath.NewVec3(0, 1.7, -1),
		mmath.NewVec3(0.75, 1.4, 0),
		mmath.NewVec3(-0.75, 1.4, 0),
		"initial",
	)
}

// FormatCoordinate はラベル表示用に "x,y,z" 形式の文字列を返す。
func FormatCoordinate(v mmath.Vec3) string {
	return fmt.Sprintf("%g,%g,%g", v.X, v.Y, v.Z)
}
