// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
)

// HeadAimPoint は頭の注視点を返す。
// 目標を頭位置について反転させ、Yは 2*頭Y - 目標Y とする。直立姿勢を前提とした近似。
func HeadAimPoint(headPosition, target mmath.Vec3) mmath.Vec3 {
	return mmath.NewVec3(
		headPosition.X-target.X,
		2*headPosition.Y-target.Y,
		headPosition.Z-target.Z,
	)
}

// AimHead は頭ボーンを注視点へ向ける。頭ボーンが無い場合は false を返す。
func AimHead(rig *humanoid.Rig, target mmath.Vec3) bool {
	head, ok := rig.RawBoneNode(humanoid.Head)
	if !ok {
		return false
	}
	head.LookAt(HeadAimPoint(head.WorldPosition(), target))
	return true
}
