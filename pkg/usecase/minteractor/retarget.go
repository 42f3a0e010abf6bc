// 指示: miu200521358
package minteractor

import (
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/scene"
)

// RetargetResult は実ボーンへ書き込むローカル姿勢を表す。
type RetargetResult struct {
	BoneName humanoid.HumanBoneName
	Real     *scene.Node
	Position mmath.Vec3
	Rotation mmath.Quaternion
}

// Retarget はダミーボーンのワールド姿勢を実ボーンの親空間へ変換し、補正回転を右から掛ける。
// 実ボーンは変更しない。同じ処理内で先に計算した親の結果は子の親行列に反映する。
func Retarget(mapping *BoneCorrectionMapping) []RetargetResult {
	entries := mapping.Entries()
	results := make([]RetargetResult, 0, len(entries))
	overrides := map[*scene.Node]mmath.Mat4{}

	for _, entry := range entries {
		if entry.Dummy == nil || entry.Real == nil {
			continue
		}
		entry.Dummy.UpdateWorldMatrix()
		dummyWorld := entry.Dummy.MatrixWorld()
		position := dummyWorld.Translation()
		rotation := dummyWorld.Quaternion()

		if parent := entry.Real.Parent(); parent != nil {
			parentWorld := worldMatrixWithOverrides(parent, overrides)
			position = parentWorld.Inverted().MuledVec3(position)
			rotation = parentWorld.Quaternion().Inverted().Muled(rotation)
		}
		rotation = rotation.Muled(entry.Correction).Normalized()

		overrides[entry.Real] = mmath.NewMat4FromTRS(position, rotation, entry.Real.Scale)
		results = append(results, RetargetResult{
			BoneName: entry.BoneName,
			Real:     entry.Real,
			Position: position,
			Rotation: rotation,
		})
	}
	return results
}

// ApplyRetarget は計算結果を実ボーンのローカル姿勢へ書き込む。
func ApplyRetarget(results []RetargetResult) {
	for _, result := range results {
		if result.Real == nil {
			continue
		}
		result.Real.Position = result.Position
		result.Real.Rotation = result.Rotation
	}
}

// worldMatrixWithOverrides は上書き済みローカル行列を優先してワールド行列を計算する。
func worldMatrixWithOverrides(node *scene.Node, overrides map[*scene.Node]mmath.Mat4) mmath.Mat4 {
	world := mmath.NewMat4()
	for current := node; current != nil; current = current.Parent() {
		local, ok := overrides[current]
		if !ok {
			local = current.LocalMatrix()
		}
		world = local.Muled(world)
	}
	return world
}
