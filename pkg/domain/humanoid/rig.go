// 指示: miu200521358
// Package humanoid はVRM Humanoid 定義を持つリグを表す。
package humanoid

import (
	"math"
	"sort"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/scene"
)

// VrmVersion はVRM仕様バージョンを表す。
type VrmVersion string

const (
	// VRM_VERSION_0 はVRM0.x。
	VRM_VERSION_0 VrmVersion = "0.0"
	// VRM_VERSION_1 はVRM1.0。
	VRM_VERSION_1 VrmVersion = "1.0"
)

// BoneTransform はボーンのローカル姿勢を表す。
type BoneTransform struct {
	Position mmath.Vec3
	Rotation mmath.Quaternion
	Scale    mmath.Vec3
}

// Rig は読み込み済みのヒューマノイドモデルを表す。
type Rig struct {
	Name    string
	Path    string
	Version VrmVersion
	Scene   *scene.Node

	bones    map[HumanBoneName]*scene.Node
	elapsed  float64
	warnings []string
}

// NewRig はモデルルートを持つ空のリグを生成する。
func NewRig(name string) *Rig {
	return &Rig{
		Name:  name,
		Scene: scene.NewNode(name),
		bones: map[HumanBoneName]*scene.Node{},
	}
}

// RawBoneNode は Humanoid ボーン名に対応するノードを返す。
func (r *Rig) RawBoneNode(name HumanBoneName) (*scene.Node, bool) {
	if r == nil || r.bones == nil {
		return nil, false
	}
	node, ok := r.bones[name]
	return node, ok && node != nil
}

// SetRawBoneNode は Humanoid ボーン名とノードを対応付ける。
func (r *Rig) SetRawBoneNode(name HumanBoneName, node *scene.Node) {
	if r == nil || node == nil {
		return
	}
	if r.bones == nil {
		r.bones = map[HumanBoneName]*scene.Node{}
	}
	r.bones[name] = node
}

// HumanBoneNames は登録済み Humanoid ボーン名を名前順で返す。
func (r *Rig) HumanBoneNames() []HumanBoneName {
	if r == nil {
		return nil
	}
	names := make([]HumanBoneName, 0, len(r.bones))
	for name := range r.bones {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// AddWarning は読込時の警告IDを記録する。同じIDは一度だけ保持する。
func (r *Rig) AddWarning(id string) {
	if r == nil || id == "" {
		return
	}
	for _, existing := range r.warnings {
		if existing == id {
			return
		}
	}
	r.warnings = append(r.warnings, id)
}

// Warnings は記録済み警告IDを記録順で返す。
func (r *Rig) Warnings() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.warnings...)
}

// Update はリグの時計を進め、ワールド行列を更新する。
func (r *Rig) Update(delta float64) {
	if r == nil || r.Scene == nil {
		return
	}
	if delta > 0 {
		r.elapsed += delta
	}
	r.Scene.UpdateMatrixWorld()
}

// Elapsed は Update で積算した経過秒を返す。
func (r *Rig) Elapsed() float64 {
	if r == nil {
		return 0
	}
	return r.elapsed
}

// RotateVRM0 はVRM0.xモデルをY軸180度回転させ、VRM1.0と同じ +Z 正面にそろえる。
func (r *Rig) RotateVRM0() {
	if r == nil || r.Scene == nil || r.Version != VRM_VERSION_0 {
		return
	}
	r.Scene.Rotation = mmath.NewQuaternionFromAxisAngle(mmath.UNIT_Y_VEC3, math.Pi).Muled(r.Scene.Rotation)
	r.Scene.UpdateMatrixWorld()
}

// CaptureRestPose は Humanoid ボーンのローカル姿勢を退避する。
func (r *Rig) CaptureRestPose() map[HumanBoneName]BoneTransform {
	pose := map[HumanBoneName]BoneTransform{}
	if r == nil {
		return pose
	}
	for name, node := range r.bones {
		if node == nil {
			continue
		}
		pose[name] = BoneTransform{Position: node.Position, Rotation: node.Rotation, Scale: node.Scale}
	}
	return pose
}

// RestorePose は退避したローカル姿勢を書き戻す。
func (r *Rig) RestorePose(pose map[HumanBoneName]BoneTransform) {
	if r == nil {
		return
	}
	for name, transform := range pose {
		node, ok := r.RawBoneNode(name)
		if !ok {
			continue
		}
		node.Position = transform.Position
		node.Rotation = transform.Rotation
		node.Scale = transform.Scale
	}
	if r.Scene != nil {
		r.Scene.UpdateMatrixWorld()
	}
}
