// 指示: miu200521358
// Package ik はFABRIKによる多関節IKを提供する。
// 各関節は +Z 軸を次の関節へ向ける前提で姿勢を書き込む。
package ik

import (
	"fmt"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/scene"
)

const (
	// DefaultIterations はFABRIK反復回数の上限。
	DefaultIterations = 100
	// DefaultTolerance は末端と目標の許容距離。
	DefaultTolerance = 0.01
)

// Joint はチェーン内の1関節を表す。
type Joint struct {
	Bone *scene.Node
}

// Chain は根元から末端までの関節列と目標を表す。
type Chain struct {
	Iterations int
	Tolerance  float64

	joints  []*Joint
	lengths []float64
	target  *scene.Node

	solved     bool
	lastTarget mmath.Vec3
}

// NewChain は既定設定の空チェーンを生成する。
func NewChain() *Chain {
	return &Chain{
		Iterations: DefaultIterations,
		Tolerance:  DefaultTolerance,
	}
}

// Add は関節を末尾へ追加する。直前関節との距離は追加時点のワールド座標で確定する。
func (c *Chain) Add(bone *scene.Node) error {
	if bone == nil {
		return fmt.Errorf("IK関節のボーンが未設定です")
	}
	if c.target != nil {
		return fmt.Errorf("末端設定後は関節を追加できません: %s", bone.Name)
	}
	if n := len(c.joints); n > 0 {
		prev := c.joints[n-1].Bone.WorldPosition()
		c.lengths = append(c.lengths, prev.Distance(bone.WorldPosition()))
	}
	c.joints = append(c.joints, &Joint{Bone: bone})
	c.solved = false
	return nil
}

// AddEffector は末端関節を追加し、目標ノードと結び付ける。
func (c *Chain) AddEffector(bone *scene.Node, target *scene.Node) error {
	if target == nil {
		return fmt.Errorf("IK目標が未設定です")
	}
	if err := c.Add(bone); err != nil {
		return err
	}
	if len(c.joints) < 2 {
		return fmt.Errorf("IKチェーンには2関節以上が必要です: %d", len(c.joints))
	}
	c.target = target
	return nil
}

// Joints は関節一覧を返す。
func (c *Chain) Joints() []*Joint {
	return c.joints
}

// Target は目標ノードを返す。
func (c *Chain) Target() *scene.Node {
	return c.target
}

// TotalLength はチェーン全長を返す。
func (c *Chain) TotalLength() float64 {
	total := 0.0
	for _, length := range c.lengths {
		total += length
	}
	return total
}

// Invalidate は次回 Solve で必ず再計算させる。
func (c *Chain) Invalidate() {
	c.solved = false
}

// Solve は目標へ向けて関節姿勢を解き、ボーンへ書き込む。
// 前回解いた目標から動いていない場合は何もせず false を返す。
func (c *Chain) Solve() bool {
	if c == nil || c.target == nil || len(c.joints) < 2 {
		return false
	}
	target := c.target.WorldPosition()
	if c.solved && target == c.lastTarget {
		return false
	}

	positions := make([]mmath.Vec3, len(c.joints))
	for i, joint := range c.joints {
		positions[i] = joint.Bone.WorldPosition()
	}

	if positions[0].Distance(target) > c.TotalLength() {
		c.stretchToward(positions, target)
	} else {
		c.iterate(positions, target)
	}

	c.applyPositions(positions)
	c.lastTarget = target
	c.solved = true
	return true
}

// stretchToward は届かない目標へ向けて関節を一直線に伸ばす。
func (c *Chain) stretchToward(positions []mmath.Vec3, target mmath.Vec3) {
	for i := 0; i < len(positions)-1; i++ {
		distance := positions[i].Distance(target)
		if distance == 0 {
			continue
		}
		positions[i+1] = positions[i].Lerp(target, c.lengths[i]/distance)
	}
}

// iterate は後退・前進パスを許容誤差または反復上限まで繰り返す。
func (c *Chain) iterate(positions []mmath.Vec3, target mmath.Vec3) {
	last := len(positions) - 1
	base := positions[0]
	difference := positions[last].Distance(target)
	for iteration := 0; difference > c.Tolerance && iteration < c.Iterations; iteration++ {
		positions[last] = target
		for i := last - 1; i >= 0; i-- {
			direction := positions[i].Subed(positions[i+1]).Normalized()
			positions[i] = positions[i+1].Added(direction.MuledScalar(c.lengths[i]))
		}

		positions[0] = base
		for i := 0; i < last; i++ {
			direction := positions[i+1].Subed(positions[i]).Normalized()
			positions[i+1] = positions[i].Added(direction.MuledScalar(c.lengths[i]))
		}
		difference = positions[last].Distance(target)
	}
}

// applyPositions は解いた座標から各関節の位置と向きをローカル値で書き込む。
// 末端関節は直前関節の向きを引き継ぐ。
func (c *Chain) applyPositions(positions []mmath.Vec3) {
	last := len(positions) - 1
	directions := make([]mmath.Vec3, len(positions))
	for i := 0; i < last; i++ {
		directions[i] = positions[i+1].Subed(positions[i]).Normalized()
	}
	directions[last] = directions[last-1]

	for i, joint := range c.joints {
		bone := joint.Bone
		parent := bone.Parent()
		if parent == nil {
			bone.Position = positions[i]
			bone.Rotation = mmath.NewQuaternionFromDirection(directions[i], mmath.UNIT_Y_VEC3)
		} else {
			parentWorld := parent.ComputeWorldMatrix()
			bone.Position = parentWorld.Inverted().MuledVec3(positions[i])
			localDirection := parentWorld.Quaternion().Inverted().Rotated(directions[i])
			bone.Rotation = mmath.NewQuaternionFromDirection(localDirection, mmath.UNIT_Y_VEC3)
		}
		bone.UpdateWorldMatrix()
	}
}
