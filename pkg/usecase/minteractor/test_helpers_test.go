// 指示: miu200521358
package minteractor

import (
	"testing"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/scene"
)

// newVrm0ArmRigForTest はVRM0.x配置の腕を持つリグを生成する。
// 180度回転後、左上腕は (0.15,1.4,0)、左手は (0.65,1.4,0) に来る。
func newVrm0ArmRigForTest(t *testing.T, omit ...humanoid.HumanBoneName) *humanoid.Rig {
	t.Helper()
	rig := humanoid.NewRig("test_rig")
	rig.Version = humanoid.VRM_VERSION_0

	newBone := func(name string, parent *scene.Node, x, y, z float64) *scene.Node {
		node := scene.NewNode(name)
		node.Position = mmath.NewVec3(x, y, z)
		parent.Add(node)
		return node
	}
	hips := newBone("J_Bip_C_Hips", rig.Scene, 0, 1.0, 0)
	chest := newBone("J_Bip_C_Chest", hips, 0, 0.4, 0)
	leftUpper := newBone("J_Bip_L_UpperArm", chest, -0.15, 0, 0)
	leftLower := newBone("J_Bip_L_LowerArm", leftUpper, -0.25, 0, 0)
	leftHand := newBone("J_Bip_L_Hand", leftLower, -0.25, 0, 0)
	rightUpper := newBone("J_Bip_R_UpperArm", chest, 0.15, 0, 0)
	rightLower := newBone("J_Bip_R_LowerArm", rightUpper, 0.25, 0, 0)
	rightHand := newBone("J_Bip_R_Hand", rightLower, 0.25, 0, 0)
	head := newBone("J_Bip_C_Head", chest, 0, 0.2, 0)

	bones := map[humanoid.HumanBoneName]*scene.Node{
		humanoid.Hips:          hips,
		humanoid.Chest:         chest,
		humanoid.LeftUpperArm:  leftUpper,
		humanoid.LeftLowerArm:  leftLower,
		humanoid.LeftHand:      leftHand,
		humanoid.RightUpperArm: rightUpper,
		humanoid.RightLowerArm: rightLower,
		humanoid.RightHand:     rightHand,
		humanoid.Head:          head,
	}
	for _, name := range omit {
		delete(bones, name)
	}
	for name, node := range bones {
		rig.SetRawBoneNode(name, node)
	}
	rig.RotateVRM0()
	rig.Update(0)
	return rig
}

// armBoneNamesForTest は両腕のボーン名を登録順に返す。
func armBoneNamesForTest() []humanoid.HumanBoneName {
	names := []humanoid.HumanBoneName{}
	for _, side := range humanoid.Sides() {
		upper, lower, hand := humanoid.ArmBones(side)
		names = append(names, upper, lower, hand)
	}
	return names
}

// mustRawBone はボーンを取得し、無ければテストを失敗させる。
func mustRawBone(t *testing.T, rig *humanoid.Rig, name humanoid.HumanBoneName) *scene.Node {
	t.Helper()
	node, ok := rig.RawBoneNode(name)
	if !ok {
		t.Fatalf("bone not found: %s", name)
	}
	return node
}
