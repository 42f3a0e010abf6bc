// 指示: miu200521358
package minteractor

import (
	"fmt"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/ik"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/scene"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/merr"
)

// dummyChainRootName はダミーチェーン根元ノード名を返す。
func dummyChainRootName(side humanoid.Side) string {
	return "dummyArmRoot" + string(side)
}

// BuildDummyChain は片腕分のダミーチェーンを生成し、補正対応を返す。
// 根元は生成時点の実上腕のワールド位置に固定し、以後は追従しない。
func BuildDummyChain(
	root *scene.Node,
	rig *humanoid.Rig,
	target *scene.Node,
	side humanoid.Side,
) (*ik.Chain, []BoneCorrection, error) {
	if root == nil || rig == nil || target == nil {
		return nil, nil, fmt.Errorf("ダミーチェーン生成の入力が不足しています")
	}

	upperName, lowerName, handName := humanoid.ArmBones(side)
	upper, err := requireRawBoneNode(rig, upperName)
	if err != nil {
		return nil, nil, err
	}
	lower, err := requireRawBoneNode(rig, lowerName)
	if err != nil {
		return nil, nil, err
	}
	hand, err := requireRawBoneNode(rig, handName)
	if err != nil {
		return nil, nil, err
	}

	chainRoot := scene.NewNode(dummyChainRootName(side))
	chainRoot.Position = upper.WorldPosition()

	dummyUpper := scene.NewNode(humanoid.DummyBoneName(upperName, side))
	dummyLower := scene.NewNode(humanoid.DummyBoneName(lowerName, side))
	dummyHand := scene.NewNode(humanoid.DummyBoneName(handName, side))
	chainRoot.Add(dummyUpper)
	dummyUpper.Add(dummyLower)
	dummyLower.Add(dummyHand)
	dummyLower.Position = lower.Position
	dummyHand.Position = hand.Position

	root.Add(chainRoot)
	chainRoot.UpdateMatrixWorld()

	chain := ik.NewChain()
	if err := chain.Add(dummyUpper); err != nil {
		root.Remove(chainRoot)
		return nil, nil, err
	}
	if err := chain.Add(dummyLower); err != nil {
		root.Remove(chainRoot)
		return nil, nil, err
	}
	if err := chain.AddEffector(dummyHand, target); err != nil {
		root.Remove(chainRoot)
		return nil, nil, err
	}

	correction := SideCorrection(side)
	corrections := []BoneCorrection{
		{BoneName: upperName, Dummy: dummyUpper, Real: upper, Correction: correction},
		{BoneName: lowerName, Dummy: dummyLower, Real: lower, Correction: correction},
		{BoneName: handName, Dummy: dummyHand, Real: hand, Correction: correction},
	}
	logAvatarDebug("ダミーチェーン生成: side=%s root=%s length=%.4f", side, chainRoot.Position, chain.TotalLength())
	return chain, corrections, nil
}

// requireRawBoneNode は Humanoid ボーンを取得し、無ければ 21101 エラーを返す。
func requireRawBoneNode(rig *humanoid.Rig, name humanoid.HumanBoneName) (*scene.Node, error) {
	node, ok := rig.RawBoneNode(name)
	if !ok {
		return nil, merr.NewMError(merr.HumanoidBoneMissingErrorID, "Humanoidボーンが見つかりません: %s", nil, name)
	}
	return node, nil
}
