// 指示: miu200521358
package minteractor

import (
	"math"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/scene"
)

// BoneCorrection はダミーボーンと実ボーンの対応と補正回転を表す。
type BoneCorrection struct {
	BoneName   humanoid.HumanBoneName
	Dummy      *scene.Node
	Real       *scene.Node
	Correction mmath.Quaternion
}

// SideCorrection は左右ごとの固定補正回転を返す。
// ダミーボーンと実ボーンの軸の取り方の差を吸収するため、Y軸90度(右は符号反転)とする。
func SideCorrection(side humanoid.Side) mmath.Quaternion {
	sign := 1.0
	if side == humanoid.Right {
		sign = -1.0
	}
	return mmath.NewQuaternionFromAxisAngle(mmath.NewVec3(0, sign, 0), math.Pi/2)
}

// BoneCorrectionMapping は補正対応を登録順に保持する。
// 親ボーンが子より先に並ぶ順序で登録する。
type BoneCorrectionMapping struct {
	entries []BoneCorrection
	byDummy map[*scene.Node]int
	byName  map[humanoid.HumanBoneName]int
}

// NewBoneCorrectionMapping は空の対応表を生成する。
func NewBoneCorrectionMapping() *BoneCorrectionMapping {
	return &BoneCorrectionMapping{
		byDummy: map[*scene.Node]int{},
		byName:  map[humanoid.HumanBoneName]int{},
	}
}

// Add は対応を追加する。同じボーン名は後勝ちで置き換える。
func (m *BoneCorrectionMapping) Add(corrections ...BoneCorrection) {
	for _, correction := range corrections {
		if index, ok := m.byName[correction.BoneName]; ok {
			delete(m.byDummy, m.entries[index].Dummy)
			m.entries[index] = correction
			m.byDummy[correction.Dummy] = index
			continue
		}
		m.entries = append(m.entries, correction)
		m.byName[correction.BoneName] = len(m.entries) - 1
		m.byDummy[correction.Dummy] = len(m.entries) - 1
	}
}

// Entries は登録順の対応一覧を返す。
func (m *BoneCorrectionMapping) Entries() []BoneCorrection {
	if m == nil {
		return nil
	}
	return m.entries
}

// Len は対応数を返す。
func (m *BoneCorrectionMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Get はボーン名に対応する補正を返す。
func (m *BoneCorrectionMapping) Get(name humanoid.HumanBoneName) (BoneCorrection, bool) {
	if m == nil {
		return BoneCorrection{}, false
	}
	index, ok := m.byName[name]
	if !ok {
		return BoneCorrection{}, false
	}
	return m.entries[index], true
}

// RealOf はダミーボーンに対応する実ボーンを返す。
func (m *BoneCorrectionMapping) RealOf(dummy *scene.Node) (*scene.Node, bool) {
	if m == nil {
		return nil, false
	}
	index, ok := m.byDummy[dummy]
	if !ok {
		return nil, false
	}
	return m.entries[index].Real, true
}
