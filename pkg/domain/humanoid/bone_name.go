// 指示: miu200521358
package humanoid

import "strings"

// HumanBoneName はVRM Humanoid のボーン名を表す。
type HumanBoneName string

// VRM Humanoid ボーン名一覧(使用するもののみ)。
const (
	Hips          HumanBoneName = "hips"
	Spine         HumanBoneName = "spine"
	Chest         HumanBoneName = "chest"
	UpperChest    HumanBoneName = "upperChest"
	Neck          HumanBoneName = "neck"
	Head          HumanBoneName = "head"
	LeftShoulder  HumanBoneName = "leftShoulder"
	LeftUpperArm  HumanBoneName = "leftUpperArm"
	LeftLowerArm  HumanBoneName = "leftLowerArm"
	LeftHand      HumanBoneName = "leftHand"
	RightShoulder HumanBoneName = "rightShoulder"
	RightUpperArm HumanBoneName = "rightUpperArm"
	RightLowerArm HumanBoneName = "rightLowerArm"
	RightHand     HumanBoneName = "rightHand"
	LeftUpperLeg  HumanBoneName = "leftUpperLeg"
	LeftLowerLeg  HumanBoneName = "leftLowerLeg"
	LeftFoot      HumanBoneName = "leftFoot"
	RightUpperLeg HumanBoneName = "rightUpperLeg"
	RightLowerLeg HumanBoneName = "rightLowerLeg"
	RightFoot     HumanBoneName = "rightFoot"
)

// knownHumanBoneNames は小文字キーから正規ボーン名を引く表。
var knownHumanBoneNames = func() map[string]HumanBoneName {
	out := map[string]HumanBoneName{}
	for _, name := range []HumanBoneName{
		Hips, Spine, Chest, UpperChest, Neck, Head,
		LeftShoulder, LeftUpperArm, LeftLowerArm, LeftHand,
		RightShoulder, RightUpperArm, RightLowerArm, RightHand,
		LeftUpperLeg, LeftLowerLeg, LeftFoot,
		RightUpperLeg, RightLowerLeg, RightFoot,
	} {
		out[strings.ToLower(string(name))] = name
	}
	return out
}()

// NormalizeHumanBoneName は大文字小文字・前後空白を吸収して正規名へ変換する。
// 未知の名前はトリムした値をそのまま返す。
func NormalizeHumanBoneName(raw string) HumanBoneName {
	trimmed := strings.TrimSpace(raw)
	if name, ok := knownHumanBoneNames[strings.ToLower(trimmed)]; ok {
		return name
	}
	return HumanBoneName(trimmed)
}

// Side は左右を表す。
type Side string

const (
	// Left は左側。
	Left Side = "L"
	// Right は右側。
	Right Side = "R"
)

// Sides は左右の一覧を返す。
func Sides() []Side {
	return []Side{Left, Right}
}

// ArmBones は指定側の上腕・前腕・手のボーン名を返す。
func ArmBones(side Side) (upper, lower, hand HumanBoneName) {
	if side == Right {
		return RightUpperArm, RightLowerArm, RightHand
	}
	return LeftUpperArm, LeftLowerArm, LeftHand
}

// DummyBoneName はダミーチェーン用のボーン名を返す。
// 例: leftUpperArm → dummyLeftUpperArm
func DummyBoneName(name HumanBoneName, side Side) string {
	prefix := strings.ToLower(string(side))
	raw := string(name)
	if !strings.HasPrefix(strings.ToLower(raw), prefix) {
		return "dummy" + string(side) + raw
	}
	return strings.Replace(raw, raw[:1], "dummy"+string(side), 1)
}
