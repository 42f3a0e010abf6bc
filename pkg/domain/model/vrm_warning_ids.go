// 指示: miu200521358
package model

const (
	// VrmWarningArmBoneMissing は腕の Humanoid ボーン未定義警告。該当側のIKは無効になる。
	VrmWarningArmBoneMissing = "VrmWarningArmBoneMissing"
	// VrmWarningHeadBoneMissing は head ボーン未定義警告。頭の向き補正は行わない。
	VrmWarningHeadBoneMissing = "VrmWarningHeadBoneMissing"
	// VrmWarningMultipleVersions はVRM0/1同時宣言警告。VRM1を優先する。
	VrmWarningMultipleVersions = "VrmWarningMultipleVersions"
	// VrmWarningHumanBoneIndexInvalid は腕と頭以外の humanBones の不正index警告。該当ボーンは除外する。
	VrmWarningHumanBoneIndexInvalid = "VrmWarningHumanBoneIndexInvalid"
)

// VrmWarningIDs は定義済み警告IDを返す。
func VrmWarningIDs() []string {
	return []string{
		VrmWarningArmBoneMissing,
		VrmWarningHeadBoneMissing,
		VrmWarningMultipleVersions,
		VrmWarningHumanBoneIndexInvalid,
	}
}
