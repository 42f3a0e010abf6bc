// 指示: miu200521358
package vrm

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/miu200521358/mu_vrm_ik/pkg/adapter/io_common"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/scene"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/logging"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	glbHeaderLength   = 12
	glbChunkHeadSize  = 8
	glbMagic          = 0x46546C67
	glbJSONChunkType  = 0x4E4F534A
	glbMinValidLength = glbHeaderLength + glbChunkHeadSize
)

// LoadProgressEventType はVRM読込進捗イベント種別を表す。
type LoadProgressEventType string

const (
	// LoadProgressEventTypeFileReadComplete はファイル読込完了イベントを表す。
	LoadProgressEventTypeFileReadComplete LoadProgressEventType = "file_read_complete"
	// LoadProgressEventTypeJsonParsed はJSON解析完了イベントを表す。
	LoadProgressEventTypeJsonParsed LoadProgressEventType = "json_parsed"
	// LoadProgressEventTypeCompleted はVRM読込完了イベントを表す。
	LoadProgressEventTypeCompleted LoadProgressEventType = "completed"
)

// LoadProgressEvent はVRM読込進捗イベントを表す。
type LoadProgressEvent struct {
	Type           LoadProgressEventType
	FileSizeBytes  int
	NodeCount      int
	HumanBoneCount int
}

// VrmRepository はVRMからリグを読み込む。
type VrmRepository struct {
	loadProgressReporter func(LoadProgressEvent)
}

// NewVrmRepository はVrmRepositoryを生成する。
func NewVrmRepository() *VrmRepository {
	return &VrmRepository{}
}

// SetLoadProgressReporter はVRM読込進捗受信コールバックを設定する。
func (r *VrmRepository) SetLoadProgressReporter(reporter func(LoadProgressEvent)) {
	if r == nil {
		return
	}
	r.loadProgressReporter = reporter
}

// CanLoad は拡張子に応じて読み込み可否を判定する。
func (r *VrmRepository) CanLoad(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".vrm")
}

// InferName はパスから表示名を推定する。
func (r *VrmRepository) InferName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

// Load はVRMを読み込み、Humanoid 定義付きのリグを返す。
func (r *VrmRepository) Load(path string) (*humanoid.Rig, error) {
	if !r.CanLoad(path) {
		return nil, io_common.NewIoExtInvalid(path, nil)
	}
	loadTargetName := filepath.Base(path)
	logVrmInfo("VRM読込開始: file=%s", loadTargetName)

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, io_common.NewIoFileNotFound(path, err)
		}
		return nil, io_common.NewIoParseFailed("VRMファイルの読み取りに失敗しました", err)
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeFileReadComplete,
		FileSizeBytes: len(b),
	})

	jsonChunk, err := parseGLBJSONChunk(b)
	if err != nil {
		return nil, err
	}

	doc := gltfDocument{}
	if err := json.Unmarshal(jsonChunk, &doc); err != nil {
		return nil, io_common.NewIoParseFailed("VRM JSONチャンクの解析に失敗しました", err)
	}
	r.reportLoadProgress(LoadProgressEvent{
		Type:          LoadProgressEventTypeJsonParsed,
		FileSizeBytes: len(b),
		NodeCount:     len(doc.Nodes),
	})
	logVrmDebug("VRM読込ステップ: JSON解析完了 nodes=%d", len(doc.Nodes))

	version := detectVrmVersion(&doc)
	if version == "" {
		return nil, io_common.NewIoFormatNotSupported("VRM拡張が見つかりません", nil)
	}

	parentIndexes, err := buildNodeParentIndexes(doc.Nodes)
	if err != nil {
		return nil, err
	}
	if err := validateNodeHierarchy(parentIndexes); err != nil {
		return nil, err
	}

	humanBones, skippedBones, err := parseHumanBones(&doc, version)
	if err != nil {
		return nil, err
	}
	sceneRoots, err := resolveSceneRoots(&doc, parentIndexes)
	if err != nil {
		return nil, err
	}

	rig, err := buildRig(r.InferName(path), &doc, parentIndexes, sceneRoots, humanBones)
	if err != nil {
		return nil, err
	}
	rig.Path = path
	rig.Version = version
	if len(skippedBones) > 0 {
		rig.AddWarning(model.VrmWarningHumanBoneIndexInvalid)
	}
	if hasVrm1, hasVrm0 := declaredVrmVersions(&doc); hasVrm1 && hasVrm0 {
		logVrmWarn("VRM0/VRM1 が同時に宣言されています。VRM1として読み込みます: file=%s", loadTargetName)
		rig.AddWarning(model.VrmWarningMultipleVersions)
	}
	rig.RotateVRM0()
	rig.Update(0)

	r.reportLoadProgress(LoadProgressEvent{
		Type:           LoadProgressEventTypeCompleted,
		FileSizeBytes:  len(b),
		NodeCount:      len(doc.Nodes),
		HumanBoneCount: len(humanBones),
	})
	logVrmInfo(
		"VRM読込完了: file=%s version=%s nodes=%d humanBones=%d",
		loadTargetName,
		version,
		len(doc.Nodes),
		len(humanBones),
	)
	return rig, nil
}

// reportLoadProgress は読込進捗イベントを通知する。
func (r *VrmRepository) reportLoadProgress(event LoadProgressEvent) {
	if r == nil || r.loadProgressReporter == nil {
		return
	}
	r.loadProgressReporter(event)
}

// logVrmInfo はVRM読込のINFOログを出力する。
func logVrmInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logVrmDebug はVRM読込のデバッグログを出力する。
func logVrmDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

// logVrmWarn はVRM読込の警告ログを出力する。
func logVrmWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}

// gltfDocument はリグ構築に必要なglTFトップレベル要素を表す。
type gltfDocument struct {
	Asset          gltfAsset                  `json:"asset"`
	ExtensionsUsed []string                   `json:"extensionsUsed"`
	Nodes          []gltfNode                 `json:"nodes"`
	Scenes         []gltfScene                `json:"scenes"`
	Scene          *int                       `json:"scene"`
	Extensions     map[string]json.RawMessage `json:"extensions"`
}

// gltfAsset はglTF asset要素を表す。
type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

// gltfNode はglTF node要素を表す。
type gltfNode struct {
	Name        string    `json:"name"`
	Children    []int     `json:"children"`
	Matrix      []float64 `json:"matrix"`
	Translation []float64 `json:"translation"`
	Rotation    []float64 `json:"rotation"`
	Scale       []float64 `json:"scale"`
}

// gltfScene はglTF scene要素を表す。
type gltfScene struct {
	Name  string `json:"name"`
	Nodes []int  `json:"nodes"`
}

// vrm0Extension はVRM0拡張の必要要素を表す。
type vrm0Extension struct {
	ExporterVersion string       `json:"exporterVersion"`
	Humanoid        vrm0Humanoid `json:"humanoid"`
}

// vrm0Humanoid はVRM0 humanoid要素を表す。
type vrm0Humanoid struct {
	HumanBones []vrm0HumanBone `json:"humanBones"`
}

// vrm0HumanBone はVRM0 humanBones要素を表す。
type vrm0HumanBone struct {
	Bone string `json:"bone"`
	Node int    `json:"node"`
}

// vrm1Extension はVRM1拡張の必要要素を表す。
type vrm1Extension struct {
	SpecVersion string       `json:"specVersion"`
	Humanoid    vrm1Humanoid `json:"humanoid"`
}

// vrm1Humanoid はVRM1 humanoid要素を表す。
type vrm1Humanoid struct {
	HumanBones map[string]vrm1HumanBone `json:"humanBones"`
}

// vrm1HumanBone はVRM1 humanBones要素を表す。
type vrm1HumanBone struct {
	Node *int `json:"node"`
}

// parseGLBJSONChunk はGLBバイナリからJSONチャンクを取り出す。
func parseGLBJSONChunk(b []byte) ([]byte, error) {
	if len(b) < glbMinValidLength {
		return nil, io_common.NewIoParseFailed("VRMヘッダが不足しています", nil)
	}
	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != glbMagic {
		return nil, io_common.NewIoParseFailed("GLBマジックが不正です", nil)
	}
	version := binary.LittleEndian.Uint32(b[4:8])
	if version != 2 {
		return nil, io_common.NewIoFormatNotSupported("GLBバージョンが未対応です: %d", nil, version)
	}
	totalLength := binary.LittleEndian.Uint32(b[8:12])
	if totalLength > uint32(len(b)) {
		return nil, io_common.NewIoParseFailed("GLB全体長が不正です", nil)
	}

	offset := glbHeaderLength
	for offset+glbChunkHeadSize <= len(b) {
		chunkLength := int(binary.LittleEndian.Uint32(b[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(b[offset+4 : offset+8])
		chunkStart := offset + glbChunkHeadSize
		chunkEnd := chunkStart + chunkLength
		if chunkLength < 0 || chunkEnd > len(b) {
			return nil, io_common.NewIoParseFailed("GLBチャンク長が不正です", nil)
		}
		if chunkType == glbJSONChunkType {
			return b[chunkStart:chunkEnd], nil
		}
		offset = chunkEnd
	}
	return nil, io_common.NewIoParseFailed("GLB JSONチャンクが見つかりません", nil)
}

// buildNodeParentIndexes はnode配列から親インデックス配列を生成する。
func buildNodeParentIndexes(nodes []gltfNode) ([]int, error) {
	parentIndexes := make([]int, len(nodes))
	for i := range parentIndexes {
		parentIndexes[i] = -1
	}
	for parentIndex, node := range nodes {
		for _, childIndex := range node.Children {
			if childIndex < 0 || childIndex >= len(nodes) {
				return nil, io_common.NewIoParseFailed("node.children のindexが不正です: %d", nil, childIndex)
			}
			if parentIndexes[childIndex] == -1 {
				parentIndexes[childIndex] = parentIndex
			}
		}
	}
	return parentIndexes, nil
}

// validateNodeHierarchy は親子関係に循環がないか検証する。
func validateNodeHierarchy(parents []int) error {
	state := make([]int, len(parents))
	for i := range parents {
		if err := visitNodeHierarchy(parents, i, state); err != nil {
			return err
		}
	}
	return nil
}

// visitNodeHierarchy は親方向へ辿り、訪問中のnodeへ戻った場合を循環とみなす。
func visitNodeHierarchy(parents []int, nodeIndex int, state []int) error {
	if state[nodeIndex] == 2 {
		return nil
	}
	if state[nodeIndex] == 1 {
		return io_common.NewIoParseFailed("node親子関係に循環があります: %d", nil, nodeIndex)
	}
	state[nodeIndex] = 1
	if parentIndex := parents[nodeIndex]; parentIndex >= 0 {
		if err := visitNodeHierarchy(parents, parentIndex, state); err != nil {
			return err
		}
	}
	state[nodeIndex] = 2
	return nil
}

// nodeLocalTransform はnode要素からローカル姿勢を求める。
func nodeLocalTransform(node gltfNode) (humanoid.BoneTransform, error) {
	if len(node.Matrix) > 0 {
		if len(node.Matrix) != 16 {
			return humanoid.BoneTransform{}, io_common.NewIoParseFailed("node.matrix の要素数が不正です: %d", nil, len(node.Matrix))
		}
		mat := mmath.NewMat4()
		for i := 0; i < 16; i++ {
			mat[i] = node.Matrix[i]
		}
		scale := mmath.NewVec3(
			mmath.NewVec3(mat[0], mat[1], mat[2]).Length(),
			mmath.NewVec3(mat[4], mat[5], mat[6]).Length(),
			mmath.NewVec3(mat[8], mat[9], mat[10]).Length(),
		)
		return humanoid.BoneTransform{
			Position: mat.Translation(),
			Rotation: mat.Quaternion(),
			Scale:    scale,
		}, nil
	}

	translation, err := parseVec3(node.Translation, mmath.ZERO_VEC3, "node.translation")
	if err != nil {
		return humanoid.BoneTransform{}, err
	}
	scale, err := parseVec3(node.Scale, mmath.ONE_VEC3, "node.scale")
	if err != nil {
		return humanoid.BoneTransform{}, err
	}
	rotation, err := parseQuaternion(node.Rotation)
	if err != nil {
		return humanoid.BoneTransform{}, err
	}
	return humanoid.BoneTransform{Position: translation, Rotation: rotation, Scale: scale}, nil
}

// parseVec3 はスライスをVec3へ変換する。
func parseVec3(values []float64, defaultValue mmath.Vec3, label string) (mmath.Vec3, error) {
	if len(values) == 0 {
		return defaultValue, nil
	}
	if len(values) != 3 {
		return mmath.ZERO_VEC3, io_common.NewIoParseFailed("%s の要素数が不正です: %d", nil, label, len(values))
	}
	return mmath.Vec3{Vec: r3.Vec{X: values[0], Y: values[1], Z: values[2]}}, nil
}

// parseQuaternion はスライスをQuaternionへ変換する。
func parseQuaternion(values []float64) (mmath.Quaternion, error) {
	if len(values) == 0 {
		return mmath.NewQuaternion(), nil
	}
	if len(values) != 4 {
		return mmath.NewQuaternion(), io_common.NewIoParseFailed("node.rotation の要素数が不正です: %d", nil, len(values))
	}
	return mmath.NewQuaternionByValues(values[0], values[1], values[2], values[3]).Normalized(), nil
}

// parseHumanBones はVRM拡張から Humanoid ボーン名→node index を抽出する。
func parseHumanBones(
	doc *gltfDocument,
	version humanoid.VrmVersion,
) (map[humanoid.HumanBoneName]int, []humanoid.HumanBoneName, error) {
	out := map[humanoid.HumanBoneName]int{}
	if version == humanoid.VRM_VERSION_1 {
		ext, err := parseVRM1Extension(doc.Extensions)
		if err != nil {
			return nil, nil, err
		}
		for key, bone := range ext.Humanoid.HumanBones {
			if bone.Node == nil {
				continue
			}
			out[humanoid.NormalizeHumanBoneName(key)] = *bone.Node
		}
	} else {
		ext, err := parseVRM0Extension(doc.Extensions)
		if err != nil {
			return nil, nil, err
		}
		if ext == nil {
			return nil, nil, io_common.NewIoFormatNotSupported("VRM0拡張の解析に失敗しました", nil)
		}
		for _, bone := range ext.Humanoid.HumanBones {
			out[humanoid.NormalizeHumanBoneName(bone.Bone)] = bone.Node
		}
	}

	// 腕と頭は必須。それ以外の不正indexは警告して除外する。
	required := map[humanoid.HumanBoneName]struct{}{humanoid.Head: {}}
	for _, side := range humanoid.Sides() {
		upper, lower, hand := humanoid.ArmBones(side)
		required[upper] = struct{}{}
		required[lower] = struct{}{}
		required[hand] = struct{}{}
	}
	skipped := []humanoid.HumanBoneName{}
	for _, name := range sortedHumanBoneNames(out) {
		nodeIndex := out[name]
		if nodeIndex >= 0 && nodeIndex < len(doc.Nodes) {
			continue
		}
		if _, ok := required[name]; ok {
			return nil, nil, io_common.NewIoParseFailed("humanBones.%s のnode indexが不正です: %d", nil, name, nodeIndex)
		}
		logVrmWarn("humanBones.%s のnode indexが不正なため除外します: %d", name, nodeIndex)
		delete(out, name)
		skipped = append(skipped, name)
	}
	return out, skipped, nil
}

// sortedHumanBoneNames はボーン名を名前順で返す。
func sortedHumanBoneNames(bones map[humanoid.HumanBoneName]int) []humanoid.HumanBoneName {
	names := make([]humanoid.HumanBoneName, 0, len(bones))
	for name := range bones {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// resolveSceneRoots はシーンのルートnodeを返す。
// scenes 未定義時は親を持たない全nodeをルートとする。
func resolveSceneRoots(doc *gltfDocument, parentIndexes []int) ([]int, error) {
	if len(doc.Scenes) == 0 {
		roots := []int{}
		for nodeIndex, parentIndex := range parentIndexes {
			if parentIndex < 0 {
				roots = append(roots, nodeIndex)
			}
		}
		return roots, nil
	}

	sceneIndex := 0
	if doc.Scene != nil {
		sceneIndex = *doc.Scene
	}
	if sceneIndex < 0 || sceneIndex >= len(doc.Scenes) {
		return nil, io_common.NewIoParseFailed("scene indexが不正です: %d", nil, sceneIndex)
	}
	roots := make([]int, 0, len(doc.Scenes[sceneIndex].Nodes))
	seen := map[int]struct{}{}
	for _, nodeIndex := range doc.Scenes[sceneIndex].Nodes {
		if nodeIndex < 0 || nodeIndex >= len(parentIndexes) {
			return nil, io_common.NewIoParseFailed("scenes[%d].nodes のnode indexが不正です: %d", nil, sceneIndex, nodeIndex)
		}
		if parentIndexes[nodeIndex] >= 0 {
			return nil, io_common.NewIoParseFailed("scenes[%d].nodes に子nodeが含まれています: %d", nil, sceneIndex, nodeIndex)
		}
		if _, ok := seen[nodeIndex]; ok {
			continue
		}
		seen[nodeIndex] = struct{}{}
		roots = append(roots, nodeIndex)
	}
	return roots, nil
}

// parseVRM0Extension はextensionsからVRM0情報を抽出する。
func parseVRM0Extension(extensions map[string]json.RawMessage) (*vrm0Extension, error) {
	if extensions == nil {
		return nil, nil
	}
	raw, ok := extensions["VRM"]
	if !ok {
		return nil, nil
	}
	ext := vrm0Extension{}
	if err := json.Unmarshal(raw, &ext); err != nil {
		return nil, io_common.NewIoParseFailed("VRM0拡張のJSON解析に失敗しました", err)
	}
	return &ext, nil
}

// parseVRM1Extension はextensionsからVRM1情報を抽出する。
func parseVRM1Extension(extensions map[string]json.RawMessage) (*vrm1Extension, error) {
	if extensions == nil {
		return nil, io_common.NewIoFormatNotSupported("VRM1拡張が存在しません", nil)
	}
	raw, ok := extensions["VRMC_vrm"]
	if !ok {
		return nil, io_common.NewIoFormatNotSupported("VRM1拡張が存在しません", nil)
	}
	ext := vrm1Extension{}
	if err := json.Unmarshal(raw, &ext); err != nil {
		return nil, io_common.NewIoParseFailed("VRM1拡張のJSON解析に失敗しました", err)
	}
	return &ext, nil
}

// detectVrmVersion は拡張宣言から優先バージョンを判定する。
func detectVrmVersion(doc *gltfDocument) humanoid.VrmVersion {
	hasVrm1, hasVrm0 := declaredVrmVersions(doc)

	// VRM0/1 同時宣言時は VRM1 を優先する。
	if hasVrm1 {
		return humanoid.VRM_VERSION_1
	}
	if hasVrm0 {
		return humanoid.VRM_VERSION_0
	}
	return ""
}

// declaredVrmVersions はVRM1/VRM0拡張の宣言有無を返す。
func declaredVrmVersions(doc *gltfDocument) (bool, bool) {
	hasVrm1 := containsIgnoreCase(doc.ExtensionsUsed, "VRMC_vrm")
	hasVrm0 := containsIgnoreCase(doc.ExtensionsUsed, "VRM")
	if doc.Extensions != nil {
		if _, ok := doc.Extensions["VRMC_vrm"]; ok {
			hasVrm1 = true
		}
		if _, ok := doc.Extensions["VRM"]; ok {
			hasVrm0 = true
		}
	}
	return hasVrm1, hasVrm0
}

// containsIgnoreCase は大文字小文字を無視して要素を検索する。
func containsIgnoreCase(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}

// buildRig はnode階層をシーンノードへ展開し、Humanoid ボーンを対応付ける。
func buildRig(
	name string,
	doc *gltfDocument,
	parentIndexes []int,
	sceneRoots []int,
	humanBones map[humanoid.HumanBoneName]int,
) (*humanoid.Rig, error) {
	rig := humanoid.NewRig(name)
	nodes := make([]*scene.Node, len(doc.Nodes))
	for nodeIndex, node := range doc.Nodes {
		transform, err := nodeLocalTransform(node)
		if err != nil {
			return nil, err
		}
		sceneNode := scene.NewNode(resolveNodeName(nodeIndex, node.Name))
		sceneNode.Position = transform.Position
		sceneNode.Rotation = transform.Rotation
		sceneNode.Scale = transform.Scale
		nodes[nodeIndex] = sceneNode
	}

	for nodeIndex, sceneNode := range nodes {
		if parentIndex := parentIndexes[nodeIndex]; parentIndex >= 0 {
			nodes[parentIndex].Add(sceneNode)
		}
	}
	for _, nodeIndex := range sceneRoots {
		rig.Scene.Add(nodes[nodeIndex])
	}

	for boneName, nodeIndex := range humanBones {
		rig.SetRawBoneNode(boneName, nodes[nodeIndex])
	}
	for _, side := range humanoid.Sides() {
		upper, lower, hand := humanoid.ArmBones(side)
		for _, boneName := range []humanoid.HumanBoneName{upper, lower, hand} {
			if _, ok := humanBones[boneName]; !ok {
				logVrmWarn("Humanoid ボーンが定義されていません: %s", boneName)
				rig.AddWarning(model.VrmWarningArmBoneMissing)
			}
		}
	}
	if _, ok := humanBones[humanoid.Head]; !ok {
		logVrmWarn("Humanoid ボーンが定義されていません: %s", humanoid.Head)
		rig.AddWarning(model.VrmWarningHeadBoneMissing)
	}
	return rig, nil
}

// resolveNodeName はnode名を決定する。空の場合はindexから生成する。
func resolveNodeName(nodeIndex int, nodeName string) string {
	trimmed := strings.TrimSpace(nodeName)
	if trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf("node_%03d", nodeIndex)
}
