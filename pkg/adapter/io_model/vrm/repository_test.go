// 指示: miu200521358
package vrm

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/merr"
)

func TestVrmRepositoryCanLoad(t *testing.T) {
	repository := NewVrmRepository()

	if !repository.CanLoad("sample.vrm") {
		t.Fatalf("expected sample.vrm to be loadable")
	}
	if !repository.CanLoad("sample.VRM") {
		t.Fatalf("expected sample.VRM to be loadable")
	}
	if repository.CanLoad("sample.pmx") {
		t.Fatalf("expected sample.pmx to be not loadable")
	}
}

func TestVrmRepositoryInferName(t *testing.T) {
	repository := NewVrmRepository()

	got := repository.InferName("C:/work/avatar.vrm")
	if got != "avatar" {
		t.Fatalf("expected avatar, got %s", got)
	}
}

func TestVrmRepositoryLoadReturnsExtInvalid(t *testing.T) {
	repository := NewVrmRepository()

	_, err := repository.Load("sample.pmx")
	if err == nil {
		t.Fatalf("expected error to be not nil")
	}
	if merr.ExtractErrorID(err) != "14102" {
		t.Fatalf("expected error id 14102, got %s", merr.ExtractErrorID(err))
	}
}

func TestVrmRepositoryLoadReturnsFileNotFound(t *testing.T) {
	repository := NewVrmRepository()

	_, err := repository.Load(filepath.Join(t.TempDir(), "missing.vrm"))
	if err == nil {
		t.Fatalf("expected error to be not nil")
	}
	if merr.ExtractErrorID(err) != "14101" {
		t.Fatalf("expected error id 14101, got %s", merr.ExtractErrorID(err))
	}
}

func TestVrmRepositoryLoadRejectsBrokenMagic(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "broken.vrm")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x01}, 32), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, err := repository.Load(path)
	if merr.ExtractErrorID(err) != "14103" {
		t.Fatalf("expected error id 14103, got %v", err)
	}
}

func TestVrmRepositoryLoadRequiresVrmExtension(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "plain.vrm")
	writeGLBFileForTest(t, path, map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []any{map[string]any{"name": "root"}},
	})

	_, err := repository.Load(path)
	if merr.ExtractErrorID(err) != "14104" {
		t.Fatalf("expected error id 14104, got %v", err)
	}
}

func TestVrmRepositoryLoadRejectsNodeCycle(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "cycle.vrm")
	writeGLBFileForTest(t, path, map[string]any{
		"asset":          map[string]any{"version": "2.0"},
		"extensionsUsed": []string{"VRMC_vrm"},
		"nodes": []any{
			map[string]any{"name": "a", "children": []int{1}},
			map[string]any{"name": "b", "children": []int{0}},
		},
		"extensions": map[string]any{
			"VRMC_vrm": map[string]any{"specVersion": "1.0", "humanoid": map[string]any{"humanBones": map[string]any{}}},
		},
	})

	_, err := repository.Load(path)
	if merr.ExtractErrorID(err) != "14103" {
		t.Fatalf("expected error id 14103, got %v", err)
	}
}

func TestVrmRepositoryLoadVrm1ArmHierarchy(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "avatar.vrm")
	events := []LoadProgressEventType{}
	repository.SetLoadProgressReporter(func(event LoadProgressEvent) {
		events = append(events, event.Type)
	})
	writeGLBFileForTest(t, path, newArmDocument("VRMC_vrm", 0.15))

	rig, err := repository.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if rig.Version != humanoid.VRM_VERSION_1 {
		t.Fatalf("version mismatch: %s", rig.Version)
	}
	if rig.Name != "avatar" {
		t.Fatalf("name mismatch: %s", rig.Name)
	}

	hand, ok := rig.RawBoneNode(humanoid.LeftHand)
	if !ok {
		t.Fatalf("left hand not mapped")
	}
	if hand.Name != "J_Bip_L_Hand" {
		t.Fatalf("hand node mismatch: %s", hand.Name)
	}
	if got := hand.WorldPosition(); !got.NearEquals(mmath.NewVec3(0.65, 1.4, 0), 1e-9) {
		t.Fatalf("hand world position mismatch: %s", got)
	}
	if len(events) != 3 || events[2] != LoadProgressEventTypeCompleted {
		t.Fatalf("progress events mismatch: %v", events)
	}
}

func TestVrmRepositoryLoadVrm0RotatesToFacePositiveZ(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "alicia.vrm")
	writeGLBFileForTest(t, path, newArmDocument("VRM", -0.15))

	rig, err := repository.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if rig.Version != humanoid.VRM_VERSION_0 {
		t.Fatalf("version mismatch: %s", rig.Version)
	}
	upper, ok := rig.RawBoneNode(humanoid.LeftUpperArm)
	if !ok {
		t.Fatalf("left upper arm not mapped")
	}
	if got := upper.WorldPosition(); !got.NearEquals(mmath.NewVec3(0.15, 1.4, 0), 1e-9) {
		t.Fatalf("vrm0 upper arm should be on +X after rotation: %s", got)
	}
}

func TestVrmRepositoryLoadNodeMatrix(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "matrix.vrm")
	writeGLBFileForTest(t, path, map[string]any{
		"asset":          map[string]any{"version": "2.0"},
		"extensionsUsed": []string{"VRMC_vrm"},
		"nodes": []any{
			map[string]any{
				"name":   "hips",
				"matrix": []float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0.1, 0.9, -0.2, 1},
			},
		},
		"extensions": map[string]any{
			"VRMC_vrm": map[string]any{
				"specVersion": "1.0",
				"humanoid": map[string]any{
					"humanBones": map[string]any{"hips": map[string]any{"node": 0}},
				},
			},
		},
	})

	rig, err := repository.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	hips, ok := rig.RawBoneNode(humanoid.Hips)
	if !ok {
		t.Fatalf("hips not mapped")
	}
	if !hips.Position.NearEquals(mmath.NewVec3(0.1, 0.9, -0.2), 1e-12) {
		t.Fatalf("matrix translation mismatch: %s", hips.Position)
	}
	if !hips.Scale.NearEquals(mmath.ONE_VEC3, 1e-12) {
		t.Fatalf("matrix scale mismatch: %s", hips.Scale)
	}
}

func TestVrmRepositoryLoadRejectsHumanBoneOutOfRange(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "range.vrm")
	writeGLBFileForTest(t, path, map[string]any{
		"asset":          map[string]any{"version": "2.0"},
		"extensionsUsed": []string{"VRMC_vrm"},
		"nodes":          []any{map[string]any{"name": "hips"}},
		"extensions": map[string]any{
			"VRMC_vrm": map[string]any{
				"specVersion": "1.0",
				"humanoid": map[string]any{
					"humanBones": map[string]any{"head": map[string]any{"node": 7}},
				},
			},
		},
	})

	_, err := repository.Load(path)
	if merr.ExtractErrorID(err) != "14103" {
		t.Fatalf("expected error id 14103, got %v", err)
	}
}

func TestVrmRepositoryLoadRecordsWarnings(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "warn.vrm")
	doc := newArmDocument("VRMC_vrm", 0.15)
	ext := doc["extensions"].(map[string]any)["VRMC_vrm"].(map[string]any)
	humanBones := ext["humanoid"].(map[string]any)["humanBones"].(map[string]any)
	delete(humanBones, "head")
	delete(humanBones, "rightHand")
	doc["extensionsUsed"] = []string{"VRMC_vrm", "VRM"}
	writeGLBFileForTest(t, path, doc)

	rig, err := repository.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if rig.Version != humanoid.VRM_VERSION_1 {
		t.Fatalf("vrm1 should win: %s", rig.Version)
	}
	want := map[string]bool{
		model.VrmWarningArmBoneMissing:   true,
		model.VrmWarningHeadBoneMissing:  true,
		model.VrmWarningMultipleVersions: true,
	}
	warnings := rig.Warnings()
	if len(warnings) != len(want) {
		t.Fatalf("warnings mismatch: %v", warnings)
	}
	for _, warning := range warnings {
		if !want[warning] {
			t.Fatalf("unexpected warning: %s", warning)
		}
	}
}

func TestVrmRepositoryLoadSkipsInvalidOptionalHumanBone(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "optional.vrm")
	doc := newArmDocument("VRMC_vrm", 0.15)
	ext := doc["extensions"].(map[string]any)["VRMC_vrm"].(map[string]any)
	humanBones := ext["humanoid"].(map[string]any)["humanBones"].(map[string]any)
	humanBones["leftThumbProximal"] = map[string]any{"node": 99}
	writeGLBFileForTest(t, path, doc)

	rig, err := repository.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, ok := rig.RawBoneNode(humanoid.LeftHand); !ok {
		t.Fatalf("left hand should remain mapped")
	}
	for _, name := range rig.HumanBoneNames() {
		if name == humanoid.NormalizeHumanBoneName("leftThumbProximal") {
			t.Fatalf("invalid bone should be skipped")
		}
	}
	warnings := rig.Warnings()
	if len(warnings) != 1 || warnings[0] != model.VrmWarningHumanBoneIndexInvalid {
		t.Fatalf("warnings mismatch: %v", warnings)
	}
}

func TestVrmRepositoryLoadUsesSceneRoots(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "scenes.vrm")
	doc := newArmDocument("VRMC_vrm", 0.15)
	nodes := doc["nodes"].([]any)
	doc["nodes"] = append(nodes, map[string]any{"name": "UnusedRoot"})
	doc["scenes"] = []any{
		map[string]any{"nodes": []int{9}},
		map[string]any{"nodes": []int{0}},
	}
	doc["scene"] = 1
	writeGLBFileForTest(t, path, doc)

	rig, err := repository.Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	children := rig.Scene.Children()
	if len(children) != 1 || children[0].Name != "J_Bip_C_Hips" {
		t.Fatalf("scene roots mismatch: %d", len(children))
	}
}

func TestVrmRepositoryLoadRejectsSceneChildNode(t *testing.T) {
	repository := NewVrmRepository()
	path := filepath.Join(t.TempDir(), "scene_child.vrm")
	doc := newArmDocument("VRMC_vrm", 0.15)
	doc["scenes"] = []any{map[string]any{"nodes": []int{0, 2}}}
	writeGLBFileForTest(t, path, doc)

	_, err := repository.Load(path)
	if merr.ExtractErrorID(err) != "14103" {
		t.Fatalf("expected error id 14103, got %v", err)
	}
}

// newArmDocument は上半身と左右腕を持つglTF文書を生成する。
// armSign は左腕のローカルX方向(VRM1は+、VRM0は-)。
func newArmDocument(extension string, armSign float64) map[string]any {
	dir := 1.0
	if armSign < 0 {
		dir = -1.0
	}
	nodes := []any{
		map[string]any{"name": "J_Bip_C_Hips", "translation": []float64{0, 1.0, 0}, "children": []int{1}},
		map[string]any{"name": "J_Bip_C_Chest", "translation": []float64{0, 0.4, 0}, "children": []int{2, 5, 8}},
		map[string]any{"name": "J_Bip_L_UpperArm", "translation": []float64{0.15 * dir, 0, 0}, "children": []int{3}},
		map[string]any{"name": "J_Bip_L_LowerArm", "translation": []float64{0.25 * dir, 0, 0}, "children": []int{4}},
		map[string]any{"name": "J_Bip_L_Hand", "translation": []float64{0.25 * dir, 0, 0}},
		map[string]any{"name": "J_Bip_R_UpperArm", "translation": []float64{-0.15 * dir, 0, 0}, "children": []int{6}},
		map[string]any{"name": "J_Bip_R_LowerArm", "translation": []float64{-0.25 * dir, 0, 0}, "children": []int{7}},
		map[string]any{"name": "J_Bip_R_Hand", "translation": []float64{-0.25 * dir, 0, 0}},
		map[string]any{"name": "J_Bip_C_Head", "translation": []float64{0, 0.2, 0}},
	}
	boneNodes := map[string]int{
		"hips": 0, "chest": 1,
		"leftUpperArm": 2, "leftLowerArm": 3, "leftHand": 4,
		"rightUpperArm": 5, "rightLowerArm": 6, "rightHand": 7,
		"head": 8,
	}

	var ext any
	if extension == "VRM" {
		humanBones := []any{}
		for name, node := range boneNodes {
			humanBones = append(humanBones, map[string]any{"bone": name, "node": node})
		}
		ext = map[string]any{"exporterVersion": "UniVRM-0.53.0", "humanoid": map[string]any{"humanBones": humanBones}}
	} else {
		humanBones := map[string]any{}
		for name, node := range boneNodes {
			humanBones[name] = map[string]any{"node": node}
		}
		ext = map[string]any{"specVersion": "1.0", "humanoid": map[string]any{"humanBones": humanBones}}
	}

	return map[string]any{
		"asset":          map[string]any{"version": "2.0"},
		"extensionsUsed": []string{extension},
		"nodes":          nodes,
		"extensions":     map[string]any{extension: ext},
	}
}

// writeGLBFileForTest はテスト用JSONをGLB形式で保存する。
func writeGLBFileForTest(t *testing.T, path string, doc map[string]any) {
	t.Helper()
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}
	padding := (4 - (len(jsonBytes) % 4)) % 4
	if padding > 0 {
		jsonBytes = append(jsonBytes, bytes.Repeat([]byte(" "), padding)...)
	}

	totalLength := uint32(12 + 8 + len(jsonBytes))
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0x46546C67))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(2))
	_ = binary.Write(&buf, binary.LittleEndian, totalLength)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(jsonBytes)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0x4E4F534A))
	buf.Write(jsonBytes)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write glb file failed: %v", err)
	}
}
