// 指示: miu200521358
package minteractor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/ik"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/scene"
)

// 目標マーカーのノード名。
const (
	TargetHeadName  = "targetHead"
	TargetHandLName = "targetHandL"
	TargetHandRName = "targetHandR"
)

// TargetMarkers は頭・両手の目標マーカーを表す。
type TargetMarkers struct {
	Head  *scene.Node
	HandL *scene.Node
	HandR *scene.Node
}

// Hand は左右に対応する手の目標マーカーを返す。
func (m TargetMarkers) Hand(side humanoid.Side) *scene.Node {
	if side == humanoid.Right {
		return m.HandR
	}
	return m.HandL
}

// FrameClock はフレーム間の経過秒を計測する。
type FrameClock struct {
	now  func() time.Time
	last time.Time
}

// NewFrameClock は時計を生成する。
func NewFrameClock() *FrameClock {
	return &FrameClock{now: time.Now}
}

// Delta は前回呼び出しからの経過秒を返す。初回は0。
func (c *FrameClock) Delta() float64 {
	current := c.now()
	if c.last.IsZero() {
		c.last = current
		return 0
	}
	delta := current.Sub(c.last).Seconds()
	c.last = current
	return delta
}

// FrameContext は1フレームの処理に必要な状態をまとめて保持する。
// ReceivePose 以外は描画ゴルーチンからのみ呼び出す。
type FrameContext struct {
	Scene    *scene.Node
	Camera   *scene.Camera
	Controls *scene.OrbitControls
	Clock    *FrameClock
	Rig      *humanoid.Rig
	IK       *ik.IK
	Mapping  *BoneCorrectionMapping
	Targets  TargetMarkers
	Pose     model.PoseRecord

	pending    atomic.Pointer[model.PoseRecord]
	restPose   map[humanoid.HumanBoneName]humanoid.BoneTransform
	chainRoots []*scene.Node
}

// NewFrameContext はシーン・カメラ・目標マーカーを持つフレーム文脈を生成する。
// 初期ポーズは最初の Step で反映する。
func NewFrameContext(aspect float64) *FrameContext {
	root := scene.NewNode("scene")
	targets := TargetMarkers{
		Head:  scene.NewNode(TargetHeadName),
		HandL: scene.NewNode(TargetHandLName),
		HandR: scene.NewNode(TargetHandRName),
	}
	root.Add(targets.Head)
	root.Add(targets.HandL)
	root.Add(targets.HandR)

	camera := scene.NewCamera(aspect)
	controls := scene.NewOrbitControls(camera)
	controls.Update()

	frame := &FrameContext{
		Scene:    root,
		Camera:   camera,
		Controls: controls,
		Clock:    NewFrameClock(),
		Targets:  targets,
	}
	frame.applyPose(model.InitialPoseRecord())
	frame.ReceivePose(model.InitialPoseRecord())
	root.UpdateMatrixWorld()
	return frame
}

// AttachRig はリグをシーンへ追加し、両腕のダミーチェーンを構築する。
// 構築に失敗した場合はログを出力し、IKを無効のまま返す。
func (f *FrameContext) AttachRig(ctx context.Context, rig *humanoid.Rig) error {
	if rig == nil {
		return fmt.Errorf("リグが未設定です")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Rig != nil {
		f.detachChains()
		f.Scene.Remove(f.Rig.Scene)
	}

	f.Rig = rig
	f.Scene.Add(rig.Scene)
	rig.Update(0)
	f.restPose = rig.CaptureRestPose()

	if err := f.buildChains(); err != nil {
		logAvatarError("ダミーチェーン構築失敗: %v", err)
		return err
	}
	f.requeuePose()
	logAvatarInfo("リグ取り付け完了: %s chains=%d bones=%d", rig.Name, len(f.IK.Chains()), f.Mapping.Len())
	return nil
}

// buildChains は左右のダミーチェーンを構築する。途中で失敗した場合は生成済みチェーンを外す。
func (f *FrameContext) buildChains() error {
	f.IK = nil
	f.Mapping = nil

	solver := ik.NewIK()
	mapping := NewBoneCorrectionMapping()
	roots := make([]*scene.Node, 0, len(humanoid.Sides()))
	for _, side := range humanoid.Sides() {
		chain, corrections, err := BuildDummyChain(f.Scene, f.Rig, f.Targets.Hand(side), side)
		if err != nil {
			for _, root := range roots {
				f.Scene.Remove(root)
			}
			return err
		}
		roots = append(roots, chain.Joints()[0].Bone.Parent())
		solver.Add(chain)
		mapping.Add(corrections...)
	}

	f.IK = solver
	f.Mapping = mapping
	f.chainRoots = roots
	return nil
}

// detachChains はダミーチェーンをシーンから外す。
func (f *FrameContext) detachChains() {
	for _, root := range f.chainRoots {
		f.Scene.Remove(root)
	}
	f.chainRoots = nil
	f.IK = nil
	f.Mapping = nil
}

// ChainRoots はダミーチェーン根元ノードを返す。
func (f *FrameContext) ChainRoots() []*scene.Node {
	return f.chainRoots
}

// ReceivePose は最新ポーズを受け取る。任意のゴルーチンから呼び出せる。
func (f *FrameContext) ReceivePose(record model.PoseRecord) {
	f.pending.Store(&record)
}

// requeuePose は未反映のポーズが無ければ現在のポーズを再反映対象にする。
func (f *FrameContext) requeuePose() {
	record := f.Pose
	f.pending.CompareAndSwap(nil, &record)
}

// Step は受信済みポーズの反映、IK解決、リターゲット、リグ更新を順に行う。
// 描画はこの後に行う。
func (f *FrameContext) Step(ctx context.Context, delta float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record := f.pending.Swap(nil); record != nil {
		f.applyPose(*record)
	}
	if f.Controls != nil {
		f.Controls.Update()
	}
	if f.IK != nil {
		updated := f.IK.Solve()
		ApplyRetarget(Retarget(f.Mapping))
		if updated > 0 {
			logAvatarDebug("IK更新: chains=%d", updated)
		}
	}
	if f.Rig != nil {
		f.Rig.Update(delta)
	}
	f.Scene.UpdateMatrixWorld()
	return nil
}

// applyPose は目標マーカーを移動し、頭を目標へ向ける。
func (f *FrameContext) applyPose(record model.PoseRecord) {
	f.Pose = record
	f.Targets.Head.Position = record.Head
	f.Targets.HandL.Position = record.HandL
	f.Targets.HandR.Position = record.HandR
	if f.Rig != nil {
		AimHead(f.Rig, record.Head)
	}
}

// Reset はリグを初期姿勢へ戻し、ダミーチェーンを作り直す。
func (f *FrameContext) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Rig == nil {
		return nil
	}
	f.detachChains()
	f.Rig.RestorePose(f.restPose)
	f.Rig.Update(0)
	if err := f.buildChains(); err != nil {
		logAvatarError("ダミーチェーン再構築失敗: %v", err)
		return err
	}
	f.requeuePose()
	logAvatarInfo("リグ姿勢リセット: %s", f.Rig.Name)
	return nil
}

// HandTransform は手ボーンのワールド姿勢を表す。
type HandTransform struct {
	BoneName humanoid.HumanBoneName
	Position mmath.Vec3
	Rotation mmath.Quaternion
}

// HandTransforms は左右の手ボーンのワールド姿勢を返す。リグが無い場合は空。
func (f *FrameContext) HandTransforms() []HandTransform {
	if f.Rig == nil {
		return nil
	}
	transforms := make([]HandTransform, 0, len(humanoid.Sides()))
	for _, side := range humanoid.Sides() {
		_, _, handName := humanoid.ArmBones(side)
		hand, ok := f.Rig.RawBoneNode(handName)
		if !ok {
			continue
		}
		world := hand.ComputeWorldMatrix()
		transforms = append(transforms, HandTransform{
			BoneName: handName,
			Position: world.Translation(),
			Rotation: world.Quaternion(),
		})
	}
	return transforms
}
