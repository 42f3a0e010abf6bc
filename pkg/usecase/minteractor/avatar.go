// 指示: miu200521358
package minteractor

import (
	"context"
	"fmt"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_vrm_ik/pkg/usecase/port/moutput"
)

// AvatarUsecaseDeps はアバター駆動ユースケースの依存を表す。
type AvatarUsecaseDeps struct {
	RigReader  moutput.IRigReader
	PoseSource moutput.IPoseSource
}

// AvatarUsecase はモデル読み込みとポーズ供給の接続をまとめたユースケースを表す。
type AvatarUsecase struct {
	rigReader  moutput.IRigReader
	poseSource moutput.IPoseSource
}

// NewAvatarUsecase はアバター駆動ユースケースを生成する。
func NewAvatarUsecase(deps AvatarUsecaseDeps) *AvatarUsecase {
	return &AvatarUsecase{
		rigReader:  deps.RigReader,
		poseSource: deps.PoseSource,
	}
}

// PoseSource はポーズ供給元を返す。
func (uc *AvatarUsecase) PoseSource() moutput.IPoseSource {
	return uc.poseSource
}

// LoadModel はVRMモデルを読み込む。
func (uc *AvatarUsecase) LoadModel(path string) (*humanoid.Rig, error) {
	if uc.rigReader == nil {
		return nil, fmt.Errorf("モデル読み込みリポジトリが設定されていません")
	}
	return uc.rigReader.Load(path)
}

// LoadAndAttach はモデルを読み込み、フレーム文脈へ取り付ける。
// 失敗してもフレーム文脈は描画を継続できる状態のまま残る。
func (uc *AvatarUsecase) LoadAndAttach(ctx context.Context, frame *FrameContext, path string) error {
	rig, err := uc.LoadModel(path)
	if err != nil {
		logAvatarError("モデル読み込み失敗: %v", err)
		return err
	}
	logAvatarInfo("モデル読み込み成功: %s (VRM %s)", rig.Name, rig.Version)
	return frame.AttachRig(ctx, rig)
}

// StartPoseFeed はポーズ供給をフレーム文脈へ接続して開始する。
// 戻り値の関数で購読解除と供給停止を行う。
func (uc *AvatarUsecase) StartPoseFeed(ctx context.Context, frame *FrameContext) (func(), error) {
	if uc.poseSource == nil {
		return nil, fmt.Errorf("ポーズ供給元が設定されていません")
	}
	if frame == nil {
		return nil, fmt.Errorf("フレーム文脈が未設定です")
	}
	unsubscribe := uc.poseSource.Subscribe(frame.ReceivePose)
	if err := uc.poseSource.Start(ctx); err != nil {
		unsubscribe()
		return nil, err
	}
	return func() {
		unsubscribe()
		uc.poseSource.Stop()
	}, nil
}

// logAvatarDebug はアバター処理のデバッグログを出力する。
func logAvatarDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

// logAvatarInfo はアバター処理のINFOログを出力する。
func logAvatarInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logAvatarError はアバター処理のエラーログを出力する。
func logAvatarError(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Error(format, params...)
}
