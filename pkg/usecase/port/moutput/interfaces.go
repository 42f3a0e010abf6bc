// 指示: miu200521358
package moutput

import (
	"context"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
)

// IRigReader はリグ読み込みの契約を表す。
type IRigReader interface {
	CanLoad(path string) bool
	Load(path string) (*humanoid.Rig, error)
}

// IPoseSource は目標座標の供給契約を表す。
// Subscribe の戻り値を呼ぶと購読を解除する。
type IPoseSource interface {
	Subscribe(callback func(model.PoseRecord)) (unsubscribe func())
	Current() model.PoseRecord
	Start(ctx context.Context) error
	Stop()
}
