// 指示: miu200521358
// Package pose_source は頭・両手の目標座標を供給する実装を提供する。
package pose_source

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/logging"
)

// poseBroadcaster は最新ポーズの保持と購読者への通知を行う。
// 最新ポーズはレコード単位で差し替えるため、読み手が途中状態を見ることはない。
type poseBroadcaster struct {
	current atomic.Pointer[model.PoseRecord]

	mu          sync.Mutex
	nextID      int
	subscribers map[int]func(model.PoseRecord)
}

// newPoseBroadcaster は初期ポーズを持つ通知器を生成する。
func newPoseBroadcaster(initial model.PoseRecord) *poseBroadcaster {
	b := &poseBroadcaster{subscribers: map[int]func(model.PoseRecord){}}
	b.current.Store(&initial)
	return b
}

// Subscribe は変更通知を登録し、解除関数を返す。
func (b *poseBroadcaster) Subscribe(callback func(model.PoseRecord)) func() {
	if callback == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = callback
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
		})
	}
}

// Current は最新ポーズを返す。
func (b *poseBroadcaster) Current() model.PoseRecord {
	return *b.current.Load()
}

// SubscriberCount は購読者数を返す。
func (b *poseBroadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// publish は最新ポーズを差し替え、登録順に購読者へ通知する。
func (b *poseBroadcaster) publish(record model.PoseRecord) {
	b.current.Store(&record)

	b.mu.Lock()
	ids := make([]int, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	callbacks := make([]func(model.PoseRecord), 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, b.subscribers[id])
	}
	b.mu.Unlock()

	for _, callback := range callbacks {
		callback(record)
	}
}

// logPoseDebug はポーズ供給のデバッグログを出力する。
func logPoseDebug(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Debug(format, params...)
}

// logPoseInfo はポーズ供給のINFOログを出力する。
func logPoseInfo(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Info(format, params...)
}

// logPoseWarn はポーズ供給の警告ログを出力する。
func logPoseWarn(format string, params ...any) {
	logger := logging.DefaultLogger()
	if logger == nil {
		return
	}
	logger.Warn(format, params...)
}
