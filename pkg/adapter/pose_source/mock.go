// 指示: miu200521358
package pose_source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
	"github.com/tiendc/go-deepcopy"
)

// DefaultPoseInterval はポーズ切替の既定間隔。
const DefaultPoseInterval = 2 * time.Second

// defaultPoses は巡回する固定ポーズ一覧。
var defaultPoses = []model.PoseRecord{
	model.NewPoseRecord(mmath.NewVec3(1, 1.7, 1), mmath.NewVec3(0.6, 1.8, 0), mmath.NewVec3(-0.6, 0.5, 0), "pose1"),
	model.NewPoseRecord(mmath.NewVec3(0, 1.1, 1), mmath.NewVec3(0.2, 1.0, 0), mmath.NewVec3(-0.5, 1.7, 0), "pose2"),
	model.NewPoseRecord(mmath.NewVec3(0.5, 1.7, 0.5), mmath.NewVec3(0.2, 1.0, 0.2), mmath.NewVec3(-0.3, 1.0, -0.3), "pose3"),
	model.NewPoseRecord(mmath.NewVec3(0.5, 2.0, 0.5), mmath.NewVec3(0.2, 1.5, 0.7), mmath.NewVec3(-0.2, 1.5, 0.7), "pose4"),
}

// MockPoseSource は固定ポーズを一定間隔で巡回させる供給元。
type MockPoseSource struct {
	*poseBroadcaster

	interval time.Duration
	poses    []model.PoseRecord

	mu     sync.Mutex
	index  int
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMockPoseSource は既定ポーズを巡回する供給元を生成する。
func NewMockPoseSource(interval time.Duration) *MockPoseSource {
	source, err := NewMockPoseSourceWithPoses(interval, defaultPoses)
	if err != nil {
		// 既定ポーズは空でないため到達しない。
		panic(err)
	}
	return source
}

// NewMockPoseSourceWithPoses は指定ポーズを巡回する供給元を生成する。
// poses は複製して保持する。
func NewMockPoseSourceWithPoses(interval time.Duration, poses []model.PoseRecord) (*MockPoseSource, error) {
	if len(poses) == 0 {
		return nil, fmt.Errorf("巡回ポーズが空です")
	}
	if interval <= 0 {
		interval = DefaultPoseInterval
	}
	copied := []model.PoseRecord{}
	if err := deepcopy.Copy(&copied, poses); err != nil {
		return nil, fmt.Errorf("巡回ポーズの複製に失敗しました: %w", err)
	}
	return &MockPoseSource{
		poseBroadcaster: newPoseBroadcaster(model.InitialPoseRecord()),
		interval:        interval,
		poses:           copied,
	}, nil
}

// Interval はポーズ切替間隔を返す。
func (s *MockPoseSource) Interval() time.Duration {
	return s.interval
}

// Poses は巡回ポーズの複製を返す。
func (s *MockPoseSource) Poses() []model.PoseRecord {
	copied := []model.PoseRecord{}
	if err := deepcopy.Copy(&copied, s.poses); err != nil {
		logPoseWarn("巡回ポーズの複製に失敗しました: %v", err)
		return nil
	}
	return copied
}

// Tick は現在位置のポーズを公開し、位置を1つ進める。末尾の次は先頭へ戻る。
func (s *MockPoseSource) Tick() model.PoseRecord {
	s.mu.Lock()
	record := s.poses[s.index]
	s.index = (s.index + 1) % len(s.poses)
	s.mu.Unlock()

	s.publish(record)
	logPoseDebug("ポーズ切替: %s", record.Info)
	return record
}

// Start はタイマーによる巡回を開始する。起動済みの場合は何もしない。
func (s *MockPoseSource) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	logPoseInfo("モックポーズ供給開始: interval=%s poses=%d", s.interval, len(s.poses))
	go func() {
		defer close(done)
		defer s.release(done, cancel)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
	return nil
}

// release は巡回ゴルーチン終了時に起動状態を解除する。Stop 済みの場合は何もしない。
func (s *MockPoseSource) release(done chan struct{}, cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != done {
		return
	}
	s.cancel = nil
	s.done = nil
	logPoseInfo("モックポーズ供給終了: 親コンテキスト終了")
}

// Running は巡回ゴルーチンが起動中かを返す。
func (s *MockPoseSource) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// Stop はタイマーを止め、巡回ゴルーチンの終了を待つ。
func (s *MockPoseSource) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logPoseInfo("モックポーズ供給停止")
}
