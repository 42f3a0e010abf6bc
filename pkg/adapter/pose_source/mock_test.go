// 指示: miu200521358
package pose_source

import (
	"context"
	"testing"
	"time"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
)

func TestMockPoseSourceInitialRecord(t *testing.T) {
	source := NewMockPoseSource(0)
	if source.Interval() != DefaultPoseInterval {
		t.Fatalf("interval mismatch: %s", source.Interval())
	}
	if got := source.Current(); got != model.InitialPoseRecord() {
		t.Fatalf("initial mismatch: %+v", got)
	}
}

func TestMockPoseSourceTickCyclesInOrder(t *testing.T) {
	source := NewMockPoseSource(time.Second)
	want := []string{"pose1", "pose2", "pose3", "pose4", "pose1", "pose2"}
	for i, info := range want {
		got := source.Tick()
		if got.Info != info {
			t.Fatalf("tick %d: got %s want %s", i, got.Info, info)
		}
		if source.Current() != got {
			t.Fatalf("tick %d: current not updated", i)
		}
	}
}

func TestMockPoseSourceFirstPoseValues(t *testing.T) {
	source := NewMockPoseSource(time.Second)
	got := source.Tick()
	if got.Head != mmath.NewVec3(1, 1.7, 1) {
		t.Fatalf("head mismatch: %s", got.Head)
	}
	if got.HandL != mmath.NewVec3(0.6, 1.8, 0) || got.HandR != mmath.NewVec3(-0.6, 0.5, 0) {
		t.Fatalf("hands mismatch: %s %s", got.HandL, got.HandR)
	}
}

func TestMockPoseSourcePosesReturnsCopy(t *testing.T) {
	source := NewMockPoseSource(time.Second)
	poses := source.Poses()
	if len(poses) != 4 {
		t.Fatalf("expected 4 poses, got %d", len(poses))
	}
	poses[0].Info = "changed"
	if source.Poses()[0].Info != "pose1" {
		t.Fatalf("internal poses modified")
	}
}

func TestMockPoseSourceWithPosesCopiesInput(t *testing.T) {
	poses := []model.PoseRecord{model.InitialPoseRecord()}
	source, err := NewMockPoseSourceWithPoses(time.Second, poses)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poses[0].Info = "changed"
	if got := source.Tick(); got.Info != "initial" {
		t.Fatalf("expected copied pose, got %s", got.Info)
	}
	if got := source.Tick(); got.Info != "initial" {
		t.Fatalf("single pose should wrap, got %s", got.Info)
	}
}

func TestMockPoseSourceRejectsEmptyPoses(t *testing.T) {
	if _, err := NewMockPoseSourceWithPoses(time.Second, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMockPoseSourceSubscribeAndUnsubscribe(t *testing.T) {
	source := NewMockPoseSource(time.Second)
	received := []string{}
	unsubscribe := source.Subscribe(func(record model.PoseRecord) {
		received = append(received, record.Info)
	})
	source.Tick()
	unsubscribe()
	unsubscribe()
	source.Tick()
	if len(received) != 1 || received[0] != "pose1" {
		t.Fatalf("received mismatch: %v", received)
	}
	if source.SubscriberCount() != 0 {
		t.Fatalf("subscriber remains: %d", source.SubscriberCount())
	}
}

func TestMockPoseSourceStartStop(t *testing.T) {
	source := NewMockPoseSource(5 * time.Millisecond)
	notified := make(chan model.PoseRecord, 8)
	unsubscribe := source.Subscribe(func(record model.PoseRecord) {
		select {
		case notified <- record:
		default:
		}
	})
	defer unsubscribe()

	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	select {
	case record := <-notified:
		if record.Info != "pose1" {
			t.Fatalf("first tick mismatch: %s", record.Info)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no tick received")
	}
	source.Stop()
	source.Stop()
}

func TestMockPoseSourceRestartsAfterParentCancel(t *testing.T) {
	source := NewMockPoseSource(5 * time.Millisecond)
	parent, cancel := context.WithCancel(context.Background())
	if err := source.Start(parent); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for source.Running() {
		if time.Now().After(deadline) {
			t.Fatalf("source still running after parent cancel")
		}
		time.Sleep(time.Millisecond)
	}

	notified := make(chan model.PoseRecord, 8)
	unsubscribe := source.Subscribe(func(record model.PoseRecord) {
		select {
		case notified <- record:
		default:
		}
	})
	defer unsubscribe()
	if err := source.Start(context.Background()); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	defer source.Stop()
	if !source.Running() {
		t.Fatalf("source should be running after restart")
	}
	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatalf("no tick after restart")
	}
}
