package model

import (
	"testing"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
)

func TestInitialPoseRecord(t *testing.T) {
	record := InitialPoseRecord()
	if record.Info != "initial" {
		t.Fatalf("info mismatch: %s", record.Info)
	}
	if record.Head != mmath.NewVec3(0, 1.7, -1) {
		t.Fatalf("head mismatch: %s", record.Head)
	}
	if record.HandL != mmath.NewVec3(0.75, 1.4, 0) || record.HandR != mmath.NewVec3(-0.75, 1.4, 0) {
		t.Fatalf("hands mismatch: %s %s", record.HandL, record.HandR)
	}
}

func TestFormatCoordinate(t *testing.T) {
	if got := FormatCoordinate(mmath.NewVec3(0.6, 1.8, 0)); got != "0.6,1.8,0" {
		t.Fatalf("format mismatch: %s", got)
	}
}
