// 指示: miu200521358
package pose_source

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/merr"
)

func TestParsePosePayload(t *testing.T) {
	payload := []byte(`{"head":{"x":0,"y":1.6,"z":-1},"handL":{"x":0.4,"y":1.2,"z":0.1},"handR":{"x":-0.4,"y":1.3,"z":0},"info":"live"}`)
	record, err := ParsePosePayload(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Head != mmath.NewVec3(0, 1.6, -1) {
		t.Fatalf("head mismatch: %s", record.Head)
	}
	if record.HandL != mmath.NewVec3(0.4, 1.2, 0.1) || record.HandR != mmath.NewVec3(-0.4, 1.3, 0) {
		t.Fatalf("hands mismatch: %s %s", record.HandL, record.HandR)
	}
	if record.Info != "live" {
		t.Fatalf("info mismatch: %s", record.Info)
	}
}

func TestParsePosePayloadDefaultInfo(t *testing.T) {
	payload := []byte(`{"head":{"x":0,"y":1,"z":0},"handL":{"x":0,"y":1,"z":0},"handR":{"x":0,"y":1,"z":0}}`)
	record, err := ParsePosePayload(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Info != "mqtt" {
		t.Fatalf("info mismatch: %s", record.Info)
	}
}

func TestParsePosePayloadInvalid(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{name: "broken json", payload: `{"head":`},
		{name: "array root", payload: `[1,2,3]`},
		{name: "missing hand", payload: `{"head":{"x":0,"y":1,"z":0},"handL":{"x":0,"y":1,"z":0}}`},
		{name: "string axis", payload: `{"head":{"x":"0","y":1,"z":0},"handL":{"x":0,"y":1,"z":0},"handR":{"x":0,"y":1,"z":0}}`},
		{name: "missing axis", payload: `{"head":{"x":0,"y":1},"handL":{"x":0,"y":1,"z":0},"handR":{"x":0,"y":1,"z":0}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePosePayload([]byte(tc.payload))
			if err == nil {
				t.Fatalf("expected error")
			}
			if merr.ExtractErrorID(err) != merr.PoseFeedPayloadErrorID {
				t.Fatalf("error id mismatch: %v", err)
			}
		})
	}
}

func TestMqttPoseSourceReceivePayload(t *testing.T) {
	source := NewMqttPoseSource(MqttPoseSourceOptions{Broker: "tcp://localhost:1883", Topic: "avatar/pose"})
	received := 0
	unsubscribe := source.Subscribe(func(model.PoseRecord) { received++ })
	defer unsubscribe()

	if err := source.receivePayload([]byte(`{"head":{"x":1}}`)); err == nil {
		t.Fatalf("expected error")
	}
	if source.Current() != model.InitialPoseRecord() {
		t.Fatalf("invalid payload must not replace record")
	}
	payload := []byte(`{"head":{"x":1,"y":2,"z":3},"handL":{"x":0,"y":1,"z":0},"handR":{"x":0,"y":1,"z":0},"info":"p"}`)
	if err := source.receivePayload(payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.Current().Head != mmath.NewVec3(1, 2, 3) || received != 1 {
		t.Fatalf("record not published: %+v received=%d", source.Current(), received)
	}
}

func TestMqttPoseSourceDefaults(t *testing.T) {
	source := NewMqttPoseSource(MqttPoseSourceOptions{})
	if source.Options().ClientID != defaultMqttClientID {
		t.Fatalf("client id mismatch: %s", source.Options().ClientID)
	}
	if source.Options().ConnectTimeout != defaultMqttConnectTimeout {
		t.Fatalf("timeout mismatch: %s", source.Options().ConnectTimeout)
	}
}

func TestMqttPoseSourceStartRequiresBroker(t *testing.T) {
	source := NewMqttPoseSource(MqttPoseSourceOptions{Topic: "avatar/pose"})
	err := source.Start(context.Background())
	if merr.ExtractErrorID(err) != merr.PoseFeedConnectErrorID {
		t.Fatalf("error id mismatch: %v", err)
	}
	source.Stop()
}

// stubMessage はテスト用のMQTTメッセージ。
type stubMessage struct {
	topic   string
	payload []byte
}

func (m stubMessage) Duplicate() bool   { return false }
func (m stubMessage) Qos() byte         { return 0 }
func (m stubMessage) Retained() bool    { return false }
func (m stubMessage) Topic() string     { return m.topic }
func (m stubMessage) MessageID() uint16 { return 0 }
func (m stubMessage) Payload() []byte   { return m.payload }
func (m stubMessage) Ack()              {}

func TestMqttPoseSourceHandleMessageLogsDroppedPayload(t *testing.T) {
	previous := logging.DefaultLogger()
	buf := bytes.NewBuffer(nil)
	logging.SetDefaultLogger(logging.NewLogger(buf, slog.LevelWarn))
	defer logging.SetDefaultLogger(previous)

	source := NewMqttPoseSource(MqttPoseSourceOptions{Broker: "tcp://localhost:1883", Topic: "avatar/pose"})
	source.handleMessage(nil, stubMessage{topic: "avatar/pose", payload: []byte(`{"head":`)})
	if source.Current() != model.InitialPoseRecord() {
		t.Fatalf("invalid payload must not replace record")
	}
	if !strings.Contains(buf.String(), "topic=avatar/pose") || !strings.Contains(buf.String(), merr.PoseFeedPayloadErrorID) {
		t.Fatalf("drop should be logged: %s", buf.String())
	}

	buf.Reset()
	payload := []byte(`{"head":{"x":0,"y":1,"z":0},"handL":{"x":0,"y":1,"z":0},"handR":{"x":0,"y":1,"z":0},"info":"ok"}`)
	source.handleMessage(nil, stubMessage{topic: "avatar/pose", payload: payload})
	if source.Current().Info != "ok" {
		t.Fatalf("valid payload should be published: %+v", source.Current())
	}
	if buf.Len() != 0 {
		t.Fatalf("valid payload should not warn: %s", buf.String())
	}
}
