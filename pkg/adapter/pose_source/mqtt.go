// 指示: miu200521358
package pose_source

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"
	"github.com/miu200521358/mu_vrm_ik/pkg/domain/model"
	"github.com/miu200521358/mu_vrm_ik/pkg/shared/base/merr"
	"github.com/tidwall/gjson"
)

const (
	defaultMqttClientID       = "mu_vrm_ik"
	defaultMqttConnectTimeout = 5 * time.Second
	mqttDisconnectQuiesceMs   = 250
)

// MqttPoseSourceOptions はMQTT受信の設定を表す。
type MqttPoseSourceOptions struct {
	Broker         string
	Topic          string
	ClientID       string
	QoS            byte
	ConnectTimeout time.Duration
}

// MqttPoseSource はMQTTトピックからポーズを受信する供給元。
type MqttPoseSource struct {
	*poseBroadcaster

	options MqttPoseSourceOptions

	mu     sync.Mutex
	client mqtt.Client
}

// NewMqttPoseSource はMQTT受信の供給元を生成する。
func NewMqttPoseSource(options MqttPoseSourceOptions) *MqttPoseSource {
	if strings.TrimSpace(options.ClientID) == "" {
		options.ClientID = defaultMqttClientID
	}
	if options.ConnectTimeout <= 0 {
		options.ConnectTimeout = defaultMqttConnectTimeout
	}
	return &MqttPoseSource{
		poseBroadcaster: newPoseBroadcaster(model.InitialPoseRecord()),
		options:         options,
	}
}

// Options は受信設定を返す。
func (s *MqttPoseSource) Options() MqttPoseSourceOptions {
	return s.options
}

// Start はブローカーへ接続し、トピックを購読する。接続済みの場合は何もしない。
func (s *MqttPoseSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}
	if strings.TrimSpace(s.options.Broker) == "" || strings.TrimSpace(s.options.Topic) == "" {
		return newPoseFeedConnectError(errors.New("broker or topic is empty"))
	}

	clientOptions := mqtt.NewClientOptions().
		AddBroker(s.options.Broker).
		SetClientID(s.options.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(s.options.ConnectTimeout).
		SetOnConnectHandler(s.subscribe).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logPoseWarn("MQTT接続断: %v", err)
		})
	client := mqtt.NewClient(clientOptions)

	token := client.Connect()
	select {
	case <-ctx.Done():
		client.Disconnect(0)
		return newPoseFeedConnectError(ctx.Err())
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return newPoseFeedConnectError(err)
	}
	s.client = client
	logPoseInfo("MQTTポーズ供給開始: broker=%s topic=%s", s.options.Broker, s.options.Topic)
	return nil
}

// subscribe は接続(再接続含む)のたびにトピックを購読する。
func (s *MqttPoseSource) subscribe(client mqtt.Client) {
	token := client.Subscribe(s.options.Topic, s.options.QoS, s.handleMessage)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			logPoseWarn("MQTT購読失敗: topic=%s err=%v", s.options.Topic, err)
		}
	}()
}

// Stop は購読を解除して切断する。
func (s *MqttPoseSource) Stop() {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return
	}
	if client.IsConnected() {
		client.Unsubscribe(s.options.Topic).WaitTimeout(s.options.ConnectTimeout)
	}
	client.Disconnect(mqttDisconnectQuiesceMs)
	logPoseInfo("MQTTポーズ供給停止")
}

func (s *MqttPoseSource) handleMessage(_ mqtt.Client, message mqtt.Message) {
	if err := s.receivePayload(message.Payload()); err != nil {
		logPoseWarn("ポーズ受信破棄: topic=%s err=%v", message.Topic(), err)
	}
}

// receivePayload はペイロードを解析して公開する。不正なペイロードは公開せずエラーを返す。
func (s *MqttPoseSource) receivePayload(payload []byte) error {
	record, err := ParsePosePayload(payload)
	if err != nil {
		return err
	}
	s.publish(record)
	logPoseDebug("ポーズ受信: %s", record.Info)
	return nil
}

// ParsePosePayload は JSON ペイロードを PoseRecord に変換する。
// head/handL/handR の x,y,z は全て数値である必要がある。
func ParsePosePayload(payload []byte) (model.PoseRecord, error) {
	if !gjson.ValidBytes(payload) {
		return model.PoseRecord{}, newPoseFeedPayloadError("JSONとして解析できません")
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return model.PoseRecord{}, newPoseFeedPayloadError("ルートがオブジェクトではありません")
	}
	head, err := parsePayloadVec3(root, "head")
	if err != nil {
		return model.PoseRecord{}, err
	}
	handL, err := parsePayloadVec3(root, "handL")
	if err != nil {
		return model.PoseRecord{}, err
	}
	handR, err := parsePayloadVec3(root, "handR")
	if err != nil {
		return model.PoseRecord{}, err
	}
	info := "mqtt"
	if value := root.Get("info"); value.Exists() && value.Type == gjson.String {
		info = value.String()
	}
	return model.NewPoseRecord(head, handL, handR, info), nil
}

func parsePayloadVec3(root gjson.Result, key string) (mmath.Vec3, error) {
	node := root.Get(key)
	if !node.Exists() || !node.IsObject() {
		return mmath.Vec3{}, newPoseFeedPayloadError("%s がありません", key)
	}
	values := [3]float64{}
	for i, axis := range []string{"x", "y", "z"} {
		value := node.Get(axis)
		if value.Type != gjson.Number {
			return mmath.Vec3{}, newPoseFeedPayloadError("%s.%s が数値ではありません", key, axis)
		}
		values[i] = value.Float()
	}
	return mmath.NewVec3(values[0], values[1], values[2]), nil
}

func newPoseFeedConnectError(err error) error {
	return merr.NewMError(merr.PoseFeedConnectErrorID, "ポーズ供給元へ接続できません", err)
}

func newPoseFeedPayloadError(message string, params ...any) error {
	return merr.NewMError(merr.PoseFeedPayloadErrorID, message, nil, params...)
}
