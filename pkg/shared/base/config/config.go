// 指示: miu200521358
// Package config は環境変数からアプリ設定を読み込む。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// PoseSourceKind は目標座標の供給元種別を表す。
type PoseSourceKind string

const (
	// PoseSourceMock はタイマーで固定ポーズを巡回する供給元。
	PoseSourceMock PoseSourceKind = "mock"
	// PoseSourceMqtt はMQTTトピックから受信する供給元。
	PoseSourceMqtt PoseSourceKind = "mqtt"
)

// AppConfig はアプリ全体の設定を表す。
type AppConfig struct {
	ModelPath    string         `env:"MODEL_PATH" envDefault:"models/AliciaSolid.vrm"`
	PoseSource   PoseSourceKind `env:"POSE_SOURCE" envDefault:"mock"`
	PoseInterval time.Duration  `env:"POSE_INTERVAL" envDefault:"2s"`
	MqttBroker   string         `env:"MQTT_BROKER" envDefault:"tcp://localhost:1883"`
	MqttTopic    string         `env:"MQTT_TOPIC" envDefault:"avatar/pose"`
	MqttClientID string         `env:"MQTT_CLIENT_ID" envDefault:"mu_vrm_ik"`
	WindowWidth  int            `env:"WINDOW_WIDTH" envDefault:"1280"`
	WindowHeight int            `env:"WINDOW_HEIGHT" envDefault:"720"`
	Lang         string         `env:"LANG" envDefault:"ja"`
	LogLevel     string         `env:"LOG_LEVEL" envDefault:"info"`
}

// EnvPrefix は環境変数の接頭辞。
const EnvPrefix = "AVATAR_IK_"

// ParseEnv は環境変数から設定を読み込む。
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadAppConfig は環境変数から AppConfig を読み込み、値を検証する。
func LoadAppConfig() (AppConfig, error) {
	cfg := AppConfig{}
	if err := ParseEnv(&cfg); err != nil {
		return AppConfig{}, err
	}
	cfg.PoseSource = PoseSourceKind(strings.ToLower(strings.TrimSpace(string(cfg.PoseSource))))
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c AppConfig) Validate() error {
	switch c.PoseSource {
	case PoseSourceMock, PoseSourceMqtt:
	default:
		return fmt.Errorf("ポーズ供給元が不正です: %s", c.PoseSource)
	}
	if c.PoseInterval <= 0 {
		return fmt.Errorf("ポーズ切替間隔は正の値を指定してください: %s", c.PoseInterval)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("ウィンドウサイズが不正です: %dx%d", c.WindowWidth, c.WindowHeight)
	}
	return nil
}
