// 指示: miu200521358
// Package messages はUI表示に使うメッセージキーを提供する。
package messages

// メッセージキー一覧。
const (
	WindowTitle = "VRM IKビューア"

	HelpControls = "操作: 矢印キー 視点回転 / +- ズーム / R リセット"

	LabelPoseInfo    = "ポーズ: %s"
	LabelModel       = "モデル: %s"
	LabelModelAbsent = "モデル未読込"
	LabelHandL       = "左手"
	LabelHandR       = "右手"
	LabelHead        = "頭"

	MessageLoadFailed       = "読み込み失敗"
	MessageModelRequired    = "VRMファイルを指定してください"
	MessagePoseSourceFailed = "ポーズ供給開始失敗"

	LogLoadSuccess     = "VRM読み込み成功: %s"
	LogResetRequested  = "姿勢リセット要求"
	LogHeadlessFrame   = "フレーム %d: %s 位置=%s 回転=%s"
	LogHeadlessDone    = "ヘッドレス実行完了: %d フレーム"
	LogPoseSourceReady = "ポーズ供給開始: %s"
)
