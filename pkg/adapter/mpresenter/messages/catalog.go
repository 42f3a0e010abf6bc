// 指示: miu200521358
package messages

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// supportedLanguages は対応言語。先頭を既定とする。
var supportedLanguages = []language.Tag{language.Japanese, language.English}

var languageMatcher = language.NewMatcher(supportedLanguages)

// englishMessages は英語訳。日本語はキーをそのまま表示する。
var englishMessages = map[string]string{
	WindowTitle:             "VRM IK Viewer",
	HelpControls:            "Keys: arrows orbit / +- zoom / R reset",
	LabelPoseInfo:           "Pose: %s",
	LabelModel:              "Model: %s",
	LabelModelAbsent:        "No model loaded",
	LabelHandL:              "Left hand",
	LabelHandR:              "Right hand",
	LabelHead:               "Head",
	MessageLoadFailed:       "Load failed",
	MessageModelRequired:    "Please specify a VRM file",
	MessagePoseSourceFailed: "Failed to start pose source",
	LogLoadSuccess:          "Loaded VRM: %s",
	LogResetRequested:       "Pose reset requested",
	LogHeadlessFrame:        "frame %d: %s position=%s rotation=%s",
	LogHeadlessDone:         "Headless run finished: %d frames",
	LogPoseSourceReady:      "Pose source started: %s",
}

func init() {
	for key, translated := range englishMessages {
		_ = message.SetString(language.Japanese, key, key)
		_ = message.SetString(language.English, key, translated)
	}
}

// Keys は定義済みキー一覧を返す。
func Keys() []string {
	keys := make([]string, 0, len(englishMessages))
	for key := range englishMessages {
		keys = append(keys, key)
	}
	return keys
}

// MatchLanguage は言語指定を対応言語へ解決する。未知の指定は日本語とする。
func MatchLanguage(lang string) language.Tag {
	requested, err := language.Parse(lang)
	if err != nil {
		return supportedLanguages[0]
	}
	_, index, confidence := languageMatcher.Match(requested)
	if confidence == language.No {
		return supportedLanguages[0]
	}
	return supportedLanguages[index]
}

// NewPrinter は言語指定に対応するプリンタを生成する。
func NewPrinter(lang string) *message.Printer {
	return message.NewPrinter(MatchLanguage(lang))
}

// Translate はキーを翻訳し、引数があれば埋め込む。
func Translate(printer *message.Printer, key string, params ...any) string {
	if printer == nil {
		printer = NewPrinter("")
	}
	return printer.Sprintf(key, params...)
}
