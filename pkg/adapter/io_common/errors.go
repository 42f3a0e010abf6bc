// 指示: miu200521358
// Package io_common は入出力系アダプタ共通のエラーを提供する。
package io_common

import "github.com/miu200521358/mu_vrm_ik/pkg/shared/base/merr"

// NewIoFileNotFound はファイル未検出エラーを生成する。
func NewIoFileNotFound(path string, err error) error {
	return merr.NewMError(merr.IoFileNotFoundErrorID, "ファイルが見つかりません: %s", err, path)
}

// NewIoExtInvalid は拡張子不正エラーを生成する。
func NewIoExtInvalid(path string, err error) error {
	return merr.NewMError(merr.IoExtInvalidErrorID, "拡張子が未対応です: %s", err, path)
}

// NewIoParseFailed は解析失敗エラーを生成する。
func NewIoParseFailed(message string, err error, params ...any) error {
	return merr.NewMError(merr.IoParseFailedErrorID, message, err, params...)
}

// NewIoFormatNotSupported は形式未対応エラーを生成する。
func NewIoFormatNotSupported(message string, err error, params ...any) error {
	return merr.NewMError(merr.IoFormatNotSupportedErrorID, message, err, params...)
}
