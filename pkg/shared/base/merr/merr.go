// 指示: miu200521358
// Package merr はエラーIDを持つエラーを提供する。
package merr

import (
	"errors"
	"fmt"
)

// エラーID一覧。
const (
	IoFileNotFoundErrorID       = "14101"
	IoExtInvalidErrorID         = "14102"
	IoParseFailedErrorID        = "14103"
	IoFormatNotSupportedErrorID = "14104"
	HumanoidBoneMissingErrorID  = "21101"
	PoseFeedConnectErrorID      = "31101"
	PoseFeedPayloadErrorID      = "31102"
)

// MError はエラーIDとメッセージを持つエラー。
type MError struct {
	ID      string
	Message string
	Err     error
}

// NewMError はMErrorを生成する。
func NewMError(id string, message string, err error, params ...any) *MError {
	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}
	return &MError{ID: id, Message: message, Err: err}
}

// Error はエラーメッセージを返す。
func (e *MError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.ID, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.ID, e.Message)
}

// Unwrap は元エラーを返す。
func (e *MError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExtractErrorID はエラー連鎖から最初のエラーIDを取り出す。
func ExtractErrorID(err error) string {
	var target *MError
	if errors.As(err, &target) {
		return target.ID
	}
	return ""
}
