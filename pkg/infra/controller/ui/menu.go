// 指示: miu200521358
package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// viewerAction はキー操作で起きる処理を表す。
type viewerAction int

const (
	actionOrbitLeft viewerAction = iota
	actionOrbitRight
	actionOrbitUp
	actionOrbitDown
	actionZoomIn
	actionZoomOut
	actionReset
)

const (
	orbitStepRadian = 0.03
	zoomStepScale   = 0.97
)

// keyBinding はキーと処理の対応を表す。
// hold が true の場合は押している間毎フレーム発火する。
type keyBinding struct {
	keys   []ebiten.Key
	action viewerAction
	hold   bool
}

// keyBindings はビューアのキー割り当て一覧。
var keyBindings = []keyBinding{
	{keys: []ebiten.Key{ebiten.KeyArrowLeft}, action: actionOrbitLeft, hold: true},
	{keys: []ebiten.Key{ebiten.KeyArrowRight}, action: actionOrbitRight, hold: true},
	{keys: []ebiten.Key{ebiten.KeyArrowUp}, action: actionOrbitUp, hold: true},
	{keys: []ebiten.Key{ebiten.KeyArrowDown}, action: actionOrbitDown, hold: true},
	{keys: []ebiten.Key{ebiten.KeyEqual, ebiten.KeyNumpadAdd}, action: actionZoomIn, hold: true},
	{keys: []ebiten.Key{ebiten.KeyMinus, ebiten.KeyNumpadSubtract}, action: actionZoomOut, hold: true},
	{keys: []ebiten.Key{ebiten.KeyR}, action: actionReset},
}

// collectActions は入力状態から発火した処理を割り当て順に返す。
func collectActions(pressed func(ebiten.Key) bool, justPressed func(ebiten.Key) bool) []viewerAction {
	actions := []viewerAction{}
	for _, binding := range keyBindings {
		probe := justPressed
		if binding.hold {
			probe = pressed
		}
		for _, key := range binding.keys {
			if probe(key) {
				actions = append(actions, binding.action)
				break
			}
		}
	}
	return actions
}
