// 指示: miu200521358
// Package scene はボーンやマーカーを保持する階層ノードを提供する。
package scene

import "github.com/miu200521358/mu_vrm_ik/pkg/domain/mmath"

// Node は親子関係を持つ変換ノードを表す。
type Node struct {
	Name     string
	Position mmath.Vec3
	Rotation mmath.Quaternion
	Scale    mmath.Vec3
	Visible  bool

	parent      *Node
	children    []*Node
	matrixWorld mmath.Mat4
}

// NewNode は単位変換のノードを生成する。
func NewNode(name string) *Node {
	return &Node{
		Name:        name,
		Rotation:    mmath.NewQuaternion(),
		Scale:       mmath.ONE_VEC3,
		Visible:     true,
		matrixWorld: mmath.NewMat4(),
	}
}

// Parent は親ノードを返す。
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Children は子ノード一覧を返す。
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// Add は子ノードを追加する。既に別の親がある場合は付け替える。
func (n *Node) Add(child *Node) {
	if n == nil || child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove は子ノードを外す。
func (n *Node) Remove(child *Node) {
	if n == nil || child == nil {
		return
	}
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// LocalMatrix はローカル変換行列を返す。
func (n *Node) LocalMatrix() mmath.Mat4 {
	return mmath.NewMat4FromTRS(n.Position, n.Rotation, n.Scale)
}

// MatrixWorld は最後に更新したワールド行列を返す。
func (n *Node) MatrixWorld() mmath.Mat4 {
	return n.matrixWorld
}

// UpdateMatrixWorld は自身と子孫のワールド行列を更新する。
func (n *Node) UpdateMatrixWorld() {
	if n == nil {
		return
	}
	if n.parent != nil {
		n.matrixWorld = n.parent.matrixWorld.Muled(n.LocalMatrix())
	} else {
		n.matrixWorld = n.LocalMatrix()
	}
	for _, child := range n.children {
		child.UpdateMatrixWorld()
	}
}

// UpdateWorldMatrix は祖先を含めて自身のワールド行列を更新する。子孫は更新しない。
func (n *Node) UpdateWorldMatrix() {
	if n == nil {
		return
	}
	n.matrixWorld = n.ComputeWorldMatrix()
}

// ComputeWorldMatrix は保持状態を変更せずにワールド行列を計算する。
func (n *Node) ComputeWorldMatrix() mmath.Mat4 {
	if n == nil {
		return mmath.NewMat4()
	}
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Muled(m)
	}
	return m
}

// WorldPosition はワールド座標を返す。
func (n *Node) WorldPosition() mmath.Vec3 {
	return n.ComputeWorldMatrix().Translation()
}

// WorldQuaternion はワールド回転を返す。
func (n *Node) WorldQuaternion() mmath.Quaternion {
	return n.ComputeWorldMatrix().Quaternion()
}

// LookAt は +Z 軸がワールド座標 target を向くようにローカル回転を設定する。
func (n *Node) LookAt(target mmath.Vec3) {
	if n == nil {
		return
	}
	position := n.WorldPosition()
	rotation := mmath.NewQuaternionFromDirection(target.Subed(position), mmath.UNIT_Y_VEC3)
	if n.parent != nil {
		rotation = n.parent.WorldQuaternion().Inverted().Muled(rotation)
	}
	n.Rotation = rotation.Normalized()
	n.UpdateWorldMatrix()
}

// Find は名前一致する子孫ノードを深さ優先で探す。
func (n *Node) Find(name string) *Node {
	if n == nil {
		return nil
	}
	if n.Name == name {
		return n
	}
	for _, child := range n.children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Traverse は自身と子孫を深さ優先で走査する。
func (n *Node) Traverse(fn func(*Node)) {
	if n == nil || fn == nil {
		return
	}
	fn(n)
	for _, child := range n.children {
		child.Traverse(fn)
	}
}
