// 指示: miu200521358
package ik

// IK は複数チェーンをまとめて解く。
type IK struct {
	chains []*Chain
}

// NewIK は空のIKを生成する。
func NewIK() *IK {
	return &IK{}
}

// Add はチェーンを登録する。
func (k *IK) Add(chain *Chain) {
	if k == nil || chain == nil {
		return
	}
	k.chains = append(k.chains, chain)
}

// Chains は登録済みチェーンを返す。
func (k *IK) Chains() []*Chain {
	if k == nil {
		return nil
	}
	return k.chains
}

// Solve は全チェーンを登録順に解き、更新されたチェーン数を返す。
func (k *IK) Solve() int {
	if k == nil {
		return 0
	}
	updated := 0
	for _, chain := range k.chains {
		if chain.Solve() {
			updated++
		}
	}
	return updated
}
