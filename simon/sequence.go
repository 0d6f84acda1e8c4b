package simon

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// Rand はシーケンスとパレット生成に使う乱数源。*rand.Rand がそのまま使えます。
type Rand interface {
	Intn(n int) int
}

// パッケージレベルの math/rand はゴルーチンセーフ
type defaultRand struct{}

func (defaultRand) Intn(n int) int { return rand.Intn(n) }

// Generator はパレットからランダムに色を引いてシーケンスを伸ばします。
type Generator struct {
	rnd Rand
}

func NewGenerator(rnd Rand) *Generator {
	if rnd == nil {
		rnd = defaultRand{}
	}
	return &Generator{rnd: rnd}
}

// AppendStep は current の末尾に1色追加した新しいスライスを返します。current は変更しません。
func (g *Generator) AppendStep(current, palette []string) ([]string, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("empty palette: %w", ErrInvalidConfiguration)
	}
	next := make([]string, len(current), len(current)+1)
	copy(next, current)
	return append(next, palette[g.rnd.Intn(len(palette))]), nil
}

// GenerateInitial は length 個の色を独立に引いたシーケンスを返します（重複あり）。
func (g *Generator) GenerateInitial(palette []string, length int) ([]string, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("empty palette: %w", ErrInvalidConfiguration)
	}
	if length < 0 {
		return nil, fmt.Errorf("negative sequence length %d: %w", length, ErrInvalidConfiguration)
	}
	seq := make([]string, length)
	for i := range seq {
		seq[i] = palette[g.rnd.Intn(len(palette))]
	}
	return seq, nil
}

// DecodeSequence は保存されたJSONのシーケンスを復元します。
// 空のデータは空シーケンス。壊れたデータはエラーを返し、扱いは呼び出し側が決めます。
func DecodeSequence(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var seq []string
	if err := json.Unmarshal(raw, &seq); err != nil {
		return []string{}, fmt.Errorf("decode sequence: %w", err)
	}
	if seq == nil {
		seq = []string{}
	}
	return seq, nil
}

func EncodeSequence(seq []string) ([]byte, error) {
	if seq == nil {
		seq = []string{}
	}
	return json.Marshal(seq)
}
