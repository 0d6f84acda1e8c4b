package simon

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MinColorCount     = 2
	MaxColorCount     = 100
	DefaultColorCount = 4
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Color はパレット上の1色。Name がシーケンスに使われるトークンです。
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Palette はルームで使用できる色の並び
type Palette []Color

// Tokens はシーケンス生成・検証に使う色トークンの一覧を返します。
func (p Palette) Tokens() []string {
	tokens := make([]string, len(p))
	for i, c := range p {
		tokens[i] = c.Name
	}
	return tokens
}

// DefaultBaseColors は基本10色を毎回新しいスライスで返します。
func DefaultBaseColors() []Color {
	return []Color{
		{Name: "red", Hex: "#FF4444"},
		{Name: "blue", Hex: "#4444FF"},
		{Name: "green", Hex: "#44FF44"},
		{Name: "yellow", Hex: "#FFFF44"},
		{Name: "orange", Hex: "#FF8800"},
		{Name: "purple", Hex: "#FF44FF"},
		{Name: "pink", Hex: "#FF88BB"},
		{Name: "cyan", Hex: "#44FFFF"},
		{Name: "lime", Hex: "#88FF44"},
		{Name: "indigo", Hex: "#4444AA"},
	}
}

// Resolver は色数または指定色リストからパレットを決定します。
// 基本色テーブルは生成時にコピーされ、以降変更されません。
type Resolver struct {
	base   []Color
	byName map[string]string
	rnd    Rand
}

func NewResolver(base []Color, rnd Rand) *Resolver {
	if rnd == nil {
		rnd = defaultRand{}
	}
	r := &Resolver{
		base:   append([]Color(nil), base...),
		byName: make(map[string]string, len(base)),
		rnd:    rnd,
	}
	for _, c := range base {
		r.byName[c.Name] = c.Hex
	}
	return r
}

// BaseSize は基本色テーブルの色数
func (r *Resolver) BaseSize() int { return len(r.base) }

// Resolve は selected が空でなければそれを検証して順序どおりに返し、
// 空なら基本色の先頭 colorCount 色（不足分は colorN をランダムなHEXで補完）を返します。
func (r *Resolver) Resolve(selected []string, colorCount int) (Palette, error) {
	if len(selected) > 0 {
		return r.resolveSelected(selected)
	}

	if colorCount < MinColorCount || colorCount > MaxColorCount {
		return nil, fmt.Errorf("color count %d outside %d..%d: %w", colorCount, MinColorCount, MaxColorCount, ErrInvalidConfiguration)
	}

	palette := make(Palette, 0, colorCount)
	for i := 0; i < colorCount && i < len(r.base); i++ {
		palette = append(palette, r.base[i])
	}
	for i := len(palette); i < colorCount; i++ {
		palette = append(palette, Color{
			Name: fmt.Sprintf("color%d", i+1),
			Hex:  fmt.Sprintf("#%06X", r.rnd.Intn(1<<24)),
		})
	}
	return palette, nil
}

func (r *Resolver) resolveSelected(selected []string) (Palette, error) {
	if len(selected) < MinColorCount || len(selected) > MaxColorCount {
		return nil, fmt.Errorf("%d selected colors outside %d..%d: %w", len(selected), MinColorCount, MaxColorCount, ErrInvalidConfiguration)
	}

	seen := make(map[string]struct{}, len(selected))
	palette := make(Palette, 0, len(selected))
	for _, token := range selected {
		if strings.TrimSpace(token) == "" {
			return nil, fmt.Errorf("blank color token: %w", ErrInvalidColorSet)
		}
		if _, dup := seen[token]; dup {
			return nil, fmt.Errorf("duplicate color %q: %w", token, ErrInvalidColorSet)
		}
		seen[token] = struct{}{}
		palette = append(palette, Color{Name: token, Hex: r.hexFor(token)})
	}
	return palette, nil
}

func (r *Resolver) hexFor(token string) string {
	if IsHexColor(token) {
		return strings.ToUpper(token)
	}
	// カスタム名の色はHEXを持たない
	return r.byName[token]
}

// IsHexColor は #RRGGBB 形式かどうかを判定します。
func IsHexColor(token string) bool {
	return hexColorPattern.MatchString(token)
}
