package purifier

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var fixtureWords = []string{
	"政治甲", "政治乙", "政治丙", "政治甲乙丙",
	"粗口甲", "粗口乙", "粗口丙", "粗口甲乙丙",
	"色情甲", "色情乙", "色情丙", "色情甲乙丙",
	" \r\n\t", "",
}

func TestPurifier_Check(t *testing.T) {
	p := New(WithWords(fixtureWords...))
	assert.Equal(t, 12, p.Len())

	for _, s := range []string{"", "政治", "粗口", "色情", "甲", "乙", "丙", "政治粗口色情", "甲乙丙"} {
		assert.False(t, p.Check(s), s)
	}
	for _, w := range fixtureWords[:12] {
		assert.True(t, p.Check(w), w)
	}
	assert.True(t, p.Check("政 治 甲"))
}

func TestPurifier_PurifyString(t *testing.T) {
	p := New(WithWords(fixtureWords...))

	cases := []struct {
		text, mask, want string
	}{
		{"", "*禁言*", ""},
		{"政治粗口色情", "*禁言*", "政治粗口色情"},
		{"ABC DEF GHI ＜政治一二三＞ ＜粗口一二三＞ 987", "*禁言*", "ABC DEF GHI ＜政治一二三＞ ＜粗口一二三＞ 987"},
		{
			"ABC DEF GHI ＜政治甲＞ ＜政治乙＞ ＜政治丙＞ 政治甲乙丙 987 654 321", "禁言",
			"ABC DEF GHI ＜禁言＞ ＜禁言＞ ＜禁言＞ 禁言 987 654 321",
		},
		{
			"ABC DEF GHI ＜粗口甲＞ ＜粗口乙＞ ＜粗口丙＞ 粗口甲乙丙 987 654 321", "*禁言*",
			"ABC DEF GHI ＜*禁言*＞ ＜*禁言*＞ ＜*禁言*＞ *禁言* 987 654 321",
		},
		{"政治甲乙", "禁言", "禁言乙"},
		{"色情甲乙", "*禁言*", "*禁言*乙"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, p.PurifyString(c.text, c.mask), c.text)
	}
}

func TestPurifier_PurifyRune(t *testing.T) {
	p := New(WithWords(fixtureWords...))
	text := "ABC DEF GHI ＜色情甲＞ ＜色情乙＞ ＜色情丙＞ 色情甲乙丙 987 654 321"

	assert.Equal(t, "ABC DEF GHI ＜###＞ ＜###＞ ＜###＞ ##### 987 654 321", p.PurifyRune(text, '#', true))
	assert.Equal(t, "ABC DEF GHI ＜#＞ ＜#＞ ＜#＞ # 987 654 321", p.PurifyRune(text, '#', false))
	assert.Equal(t, "###乙", p.PurifyRune("粗口甲乙", '#', true))
	assert.Equal(t, "#乙", p.PurifyRune("粗口甲乙", '#', false))
	assert.Equal(t, "禁禁禁乙", p.PurifyRune("粗口甲乙", '禁', true))
}

func TestPurifier_Legacy(t *testing.T) {
	p := New(WithWords("abc"), WithStrategy(StrategyLegacy))
	assert.Equal(t, StrategyLegacy, p.Strategy())
	assert.Equal(t, "x#xab#", p.PurifyString("xabcxabcx", "#"))
}

func TestPurifier_AddAndReplace(t *testing.T) {
	p := New()
	assert.False(t, p.Check("foo"))
	g0 := p.Generation()

	p.Add("foo", "bar")
	assert.True(t, p.Check("xfoox"))
	assert.Equal(t, 2, p.Len())
	assert.Greater(t, p.Generation(), g0)

	g1 := p.Generation()
	p.Replace([]string{"baz"})
	assert.False(t, p.Check("foo"))
	assert.True(t, p.Check("BAZ"))
	assert.Equal(t, 1, p.Len())
	assert.Greater(t, p.Generation(), g1)

	g2 := p.Generation()
	p.Add()
	assert.Equal(t, g2, p.Generation())
}

func TestPurifier_ScanMatchesPurify(t *testing.T) {
	p := New(WithWords("abc"))
	text := "xabcx"
	spans := p.Scan(text)
	assert.Equal(t, []Span{{1, 3}}, spans)
	assert.Equal(t, p.PurifyString(text, "***"), p.Apply(text, spans, MaskString("***")))
}

func TestPurifier_ConcurrentAddAndCheck(t *testing.T) {
	p := New(WithWords("seed"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			p.Add(string(rune('a'+i%26)) + "word")
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				assert.True(t, p.Check("a seed b"))
				_ = p.PurifyRune("aword bword seed", '*', true)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 27, p.Len())
}
