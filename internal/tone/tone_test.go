package tone

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		syllable string
		want     int
	}{
		{"mā", 1}, {"má", 2}, {"mǎ", 3}, {"mà", 4},
		{"ma", 0}, {"lǜ", 4}, {"nǚ", 3}, {"lǘ", 2},
		{"guō", 1}, {"xué", 2}, {"nǐ", 3}, {"shù", 4},
		{"", 0}, {"ok", 0}, {"你", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToneOf(tt.syllable), tt.syllable)
	}
}

func TestColorOf(t *testing.T) {
	t.Parallel()

	for tone, want := range map[int]string{1: "#ff0000", 2: "#ffaa00", 3: "#00aa00", 4: "#0000ff"} {
		got, ok := ColorOf(tone)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	for _, tone := range []int{0, -1, 5} {
		_, ok := ColorOf(tone)
		assert.False(t, ok, "tone %d", tone)
	}
}

func TestStyle_NiHao(t *testing.T) {
	t.Parallel()

	pron, styled := Style("你好")
	assert.Equal(t,
		`<span style="color:#00aa00">nǐ</span> <span style="color:#00aa00">hǎo</span>`,
		pron)
	assert.Equal(t,
		`<span style="color:#00aa00">你</span><span style="color:#00aa00">好</span>`,
		styled)
}

func TestStyle_ToneMapping(t *testing.T) {
	t.Parallel()

	_, styled := Style("妈")
	assert.Equal(t, `<span style="color:#ff0000">妈</span>`, styled)

	_, styled = Style("马")
	assert.Equal(t, `<span style="color:#00aa00">马</span>`, styled)
}

func TestStyle_Empty(t *testing.T) {
	t.Parallel()

	pron, styled := Style("")
	assert.Empty(t, pron)
	assert.Empty(t, styled)
}

func TestStyle_NonChinesePassesThrough(t *testing.T) {
	t.Parallel()

	pron, styled := Style("A你!")
	tokens := strings.Split(pron, " ")
	require.Len(t, tokens, 3, "one pronunciation token per character")
	assert.Equal(t, "A", tokens[0])
	assert.Equal(t, `<span style="color:#00aa00">nǐ</span>`, tokens[1])
	assert.Equal(t, "!", tokens[2])
	assert.Equal(t, `A<span style="color:#00aa00">你</span>!`, styled)
}

func TestStyle_InvalidUTF8Replaced(t *testing.T) {
	t.Parallel()

	pron, styled := Style("\xff你")
	tokens := strings.Split(pron, " ")
	require.Len(t, tokens, 2)
	assert.Equal(t, "\uFFFD", tokens[0])
	assert.True(t, strings.HasPrefix(styled, "\uFFFD"))
}

func TestStyle_Deterministic(t *testing.T) {
	t.Parallel()

	inputs := []string{"你好", "我喜欢学习中文。", "Hello 世界", "绿色的草", ""}
	for _, in := range inputs {
		p1, s1 := Style(in)
		p2, s2 := Style(in)
		assert.Equal(t, p1, p2, in)
		assert.Equal(t, s1, s2, in)
	}
}

func TestStyle_StripRecoversText(t *testing.T) {
	t.Parallel()

	in := "我喜欢学习中文。"
	_, styled := Style(in)
	assert.Equal(t, in, Strip(styled))
}

func TestStyleSyllables(t *testing.T) {
	t.Parallel()

	t.Run("aligned", func(t *testing.T) {
		t.Parallel()
		pron, styled := StyleSyllables([]string{"nǐ", "hǎo"}, "你好")
		assert.Equal(t,
			`<span style="color:#00aa00">nǐ</span> <span style="color:#00aa00">hǎo</span>`,
			pron)
		assert.Equal(t,
			`<span style="color:#00aa00">你</span><span style="color:#00aa00">好</span>`,
			styled)
	})

	t.Run("neutral syllable unmarked", func(t *testing.T) {
		t.Parallel()
		pron, styled := StyleSyllables([]string{"mā", "ma"}, "妈妈")
		assert.Equal(t, `<span style="color:#ff0000">mā</span> ma`, pron)
		assert.Equal(t, `<span style="color:#ff0000">妈</span>妈`, styled)
	})

	t.Run("more characters than syllables", func(t *testing.T) {
		t.Parallel()
		pron, styled := StyleSyllables([]string{"zhōng"}, "中文")
		assert.Equal(t, `<span style="color:#ff0000">zhōng</span>`, pron)
		assert.Equal(t, `<span style="color:#ff0000">中</span>文`, styled)
	})

	t.Run("more syllables than characters", func(t *testing.T) {
		t.Parallel()
		pron, styled := StyleSyllables([]string{"ér", "zi"}, "儿")
		assert.Equal(t, `<span style="color:#ffaa00">ér</span> zi`, pron)
		assert.Equal(t, `<span style="color:#ffaa00">儿</span>`, styled)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		pron, styled := StyleSyllables(nil, "")
		assert.Empty(t, pron)
		assert.Empty(t, styled)
	})
}

func TestStrip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nǐ hǎo", Strip(`<span style="color:#00aa00">nǐ</span> <span style="color:#00aa00">hǎo</span>`))
	assert.Equal(t, "plain", Strip("plain"))
	assert.Empty(t, Strip(""))
}
