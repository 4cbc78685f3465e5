package morph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRomanize(t *testing.T) {
	cases := []struct {
		kana string
		want string
	}{
		{"トショカン", "toshokan"},
		{"イッタ", "itta"},
		{"マッチャ", "matcha"},
		{"コーヒー", "koohii"},
		{"シンヨウ", "shin'you"},
		{"キョウ", "kyou"},
		{"ヴァイオリン", "vaiorin"},
		{"ティー", "tii"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Romanize(c.kana), "Romanize(%q)", c.kana)
	}
}

func TestRomanize_TrailingGeminateKept(t *testing.T) {
	assert.Equal(t, "i"+GeminateMarker, Romanize("イッ"))
	assert.Equal(t, "ya"+GeminateMarker, Romanize("やっ"))
}

func TestRomanize_PassesThroughNonKana(t *testing.T) {
	assert.Equal(t, "abc", Romanize("abc"))
	assert.Equal(t, "、", Romanize("、"))
}

func TestKatakanaToHiragana(t *testing.T) {
	assert.Equal(t, "としょかん", KatakanaToHiragana("トショカン"))
	assert.Equal(t, "こーひー", KatakanaToHiragana("コーヒー"))
	assert.Equal(t, "abc漢字", KatakanaToHiragana("abc漢字"))
}

func TestClassifyChars(t *testing.T) {
	assert.Equal(t, CharAlpha, ClassifyChars("Hello"))
	assert.Equal(t, CharDigit, ClassifyChars("333"))
	assert.Equal(t, CharOther, ClassifyChars("図書館"))
	assert.Equal(t, CharOther, ClassifyChars("a1"))
	assert.Equal(t, CharOther, ClassifyChars(""))
}

func TestForeignSpelling(t *testing.T) {
	word, ok := ForeignSpelling("カツレツ-cutlet")
	assert.True(t, ok)
	assert.Equal(t, "cutlet", word)

	_, ok = ForeignSpelling("図書館")
	assert.False(t, ok)

	_, ok = ForeignSpelling("ビル-ビルディング")
	assert.False(t, ok)
}

func TestHasKanji(t *testing.T) {
	assert.True(t, HasKanji("図書館に"))
	assert.False(t, HasKanji("ひらがな"))
	assert.False(t, HasKanji("ascii"))
}

func TestIsDigitsAndASCII(t *testing.T) {
	assert.True(t, IsDigits("2024"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("20a"))
	assert.True(t, IsASCII("it's"))
	assert.False(t, IsASCII("東京"))
}

func TestNewMorpheme_FromUniDicFeatures(t *testing.T) {
	m := newMorpheme("図書館", []string{"名詞", "普通名詞", "一般", "*", "*", "*", "トショカン", "図書館", "図書館", "トショカン"}, false)
	assert.Equal(t, "toshokan", m.Romanized)
	assert.Equal(t, "トショカン", m.Kana)
	assert.Equal(t, "名詞", m.POS1)
	assert.Equal(t, "普通名詞", m.POS2)
	assert.False(t, m.IsForeign)
}

func TestNewMorpheme_InflectedUsesPronunciation(t *testing.T) {
	m := newMorpheme("行っ", []string{"動詞", "非自立可能", "*", "*", "五段-カ行", "連用形-促音便", "イク", "行く", "行っ", "イッ"}, false)
	assert.Equal(t, "イッ", m.Kana)
	assert.Equal(t, "i"+GeminateMarker, m.Romanized)
	assert.True(t, m.TrailingGeminate)
}

func TestNewMorpheme_ForeignLemma(t *testing.T) {
	m := newMorpheme("カツレツ", []string{"名詞", "普通名詞", "一般", "*", "*", "*", "カツレツ", "カツレツ-cutlet", "カツレツ", "カツレツ"}, false)
	assert.True(t, m.IsForeign)
	assert.Equal(t, "cutlet", m.Romanized)
}

func TestNewMorpheme_ASCIISurface(t *testing.T) {
	m := newMorpheme("Hello", []string{"名詞", "普通名詞", "一般"}, true)
	assert.Equal(t, "Hello", m.Romanized)
	assert.True(t, m.IsUnknown)
	assert.Equal(t, CharAlpha, m.CharClass)
}
