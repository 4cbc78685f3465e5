package morph

import "strings"

var hepburnMono = map[rune]string{
	'あ': "a", 'い': "i", 'う': "u", 'え': "e", 'お': "o",
	'か': "ka", 'き': "ki", 'く': "ku", 'け': "ke", 'こ': "ko",
	'が': "ga", 'ぎ': "gi", 'ぐ': "gu", 'げ': "ge", 'ご': "go",
	'さ': "sa", 'し': "shi", 'す': "su", 'せ': "se", 'そ': "so",
	'ざ': "za", 'じ': "ji", 'ず': "zu", 'ぜ': "ze", 'ぞ': "zo",
	'た': "ta", 'ち': "chi", 'つ': "tsu", 'て': "te", 'と': "to",
	'だ': "da", 'ぢ': "ji", 'づ': "zu", 'で': "de", 'ど': "do",
	'な': "na", 'に': "ni", 'ぬ': "nu", 'ね': "ne", 'の': "no",
	'は': "ha", 'ひ': "hi", 'ふ': "fu", 'へ': "he", 'ほ': "ho",
	'ば': "ba", 'び': "bi", 'ぶ': "bu", 'べ': "be", 'ぼ': "bo",
	'ぱ': "pa", 'ぴ': "pi", 'ぷ': "pu", 'ぺ': "pe", 'ぽ': "po",
	'ま': "ma", 'み': "mi", 'む': "mu", 'め': "me", 'も': "mo",
	'や': "ya", 'ゆ': "yu", 'よ': "yo",
	'ら': "ra", 'り': "ri", 'る': "ru", 'れ': "re", 'ろ': "ro",
	'わ': "wa", 'ゐ': "i", 'ゑ': "e", 'を': "o",
	'ゔ': "vu",
	'ぁ': "a", 'ぃ': "i", 'ぅ': "u", 'ぇ': "e", 'ぉ': "o",
	'ゃ': "ya", 'ゅ': "yu", 'ょ': "yo", 'ゎ': "wa",
}

var hepburnDigraph = map[string]string{
	"きゃ": "kya", "きゅ": "kyu", "きょ": "kyo",
	"ぎゃ": "gya", "ぎゅ": "gyu", "ぎょ": "gyo",
	"しゃ": "sha", "しゅ": "shu", "しょ": "sho", "しぇ": "she",
	"じゃ": "ja", "じゅ": "ju", "じょ": "jo", "じぇ": "je",
	"ちゃ": "cha", "ちゅ": "chu", "ちょ": "cho", "ちぇ": "che",
	"ぢゃ": "ja", "ぢゅ": "ju", "ぢょ": "jo",
	"にゃ": "nya", "にゅ": "nyu", "にょ": "nyo",
	"ひゃ": "hya", "ひゅ": "hyu", "ひょ": "hyo",
	"びゃ": "bya", "びゅ": "byu", "びょ": "byo",
	"ぴゃ": "pya", "ぴゅ": "pyu", "ぴょ": "pyo",
	"みゃ": "mya", "みゅ": "myu", "みょ": "myo",
	"りゃ": "rya", "りゅ": "ryu", "りょ": "ryo",
	"ふぁ": "fa", "ふぃ": "fi", "ふぇ": "fe", "ふぉ": "fo",
	"てぃ": "ti", "でぃ": "di", "とぅ": "tu", "どぅ": "du",
	"てゅ": "tyu", "でゅ": "dyu",
	"うぃ": "wi", "うぇ": "we", "うぉ": "wo",
	"ゔぁ": "va", "ゔぃ": "vi", "ゔぇ": "ve", "ゔぉ": "vo",
	"つぁ": "tsa", "つぃ": "tsi", "つぇ": "tse", "つぉ": "tso",
	"いぇ": "ye",
}

// KatakanaToHiragana maps katakana to hiragana, leaving everything else as is.
func KatakanaToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// Romanize converts a kana reading to modified Hepburn. A trailing small tsu
// is kept as GeminateMarker so it can fuse with the next word.
func Romanize(kana string) string {
	runes := []rune(KatakanaToHiragana(kana))
	var sb strings.Builder
	for i := 0; i < len(runes); {
		r := runes[i]
		switch r {
		case 'っ':
			if i == len(runes)-1 {
				sb.WriteString(GeminateMarker)
			} else if next, _ := unitAt(runes, i+1); next != "" && !isVowel(next[0]) {
				if strings.HasPrefix(next, "ch") {
					sb.WriteByte('t')
				} else {
					sb.WriteByte(next[0])
				}
			}
			i++
			continue
		case 'ー':
			if v := lastVowel(sb.String()); v != 0 {
				sb.WriteByte(v)
			}
			i++
			continue
		case 'ん':
			if next, _ := unitAt(runes, i+1); next != "" && (isVowel(next[0]) || next[0] == 'y') {
				sb.WriteString("n'")
			} else {
				sb.WriteByte('n')
			}
			i++
			continue
		}
		unit, n := unitAt(runes, i)
		if n == 0 {
			sb.WriteRune(r)
			i++
			continue
		}
		sb.WriteString(unit)
		i += n
	}
	return sb.String()
}

// unitAt returns the romaji for the kana unit starting at i and the number of
// runes it spans, or ("", 0) when runes[i] is not kana.
func unitAt(runes []rune, i int) (string, int) {
	if i >= len(runes) {
		return "", 0
	}
	if i+1 < len(runes) {
		if s, ok := hepburnDigraph[string(runes[i:i+2])]; ok {
			return s, 2
		}
	}
	if s, ok := hepburnMono[runes[i]]; ok {
		return s, 1
	}
	return "", 0
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}

func lastVowel(s string) byte {
	if s == "" {
		return 0
	}
	if b := s[len(s)-1]; isVowel(b) {
		return b
	}
	return 0
}
