package serper

import "github.com/abadojack/whatlanggo"

// hl codes the provider accepts, keyed by detected language. Keywords are
// short, so detection leans on script rather than trigram confidence; the
// table only needs the languages the tracker is actually pointed at.
var langHints = map[whatlanggo.Lang]string{
	whatlanggo.Eng: "en",
	whatlanggo.Cmn: "zh-tw",
	whatlanggo.Jpn: "ja",
	whatlanggo.Kor: "ko",
	whatlanggo.Spa: "es",
	whatlanggo.Fra: "fr",
	whatlanggo.Deu: "de",
	whatlanggo.Por: "pt",
	whatlanggo.Rus: "ru",
	whatlanggo.Arb: "ar",
	whatlanggo.Tha: "th",
	whatlanggo.Vie: "vi",
	whatlanggo.Ita: "it",
}

// LanguageHint guesses the interface-language parameter for a keyword when
// no language is configured. Falls back to "en" for anything the table does
// not cover.
func LanguageHint(keyword string) string {
	info := whatlanggo.Detect(keyword)
	if hl, ok := langHints[info.Lang]; ok {
		return hl
	}
	return "en"
}
