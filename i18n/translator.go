package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data carries values substituted into {placeholders} of the message (for
// example "path", "kind", "min").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"cast_error":         "Cast to {kind} failed for value {value} at path `{path}`",
		"required":           "Path `{path}` is required.",
		"enum":               "`{value}` is not a valid enum value for path `{path}`.",
		"min":                "Path `{path}` ({value}) is less than minimum allowed value ({min}).",
		"max":                "Path `{path}` ({value}) is more than maximum allowed value ({max}).",
		"minlength":          "Path `{path}` (`{value}`) is shorter than the minimum allowed length ({minlength}).",
		"maxlength":          "Path `{path}` (`{value}`) is longer than the maximum allowed length ({maxlength}).",
		"match":              "Path `{path}` is invalid ({value}).",
		"user_defined":       "Validator failed for path `{path}` with value `{value}`",
		"object_expected":    "Tried to set nested object field `{path}` to primitive value `{value}`",
		"unknown_key":        "Field `{path}` is not in schema and strict mode is set to throw.",
		"invalid_definition": "Invalid schema configuration at `{path}`",
		"duplicate_key":      "duplicate key",
		"parse_error":        "parse error",
	},
	"ja": {
		"cast_error":         "パス `{path}` の値 {value} を {kind} に変換できません",
		"required":           "パス `{path}` は必須です",
		"enum":               "`{value}` はパス `{path}` の列挙値ではありません",
		"min":                "パス `{path}` ({value}) が最小値 ({min}) を下回っています",
		"max":                "パス `{path}` ({value}) が最大値 ({max}) を超えています",
		"minlength":          "パス `{path}` が短すぎます (最小 {minlength})",
		"maxlength":          "パス `{path}` が長すぎます (最大 {maxlength})",
		"match":              "パス `{path}` の形式が不正です ({value})",
		"user_defined":       "パス `{path}` のバリデータが失敗しました",
		"object_expected":    "ネストしたフィールド `{path}` にプリミティブ値 `{value}` は設定できません",
		"unknown_key":        "フィールド `{path}` はスキーマに存在しません",
		"invalid_definition": "`{path}` のスキーマ定義が不正です",
		"duplicate_key":      "キーが重複しています",
		"parse_error":        "解析エラー",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	dict := dictionaries[t.lang]
	msg, ok := dict[code]
	if !ok {
		return code
	}
	if len(data) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
