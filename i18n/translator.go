package i18n

import "strings"

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "pointer" or "referrers").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"not_found":          "node {pointer} does not exist",
		"invalid_parent":     "{pointer} cannot hold this kind of child",
		"root_deletion":      "the root node cannot be deleted or renamed",
		"in_use":             "cannot delete {pointer}: the type is in use",
		"dangling_reference": "reference {ref} does not point at an existing node",
		"reference_chain":    "{pointer} refers to another reference",
		"name_collision":     "{pointer} already exists",
		"invalid_value":      "invalid value",
		"invalid_document":   "the document is not a supported JSON Schema",
	},
	"ja": {
		"not_found":          "ノード {pointer} が存在しません",
		"invalid_parent":     "{pointer} にはこの種類の子を追加できません",
		"root_deletion":      "ルートノードは削除・名前変更できません",
		"in_use":             "{pointer} を削除できません: 型が使用中です",
		"dangling_reference": "参照 {ref} が既存のノードを指していません",
		"reference_chain":    "{pointer} は別の参照を参照しています",
		"name_collision":     "{pointer} は既に存在します",
		"invalid_value":      "値が不正です",
		"invalid_document":   "サポートされていない JSON Schema です",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
