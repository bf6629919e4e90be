package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	msg := T("in_use", map[string]string{"pointer": "#/$defs/Address"})
	if msg != "cannot delete #/$defs/Address: the type is in use" {
		t.Fatalf("unexpected english message %q", msg)
	}

	SetLanguage("ja")
	if msg := T("in_use", map[string]string{"pointer": "#/$defs/Address"}); msg == "in_use" || msg[0] == 'c' {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_UnknownCodeFallsBack(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("expected code fallback, got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	if msg := T("not_found", nil); msg != "X:not_found" {
		t.Fatalf("custom translator not used: %q", msg)
	}
}
