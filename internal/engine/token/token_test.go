package token

import (
	"testing"
)

func TestTokenizeSimpleClass(t *testing.T) {
	tokens := Tokenize([]byte("<?php\nclass Foo {}\n"))
	if len(tokens) == 0 {
		t.Fatal("expected tokens")
	}

	var kinds []string
	for _, tok := range tokens {
		if tok.Trivia() {
			continue
		}
		kinds = append(kinds, tok.Kind)
	}

	want := []string{"class", "name", "{", "}"}
	if len(kinds) != len(want) {
		t.Fatalf("expected kinds %v, got %v", want, kinds)
	}
	for i, k := range want {
		if kinds[i] != k {
			t.Fatalf("token %d: expected kind %q, got %q", i, k, kinds[i])
		}
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens := Tokenize([]byte("<?php\nclass Foo {}\n"))
	for _, tok := range tokens {
		if tok.Kind == "name" && tok.Text == "Foo" {
			if tok.Line != 2 {
				t.Errorf("expected Foo on line 2, got %d", tok.Line)
			}
			return
		}
	}
	t.Fatal("name token not found")
}

func TestTokenizeEmptyInput(t *testing.T) {
	if got := Tokenize(nil); len(got) != 0 {
		t.Errorf("expected no tokens for empty input, got %d", len(got))
	}
}

func TestTokenizeBinaryContent(t *testing.T) {
	// Content without a PHP open tag is inline text: the stream must be all
	// trivia so no symbols can ever be extracted from it.
	junk := []byte{0x00, 0xff, 0xfe, 'a', 'b', 0x01, 0x02}
	for _, tok := range Tokenize(junk) {
		if !tok.Trivia() {
			t.Errorf("expected only trivia tokens for binary content, got kind %q", tok.Kind)
		}
	}
}

func TestVerify(t *testing.T) {
	if err := Verify(); err != nil {
		t.Fatalf("grammar verification failed: %v", err)
	}
}
