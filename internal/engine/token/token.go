// Package token flattens a PHP parse tree into the lexical token stream the
// symbol extractor consumes. tree-sitter is error tolerant, so arbitrary byte
// content degrades to a stream that simply yields no declarations instead of
// failing the scan.
package token

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// Token is one lexical unit: keyword, name, operator or structural character.
// Kind carries the grammar's token kind; for structural single-character
// tokens the kind equals the text.
type Token struct {
	Kind   string
	Text   string
	Line   int
	Column int
}

// Trivia reports whether the token carries no lexical meaning for symbol
// extraction: comments, inline HTML and PHP open/close tags.
func (t Token) Trivia() bool {
	switch t.Kind {
	case "comment", "text", "php_tag", "?>":
		return true
	}
	return false
}

var (
	langOnce sync.Once
	language *sitter.Language

	verifyOnce sync.Once
	verifyErr  error
)

func phpLanguage() *sitter.Language {
	langOnce.Do(func() {
		language = sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	})
	return language
}

// Verify checks once that the bundled grammar is loadable and compatible with
// the linked tree-sitter runtime. The result is memoized; a failure here means
// the environment cannot scan at all.
func Verify() error {
	verifyOnce.Do(func() {
		parser := sitter.NewParser()
		defer parser.Close()
		verifyErr = parser.SetLanguage(phpLanguage())
	})
	return verifyErr
}

// Tokenize parses content and returns its leaf tokens in source order. Any
// input that cannot be parsed contributes an empty stream.
func Tokenize(content []byte) []Token {
	if len(content) == 0 {
		return nil
	}
	if err := Verify(); err != nil {
		return nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(phpLanguage()); err != nil {
		return nil
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	tokens := make([]Token, 0, 128)
	collectLeaves(tree.RootNode(), content, &tokens)
	return tokens
}

func collectLeaves(node *sitter.Node, source []byte, out *[]Token) {
	if node == nil {
		return
	}
	count := node.ChildCount()
	if count == 0 {
		start, end := node.StartByte(), node.EndByte()
		// Zero-width leaves are "missing" nodes inserted during error
		// recovery; they carry no source text.
		if end <= start || int(end) > len(source) {
			return
		}
		*out = append(*out, Token{
			Kind:   node.Kind(),
			Text:   string(source[start:end]),
			Line:   int(node.StartPosition().Row) + 1,
			Column: int(node.StartPosition().Column) + 1,
		})
		return
	}
	for i := uint(0); i < count; i++ {
		collectLeaves(node.Child(i), source, out)
	}
}
