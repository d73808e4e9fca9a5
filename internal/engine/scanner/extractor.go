package scanner

import (
	"strings"

	"phpmap/internal/engine/token"
)

// FileSymbols is the result of one extraction pass over a file's tokens.
type FileSymbols struct {
	// Names holds the fully qualified class-like names declared in the file,
	// de-duplicated, in declaration order.
	Names []string
	// Aliases is the final import table: alias (or trailing segment) to the
	// imported fully qualified name. Aliases reset per namespace block, so
	// only the last active table is retained here.
	Aliases map[string]string

	TypeDeclCount  int
	FunctionCount  int
	ConstantCount  int
	StatementCount int
}

const nsSeparator = `\`

type extractor struct {
	tokens []token.Token
	pos    int

	namespace string
	nsDepth   int // brace depth of an open brace-form namespace block, 0 if none
	depth     int
	bodies    []int // brace depths of open class-like declaration bodies
	aliases   map[string]string

	// pendingBody marks that a declaration keyword was seen and the next
	// opening brace starts its body.
	pendingBody bool

	prev token.Token

	result *FileSymbols
	seen   map[string]bool
}

// ExtractSymbols runs a single forward pass over the token stream and emits
// every named class, interface, trait and enum declaration as a fully
// qualified name. No syntax tree is built; scope is tracked with a brace
// depth counter and the namespace/alias state described by the language's
// declaration forms.
func ExtractSymbols(tokens []token.Token) *FileSymbols {
	significant := make([]token.Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Trivia() {
			continue
		}
		significant = append(significant, tok)
	}

	e := &extractor{
		tokens:  significant,
		aliases: make(map[string]string),
		result:  &FileSymbols{},
		seen:    make(map[string]bool),
	}
	e.run()
	e.result.Aliases = e.aliases
	return e.result
}

func (e *extractor) run() {
	for e.pos < len(e.tokens) {
		tok := e.tokens[e.pos]
		switch {
		case tok.Text == "{":
			e.depth++
			if e.pendingBody {
				e.bodies = append(e.bodies, e.depth)
				e.pendingBody = false
			}
			e.advance(tok)

		case tok.Text == "}":
			if n := len(e.bodies); n > 0 && e.bodies[n-1] == e.depth {
				e.bodies = e.bodies[:n-1]
			}
			if e.nsDepth > 0 && e.depth == e.nsDepth {
				e.namespace = ""
				e.nsDepth = 0
				e.aliases = make(map[string]string)
			}
			e.depth--
			e.advance(tok)

		case tok.Kind == "namespace" && e.atStatementStart():
			e.consumeNamespace()

		case tok.Kind == "use" && !e.inBody():
			e.consumeUse()

		case isDeclarationKind(tok.Kind):
			e.consumeDeclaration(tok)

		case tok.Kind == "function" && !e.inBody():
			e.result.FunctionCount++
			e.advance(tok)

		case tok.Kind == "const" && !e.inBody():
			e.result.ConstantCount++
			e.advance(tok)

		default:
			if !e.inBody() && !isPunctuation(tok.Text) {
				e.result.StatementCount++
			}
			e.advance(tok)
		}
	}
}

func (e *extractor) advance(tok token.Token) {
	e.prev = tok
	e.pos++
}

func (e *extractor) inBody() bool {
	return len(e.bodies) > 0
}

// atStatementStart distinguishes a namespace declaration from a relative
// name usage such as namespace\helper(): declarations only occur where a
// statement can begin.
func (e *extractor) atStatementStart() bool {
	switch e.prev.Text {
	case "", ";", "{", "}":
		return true
	}
	return false
}

// consumeNamespace reads "namespace A\B;" or "namespace A\B { ... }". The
// collected name only takes effect when the statement terminates with a
// semicolon or an opening brace; anything else means the keyword was part of
// an expression and the whole lookahead is abandoned.
func (e *extractor) consumeNamespace() {
	start := e.tokens[e.pos]
	j := e.pos + 1
	var parts []string
	for j < len(e.tokens) {
		t := e.tokens[j]
		if t.Kind == "name" || t.Text == nsSeparator {
			parts = append(parts, t.Text)
			j++
			continue
		}
		break
	}

	terminator := token.Token{}
	if j < len(e.tokens) {
		terminator = e.tokens[j]
	}

	switch terminator.Text {
	case ";", "":
		e.namespace = normalizeNamespace(parts)
		e.nsDepth = 0
		e.aliases = make(map[string]string)
		e.prev = terminator
		e.pos = j + 1
	case "{":
		e.namespace = normalizeNamespace(parts)
		e.depth++
		e.nsDepth = e.depth
		e.aliases = make(map[string]string)
		e.prev = terminator
		e.pos = j + 1
	default:
		// Relative name usage, not a declaration.
		e.advance(start)
	}
}

func normalizeNamespace(parts []string) string {
	joined := strings.Join(parts, "")
	joined = strings.TrimPrefix(joined, nsSeparator)
	return joined
}

// consumeUse reads an import statement, including grouped form
// "use A\{B, C as D};". Function and const imports do not name types and are
// skipped; a closure capture list ("function () use ($x)") is left untouched.
func (e *extractor) consumeUse() {
	start := e.tokens[e.pos]
	j := e.pos + 1

	if j < len(e.tokens) && e.tokens[j].Text == "(" {
		// Closure capture list.
		e.advance(start)
		return
	}

	skipOnly := false
	if j < len(e.tokens) && (e.tokens[j].Kind == "function" || e.tokens[j].Kind == "const") {
		skipOnly = true
		j++
	}

	var current strings.Builder
	groupPrefix := ""
	alias := ""

	register := func() {
		name := strings.TrimPrefix(groupPrefix+current.String(), nsSeparator)
		current.Reset()
		key := alias
		alias = ""
		if skipOnly || name == "" {
			return
		}
		if key == "" {
			segments := strings.Split(name, nsSeparator)
			key = segments[len(segments)-1]
		}
		e.aliases[key] = name
	}

loop:
	for j < len(e.tokens) {
		t := e.tokens[j]
		switch {
		case t.Kind == "name" || t.Text == nsSeparator:
			if alias != "" {
				// "as" already bound; a further name is malformed, bail.
				break loop
			}
			current.WriteString(t.Text)
		case t.Kind == "as":
			j++
			if j < len(e.tokens) && e.tokens[j].Kind == "name" {
				alias = e.tokens[j].Text
			}
		case t.Text == ",":
			register()
		case t.Text == "{":
			groupPrefix = current.String()
			current.Reset()
		case t.Text == "}":
			register()
			groupPrefix = ""
		case t.Text == ";":
			register()
			e.prev = t
			e.pos = j + 1
			return
		default:
			break loop
		}
		j++
	}

	// Unterminated or unexpected shape: drop any partial entry and resume
	// after the last token we understood.
	e.prev = start
	e.pos = j
}

// consumeDeclaration handles a class/interface/trait/enum keyword. Two
// lookback exclusions apply: "new" marks an anonymous class expression and
// "::" marks a ::class constant reference. A named declaration inside another
// declaration body is tracked for scope but never emitted.
func (e *extractor) consumeDeclaration(tok token.Token) {
	if e.prev.Text == "::" {
		e.advance(tok)
		return
	}
	if strings.EqualFold(e.prev.Text, "new") {
		// Anonymous class: declares a type, but an unnamed one.
		e.result.TypeDeclCount++
		e.pendingBody = true
		e.advance(tok)
		return
	}

	j := e.pos + 1
	if j >= len(e.tokens) || e.tokens[j].Kind != "name" {
		// Missing name: either an anonymous form we could not attribute to
		// "new" (attributes or modifiers in between) or malformed input.
		// Track the body if one opens, emit nothing.
		e.result.TypeDeclCount++
		e.pendingBody = j < len(e.tokens)
		e.advance(tok)
		return
	}

	name := e.tokens[j].Text
	if !e.inBody() {
		fqn := name
		if e.namespace != "" {
			fqn = e.namespace + nsSeparator + name
		}
		if !e.seen[fqn] {
			e.seen[fqn] = true
			e.result.Names = append(e.result.Names, fqn)
		}
		e.result.TypeDeclCount++
	}
	e.pendingBody = true
	e.prev = e.tokens[j]
	e.pos = j + 1
}

func isDeclarationKind(kind string) bool {
	switch kind {
	case "class", "interface", "trait", "enum":
		return true
	}
	return false
}

func isPunctuation(text string) bool {
	switch text {
	case ";", ",", "(", ")", "[", "]", "=", ":", "?", ".", "->", "=>", "&", "|":
		return true
	}
	return false
}
