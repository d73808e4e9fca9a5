package scanner

// IsStatic reports whether the file holds only functions, constants or
// executable statements and no type declaration at all. Such files cannot be
// reached through a per-class mapping and are only useful when included
// eagerly for their side effects. A mixed file (any type declaration, even
// alongside free functions) is never static: eagerly including it and later
// lazily loading one of its types would define the type twice.
func (f *FileSymbols) IsStatic() bool {
	if f.TypeDeclCount > 0 {
		return false
	}
	return f.FunctionCount > 0 || f.ConstantCount > 0 || f.StatementCount > 0
}
