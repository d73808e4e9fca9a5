package scanner

import (
	"reflect"
	"testing"

	"phpmap/internal/engine/token"
)

func extract(t *testing.T, source string) *FileSymbols {
	t.Helper()
	return ExtractSymbols(token.Tokenize([]byte(source)))
}

func TestExtractSemicolonNamespace(t *testing.T) {
	syms := extract(t, "<?php\nnamespace NS;\nclass A {}\n")
	want := []string{`NS\A`}
	if !reflect.DeepEqual(syms.Names, want) {
		t.Errorf("expected %v, got %v", want, syms.Names)
	}
}

func TestExtractBracedNamespace(t *testing.T) {
	syms := extract(t, "<?php\nnamespace NS {\n    class B {}\n}\n")
	want := []string{`NS\B`}
	if !reflect.DeepEqual(syms.Names, want) {
		t.Errorf("expected %v, got %v", want, syms.Names)
	}
}

func TestExtractMultipleBracedNamespaces(t *testing.T) {
	source := `<?php
namespace First {
    class X {}
}
namespace Second {
    interface Y {}
}
class Global_Z {}
`
	syms := extract(t, source)
	want := []string{`First\X`, `Second\Y`, `Global_Z`}
	if !reflect.DeepEqual(syms.Names, want) {
		t.Errorf("expected %v, got %v", want, syms.Names)
	}
}

func TestExtractDeepNamespace(t *testing.T) {
	syms := extract(t, "<?php\nnamespace A\\B\\C\\D;\ntrait T {}\nenum E {}\n")
	want := []string{`A\B\C\D\T`, `A\B\C\D\E`}
	if !reflect.DeepEqual(syms.Names, want) {
		t.Errorf("expected %v, got %v", want, syms.Names)
	}
}

func TestExtractAllDeclarationKinds(t *testing.T) {
	source := `<?php
class C {}
interface I {}
trait T {}
enum E: string {
    case One = 'one';
}
`
	syms := extract(t, source)
	want := []string{"C", "I", "T", "E"}
	if !reflect.DeepEqual(syms.Names, want) {
		t.Errorf("expected %v, got %v", want, syms.Names)
	}
}

func TestAnonymousClassExcluded(t *testing.T) {
	syms := extract(t, "<?php\n$x = new class {\n    public function run() {}\n};\n")
	if len(syms.Names) != 0 {
		t.Errorf("anonymous class must not be emitted, got %v", syms.Names)
	}
}

func TestClassConstantExcluded(t *testing.T) {
	syms := extract(t, "<?php\n$name = \\Some\\Where\\Foo::class;\n")
	if len(syms.Names) != 0 {
		t.Errorf("::class reference must not be emitted, got %v", syms.Names)
	}
}

func TestAnonymousClassWithArgsAndParent(t *testing.T) {
	syms := extract(t, "<?php\n$x = new class(1, 2) extends Base implements Iface {\n};\nclass Named {}\n")
	want := []string{"Named"}
	if !reflect.DeepEqual(syms.Names, want) {
		t.Errorf("expected %v, got %v", want, syms.Names)
	}
}

func TestTraitUseInsideBodyIsNotImport(t *testing.T) {
	syms := extract(t, "<?php\nclass A {\n    use SomeTrait;\n}\n")
	if len(syms.Aliases) != 0 {
		t.Errorf("trait use must not populate the alias table, got %v", syms.Aliases)
	}
	if !reflect.DeepEqual(syms.Names, []string{"A"}) {
		t.Errorf("expected [A], got %v", syms.Names)
	}
}

func TestImportAliases(t *testing.T) {
	source := `<?php
namespace App;
use Vendor\Lib\Thing as Alias;
use Other\Stuff;
class C {}
`
	syms := extract(t, source)
	if syms.Aliases["Alias"] != `Vendor\Lib\Thing` {
		t.Errorf("expected explicit alias, got %v", syms.Aliases)
	}
	if syms.Aliases["Stuff"] != `Other\Stuff` {
		t.Errorf("expected default alias from trailing segment, got %v", syms.Aliases)
	}
}

func TestGroupedImport(t *testing.T) {
	syms := extract(t, "<?php\nuse A\\{B, C as D};\n")
	if syms.Aliases["B"] != `A\B` {
		t.Errorf("expected grouped import B => A\\B, got %v", syms.Aliases)
	}
	if syms.Aliases["D"] != `A\C` {
		t.Errorf("expected grouped alias D => A\\C, got %v", syms.Aliases)
	}
}

func TestFunctionAndConstImportsIgnored(t *testing.T) {
	syms := extract(t, "<?php\nuse function Some\\Ns\\helper;\nuse const Some\\Ns\\FLAG;\n")
	if len(syms.Aliases) != 0 {
		t.Errorf("function/const imports must not enter the alias table, got %v", syms.Aliases)
	}
}

func TestClosureCaptureIsNotImport(t *testing.T) {
	syms := extract(t, "<?php\n$x = 1;\n$f = function () use ($x) { return $x; };\nclass K {}\n")
	if len(syms.Aliases) != 0 {
		t.Errorf("closure capture must not populate aliases, got %v", syms.Aliases)
	}
	if !reflect.DeepEqual(syms.Names, []string{"K"}) {
		t.Errorf("expected [K], got %v", syms.Names)
	}
}

func TestAliasesResetOnNamespaceChange(t *testing.T) {
	source := `<?php
namespace A;
use Vendor\One;
namespace B;
class C {}
`
	syms := extract(t, source)
	if len(syms.Aliases) != 0 {
		t.Errorf("aliases must reset when a new namespace starts, got %v", syms.Aliases)
	}
	if !reflect.DeepEqual(syms.Names, []string{`B\C`}) {
		t.Errorf("expected [B\\C], got %v", syms.Names)
	}
}

func TestRelativeNamespaceUsageIsNotDeclaration(t *testing.T) {
	source := `<?php
namespace NS;
namespace\helper();
class A {}
`
	syms := extract(t, source)
	if !reflect.DeepEqual(syms.Names, []string{`NS\A`}) {
		t.Errorf("relative name usage must not change the namespace, got %v", syms.Names)
	}
}

func TestMissingDeclarationNameSkipped(t *testing.T) {
	syms := extract(t, "<?php\nclass\n")
	if len(syms.Names) != 0 {
		t.Errorf("declaration without a name must be skipped, got %v", syms.Names)
	}
}

func TestDuplicateDeclarationDeduplicated(t *testing.T) {
	source := `<?php
namespace NS;
if (true) {
    class A {}
} else {
    class A {}
}
`
	syms := extract(t, source)
	if !reflect.DeepEqual(syms.Names, []string{`NS\A`}) {
		t.Errorf("expected one entry for identical names, got %v", syms.Names)
	}
}

func TestConditionalClassInsideFunction(t *testing.T) {
	syms := extract(t, "<?php\nfunction boot() {\n    class Lazy {}\n}\n")
	if !reflect.DeepEqual(syms.Names, []string{"Lazy"}) {
		t.Errorf("conditionally declared class must be collected, got %v", syms.Names)
	}
}

func TestEmptyStream(t *testing.T) {
	syms := ExtractSymbols(nil)
	if len(syms.Names) != 0 || syms.IsStatic() {
		t.Errorf("empty stream must produce nothing, got %+v", syms)
	}
}
