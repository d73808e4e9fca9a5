package util

import (
	"testing"
)

func TestNormalizePatternPath(t *testing.T) {
	cases := map[string]string{
		"./src/lib":     "src/lib",
		"src\\lib\\":    "src/lib",
		"  src/lib  ":   "src/lib",
		".":             "",
		"src//lib/./a/": "src/lib/a",
	}
	for in, want := range cases {
		if got := NormalizePatternPath(in); got != want {
			t.Errorf("NormalizePatternPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasPathPrefix(t *testing.T) {
	if !HasPathPrefix("src/lib/a.php", "src/lib") {
		t.Error("expected prefix match for contained path")
	}
	if HasPathPrefix("src/library/a.php", "src/lib") {
		t.Error("segment boundary must be respected")
	}
	if !HasPathPrefix("src/lib", "src/lib") {
		t.Error("expected prefix match for equal path")
	}
}

func TestRelativePath(t *testing.T) {
	cases := []struct {
		base, target, want string
	}{
		{"/project/src", "/project/src/ns/A.php", "ns/A.php"},
		{"/project/src", "/project/lib/B.php", "../lib/B.php"},
		{"/project/src/deep", "/other/C.php", "../../../other/C.php"},
		{"/project", "/project", "."},
		{"/a/b", "/a/b/c", "c"},
	}
	for _, tc := range cases {
		if got := RelativePath(tc.base, tc.target); got != tc.want {
			t.Errorf("RelativePath(%q, %q) = %q, want %q", tc.base, tc.target, got, tc.want)
		}
	}
}

func TestRelativePathSurvivesRelocation(t *testing.T) {
	// The same base-relative layout must yield the same result under a
	// different absolute root.
	before := RelativePath("/home/alice/app", "/home/alice/app/src/Model/User.php")
	after := RelativePath("/srv/deploy/app", "/srv/deploy/app/src/Model/User.php")
	if before != after {
		t.Errorf("relocated tree changed relative rendering: %q vs %q", before, after)
	}
}
