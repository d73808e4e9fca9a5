package classmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// DefaultClassName is the cosmetic wrapper name used by generated loader
// artifacts when the caller does not supply one.
const DefaultClassName = "PhpmapLoader"

// Options is the full configuration surface for scanning, lookup and artifact
// rendering. The zero value is not useful; start from DefaultOptions.
type Options struct {
	// Extensions filters candidate files by lowercased extension.
	Extensions []string
	// Exclude holds glob patterns matched against root-relative paths.
	Exclude []string
	// CaseSensitive selects the lookup strategy. The stored mapping always
	// keeps declared case; this only affects resolution.
	CaseSensitive bool
	// FollowSymlinks descends into symlinked directories during traversal.
	FollowSymlinks bool
	// Prepend registers the live resolver at the front of the host chain.
	Prepend bool
	// IncludeStatic eagerly includes declaration-free files.
	IncludeStatic bool
	// Relative renders artifact paths relative to the artifact location.
	// Data tables always use absolute paths.
	Relative bool
	// Namespace and ClassName are cosmetic names for the generated wrapper.
	Namespace string
	ClassName string
}

func DefaultOptions() Options {
	return Options{
		Extensions: []string{"php"},
		Relative:   true,
		ClassName:  DefaultClassName,
	}
}

// Fingerprint returns a stable hash over all option values. Extension and
// exclude inputs are normalized (sorted, de-duplicated, lowercased where case
// is irrelevant) so equivalent configurations share one cache slot.
func (o Options) Fingerprint() uint64 {
	exts := normalizeSet(o.Extensions, true)
	excludes := normalizeSet(o.Exclude, false)

	var b strings.Builder
	fmt.Fprintf(&b, "ext=%s;exc=%s;cs=%t;fs=%t;prepend=%t;static=%t;rel=%t;ns=%s;cls=%s",
		strings.Join(exts, ","),
		strings.Join(excludes, ","),
		o.CaseSensitive,
		o.FollowSymlinks,
		o.Prepend,
		o.IncludeStatic,
		o.Relative,
		o.Namespace,
		o.className(),
	)
	return xxhash.Sum64String(b.String())
}

func (o Options) className() string {
	if strings.TrimSpace(o.ClassName) == "" {
		return DefaultClassName
	}
	return o.ClassName
}

func normalizeSet(values []string, fold bool) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold {
			v = strings.ToLower(strings.TrimPrefix(v, "."))
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
