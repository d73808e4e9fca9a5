package autoload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"phpmap/internal/core/errors"
	"phpmap/internal/engine/classmap"
	"phpmap/internal/shared/observability"
	"phpmap/internal/shared/util"
)

// RenderTable scans dir and returns the raw identifier table. Paths are
// always absolute here; relative rendering only exists for generated source,
// where the artifact's own location anchors them.
func (s *Service) RenderTable(ctx context.Context, dir string, opts classmap.Options) (map[string]string, error) {
	ctx, span := observability.Tracer.Start(ctx, "autoload.RenderTable")
	defer span.End()

	if err := checkEnvironment(); err != nil {
		return nil, err
	}
	mapping, err := s.builder.Build(ctx, dir, opts)
	if err != nil {
		return nil, err
	}
	if mapping.Len() == 0 {
		return nil, errors.AddContext(errors.New(errors.CodeEmptyResult, "no symbols found"), errors.CtxDirectory, dir)
	}
	return mapping.Table(), nil
}

// Render scans dir and produces a standalone PHP loader: a guard against
// double inclusion, the embedded classmap, eager requires for static files
// and an spl_autoload_register closure matching the live resolver's
// behavior. The artifact has no dependency on the generator.
func (s *Service) Render(ctx context.Context, dir string, opts classmap.Options) (string, error) {
	ctx, span := observability.Tracer.Start(ctx, "autoload.Render")
	defer span.End()

	if err := checkEnvironment(); err != nil {
		return "", err
	}
	mapping, err := s.builder.Build(ctx, dir, opts)
	if err != nil {
		return "", err
	}
	if mapping.Len() == 0 {
		return "", errors.AddContext(errors.New(errors.CodeEmptyResult, "no symbols found"), errors.CtxDirectory, dir)
	}
	return renderLoader(mapping, opts), nil
}

func renderLoader(mapping *classmap.Mapping, opts classmap.Options) string {
	className := opts.ClassName
	if strings.TrimSpace(className) == "" {
		className = classmap.DefaultClassName
	}
	guard := guardConstant(mapping.Dir, className)

	var b strings.Builder
	b.WriteString("<?php\n")
	fmt.Fprintf(&b, "/**\n * %s: generated class loader, do not edit.\n *\n", className)
	fmt.Fprintf(&b, " * directory: %s\n", mapping.Dir)
	fmt.Fprintf(&b, " * generated: %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, " * symbols: %d\n", mapping.Len())
	fmt.Fprintf(&b, " * static files: %d\n", len(mapping.StaticFiles))
	fmt.Fprintf(&b, " * case_sensitive: %t | prepend: %t | relative: %t\n */\n\n",
		opts.CaseSensitive, opts.Prepend, opts.Relative)

	if opts.Namespace != "" {
		fmt.Fprintf(&b, "namespace %s;\n\n", opts.Namespace)
	}

	fmt.Fprintf(&b, "if (\\defined('%s')) {\n    return;\n}\n", guard)
	fmt.Fprintf(&b, "\\define('%s', true);\n\n", guard)

	b.WriteString("$phpmapClasses = array(\n")
	for _, name := range mapping.Names() {
		path, _ := mapping.Path(name)
		fmt.Fprintf(&b, "    %s => %s,\n", phpQuote(name), pathLiteral(mapping.Dir, path, opts.Relative))
	}
	b.WriteString(");\n\n")

	if len(mapping.StaticFiles) > 0 {
		b.WriteString("$phpmapStatics = array(\n")
		for _, file := range mapping.StaticFiles {
			fmt.Fprintf(&b, "    %s,\n", pathLiteral(mapping.Dir, file, opts.Relative))
		}
		b.WriteString(");\n")
		b.WriteString("foreach ($phpmapStatics as $phpmapStaticFile) {\n")
		b.WriteString("    require_once $phpmapStaticFile;\n")
		b.WriteString("}\n\n")
	}

	b.WriteString("\\spl_autoload_register(function ($class) use ($phpmapClasses) {\n")
	if opts.CaseSensitive {
		b.WriteString("    if (!isset($phpmapClasses[$class])) {\n")
		b.WriteString("        return false;\n")
		b.WriteString("    }\n")
		b.WriteString("    $phpmapFile = $phpmapClasses[$class];\n")
	} else {
		b.WriteString("    $phpmapFile = null;\n")
		b.WriteString("    foreach ($phpmapClasses as $phpmapName => $phpmapPath) {\n")
		b.WriteString("        if (\\strcasecmp($phpmapName, $class) === 0) {\n")
		b.WriteString("            $phpmapFile = $phpmapPath;\n")
		b.WriteString("            break;\n")
		b.WriteString("        }\n")
		b.WriteString("    }\n")
		b.WriteString("    if ($phpmapFile === null) {\n")
		b.WriteString("        return false;\n")
		b.WriteString("    }\n")
	}
	b.WriteString("    if (!\\is_file($phpmapFile) || !\\is_readable($phpmapFile)) {\n")
	b.WriteString("        return false;\n")
	b.WriteString("    }\n")
	b.WriteString("    require_once $phpmapFile;\n")
	b.WriteString("    return true;\n")
	fmt.Fprintf(&b, "}, true, %t);\n", opts.Prepend)

	return b.String()
}

// guardConstant derives the double-inclusion guard from the scanned directory
// and the wrapper name, so two generated loaders only collide when they are
// actually the same loader.
func guardConstant(dir, className string) string {
	sum := xxhash.Sum64String(dir + "|" + className)
	return fmt.Sprintf("PHPMAP_%s_%016X", sanitizeConstant(className), sum)
}

func sanitizeConstant(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// pathLiteral renders a file path as a PHP expression: either an absolute
// string literal or a __DIR__-anchored relative one. The artifact is assumed
// to live in the scanned root, so relative paths survive relocating the
// whole tree.
func pathLiteral(root, path string, relative bool) string {
	if !relative {
		return phpQuote(path)
	}
	rel := util.RelativePath(root, path)
	if rel == "." {
		return "__DIR__"
	}
	return "__DIR__ . " + phpQuote("/"+rel)
}

func phpQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
