// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package minify

import (
	"context"
	"fmt"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

const (
	mediaTypeCSS  = "text/css"
	mediaTypeHTML = "text/html"
	mediaTypeJS   = "application/javascript"
)

var mediaTypeJSPattern = regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`)

// doctypePattern matches a leading doctype declaration, optionally preceded
// by a byte order mark and whitespace.
var doctypePattern = regexp.MustCompile(`(?i)^(?:\x{FEFF})?\s*<!doctype[^>]*>`)

// Extensions of the built-in transforms.
const (
	ExtScript     = ".js"
	ExtStylesheet = ".css"
	ExtMarkup     = ".html"
)

// The markup configuration is fixed: embedded style and script blocks are
// minified, comments are removed and html, head and body tags are kept.
var markupMinifier = &html.Minifier{
	KeepDocumentTags: true,
	KeepEndTags:      true,
}

// minifier is shared by all built-in transforms. [minify.M] is safe for
// concurrent use once all minifiers are added.
var minifier = newMinifier()

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mediaTypeCSS, css.Minify)
	m.AddFuncRegexp(mediaTypeJSPattern, js.Minify)
	m.Add(mediaTypeHTML, markupMinifier)

	return m
}

func local(mediaType string) Transform {
	return func(_ context.Context, src []byte) ([]byte, error) {
		out, err := minifier.Bytes(mediaType, src)
		if err != nil {
			return nil, fmt.Errorf("minify %s: %w", mediaType, err)
		}

		return out, nil
	}
}

// Stylesheet returns the local stylesheet [Transform].
func Stylesheet() Transform {
	return local(mediaTypeCSS)
}

// Markup returns the local markup [Transform]. A leading doctype declaration
// is kept byte for byte.
func Markup() Transform {
	minifyMarkup := local(mediaTypeHTML)

	return func(ctx context.Context, src []byte) ([]byte, error) {
		loc := doctypePattern.FindIndex(src)
		if loc == nil {
			return minifyMarkup(ctx, src)
		}

		body, err := minifyMarkup(ctx, src[loc[1]:])
		if err != nil {
			return nil, err
		}

		out := make([]byte, 0, loc[1]+len(body))
		out = append(out, src[:loc[1]]...)
		out = append(out, body...)

		return out, nil
	}
}

// Script returns the local script [Transform].
func Script() Transform {
	return local(mediaTypeJS)
}

// Builtins returns the built-in transforms keyed by extension. The script
// transform is passed in, so it can be either [Script] or
// [RemoteScript.Transform].
func Builtins(script Transform) map[string]Transform {
	return map[string]Transform{
		ExtScript:     script,
		ExtStylesheet: Stylesheet(),
		ExtMarkup:     Markup(),
	}
}
