// Package web embeds the HTML templates, partials and static loader assets.
package web

import "embed"

// FS holds templates/, partials/ and loaders/.
//
//go:embed templates partials loaders
var FS embed.FS
