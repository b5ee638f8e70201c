package server

import "embed"

//go:embed templates/index.html
var templates embed.FS
