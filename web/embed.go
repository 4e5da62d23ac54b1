package web

import _ "embed"

// IndexHTML is the single-page front end for browsing reminders.
//
//go:embed index.html
var IndexHTML []byte
