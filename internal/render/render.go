// Package render converts owner-supplied markdown into sanitized HTML for
// API responses.
package render

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/waap-dev/waap/internal/logger"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.Linkify),
	)
	policy = bluemonday.UGCPolicy()
)

// DescriptionHTML renders a posting description. The markdown output is
// sanitized afterwards, so raw HTML embedded in the source never survives.
func DescriptionHTML(source string) string {
	if source == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		logger.Log.Error("markdown conversion failed", "error", err)
		return policy.Sanitize(source)
	}
	return policy.Sanitize(buf.String())
}

// PlainText strips all markup from visitor-supplied text, for fields that
// must never carry HTML (contact messages, criteria values).
func PlainText(source string) string {
	return bluemonday.StrictPolicy().Sanitize(source)
}
