package views

import (
	"bytes"
	"html/template"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/workcity/chat-admin/internal/domain"
)

// Raw HTML in bios is dropped by goldmark's default renderer.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

// RenderBio converts a Markdown bio into HTML.
func RenderBio(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

type ProfileData struct {
	CSRF           template.HTML
	Profile        domain.Profile
	BioHTML        template.HTML
	FieldErrors    map[string]string
	Error          string
	Notice         string
	PasswordErrors map[string]string
	PasswordError  string
	PasswordNotice string
}

func Profile(data ProfileData) templ.Component {
	return render("profile", data)
}
