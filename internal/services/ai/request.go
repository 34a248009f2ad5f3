package ai

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FieldType is the JSON type of a schema field
type FieldType string

const (
	FieldString     FieldType = "string"
	FieldNumber     FieldType = "number"
	FieldStringList FieldType = "string_list"
)

// Field describes one property of the structured record a provider must return
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Enum        []string
	Required    bool
}

// Schema is the required-field shape sent with every extraction request.
// Providers are asked to honour it but callers validate the response themselves.
type Schema struct {
	Name   string
	Fields []Field
}

// RequiredFields returns the names of the required fields in declaration order
func (s Schema) RequiredFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Describe renders the schema as prompt text for providers without native schema support
func (s Schema) Describe() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object with these fields:\n")
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "- %q (%s", f.Name, jsonTypeName(f.Type))
		if f.Required {
			b.WriteString(", required")
		} else {
			b.WriteString(", optional")
		}
		b.WriteString(")")
		if f.Description != "" {
			b.WriteString(": " + f.Description)
		}
		if len(f.Enum) > 0 {
			fmt.Fprintf(&b, " One of: %s.", strings.Join(f.Enum, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func jsonTypeName(t FieldType) string {
	switch t {
	case FieldNumber:
		return "number"
	case FieldStringList:
		return "array of strings"
	default:
		return "string"
	}
}

// Request is one call to the extraction capability: a prompt plus an image or a text payload
type Request struct {
	Schema   Schema
	Prompt   string
	Image    []byte
	MIMEType string
	Text     string
}

// ErrEmptyRequest is returned when a request carries no prompt
var ErrEmptyRequest = errors.New("extraction request has no prompt")

// Validate checks that the request can be sent
func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyRequest
	}
	if len(r.Schema.Fields) == 0 {
		return fmt.Errorf("extraction request has no schema")
	}
	return nil
}

// ImageMIMEType returns the declared MIME type or sniffs it from the image bytes
func (r Request) ImageMIMEType() string {
	if r.MIMEType != "" {
		return r.MIMEType
	}
	if len(r.Image) == 0 {
		return ""
	}
	mime := http.DetectContentType(r.Image)
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}

// ImageDataURL returns the image as a base64 data URL
func (r Request) ImageDataURL() string {
	return "data:" + r.ImageMIMEType() + ";base64," + base64.StdEncoding.EncodeToString(r.Image)
}

// FullPrompt joins the prompt and the text payload
func (r Request) FullPrompt() string {
	if r.Text == "" {
		return r.Prompt
	}
	return r.Prompt + "\n\nText:\n" + r.Text
}

// extractJSONObject trims prose or code fences around the first JSON object in content
func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "{") || strings.HasPrefix(content, "[") {
		return content
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		return content[start : end+1]
	}
	return content
}
