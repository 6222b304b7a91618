package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
)

// Message is a user-facing flash message with a severity level used as the
// CSS class on its list item.
type Message struct {
	Level string
	Text  string
}

// Tags holds the template helper functions installed in every page template.
//
// The helpers generate HTML fragments for asset links, flash messages, and
// form markup. They are pure text generation; none hold state beyond the
// render call.
type Tags struct {
	staticPath string
}

// NewTags creates the tag helpers for the given static asset base path.
func NewTags(staticPath string) *Tags {
	return &Tags{staticPath: staticPath}
}

// FuncMap returns the helpers keyed by their template names.
func (t *Tags) FuncMap() template.FuncMap {
	return template.FuncMap{
		"add_style":         t.AddStyle,
		"add_script":        t.AddScript,
		"get_feedback":      t.Feedback,
		"create_field":      t.CreateField,
		"create_all_fields": t.CreateAllFields,
		"create_form":       t.CreateForm,
		"as_json":           t.AsJSON,
	}
}

// AddStyle emits a stylesheet link for each of the given paths, resolved
// under the static CSS directory.
func (t *Tags) AddStyle(paths ...string) template.HTML {
	var b strings.Builder
	for _, path := range paths {
		href := fmt.Sprintf("%s/css/%s", t.staticPath, path)
		fmt.Fprintf(&b,
			`<link rel="stylesheet" type="text/css" href="%s" crossorigin="anonymous">`,
			template.HTMLEscapeString(href))
	}
	return template.HTML(b.String())
}

// AddScript emits a script tag for each of the given paths, resolved under
// the static JS directory.
func (t *Tags) AddScript(paths ...string) template.HTML {
	var b strings.Builder
	for _, path := range paths {
		src := fmt.Sprintf("%s/js/%s", t.staticPath, path)
		fmt.Fprintf(&b, `<script src="%s"></script>`, template.HTMLEscapeString(src))
	}
	return template.HTML(b.String())
}

// Feedback renders flash messages and form errors as a message list.
//
// Returns empty output when there is nothing to show.
func (t *Tags) Feedback(messages []Message, forms ...*Form) template.HTML {
	items := make([]Message, 0, len(messages))
	items = append(items, messages...)

	for _, form := range forms {
		if form == nil {
			continue
		}
		for _, text := range form.Errors {
			items = append(items, Message{Level: "error", Text: text})
		}
		for _, field := range form.Fields {
			for _, text := range field.Errors {
				items = append(items, Message{Level: "error", Text: text})
			}
		}
	}

	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<ul class="messages">`)
	for _, item := range items {
		fmt.Fprintf(&b, `<li class="%s">%s</li>`,
			template.HTMLEscapeString(item.Level),
			template.HTMLEscapeString(item.Text))
	}
	b.WriteString(`</ul>`)
	return template.HTML(b.String())
}

// CreateField renders the wrapper markup for each of the given fields.
//
// A nil field is a template authoring error and fails the render.
func (t *Tags) CreateField(fields ...*Field) (template.HTML, error) {
	var b strings.Builder
	for _, field := range fields {
		if field == nil {
			return "", fmt.Errorf("one of these fields does not exist")
		}

		inputType := field.Type
		if inputType == "" {
			inputType = "text"
		}

		name := template.HTMLEscapeString(field.Name)
		fmt.Fprintf(&b, `<div class="field %s">`, name)
		fmt.Fprintf(&b, `<label for="id_%s">%s:</label>`, name, template.HTMLEscapeString(field.Label))
		fmt.Fprintf(&b, `<input type="%s" name="%s" id="id_%s" value="%s">`,
			template.HTMLEscapeString(inputType), name, name, template.HTMLEscapeString(field.Value))
		b.WriteString(`</div>`)
	}
	return template.HTML(b.String()), nil
}

// CreateAllFields renders every field in the form, in order.
func (t *Tags) CreateAllFields(form *Form) (template.HTML, error) {
	return t.CreateField(form.Fields...)
}

// CreateForm renders a complete form element: method, encoding, CSRF token,
// every field, and the form's trailing markup.
func (t *Tags) CreateForm(form *Form, classes ...string) (template.HTML, error) {
	fields, err := t.CreateAllFields(form)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<form method="post" enctype="multipart/form-data" class="%s">`,
		template.HTMLEscapeString(strings.Join(classes, " ")))
	fmt.Fprintf(&b, `<input type="hidden" name="csrfmiddlewaretoken" value="%s">`,
		template.HTMLEscapeString(form.CSRFToken))
	b.WriteString(string(fields))
	b.WriteString(string(form.Trailing))
	b.WriteString(`</form>`)
	return template.HTML(b.String()), nil
}

// AsJSON serializes the value as JSON text for script-tag embedding.
// A nil value renders as null.
func (t *Tags) AsJSON(v any) (template.JS, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode template value: %w", err)
	}
	return template.JS(data), nil
}
