package web

import (
	"html/template"
	"net/url"
	"strings"
)

// Field is one input in a [Form].
type Field struct {
	Name   string
	Label  string
	Type   string // input type attribute, defaults to "text"
	Value  string
	Errors []string
}

// Form is an ordered collection of fields plus form-level state, consumed by
// the template tag helpers.
type Form struct {
	Fields    []*Field
	CSRFToken string
	Errors    []string // form-level errors, not tied to one field
	Trailing  template.HTML
}

// Field returns the named field, or nil when the form has no such field.
func (f *Form) Field(name string) *Field {
	for _, field := range f.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

// AddError attaches an error message to the named field, or to the form
// itself when the field does not exist.
func (f *Form) AddError(name, message string) {
	if field := f.Field(name); field != nil {
		field.Errors = append(field.Errors, message)
		return
	}
	f.Errors = append(f.Errors, message)
}

// HasErrors reports whether any field or the form itself carries errors.
func (f *Form) HasErrors() bool {
	if len(f.Errors) > 0 {
		return true
	}
	for _, field := range f.Fields {
		if len(field.Errors) > 0 {
			return true
		}
	}
	return false
}

// Bind fills field values from submitted form data. Password fields are
// never echoed back.
func (f *Form) Bind(values url.Values) {
	for _, field := range f.Fields {
		if field.Type == "password" {
			continue
		}
		field.Value = values.Get(field.Name)
	}
}

// loginForm builds the local credentials form served at /login.
func loginForm() *Form {
	return &Form{
		Fields: []*Field{
			{Name: "username", Label: "Username"},
			{Name: "password", Label: "Password", Type: "password"},
		},
		Trailing: `<button type="submit">Log in</button>`,
	}
}

// createUserForm builds the account creation form served at /create-user.
func createUserForm() *Form {
	return &Form{
		Fields: []*Field{
			{Name: "username", Label: "Username"},
			{Name: "password1", Label: "Password", Type: "password"},
			{Name: "password2", Label: "Password confirmation", Type: "password"},
		},
		Trailing: `<button type="submit">Create user</button>`,
	}
}

// validateCreateUser checks the submitted account creation form, recording
// errors on the form. Returns true when the submission is acceptable.
func validateCreateUser(form *Form, values url.Values) bool {
	form.Bind(values)

	username := strings.TrimSpace(values.Get("username"))
	password1 := values.Get("password1")
	password2 := values.Get("password2")

	if username == "" {
		form.AddError("username", "This field is required.")
	}
	if password1 == "" {
		form.AddError("password1", "This field is required.")
	} else if len(password1) < 8 {
		form.AddError("password1", "This password is too short. It must contain at least 8 characters.")
	}
	if password1 != password2 {
		form.AddError("password2", "The two password fields didn't match.")
	}

	return !form.HasErrors()
}
