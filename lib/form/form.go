// Package form binds a declarative field schema to a set of values.
//
// A Form tracks which fields changed since it was last populated, runs every
// field's validators independently, and re-validates fields whose rules
// depend on other fields whenever those fields change.
package form

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Kind selects how a field's submitted value is converted and rendered.
type Kind string

const (
	KindText     Kind = "text"
	KindTextArea Kind = "textarea"
	KindNumber   Kind = "number"
	KindDate     Kind = "date"
	KindSelect   Kind = "select"
)

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one form field.
type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Placeholder string
	Options     []Option

	// Required rejects empty values.
	Required bool

	// Rules is a validator tag string applied to non-empty values,
	// e.g. "min=0,max=100000000000000".
	Rules string

	// Validate is a custom rule. It receives the field value and all
	// current form values so it can compare against other fields.
	Validate func(value any, values map[string]any) error

	// DependsOn lists fields whose changes re-validate this field.
	DependsOn []string
}

// Schema is an ordered list of fields.
type Schema []Field

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	i := slices.IndexFunc(s, func(f Field) bool { return f.Name == name })
	if i < 0 {
		return Field{}, false
	}
	return s[i], true
}

// FieldError is a validation failure on one field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates every invalid field of a form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "form: validation failed: " + strings.Join(parts, "; ")
}

var (
	validate   *validator.Validate
	translator ut.Translator
)

const requiredText = "this field is required"

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	_ = validate.RegisterTranslation(
		"required", translator,
		func(t ut.Translator) error { return t.Add("required", requiredText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T("required", fe.Field())
			return s
		},
	)
}

// Form holds the values, dirtiness and validation state for a schema.
type Form struct {
	schema Schema
	values map[string]any
	dirty  map[string]bool
	errors map[string]string
}

// New creates an empty form for schema.
func New(schema Schema) *Form {
	return &Form{
		schema: schema,
		values: make(map[string]any, len(schema)),
		dirty:  make(map[string]bool),
		errors: make(map[string]string),
	}
}

// Schema returns the form's schema.
func (f *Form) Schema() Schema {
	return f.schema
}

// GetFieldValue returns the current value of a field.
func (f *Form) GetFieldValue(name string) any {
	return f.values[name]
}

// Values returns a copy of all field values.
func (f *Form) Values() map[string]any {
	return maps.Clone(f.values)
}

// SetFieldsValue changes field values, marking them dirty and re-validating
// them along with every field that depends on them. Keys outside the
// schema are ignored. It returns whether any value changed.
func (f *Form) SetFieldsValue(values map[string]any) bool {
	var changed []string
	for name, v := range values {
		fld, ok := f.schema.Field(name)
		if !ok {
			continue
		}
		v = coerce(fld.Kind, v)
		if old, had := f.values[name]; had && equalValue(old, v) {
			continue
		}
		f.values[name] = v
		f.dirty[name] = true
		changed = append(changed, name)
	}
	if len(changed) == 0 {
		return false
	}

	for _, fld := range f.schema {
		if slices.Contains(changed, fld.Name) || dependsOnAny(fld, changed) {
			f.setError(fld.Name, f.check(fld))
		}
	}
	return true
}

// ResetFields populates the form from values, clearing dirtiness and
// errors. Schema fields missing from values are reset to nil.
func (f *Form) ResetFields(values map[string]any) {
	f.values = make(map[string]any, len(f.schema))
	for _, fld := range f.schema {
		f.values[fld.Name] = coerce(fld.Kind, values[fld.Name])
	}
	clear(f.dirty)
	clear(f.errors)
}

// Dirty reports whether any field changed since the last reset.
func (f *Form) Dirty() bool {
	return len(f.dirty) > 0
}

// DirtyFields returns the names of changed fields in schema order.
func (f *Form) DirtyFields() []string {
	var names []string
	for _, fld := range f.schema {
		if f.dirty[fld.Name] {
			names = append(names, fld.Name)
		}
	}
	return names
}

// Error returns the current error message for a field, if any.
func (f *Form) Error(name string) string {
	return f.errors[name]
}

// Errors returns a copy of the current field errors.
func (f *Form) Errors() map[string]string {
	return maps.Clone(f.errors)
}

// Validate runs every field's rules and returns a *ValidationError listing
// all invalid fields in schema order, or nil.
func (f *Form) Validate() error {
	var verr ValidationError
	for _, fld := range f.schema {
		msg := f.check(fld)
		f.setError(fld.Name, msg)
		if msg != "" {
			verr.Fields = append(verr.Fields, FieldError{Field: fld.Name, Message: msg})
		}
	}
	if len(verr.Fields) == 0 {
		return nil
	}
	return &verr
}

// Bind converts submitted form values according to the schema.
// Only schema fields present in the submission are returned.
func (f *Form) Bind(submitted url.Values) map[string]any {
	out := make(map[string]any, len(f.schema))
	for _, fld := range f.schema {
		if !submitted.Has(fld.Name) {
			continue
		}
		out[fld.Name] = coerce(fld.Kind, strings.TrimSpace(submitted.Get(fld.Name)))
	}
	return out
}

func (f *Form) setError(name, msg string) {
	if msg == "" {
		delete(f.errors, name)
		return
	}
	f.errors[name] = msg
}

// check returns the first failing rule's message for fld, or "".
func (f *Form) check(fld Field) string {
	v := f.values[fld.Name]
	if isEmpty(v) {
		if fld.Required {
			return translate(validate.Var(v, "required"), fld)
		}
		return ""
	}
	if bad, ok := v.(invalidValue); ok {
		return fmt.Sprintf("%q is not a valid %s", string(bad), fld.Kind)
	}
	if fld.Rules != "" {
		if msg := translate(validate.Var(v, fld.Rules), fld); msg != "" {
			return msg
		}
	}
	if fld.Validate != nil {
		if err := fld.Validate(v, f.values); err != nil {
			return err.Error()
		}
	}
	return ""
}

func translate(err error, fld Field) string {
	if err == nil {
		return ""
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err.Error()
	}
	msg := errs[0].Translate(translator)
	// Var has no field name, so default messages start with the blank name.
	if strings.HasPrefix(msg, " ") {
		label := fld.Label
		if label == "" {
			label = fld.Name
		}
		msg = label + msg
	}
	return msg
}

func dependsOnAny(fld Field, changed []string) bool {
	for _, d := range fld.DependsOn {
		if slices.Contains(changed, d) {
			return true
		}
	}
	return false
}
