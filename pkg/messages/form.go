// Copyright 2024-2026 Aiku AI

package messages

// FieldType is the input widget of a form field.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldSelect FieldType = "select"
)

// Form describes an interactive form. The Action value is returned with
// every submission so one form definition can feed several submit actions.
type Form struct {
	ID          string
	Title       string
	Intro       string
	SubmitLabel string
	Action      string
	Fields      []FormField
}

// FormField is one input of a Form.
type FormField struct {
	Name     string
	Label    string
	Type     FieldType
	SubType  string // e.g. "email", "password" for text fields
	Optional bool
	Help     string
	Options  []FormOption
}

// FormOption is a choice of a select field.
type FormOption struct {
	Label string
	Value string
}
