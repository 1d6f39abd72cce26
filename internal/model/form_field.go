package model

// FieldType identifies the input type of a registration form field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeEmail    FieldType = "email"
	FieldTypeNumber   FieldType = "number"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeDate     FieldType = "date"
)

// IsValid checks whether the field type is a known value.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeEmail, FieldTypeNumber,
		FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox, FieldTypeDate:
		return true
	}
	return false
}

// HasOptions reports whether answers must come from the field's options.
func (t FieldType) HasOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio || t == FieldTypeCheckbox
}

// FormField is one admin-defined question of a hackathon's registration
// form. Its ID is the key of the answer in Participant.Answers and the
// target of FilterRule.FieldID.
type FormField struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required,omitempty"`
}

// ProfileFields lists the structured participant fields that rules may
// target in addition to the dynamic form fields.
var ProfileFields = []FormField{
	{ID: "name", Label: "Name", Type: FieldTypeText},
	{ID: "email", Label: "Email", Type: FieldTypeEmail},
	{ID: "phone", Label: "Phone", Type: FieldTypeText},
	{ID: "city", Label: "City", Type: FieldTypeText},
	{ID: "nationality", Label: "Nationality", Type: FieldTypeText},
	{ID: "role", Label: "Preferred role", Type: FieldTypeText},
}
