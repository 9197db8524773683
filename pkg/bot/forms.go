// Copyright 2024-2026 Aiku AI

package bot

import (
	"github.com/aiku/mattermost-onboarding-bot/pkg/messages"
)

const (
	FormGifCategory  = "gif-category-form"
	FormUserCreation = "user-creation-form"

	ActionSubmit = "submit"
)

// Field names of the user-creation form.
const (
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldCategory  = "category"
)

// DefaultRequiredFields must be non-empty for a user to be created.
var DefaultRequiredFields = []string{FieldFirstName, FieldLastName, FieldEmail}

var gifCategories = []messages.FormOption{
	{Label: "Cats", Value: "cats"},
	{Label: "Dogs", Value: "dogs"},
	{Label: "Celebrations", Value: "celebrations"},
	{Label: "Reactions", Value: "reactions"},
}

func gifCategoryForm() messages.Form {
	return messages.Form{
		ID:          FormGifCategory,
		Title:       "Gif category",
		SubmitLabel: "Send",
		Action:      ActionSubmit,
		Fields: []messages.FormField{{
			Name:    FieldCategory,
			Label:   "Category",
			Type:    messages.FieldSelect,
			Options: gifCategories,
		}},
	}
}

func userCreationForm(required []string) messages.Form {
	isRequired := make(map[string]bool, len(required))
	for _, name := range required {
		isRequired[name] = true
	}
	field := func(name, label, subType, help string) messages.FormField {
		return messages.FormField{
			Name:     name,
			Label:    label,
			Type:     messages.FieldText,
			SubType:  subType,
			Optional: !isRequired[name],
			Help:     help,
		}
	}
	return messages.Form{
		ID:          FormUserCreation,
		Title:       "Create user",
		Intro:       "The new account is created through the administrative API.",
		SubmitLabel: "Create",
		Action:      ActionSubmit,
		Fields: []messages.FormField{
			field(FieldFirstName, "First name", "", ""),
			field(FieldLastName, "Last name", "", ""),
			field(FieldEmail, "E-mail", "email", "Also used as the login name."),
			field(FieldPassword, "Password", "password", "Leave empty to create the account without a password."),
		},
	}
}
