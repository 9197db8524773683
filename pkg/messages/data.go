// Copyright 2024-2026 Aiku AI

package messages

// Names of the embedded templates.
const (
	TemplateGif           = "gif"
	TemplateGifResult     = "gif_result"
	TemplateUserForm      = "userform"
	TemplateUserDetails   = "user_details"
	TemplateWelcome       = "welcome"
	TemplateMissingFields = "missing_fields"
	TemplateHandlerError  = "handler_error"
)

type WelcomeData struct {
	Name string
}

type GifResultData struct {
	Category string
}

// UserDetailsData is shown before a user is provisioned. It deliberately
// has no password field, only whether one was given.
type UserDetailsData struct {
	FirstName   string
	LastName    string
	Email       string
	HasPassword bool
}

type MissingFieldsData struct {
	Fields []string
}

type HandlerErrorData struct {
	Reference string
}
