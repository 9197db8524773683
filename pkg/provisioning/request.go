// Copyright 2024-2026 Aiku AI

package provisioning

import (
	"github.com/rs/zerolog"

	"github.com/aiku/mattermost-onboarding-bot/pkg/credential"
)

// AccountTypeNormal is the only account type the bot creates.
const AccountTypeNormal = "NORMAL"

// UserCreationRequest describes a user to create. Password is optional; when
// empty, no credential is derived and the payload carries no password.
type UserCreationRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// DisplayName is the first and last name joined by a space.
func (r UserCreationRequest) DisplayName() string {
	return r.FirstName + " " + r.LastName
}

// UserName is the login name; the e-mail address is used verbatim.
func (r UserCreationRequest) UserName() string {
	return r.Email
}

// HasPassword reports whether a credential has to be derived.
func (r UserCreationRequest) HasPassword() bool {
	return r.Password != ""
}

// MarshalZerologObject logs the request without the password.
func (r UserCreationRequest) MarshalZerologObject(e *zerolog.Event) {
	e.Str("first_name", r.FirstName).
		Str("last_name", r.LastName).
		Str("email", r.Email).
		Bool("has_password", r.HasPassword())
}

// Payload is the JSON body of the creation request.
type Payload struct {
	UserAttributes UserAttributes `json:"userAttributes"`
	// Password must be nil, not empty, when no password was supplied: the
	// API rejects an empty password object.
	Password *Password `json:"password,omitempty"`
}

// UserAttributes are always present in the payload.
type UserAttributes struct {
	AccountType  string `json:"accountType"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	UserName     string `json:"userName"`
}

// Password holds the base64 encoded credential. The API has separate login
// and key slots; both carry the same salt/hash pair.
type Password struct {
	HSalt      string `json:"hSalt"`
	HPassword  string `json:"hPassword"`
	KHSalt     string `json:"khSalt"`
	KHPassword string `json:"khPassword"`
}

func newPassword(cred *credential.Credential) *Password {
	salt, hash := cred.EncodedSalt(), cred.EncodedHash()
	return &Password{
		HSalt:      salt,
		HPassword:  hash,
		KHSalt:     salt,
		KHPassword: hash,
	}
}

func newUserAttributes(req UserCreationRequest) UserAttributes {
	return UserAttributes{
		AccountType:  AccountTypeNormal,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DisplayName:  req.DisplayName(),
		EmailAddress: req.Email,
		UserName:     req.UserName(),
	}
}

// MarshalZerologObject logs the attributes and whether a password is attached.
func (p *Payload) MarshalZerologObject(e *zerolog.Event) {
	e.Str("account_type", p.UserAttributes.AccountType).
		Str("display_name", p.UserAttributes.DisplayName).
		Str("user_name", p.UserAttributes.UserName).
		Bool("has_password", p.Password != nil)
}
