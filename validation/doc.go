// Package validation validates authkit inputs (credentials, signup forms,
// configuration) with struct tags, returning an *errors.AppError whose
// message lists every failing field.
//
//	type Credentials struct {
//	    Email    string `json:"email" validate:"required,email"`
//	    Password string `json:"password" validate:"required"`
//	}
//	if err := validation.Validate(creds); err != nil { ... }
package validation
