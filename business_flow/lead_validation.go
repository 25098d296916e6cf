// Package businessflow contains the core business logic and use cases for the download gate
package businessflow

import (
	"strings"

	"github.com/devmy/leadgate/app/dto"
	"github.com/devmy/leadgate/utils"
	"github.com/go-playground/validator/v10"
)

// FieldErrors maps form field names to human-readable error messages.
// An empty map means the submission is valid.
type FieldErrors map[string]string

// headlineOrder is the fixed priority used for the single headline message.
// It matches the visual order of the form fields.
var headlineOrder = []string{"name", "email", "company", "data_storage_consent", "requested_pdf"}

// Headline returns the message for the first failing field in form order.
// Unknown fields, if any ever appear, come after the known ones so a
// non-empty map always yields a non-empty headline.
func (fe FieldErrors) Headline() string {
	for _, field := range headlineOrder {
		if msg, ok := fe[field]; ok && msg != "" {
			return msg
		}
	}
	for _, msg := range fe {
		if msg != "" {
			return msg
		}
	}
	return ""
}

var emailValidator = validator.New()

// ValidateLeadFields checks every field of a lead submission and reports all
// failures at once. Checks run in a fixed order per field: a field gets at
// most one message, and required beats well-formedness for the email.
// Pure function, no I/O.
func ValidateLeadFields(req *dto.SubmitLeadRequest, requireConsent bool) FieldErrors {
	fieldErrors := make(FieldErrors)
	if req == nil {
		fieldErrors["name"] = "Please enter your name."
		fieldErrors["email"] = "Please enter your email address."
		fieldErrors["company"] = "Please enter your company name."
		fieldErrors["requested_pdf"] = "No document was requested."
		return fieldErrors
	}

	if strings.TrimSpace(req.Name) == "" {
		fieldErrors["name"] = "Please enter your name."
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		fieldErrors["email"] = "Please enter your email address."
	} else if emailValidator.Var(email, "email") != nil {
		fieldErrors["email"] = "Please enter a valid email address."
	}

	if strings.TrimSpace(req.Company) == "" {
		fieldErrors["company"] = "Please enter your company name."
	}

	if requireConsent && !utils.IsTrue(req.DataStorageConsent) {
		fieldErrors["data_storage_consent"] = "Please agree to the storage of your data."
	}

	if strings.TrimSpace(req.RequestedPdf) == "" {
		fieldErrors["requested_pdf"] = "No document was requested."
	}

	return fieldErrors
}
