package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

// NewValidator returns a validator with the placement enum rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerPlacementValidations(v)
	return v
}

func registerPlacementValidations(v *validator.Validate) {
	v.RegisterValidation("app_status", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.ApplicationStatus(fl.Field().String()).Valid()
	})
	v.RegisterValidation("posting_kind", func(fl validator.FieldLevel) bool { //nolint:errcheck
		switch models.PostingKind(fl.Field().String()) {
		case models.PostingKindJob, models.PostingKindInternship:
			return true
		default:
			return false
		}
	})
	v.RegisterValidation("offer_type", func(fl validator.FieldLevel) bool { //nolint:errcheck
		switch models.OfferType(fl.Field().String()) {
		case models.OfferTypeRegular, models.OfferTypePPO, models.OfferTypeLateral:
			return true
		default:
			return false
		}
	})
	v.RegisterValidation("completion_status", func(fl validator.FieldLevel) bool { //nolint:errcheck
		switch models.CompletionStatus(fl.Field().String()) {
		case models.CompletionCompleted, models.CompletionOngoing, models.CompletionDiscontinued:
			return true
		default:
			return false
		}
	})
}

func ensureValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		return NewValidator()
	}
	registerPlacementValidations(v)
	return v
}

// validationError converts validator output into a ValidationError naming
// the offending fields.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload: "+strings.Join(parts, "; "))
}

func optionalString(value string) *string {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	return &v
}

func requireActor(actor *models.JWTClaims) error {
	if actor == nil || actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	return nil
}

func requireOperator(actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.Role.IsOperator() {
		return appErrors.ErrForbidden
	}
	return nil
}
