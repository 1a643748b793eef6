package service

import (
	"errors"
	"fmt"

	"brokerdesk/internal/infra"
	"brokerdesk/internal/repository"
	"brokerdesk/internal/workflow"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError is a rejected request; Fields maps JSON field names to the
// failed rule.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, rule, message string) error {
	return &ValidationError{Message: message, Fields: map[string]string{field: rule}}
}

func notFound(entity string) error { return fmt.Errorf("%s %w", entity, ErrNotFound) }

func forbidden(reason string) error { return fmt.Errorf("%w: %s", ErrForbidden, reason) }

func conflict(reason string) error { return fmt.Errorf("%w: %s", ErrConflict, reason) }

// lookupErr translates a repository lookup failure.
func lookupErr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity)
	}
	return err
}

// writeErr translates a repository write failure.
func writeErr(err error, entity string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(entity)
	case errors.Is(err, repository.ErrConflict), errors.Is(err, infra.ErrInFlight):
		return conflict(entity + " was modified concurrently, reload and retry")
	default:
		return err
	}
}

var workflowFields = map[error]string{
	workflow.ErrDocumentRequired:       "contractDocument",
	workflow.ErrInvalidPrice:           "finalPrice",
	workflow.ErrCustomerRequired:       "customerName",
	workflow.ErrSellerRequired:         "sellerName",
	workflow.ErrCommissionRequired:     "commissionAmount",
	workflow.ErrCommissionExceedsPrice: "commissionAmount",
	workflow.ErrReasonRequired:         "reason",
}

// workflowErr maps lifecycle errors: state errors become conflicts, input
// errors become validation errors.
func workflowErr(err error) error {
	if errors.Is(err, workflow.ErrInvalidTransition) || errors.Is(err, workflow.ErrNotEditable) {
		return fmt.Errorf("%w: %s", ErrConflict, err.Error())
	}
	for sentinel, field := range workflowFields {
		if errors.Is(err, sentinel) {
			return &ValidationError{Message: err.Error(), Fields: map[string]string{field: "invalid"}}
		}
	}
	return err
}
