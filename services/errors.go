package services

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	ErrUnknownOption        = errors.New("unknown option")
	ErrInvalidIndex         = errors.New("basket index out of range")
	ErrNoCustomization      = errors.New("no item is being customized")
	ErrCouponBusy           = errors.New("coupon validation already in progress")
	ErrCouponAlreadyApplied = errors.New("a coupon is already applied")
	ErrCheckoutInProgress   = errors.New("checkout already in progress")
	ErrUnknownSession       = errors.New("unknown payment session")
	ErrUnknownItem          = errors.New("menu item not found")
)

// ValidationError is bad user input on a named field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Business rules checked before a basket or order may change.
const (
	RuleRequiredGroup = "required_group"
	RuleMinSelect     = "min_select"
	RuleMaxSelect     = "max_select"
	RuleMinimumOrder  = "minimum_order"
)

// BusinessRuleError is a violated domain rule. GroupID is set for option
// group rules.
type BusinessRuleError struct {
	Rule    string
	Field   string
	GroupID uint
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// CollaboratorError wraps a failed call to an external service. Message is the
// collaborator's own message when it sent one. Status is the HTTP status
// when the collaborator answered at all.
type CollaboratorError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *CollaboratorError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + " failed"
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IntegrityError marks persisted state that could not be decoded.
type IntegrityError struct {
	Key string
	Err error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("stored %s is malformed: %v", e.Key, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// WrapCollaboratorError tags err as a collaborator failure unless it already is one.
func WrapCollaboratorError(op string, err error) error {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	return &CollaboratorError{Op: op, Err: err}
}
