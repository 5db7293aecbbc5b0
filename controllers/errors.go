package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/yeremiapane/food-storefront/services"
	"github.com/yeremiapane/food-storefront/utils"
)

// respondServiceError maps storefront errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var (
		validation   *services.ValidationError
		rule         *services.BusinessRuleError
		collaborator *services.CollaboratorError
		integrity    *services.IntegrityError
	)

	switch {
	case errors.As(err, &validation):
		utils.RespondFieldError(c, http.StatusBadRequest, err, utils.FieldError{Field: validation.Field})
	case errors.As(err, &rule):
		utils.RespondFieldError(c, http.StatusUnprocessableEntity, err, utils.FieldError{
			Field:   rule.Field,
			GroupID: rule.GroupID,
			Rule:    rule.Rule,
		})
	case errors.As(err, &collaborator):
		// a 4xx answer is the collaborator refusing the request, e.g. an invalid coupon
		code := http.StatusBadGateway
		if collaborator.Status >= 400 && collaborator.Status < 500 {
			code = http.StatusUnprocessableEntity
		}
		if collaborator.Message == "" {
			utils.ErrorLogger.WithField("op", collaborator.Op).Errorf("collaborator failure: %v", err)
			utils.RespondError(c, code, errors.New("the order service is unavailable, please try again"))
			return
		}
		utils.RespondError(c, code, err)
	case errors.As(err, &integrity):
		utils.ErrorLogger.Errorf("integrity failure: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("stored session data was invalid and has been reset"))
	case errors.Is(err, services.ErrCouponBusy),
		errors.Is(err, services.ErrCouponAlreadyApplied),
		errors.Is(err, services.ErrCouponStale),
		errors.Is(err, services.ErrCheckoutInProgress):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrUnknownOption),
		errors.Is(err, services.ErrInvalidIndex),
		errors.Is(err, services.ErrUnknownItem),
		errors.Is(err, services.ErrNoCustomization),
		errors.Is(err, services.ErrUnknownSession):
		utils.RespondError(c, http.StatusNotFound, err)
	default:
		utils.ErrorLogger.Errorf("unexpected error: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}
