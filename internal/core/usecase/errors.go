package usecase

import (
	"errors"
	"fmt"

	"wallet-service/internal/core/domain/entity"
	apperrors "wallet-service/internal/core/errors"
)

// toException maps domain and storage errors onto the API error kinds.
func toException(err error) *apperrors.Exception {
	var exc *apperrors.Exception
	if errors.As(err, &exc) {
		return exc
	}

	var validation *entity.ValidationError
	if errors.As(err, &validation) {
		return apperrors.BadRequest(
			apperrors.WithMessage(validation.Error()),
			apperrors.WithField(validation.Field),
		)
	}

	var insufficient *entity.InsufficientFundsError
	if errors.As(err, &insufficient) {
		return apperrors.InsufficientFunds(apperrors.WithMessage(
			fmt.Sprintf("requested %d, available %d", insufficient.Requested, insufficient.Available),
		))
	}

	switch {
	case errors.Is(err, entity.ErrTransactionNotFound):
		return apperrors.NotFound(apperrors.WithMessage(err.Error()))
	case errors.Is(err, entity.ErrInvalidStateTransition),
		errors.Is(err, entity.ErrNotCreditRequest),
		errors.Is(err, entity.ErrDuplicateIdempotencyKey),
		errors.Is(err, entity.ErrIdempotencyKeyMismatch):
		return apperrors.Conflict(apperrors.WithMessage(err.Error()))
	case errors.Is(err, entity.ErrInvalidTargetStatus):
		return apperrors.BadRequest(apperrors.WithMessage(err.Error()), apperrors.WithField("status"))
	}

	return apperrors.Unexpected(apperrors.WithError(err))
}
