package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	CodeEmptyCart              Code = "EMPTY_CART"
	CodeIncompleteDeliveryInfo Code = "INCOMPLETE_DELIVERY_INFO"
	CodeCODMinimumNotMet       Code = "COD_MINIMUM_NOT_MET"
	CodeCouponNotFound         Code = "COUPON_NOT_FOUND"
	CodeCouponInactive         Code = "COUPON_INACTIVE"
	CodeCouponExpired          Code = "COUPON_EXPIRED"
	CodeCouponExhausted        Code = "COUPON_EXHAUSTED"
	CodeCouponBelowMinimum     Code = "COUPON_BELOW_MINIMUM"
	CodeProductUnavailable     Code = "PRODUCT_UNAVAILABLE"
	CodeInvalidTransition      Code = "INVALID_STATUS_TRANSITION"
	CodePaymentUnavailable     Code = "PAYMENT_GATEWAY_UNAVAILABLE"
	CodeInvalidSignature       Code = "INVALID_SIGNATURE"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		Retryable:      false,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:     http.StatusUnauthorized,
		Retryable:      false,
		PublicMessage:  "authentication required",
		DetailsAllowed: false,
	},
	CodeForbidden: {
		HTTPStatus:     http.StatusForbidden,
		Retryable:      false,
		PublicMessage:  "access denied",
		DetailsAllowed: false,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		Retryable:      false,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeConflict: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      false,
		PublicMessage:  "conflict detected",
		DetailsAllowed: false,
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		Retryable:      false,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		Retryable:      false,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeRateLimit: {
		HTTPStatus:     http.StatusTooManyRequests,
		Retryable:      false,
		PublicMessage:  "rate limit exceeded",
		DetailsAllowed: false,
	},
	CodeInternal: {
		HTTPStatus:     http.StatusInternalServerError,
		Retryable:      true,
		PublicMessage:  "internal server error",
		DetailsAllowed: false,
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
	CodeEmptyCart: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "cart is empty",
	},
	CodeIncompleteDeliveryInfo: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "delivery information is incomplete",
		DetailsAllowed: true,
	},
	CodeCODMinimumNotMet: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "order total below cash on delivery minimum",
		DetailsAllowed: true,
	},
	CodeCouponNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "coupon not found",
	},
	CodeCouponInactive: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "coupon is not active",
	},
	CodeCouponExpired: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "coupon has expired",
	},
	CodeCouponExhausted: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "coupon usage limit reached",
	},
	CodeCouponBelowMinimum: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "order subtotal below coupon minimum",
		DetailsAllowed: true,
	},
	CodeProductUnavailable: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "product is not available",
	},
	CodeInvalidTransition: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "status transition not allowed",
		DetailsAllowed: true,
	},
	CodePaymentUnavailable: {
		HTTPStatus:    http.StatusBadGateway,
		Retryable:     true,
		PublicMessage: "payment gateway unavailable",
	},
	CodeInvalidSignature: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "invalid signature",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
