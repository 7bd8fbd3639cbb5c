package errors

type Kind string

const (
	KindValidation             Kind = "ValidationError"
	KindInsufficientFunds      Kind = "InsufficientFunds"
	KindNotFound               Kind = "NotFound"
	KindInvalidStateTransition Kind = "InvalidStateTransition"
	KindUnauthorized           Kind = "Unauthorized"
	KindStorage                Kind = "StorageError"
)

type Exception struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     string `json:"error,omitempty"`
}

func (e *Exception) Error() string {
	return e.Message
}

type UserFriendlyExceptionOption func(*Exception)

func WithCode(code int) UserFriendlyExceptionOption {
	return func(h *Exception) {
		h.Code = code
	}
}

func WithKind(kind Kind) UserFriendlyExceptionOption {
	return func(h *Exception) {
		h.Kind = kind
	}
}

func WithMessage(message string) UserFriendlyExceptionOption {
	return func(h *Exception) {
		h.Message = message
	}
}

func WithField(field string) UserFriendlyExceptionOption {
	return func(h *Exception) {
		h.Field = field
	}
}

func WithError(err error) UserFriendlyExceptionOption {
	return func(h *Exception) {
		h.Err = err.Error()
	}
}

func NotFound(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(404),
		WithKind(KindNotFound),
		WithMessage("no entities found with given parameters"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func BadRequest(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(400),
		WithKind(KindValidation),
		WithMessage("bad request"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func InsufficientFunds(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(400),
		WithKind(KindInsufficientFunds),
		WithMessage("insufficient funds"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func Conflict(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(409),
		WithKind(KindInvalidStateTransition),
		WithMessage("conflict"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func Unauthorized(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(401),
		WithKind(KindUnauthorized),
		WithMessage("unauthorized"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func Unexpected(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(500),
		WithKind(KindStorage),
		WithMessage("internal server error"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func UserFriendlyException(opts ...UserFriendlyExceptionOption) *Exception {
	h := &Exception{
		Code:    500,
		Kind:    KindStorage,
		Message: "internal server error",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
