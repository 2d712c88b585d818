package apperrors

type Code string

const (
	CodeUnknown               Code = "UNKNOWN"
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeUnauthorized          Code = "UNAUTHORIZED"
	CodeNotFound              Code = "NOT_FOUND"
	CodeAlreadyExists         Code = "ALREADY_EXISTS"
	CodeAuthenticationFailure Code = "AUTHENTICATION_FAILURE"
	CodeStorageUnavailable    Code = "STORAGE_UNAVAILABLE"
	CodeInternal              Code = "INTERNAL"
)
