package httputil

// Machine-readable error codes returned alongside human-readable messages.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"

	// Registration intake
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeDuplicateIdentity = "DUPLICATE_IDENTITY"
	CodeInvalidSubArea    = "INVALID_SUB_AREA"

	// Verification codes
	CodeInvalidVerificationCode = "INVALID_VERIFICATION_CODE"

	// Auth
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidTokenUserID = "INVALID_TOKEN_USER_ID"

	// Password recovery
	CodeResetNotAuthorized = "RESET_NOT_AUTHORIZED"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
)
