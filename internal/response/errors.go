package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrAdminAccessOnly  ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Course wizard ─────────────────────────────────────────────────
	ErrStepLocked          ErrCode = "STEP_LOCKED"
	ErrUnknownStep         ErrCode = "UNKNOWN_STEP"
	ErrSectionNotFound     ErrCode = "SECTION_NOT_FOUND"
	ErrContentNotFound     ErrCode = "CONTENT_NOT_FOUND"
	ErrIndexOutOfRange     ErrCode = "INDEX_OUT_OF_RANGE"
	ErrContentTypeMismatch ErrCode = "CONTENT_TYPE_MISMATCH"
	ErrCourseInvalid       ErrCode = "COURSE_INVALID"
	ErrQuizInvalid         ErrCode = "QUIZ_INVALID"

	// ─── Backend API ───────────────────────────────────────────────────
	ErrBackendRejected    ErrCode = "BACKEND_REJECTED"
	ErrBackendUnavailable ErrCode = "BACKEND_UNAVAILABLE"
	ErrSubmissionPartial  ErrCode = "SUBMISSION_PARTIAL"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrPermissionDenied:
		return "Permission denied."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Course wizard ─────────────────────────────────────────────────
	case ErrStepLocked:
		return "Complete the previous steps before opening this one."
	case ErrUnknownStep:
		return "Unknown wizard step."
	case ErrSectionNotFound:
		return "Section not found in the draft."
	case ErrContentNotFound:
		return "Content not found in the section."
	case ErrIndexOutOfRange:
		return "Position is out of range."
	case ErrContentTypeMismatch:
		return "Content type cannot be changed while editing."
	case ErrCourseInvalid:
		return "The course is not ready to be submitted."
	case ErrQuizInvalid:
		return "The quiz is not ready to be submitted."

	// ─── Backend API ───────────────────────────────────────────────────
	case ErrBackendRejected:
		return "The course backend rejected the request."
	case ErrBackendUnavailable:
		return "The course backend could not be reached."
	case ErrSubmissionPartial:
		return "Submission failed part way; created records are being removed."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File exceeds the size limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
