package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionMediaUpload allows uploading course images and content files.
	PermissionMediaUpload Permission = "media:upload"

	// PermissionCoursesWrite allows editing the course draft.
	PermissionCoursesWrite Permission = "courses:write"

	// PermissionCoursesSubmit allows submitting courses and quizzes to the backend.
	PermissionCoursesSubmit Permission = "courses:submit"

	// PermissionSubmissionsRead allows viewing submission history and progress.
	PermissionSubmissionsRead Permission = "submissions:read"

	// PermissionAll grants every permission.
	PermissionAll Permission = "*"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionMediaUpload,
	PermissionCoursesWrite,
	PermissionCoursesSubmit,
	PermissionSubmissionsRead,
}
