package schema

const (
	// AdminGroup members bypass all ownership checks.
	AdminGroup = "admin"

	// DefaultUserGroup is attached to every account at signup.
	DefaultUserGroup = "user"

	// NotAuthenticatedGroup is the visibility tier of callers with no
	// valid token. Recipes shared with it are public.
	NotAuthenticatedGroup = "no_auth"
)

const (
	MaxStories  = 10
	MaxArticles = 10
)

// BuiltinGroups are created by the schema migration and must always exist.
func BuiltinGroups() []string {
	return []string{AdminGroup, DefaultUserGroup, NotAuthenticatedGroup}
}
