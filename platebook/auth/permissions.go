package auth

import (
	"fmt"
	"net/http"
	"platebook/platebook/schema"

	"gorm.io/gorm"
)

func AdminOnly(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			userId, err := UserIdFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			admin, err := schema.IsAdmin(userId, db)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if !admin {
				http.Error(w, fmt.Sprintf("user %v is not an admin", userId), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// Caller resolves the authenticated caller and their active group names.
// Requests without a valid token resolve to an empty user id and the
// "no_auth" visibility tier instead of an error, routes behind the full
// auth middleware never see that case.
type Caller struct {
	UserId string
	Groups []string
}

func (c Caller) Authenticated() bool {
	return c.UserId != ""
}

func (c Caller) IsAdmin() bool {
	for _, group := range c.Groups {
		if group == schema.AdminGroup {
			return true
		}
	}
	return false
}

func GetCaller(r *http.Request, db *gorm.DB) (Caller, error) {
	userId, err := UserIdFromContext(r)
	if err != nil {
		return Caller{Groups: []string{schema.NotAuthenticatedGroup}}, nil
	}

	groups, err := schema.UserGroupNames(userId, db)
	if err != nil {
		return Caller{}, err
	}
	groups = append(groups, schema.NotAuthenticatedGroup)

	return Caller{UserId: userId, Groups: groups}, nil
}

// CanModifyRecipe allows the recipe owner and admins.
func CanModifyRecipe(recipe schema.Recipe, caller Caller, db *gorm.DB) bool {
	return caller.IsAdmin() || (caller.Authenticated() && recipe.UserId == caller.UserId)
}
