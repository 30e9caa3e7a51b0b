package tests

import (
	"errors"
	"testing"
	"time"
)

func groupNames(env *testEnv, t *testing.T, c *client) []string {
	info, err := c.me()
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(info.Groups))
	for _, g := range info.Groups {
		names = append(names, g.Name)
	}
	return names
}

func TestGroupCrudAdminOnly(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	if err := user.createGroup("payed"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.createGroup("payed"); err != nil {
		t.Fatal(err)
	}

	if err := admin.createGroup("payed"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate group, got %v", err)
	}

	groups, err := admin.listGroups()
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 4 {
		t.Fatalf("expected admin, no_auth, payed, user; got %d groups", len(groups))
	}
}

func TestGroupRename(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.createGroup("payed"); err != nil {
		t.Fatal(err)
	}

	if err := admin.renameGroup("missing", "other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := admin.renameGroup("payed", "user"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict renaming onto existing group, got %v", err)
	}

	if err := admin.renameGroup("payed", "premium"); err != nil {
		t.Fatal(err)
	}

	groups, err := admin.listGroups()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, g := range groups {
		if g.Name == "premium" {
			found = true
		}
		if g.Name == "payed" {
			t.Fatal("old group name still present after rename")
		}
	}
	if !found {
		t.Fatal("renamed group missing")
	}
}

func TestGroupMembership(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.createGroup("payed"); err != nil {
		t.Fatal(err)
	}

	if err := admin.addUserToGroup("alice@mail.com", "payed", nil); err != nil {
		t.Fatal(err)
	}

	if err := admin.addUserToGroup("alice@mail.com", "payed", nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on double add, got %v", err)
	}

	names := groupNames(&env, t, user)
	if len(names) != 2 {
		t.Fatalf("expected user and payed, got %v", names)
	}

	if err := admin.removeUserFromGroup("alice@mail.com", "payed"); err != nil {
		t.Fatal(err)
	}

	if err := admin.removeUserFromGroup("alice@mail.com", "payed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on double remove, got %v", err)
	}

	names = groupNames(&env, t, user)
	if len(names) != 1 || names[0] != "user" {
		t.Fatalf("expected only the default group, got %v", names)
	}
}

func TestExpiredMembershipIgnored(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.createGroup("payed"); err != nil {
		t.Fatal(err)
	}

	expired := time.Now().UTC().Add(-time.Hour)
	if err := admin.addUserToGroup("alice@mail.com", "payed", &expired); err != nil {
		t.Fatal(err)
	}

	// The row exists but the membership is already void.
	names := groupNames(&env, t, user)
	if len(names) != 1 || names[0] != "user" {
		t.Fatalf("expired membership should be ignored, got %v", names)
	}

	// Re-adding over the expired row is not a conflict, it refreshes the
	// expiration in place.
	future := time.Now().UTC().Add(time.Hour)
	if err := admin.addUserToGroup("alice@mail.com", "payed", &future); err != nil {
		t.Fatal(err)
	}

	names = groupNames(&env, t, user)
	if len(names) != 2 {
		t.Fatalf("unexpired membership should count, got %v", names)
	}

	// The refreshed membership is now live, so another add conflicts.
	if err := admin.addUserToGroup("alice@mail.com", "payed", nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on live membership, got %v", err)
	}
}

func TestBuiltinGroupsProtected(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"admin", "user", "no_auth"} {
		if err := admin.deleteGroup(name); err == nil {
			t.Fatalf("builtin group %v should not be deletable", name)
		}
	}
}

func TestDeleteGroupClearsShares(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.createGroup("payed"); err != nil {
		t.Fatal(err)
	}

	recipeId, err := user.createRecipe(recipeParams{Title: "ramen", AllowedGroups: []string{"payed"}})
	if err != nil {
		t.Fatal(err)
	}
	if err := user.uploadRecipeImage(recipeId); err != nil {
		t.Fatal(err)
	}

	if err := admin.deleteGroup("payed"); err != nil {
		t.Fatal(err)
	}

	// The recipe survives but is no longer shared with anyone; only an
	// admin can still read it.
	if _, err := user.getRecipe(recipeId); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized after share removal, got %v", err)
	}

	recipe, err := admin.getRecipe(recipeId)
	if err != nil {
		t.Fatal(err)
	}
	if len(recipe.AllowedGroups) != 0 {
		t.Fatalf("expected allowed groups to be cleared, got %v", recipe.AllowedGroups)
	}
}
