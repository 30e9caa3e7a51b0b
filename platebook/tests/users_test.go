package tests

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignupAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	info, err := user.me()
	if err != nil {
		t.Fatal(err)
	}

	if info.Email != "alice@mail.com" || info.Username != "alice@mail.com" {
		t.Fatalf("unexpected user info %+v", info)
	}
	if info.Name != "alice" {
		t.Fatalf("expected name to be set, got %v", info.Name)
	}

	groups := make([]string, 0, len(info.Groups))
	for _, g := range info.Groups {
		groups = append(groups, g.Name)
	}
	if len(groups) != 1 || groups[0] != "user" {
		t.Fatalf("expected only the default group, got %v", groups)
	}
}

func TestDuplicateSignup(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	c := env.newClient()
	_, err = c.signup("alice@mail.com", "other_password", "other")
	if err == nil {
		t.Fatal("duplicate signup should fail")
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	c := env.newClient()
	err = c.login(loginInfo{Email: "alice@mail.com", Password: "wrong"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	err = user.updateMe(map[string]string{"name": "Alice", "info": "home cook"})
	if err != nil {
		t.Fatal(err)
	}

	info, err := user.me()
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "Alice" || info.Info != "home cook" {
		t.Fatalf("profile update not applied: %+v", info)
	}

	// Untouched fields survive a partial update.
	if info.Email != "alice@mail.com" {
		t.Fatalf("email should not change, got %v", info.Email)
	}
}

func TestAvatarUpload(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	info, err := user.me()
	if err != nil {
		t.Fatal(err)
	}
	if len(info.ImageURLs) != 0 {
		t.Fatal("new user should have no avatar")
	}

	if err := user.uploadAvatar(); err != nil {
		t.Fatal(err)
	}

	info, err = user.me()
	if err != nil {
		t.Fatal(err)
	}
	for _, rendition := range []string{"micro", "small", "med", "big"} {
		if _, ok := info.ImageURLs[rendition]; !ok {
			t.Fatalf("missing %v avatar rendition: %v", rendition, info.ImageURLs)
		}
	}

	if env.store.numObjects() != 4 {
		t.Fatalf("expected 4 stored renditions, got %d", env.store.numObjects())
	}

	profile, err := env.newClient().publicProfile(user.userId)
	if err != nil {
		t.Fatal(err)
	}
	if len(profile.ImageURLs) == 0 {
		t.Fatal("public profile should expose avatar urls")
	}
}

func TestDeleteAccount(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	recipeId, err := user.createRecipe(recipeParams{Title: "toast"})
	if err != nil {
		t.Fatal(err)
	}

	if err := user.deleteMe(); err != nil {
		t.Fatal(err)
	}

	if _, err := env.newClient().publicProfile(user.userId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted user to 404, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.getRecipe(recipeId); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected recipe to be gone with its owner, got %v", err)
	}
}

func TestUserListAdminOnly(t *testing.T) {
	env := setupTestEnv(t)

	user, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := user.listUsers(); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	users, err := admin.listUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Fatalf("expected admin and alice, got %d users", len(users))
	}
}

func TestPasswordRecovery(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	c := env.newClient()
	if err := c.recoverPassword("alice@mail.com"); err != nil {
		t.Fatal(err)
	}

	// Unknown addresses get the same response.
	if err := c.recoverPassword("nobody@mail.com"); err != nil {
		t.Fatal(err)
	}

	// The mail is sent from a goroutine, give it a moment.
	var messages []sentMail
	for i := 0; i < 100 && len(messages) == 0; i++ {
		messages = env.mail.messages()
		time.Sleep(10 * time.Millisecond)
	}
	if len(messages) != 1 {
		t.Fatalf("expected exactly one mail, got %d", len(messages))
	}
	if messages[0].To != "alice@mail.com" {
		t.Fatalf("mail sent to wrong address: %v", messages[0].To)
	}

	// The old password no longer works, the mailed one does.
	if err := c.login(loginInfo{Email: "alice@mail.com", Password: "alice_password"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}

	lines := strings.Split(messages[0].Body, "\n")
	var newPassword string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) == 24 && !strings.Contains(line, " ") {
			newPassword = line
		}
	}
	if newPassword == "" {
		t.Fatalf("could not find new password in mail body: %v", messages[0].Body)
	}

	if err := c.login(loginInfo{Email: "alice@mail.com", Password: newPassword}); err != nil {
		t.Fatal(err)
	}
}
