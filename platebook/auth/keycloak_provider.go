package auth

import (
	"context"
	"fmt"
	"platebook/platebook/config"
	"platebook/platebook/schema"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// KeycloakIdentityProvider keeps credentials in keycloak and mirrors each
// account as a local user row so the rest of the application only deals
// with local ids and local jwts.
type KeycloakIdentityProvider struct {
	client     *gocloak.GoCloak
	opts       config.Keycloak
	jwtManager *JwtManager
	db         *gorm.DB
}

func NewKeycloakIdentityProvider(db *gorm.DB, jwtManager *JwtManager, opts config.Keycloak) IdentityProvider {
	return &KeycloakIdentityProvider{
		client:     gocloak.NewClient(opts.ServerUrl),
		opts:       opts,
		jwtManager: jwtManager,
		db:         db,
	}
}

func (auth *KeycloakIdentityProvider) AuthMiddleware() chi.Middlewares {
	return chi.Middlewares{auth.jwtManager.Verifier(), auth.jwtManager.Authenticator()}
}

func (auth *KeycloakIdentityProvider) OptionalAuthMiddleware() chi.Middlewares {
	return chi.Middlewares{auth.jwtManager.Verifier()}
}

func (auth *KeycloakIdentityProvider) AllowDirectSignup() bool {
	return true
}

func (auth *KeycloakIdentityProvider) adminToken(ctx context.Context) (string, error) {
	token, err := auth.client.LoginAdmin(ctx, auth.opts.AdminUsername, auth.opts.AdminPassword, "master")
	if err != nil {
		return "", fmt.Errorf("keycloak admin login failed: %w", err)
	}
	return token.AccessToken, nil
}

func (auth *KeycloakIdentityProvider) LoginWithEmail(email, password string) (LoginResult, error) {
	var user schema.User
	result := auth.db.Find(&user, "email = ?", email)
	if result.Error != nil {
		return LoginResult{}, schema.NewDbError("locating user for email", result.Error)
	}
	if result.RowsAffected != 1 {
		return LoginResult{}, fmt.Errorf("no user found with email %v", email)
	}

	ctx := context.Background()
	_, err := auth.client.Login(
		ctx, auth.opts.ClientId, auth.opts.ClientSecret, auth.opts.Realm, user.Username, password,
	)
	if err != nil {
		return LoginResult{}, fmt.Errorf("email and password do not match")
	}

	token, err := auth.jwtManager.CreateUserJwt(user.Id)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login failed: %w", err)
	}

	return LoginResult{UserId: user.Id, AccessToken: token}, nil
}

func (auth *KeycloakIdentityProvider) CreateUser(username, email, password string) (string, error) {
	ctx := context.Background()

	adminToken, err := auth.adminToken(ctx)
	if err != nil {
		return "", err
	}

	keycloakId, err := auth.client.CreateUser(ctx, adminToken, auth.opts.Realm, gocloak.User{
		Username:      gocloak.StringP(username),
		Email:         gocloak.StringP(email),
		Enabled:       gocloak.BoolP(true),
		EmailVerified: gocloak.BoolP(true),
	})
	if err != nil {
		return "", fmt.Errorf("error creating keycloak user: %w", err)
	}

	err = auth.client.SetPassword(ctx, adminToken, keycloakId, auth.opts.Realm, password, false)
	if err != nil {
		return "", fmt.Errorf("error setting keycloak password: %w", err)
	}

	// Mirror row uses the keycloak id so the two stay aligned.
	newUser := schema.User{
		Id:           keycloakId,
		Username:     username,
		Email:        email,
		Name:         username,
		RegisteredAt: time.Now().UTC(),
	}

	err = auth.db.Transaction(func(txn *gorm.DB) error {
		result := txn.Create(&newUser)
		if result.Error != nil {
			return schema.NewDbError("creating new user entry", result.Error)
		}

		group, err := schema.GetGroupByName(schema.DefaultUserGroup, txn)
		if err != nil {
			return err
		}

		result = txn.Create(&schema.UserGroup{UserId: newUser.Id, GroupId: group.Id})
		if result.Error != nil {
			return schema.NewDbError("adding user to default group", result.Error)
		}

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("error creating new user: %w", err)
	}

	return newUser.Id, nil
}

func (auth *KeycloakIdentityProvider) UpdatePassword(userId, password string) error {
	ctx := context.Background()

	adminToken, err := auth.adminToken(ctx)
	if err != nil {
		return err
	}

	err = auth.client.SetPassword(ctx, adminToken, userId, auth.opts.Realm, password, false)
	if err != nil {
		return fmt.Errorf("error updating keycloak password: %w", err)
	}

	return nil
}

func (auth *KeycloakIdentityProvider) DeleteUser(userId string) error {
	ctx := context.Background()

	adminToken, err := auth.adminToken(ctx)
	if err != nil {
		return err
	}

	err = auth.client.DeleteUser(ctx, adminToken, auth.opts.Realm, userId)
	if err != nil {
		return fmt.Errorf("error deleting keycloak user: %w", err)
	}

	return nil
}
