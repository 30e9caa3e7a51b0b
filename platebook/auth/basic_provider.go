package auth

import (
	"fmt"
	"platebook/platebook/schema"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BasicIdentityProvider stores bcrypt password hashes on the user rows and
// issues local jwts.
type BasicIdentityProvider struct {
	jwtManager *JwtManager
	db         *gorm.DB
}

func NewBasicIdentityProvider(db *gorm.DB, jwtManager *JwtManager) IdentityProvider {
	return &BasicIdentityProvider{jwtManager: jwtManager, db: db}
}

func (auth *BasicIdentityProvider) AuthMiddleware() chi.Middlewares {
	return chi.Middlewares{auth.jwtManager.Verifier(), auth.jwtManager.Authenticator()}
}

func (auth *BasicIdentityProvider) OptionalAuthMiddleware() chi.Middlewares {
	return chi.Middlewares{auth.jwtManager.Verifier()}
}

func (auth *BasicIdentityProvider) AllowDirectSignup() bool {
	return true
}

func (auth *BasicIdentityProvider) LoginWithEmail(email, password string) (LoginResult, error) {
	var user schema.User
	result := auth.db.Find(&user, "email = ?", email)
	if result.Error != nil {
		return LoginResult{}, schema.NewDbError("locating user for email", result.Error)
	}

	if result.RowsAffected != 1 {
		return LoginResult{}, fmt.Errorf("no user found with email %v", email)
	}

	err := bcrypt.CompareHashAndPassword(user.Password, []byte(password))
	if err != nil {
		return LoginResult{}, fmt.Errorf("email and password do not match")
	}

	token, err := auth.jwtManager.CreateUserJwt(user.Id)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login failed: %w", err)
	}

	return LoginResult{UserId: user.Id, AccessToken: token}, nil
}

func (auth *BasicIdentityProvider) CreateUser(username, email, password string) (string, error) {
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", fmt.Errorf("error encrypting password: %w", err)
	}

	newUser := schema.User{
		Id:           uuid.NewString(),
		Username:     username,
		Email:        email,
		Password:     hashedPwd,
		Name:         username,
		RegisteredAt: time.Now().UTC(),
	}

	err = auth.db.Transaction(func(txn *gorm.DB) error {
		var existingUser schema.User
		result := txn.Find(&existingUser, "username = ? or email = ?", username, email)
		if result.Error != nil {
			return schema.NewDbError("checking for existing username/email", result.Error)
		}
		if result.RowsAffected != 0 {
			if existingUser.Username == username {
				return ErrUsernameAlreadyExists
			} else {
				return ErrUserEmailAlreadyExists
			}
		}

		result = txn.Create(&newUser)
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

func (auth *BasicIdentityProvider) UpdatePassword(userId, password string) error {
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return fmt.Errorf("error encrypting password: %w", err)
	}

	result := auth.db.Model(&schema.User{}).Where("id = ?", userId).Update("password", hashedPwd)
	if result.Error != nil {
		return schema.NewDbError("updating user password", result.Error)
	}
	if result.RowsAffected != 1 {
		return fmt.Errorf("%w: user %v", schema.ErrNotFound, userId)
	}

	return nil
}

func (auth *BasicIdentityProvider) DeleteUser(userId string) error {
	// The user row itself is removed by the user service, nothing else to
	// clean up for local credentials.
	return nil
}
