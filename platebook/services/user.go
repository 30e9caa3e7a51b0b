package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"platebook/platebook/auth"
	"platebook/platebook/mailer"
	"platebook/platebook/schema"
	"platebook/platebook/storage"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
	store    storage.Store
	mail     mailer.Mailer
}

func (s *UserService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Post("/signup", s.Signup)
		r.Post("/login", s.Login)
		r.Post("/recover", s.RecoverPassword)
		r.Get("/{user_id}", s.PublicProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/me", s.Me)
		r.Patch("/me", s.UpdateMe)
		r.Post("/me/image", s.UploadAvatar)
		r.Delete("/me", s.DeleteMe)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Get("/list", s.List)
	})

	return r
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type signupResponse struct {
	UserId string `json:"user_id"`
}

func (s *UserService) Signup(w http.ResponseWriter, r *http.Request) {
	var params signupRequest
	if !parseRequestBody(w, r, &params) {
		return
	}

	if params.Email == "" || params.Password == "" {
		http.Error(w, "'email' and 'password' must be provided", http.StatusBadRequest)
		return
	}

	if !s.userAuth.AllowDirectSignup() {
		http.Error(w, "direct signup is not supported for this identity provider", http.StatusUnauthorized)
		return
	}

	// Accounts are keyed by email, the username mirrors it.
	userId, err := s.userAuth.CreateUser(params.Email, params.Email, params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserEmailAlreadyExists) || errors.Is(err, auth.ErrUsernameAlreadyExists) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if params.Name != "" {
		result := s.db.Model(&schema.User{}).Where("id = ?", userId).Update("name", params.Name)
		if result.Error != nil {
			writeError(w, schema.NewDbError("setting user name", result.Error))
			return
		}
	}

	writeJsonResponse(w, signupResponse{UserId: userId})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserId      string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

func (s *UserService) Login(w http.ResponseWriter, r *http.Request) {
	var params loginRequest
	if !parseRequestBody(w, r, &params) {
		return
	}

	login, err := s.userAuth.LoginWithEmail(params.Email, params.Password)
	if err != nil {
		http.Error(w, fmt.Sprintf("login failed: %v", err), http.StatusUnauthorized)
		return
	}

	writeJsonResponse(w, loginResponse{UserId: login.UserId, AccessToken: login.AccessToken})
}

type UserGroupInfo struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type UserInfo struct {
	Id           string            `json:"id"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Info         string            `json:"info"`
	RegisteredAt time.Time         `json:"registered_at"`
	Groups       []UserGroupInfo   `json:"groups"`
	ImageURLs    map[string]string `json:"image_urls,omitempty"`
}

func (s *UserService) UserInfo(r *http.Request, user schema.User) (UserInfo, error) {
	var memberships []schema.UserGroup
	result := s.db.Preload("Group").
		Where("user_id = ?", user.Id).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		Find(&memberships)
	if result.Error != nil {
		return UserInfo{}, schema.NewDbError("listing user groups", result.Error)
	}

	groups := make([]UserGroupInfo, 0, len(memberships))
	for _, m := range memberships {
		groups = append(groups, UserGroupInfo{Name: m.Group.Name, ExpiresAt: m.ExpiresAt})
	}

	info := UserInfo{
		Id:           user.Id,
		Username:     user.Username,
		Email:        user.Email,
		Name:         user.Name,
		Info:         user.Info,
		RegisteredAt: user.RegisteredAt,
		Groups:       groups,
	}

	if user.Image != nil {
		urls, err := storage.ImageURLs(r.Context(), s.store, *user.Image)
		if err != nil {
			return UserInfo{}, err
		}
		info.ImageURLs = urls
	}

	return info, nil
}

func (s *UserService) Me(w http.ResponseWriter, r *http.Request) {
	userId, err := auth.UserIdFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	user, err := schema.GetUser(userId, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	info, err := s.UserInfo(r, user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJsonResponse(w, info)
}

type PublicProfileInfo struct {
	Id        string            `json:"id"`
	Username  string            `json:"username"`
	Name      string            `json:"name"`
	Info      string            `json:"info"`
	ImageURLs map[string]string `json:"image_urls,omitempty"`
}

func (s *UserService) PublicProfile(w http.ResponseWriter, r *http.Request) {
	user, err := schema.GetUser(chi.URLParam(r, "user_id"), s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	profile := PublicProfileInfo{Id: user.Id, Username: user.Username, Name: user.Name, Info: user.Info}

	if user.Image != nil {
		urls, err := storage.ImageURLs(r.Context(), s.store, *user.Image)
		if err != nil {
			writeError(w, err)
			return
		}
		profile.ImageURLs = urls
	}

	writeJsonResponse(w, profile)
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Info     *string `json:"info"`
}

func (s *UserService) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userId, err := auth.UserIdFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var params updateUserRequest
	if !parseRequestBody(w, r, &params) {
		return
	}

	updates := map[string]interface{}{}
	if params.Username != nil {
		updates["username"] = *params.Username
	}
	if params.Email != nil {
		updates["email"] = *params.Email
	}
	if params.Name != nil {
		updates["name"] = *params.Name
	}
	if params.Info != nil {
		updates["info"] = *params.Info
	}

	if len(updates) == 0 {
		writeSuccess(w)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		user, err := schema.GetUser(userId, txn)
		if err != nil {
			return err
		}

		result := txn.Model(&user).Updates(updates)
		if result.Error != nil {
			return schema.NewDbError("updating user", result.Error)
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w)
}

func (s *UserService) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userId, err := auth.UserIdFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	file, ok := readMultipartImage(w, r)
	if !ok {
		return
	}
	defer file.Close()

	base := storage.UserImageBase(userId)

	// Upload first so the image key only lands on the row once the objects
	// actually exist.
	if err := storage.UploadImage(r.Context(), s.store, base, file); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.db.Model(&schema.User{}).Where("id = ?", userId).Update("image", base)
	if result.Error != nil {
		writeError(w, schema.NewDbError("updating user image", result.Error))
		return
	}
	if result.RowsAffected != 1 {
		writeError(w, fmt.Errorf("%w: user %v", schema.ErrNotFound, userId))
		return
	}

	writeSuccess(w)
}

func (s *UserService) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userId, err := auth.UserIdFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		user, err := schema.GetUser(userId, txn)
		if err != nil {
			return err
		}

		result := txn.Where("user_id = ?", userId).Delete(&schema.UserGroup{})
		if result.Error != nil {
			return schema.NewDbError("removing user group memberships", result.Error)
		}

		result = txn.Select("Recipes", "Articles", "LikedRecipes").Delete(&user)
		if result.Error != nil {
			return schema.NewDbError("deleting user", result.Error)
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.userAuth.DeleteUser(userId); err != nil {
		slog.Error("error removing user from identity provider", "user_id", userId, "error", err)
	}

	writeSuccess(w)
}

type recoverRequest struct {
	Email string `json:"email"`
}

// RecoverPassword resets the password to a random one and mails it out. The
// response never reveals whether the email exists.
func (s *UserService) RecoverPassword(w http.ResponseWriter, r *http.Request) {
	var params recoverRequest
	if !parseRequestBody(w, r, &params) {
		return
	}

	var user schema.User
	result := s.db.Find(&user, "email = ?", params.Email)
	if result.Error != nil {
		writeError(w, schema.NewDbError("locating user for recovery", result.Error))
		return
	}

	if result.RowsAffected == 1 {
		newPassword := randomPassword()
		if err := s.userAuth.UpdatePassword(user.Id, newPassword); err != nil {
			writeError(w, err)
			return
		}

		// Fire and forget, a slow smtp server should not block the request.
		go func() {
			subject, body := mailer.PasswordRecoveryMessage(user.Username, newPassword)
			if err := s.mail.Send(user.Email, subject, body); err != nil {
				slog.Error("error sending recovery email", "error", err)
			}
		}()
	}

	writeSuccess(w)
}

func randomPassword() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	var users []schema.User
	result := s.db.Order("username").Find(&users)
	if result.Error != nil {
		writeError(w, schema.NewDbError("listing users", result.Error))
		return
	}

	infos := make([]UserInfo, 0, len(users))
	for _, user := range users {
		info, err := s.UserInfo(r, user)
		if err != nil {
			writeError(w, err)
			return
		}
		infos = append(infos, info)
	}

	writeJsonResponse(w, infos)
}

// EnsureAdmin creates the admin account and its membership in the admin
// group if either is missing. Called once at startup.
func (s *UserService) EnsureAdmin(email, password string) error {
	var user schema.User
	result := s.db.Find(&user, "email = ?", email)
	if result.Error != nil {
		return schema.NewDbError("checking for admin user", result.Error)
	}

	userId := user.Id
	if result.RowsAffected == 0 {
		var err error
		userId, err = s.userAuth.CreateUser("admin", email, password)
		if err != nil {
			return fmt.Errorf("error creating admin user: %w", err)
		}
	}

	return s.db.Transaction(func(txn *gorm.DB) error {
		group, err := schema.GetGroupByName(schema.AdminGroup, txn)
		if err != nil {
			return err
		}

		var membership schema.UserGroup
		result := txn.Find(&membership, "user_id = ? AND group_id = ?", userId, group.Id)
		if result.Error != nil {
			return schema.NewDbError("checking admin group membership", result.Error)
		}
		if result.RowsAffected != 0 {
			return nil
		}

		result = txn.Create(&schema.UserGroup{UserId: userId, GroupId: group.Id})
		if result.Error != nil {
			return schema.NewDbError("adding admin group membership", result.Error)
		}

		return nil
	})
}
