package services

import (
	"fmt"
	"net/http"
	"platebook/platebook/auth"
	"platebook/platebook/schema"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *GroupService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)

		r.Get("/list", s.List)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Post("/", s.Create)
		r.Patch("/", s.Rename)
		r.Delete("/{name}", s.Delete)

		r.Post("/add-user", s.AddUser)
		r.Post("/remove-user", s.RemoveUser)
	})

	return r
}

type GroupInfo struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

func (s *GroupService) List(w http.ResponseWriter, r *http.Request) {
	var groups []schema.Group
	result := s.db.Order("name").Find(&groups)
	if result.Error != nil {
		writeError(w, schema.NewDbError("listing groups", result.Error))
		return
	}

	infos := make([]GroupInfo, 0, len(groups))
	for _, group := range groups {
		infos = append(infos, GroupInfo{Id: group.Id, Name: group.Name})
	}

	writeJsonResponse(w, infos)
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (s *GroupService) Create(w http.ResponseWriter, r *http.Request) {
	var params createGroupRequest
	if !parseRequestBody(w, r, &params) {
		return
	}
	if params.Name == "" {
		http.Error(w, "'name' must be provided", http.StatusBadRequest)
		return
	}

	newGroup := schema.Group{Id: uuid.NewString(), Name: params.Name}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var existing schema.Group
		result := txn.Find(&existing, "name = ?", params.Name)
		if result.Error != nil {
			return schema.NewDbError("checking for existing group", result.Error)
		}
		if result.RowsAffected != 0 {
			return fmt.Errorf("%w: group %v", schema.ErrConflict, params.Name)
		}

		result = txn.Create(&newGroup)
		if result.Error != nil {
			return schema.NewDbError("creating group", result.Error)
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJsonResponse(w, GroupInfo{Id: newGroup.Id, Name: newGroup.Name})
}

type renameGroupRequest struct {
	Name    string `json:"name"`
	NewName string `json:"new_name"`
}

func (s *GroupService) Rename(w http.ResponseWriter, r *http.Request) {
	var params renameGroupRequest
	if !parseRequestBody(w, r, &params) {
		return
	}
	if params.Name == "" || params.NewName == "" {
		http.Error(w, "'name' and 'new_name' must be provided", http.StatusBadRequest)
		return
	}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		group, err := schema.GetGroupByName(params.Name, txn)
		if err != nil {
			return err
		}

		var existing schema.Group
		result := txn.Find(&existing, "name = ?", params.NewName)
		if result.Error != nil {
			return schema.NewDbError("checking for existing group", result.Error)
		}
		if result.RowsAffected != 0 {
			return fmt.Errorf("%w: group %v", schema.ErrConflict, params.NewName)
		}

		result = txn.Model(&group).Update("name", params.NewName)
		if result.Error != nil {
			return schema.NewDbError("renaming group", result.Error)
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w)
}

func (s *GroupService) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	for _, builtin := range schema.BuiltinGroups() {
		if name == builtin {
			http.Error(w, fmt.Sprintf("group %v cannot be deleted", name), http.StatusBadRequest)
			return
		}
	}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		group, err := schema.GetGroupByName(name, txn)
		if err != nil {
			return err
		}

		result := txn.Where("group_id = ?", group.Id).Delete(&schema.UserGroup{})
		if result.Error != nil {
			return schema.NewDbError("removing group memberships", result.Error)
		}

		result = txn.Exec("DELETE FROM recipe_allowed_groups WHERE group_id = ?", group.Id)
		if result.Error != nil {
			return schema.NewDbError("removing group recipe shares", result.Error)
		}

		result = txn.Delete(&group)
		if result.Error != nil {
			return schema.NewDbError("deleting group", result.Error)
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w)
}

type membershipRequest struct {
	Email     string     `json:"email"`
	Group     string     `json:"group"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s *GroupService) AddUser(w http.ResponseWriter, r *http.Request) {
	var params membershipRequest
	if !parseRequestBody(w, r, &params) {
		return
	}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var user schema.User
		result := txn.Find(&user, "email = ?", params.Email)
		if result.Error != nil {
			return schema.NewDbError("locating user for email", result.Error)
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("%w: user with email %v", schema.ErrNotFound, params.Email)
		}

		group, err := schema.GetGroupByName(params.Group, txn)
		if err != nil {
			return err
		}

		// An expired row counts as no membership; re-adding just refreshes it.
		var existing schema.UserGroup
		result = txn.Find(&existing, "user_id = ? AND group_id = ?", user.Id, group.Id)
		if result.Error != nil {
			return schema.NewDbError("checking for existing membership", result.Error)
		}
		if result.RowsAffected != 0 {
			if existing.ExpiresAt == nil || existing.ExpiresAt.After(time.Now().UTC()) {
				return fmt.Errorf("%w: user %v is already in group %v", schema.ErrConflict, user.Id, params.Group)
			}
			result = txn.Model(&schema.UserGroup{}).
				Where("user_id = ? AND group_id = ?", user.Id, group.Id).
				Update("expires_at", params.ExpiresAt)
			if result.Error != nil {
				return schema.NewDbError("refreshing expired membership", result.Error)
			}
			return nil
		}

		result = txn.Create(&schema.UserGroup{UserId: user.Id, GroupId: group.Id, ExpiresAt: params.ExpiresAt})
		if result.Error != nil {
			return schema.NewDbError("adding group membership", result.Error)
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w)
}

func (s *GroupService) RemoveUser(w http.ResponseWriter, r *http.Request) {
	var params membershipRequest
	if !parseRequestBody(w, r, &params) {
		return
	}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var user schema.User
		result := txn.Find(&user, "email = ?", params.Email)
		if result.Error != nil {
			return schema.NewDbError("locating user for email", result.Error)
		}
		if result.RowsAffected != 1 {
			return fmt.Errorf("%w: user with email %v", schema.ErrNotFound, params.Email)
		}

		group, err := schema.GetGroupByName(params.Group, txn)
		if err != nil {
			return err
		}

		result = txn.Where("user_id = ? AND group_id = ?", user.Id, group.Id).Delete(&schema.UserGroup{})
		if result.Error != nil {
			return schema.NewDbError("removing group membership", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: user %v is not in group %v", schema.ErrNotFound, user.Id, params.Group)
		}

		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w)
}
