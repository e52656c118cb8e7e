package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/authz"
	"github.com/sinar-app/sinar-api/internal/media"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/query"
	"github.com/sinar-app/sinar-api/internal/utils"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

var userList = query.Spec{
	Sortable: map[string]string{
		"id":          "users.id",
		"username":    "users.username",
		"name_mentri": "users.name_mentri",
		"created_at":  "users.created_at",
		"updated_at":  "users.updated_at",
	},
	Searchable: []string{"users.username", "users.name_mentri", "users.contact_person"},
	Preload:    []string{"Role", "Category"},
	Base:       query.Eq("users.is_active", true),
}

type UserView struct {
	models.User
	LogoURL string `json:"logo_url,omitempty"`
}

// UserInput carries create and update fields. On update nil leaves the
// stored value alone.
type UserInput struct {
	Username      *string
	Password      *string
	RoleID        *uint
	CategoryID    *uint
	NameMentri    *string
	ContactPerson *string
	Logo          *FileUpload
}

type UserService struct {
	db     *gorm.DB
	store  ObjectStorage
	bucket string
	urls   URLBuilder
}

func NewUserService(db *gorm.DB, store ObjectStorage, buckets Buckets, urls URLBuilder) *UserService {
	return &UserService{db: db, store: store, bucket: buckets.Document, urls: urls}
}

func (s *UserService) View(u models.User) UserView {
	v := UserView{User: u}
	if u.Filepath != nil && *u.Filepath != "" {
		v.LogoURL = s.urls.UserLogo(u.ID)
	}
	return v
}

func (s *UserService) views(users []models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, s.View(u))
	}
	return out
}

func (s *UserService) List(ctx context.Context, p authz.Principal, params query.Params) (*query.Page[UserView], error) {
	params.Where = query.And(authz.UserScope(p), params.Where)
	page, err := query.List[models.User](ctx, s.db, userList, params)
	if err != nil {
		return nil, err
	}
	return mapPage(page, s.views), nil
}

func (s *UserService) Get(ctx context.Context, p authz.Principal, id uint) (*models.User, error) {
	var u models.User
	q := s.db.WithContext(ctx).Preload("Role").Preload("Category")
	q = query.Apply(q, query.And(userList.Base, authz.UserScope(p), query.Eq("users.id", id)))
	if err := q.First(&u).Error; err != nil {
		return nil, lookupErr(err, "User not found", "Failed to fetch user")
	}
	return &u, nil
}

// Me loads the caller's own active account.
func (s *UserService) Me(ctx context.Context, p authz.Principal) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("Role").Preload("Category").
		Where("id = ? AND is_active = ?", p.UserID, true).First(&u).Error
	if err != nil {
		return nil, lookupErr(err, "User not found", "Failed to fetch user")
	}
	return &u, nil
}

func (s *UserService) Create(ctx context.Context, actor authz.Principal, in UserInput) (*models.User, error) {
	username := trimmed(in.Username)
	if username == "" {
		return nil, apperror.Validation("username is required")
	}
	if in.Password == nil {
		return nil, apperror.Validation("password is required")
	}
	if err := checkPasswordStrength(*in.Password); err != nil {
		return nil, err
	}
	if in.RoleID == nil {
		return nil, apperror.Validation("role_id is required")
	}

	role, err := s.role(ctx, *in.RoleID)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, role, in.CategoryID); err != nil {
		return nil, err
	}
	if err := s.checkUsername(ctx, username, 0); err != nil {
		return nil, err
	}

	var logo *uploadedLogo
	if in.Logo != nil {
		if logo, err = s.uploadLogo(ctx, in.Logo); err != nil {
			return nil, err
		}
	}

	hash, err := utils.HashPassword(*in.Password)
	if err != nil {
		s.dropLogo(ctx, logo)
		return nil, apperror.Internal("Failed to hash password", err)
	}

	u := models.User{
		Username:      username,
		Password:      hash,
		RoleID:        role.ID,
		CategoryID:    in.CategoryID,
		NameMentri:    trimmed(in.NameMentri),
		ContactPerson: trimmed(in.ContactPerson),
		IsActive:      true,
		CreatedBy:     &actor.UserID,
		UpdatedBy:     &actor.UserID,
	}
	if logo != nil {
		u.Filepath = &logo.key
		u.OriginalName = &logo.name
	}

	if err := s.db.WithContext(ctx).Omit("Role", "Category").Create(&u).Error; err != nil {
		s.dropLogo(ctx, logo)
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("Username already exists")
		}
		return nil, apperror.Internal("Failed to create user", err)
	}
	return s.Get(ctx, actor, u.ID)
}

func (s *UserService) Update(ctx context.Context, actor authz.Principal, id uint, in UserInput) (*models.User, error) {
	u, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_by": actor.UserID}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, apperror.Validation("username cannot be empty")
		}
		if err := s.checkUsername(ctx, username, u.ID); err != nil {
			return nil, err
		}
		updates["username"] = username
	}
	if in.NameMentri != nil {
		updates["name_mentri"] = strings.TrimSpace(*in.NameMentri)
	}
	if in.ContactPerson != nil {
		updates["contact_person"] = strings.TrimSpace(*in.ContactPerson)
	}
	if in.Password != nil {
		if err := checkPasswordStrength(*in.Password); err != nil {
			return nil, err
		}
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, apperror.Internal("Failed to hash password", err)
		}
		updates["password"] = hash
	}

	role := u.Role
	if in.RoleID != nil {
		r, err := s.role(ctx, *in.RoleID)
		if err != nil {
			return nil, err
		}
		role = *r
		updates["role_id"] = role.ID
	}
	categoryID := u.CategoryID
	if in.CategoryID != nil {
		categoryID = in.CategoryID
		updates["category_id"] = *in.CategoryID
	}
	if in.RoleID != nil || in.CategoryID != nil {
		if err := s.checkCategory(ctx, &role, categoryID); err != nil {
			return nil, err
		}
	}

	var logo *uploadedLogo
	if in.Logo != nil {
		if logo, err = s.uploadLogo(ctx, in.Logo); err != nil {
			return nil, err
		}
		updates["filepath"] = logo.key
		updates["original_name"] = logo.name
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(updates).Error; err != nil {
		s.dropLogo(ctx, logo)
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("Username already exists")
		}
		return nil, apperror.Internal("Failed to update user", err)
	}
	if logo != nil && u.Filepath != nil {
		s.removeObject(ctx, *u.Filepath)
	}
	return s.Get(ctx, actor, u.ID)
}

func (s *UserService) ChangePassword(ctx context.Context, p authz.Principal, oldPassword, newPassword string) error {
	u, err := s.Me(ctx, p)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(u.Password, oldPassword) {
		return apperror.Validation("Old password is incorrect")
	}
	return s.setPassword(ctx, u.ID, p.UserID, newPassword)
}

// ResetPassword sets a new password without the old one.
func (s *UserService) ResetPassword(ctx context.Context, actor authz.Principal, id uint, newPassword string) error {
	u, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, u.ID, actor.UserID, newPassword)
}

// Delete deactivates the account, frees its username and drops the logo.
func (s *UserService) Delete(ctx context.Context, actor authz.Principal, id uint) error {
	if actor.UserID == id {
		return apperror.Validation("You cannot delete your own account")
	}
	u, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"username":      deletedName(u.Username, time.Now()),
		"is_active":     false,
		"filepath":      nil,
		"original_name": nil,
		"updated_by":    actor.UserID,
	}).Error
	if err != nil {
		return apperror.Internal("Failed to delete user", err)
	}
	if u.Filepath != nil {
		s.removeObject(ctx, *u.Filepath)
	}
	return nil
}

func (s *UserService) Logo(ctx context.Context, p authz.Principal, id uint) (media.Object, error) {
	u, err := s.Get(ctx, p, id)
	if err != nil {
		return media.Object{}, err
	}
	if u.Filepath == nil || *u.Filepath == "" {
		return media.Object{}, apperror.NotFound("User has no logo")
	}
	name := *u.Filepath
	if u.OriginalName != nil {
		name = *u.OriginalName
	}
	return media.Object{Bucket: s.bucket, Key: *u.Filepath, Name: name}, nil
}

func (s *UserService) setPassword(ctx context.Context, userID, actorID uint, password string) error {
	if err := checkPasswordStrength(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return apperror.Internal("Failed to hash password", err)
	}
	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{"password": hash, "updated_by": actorID}).Error
	if err != nil {
		return apperror.Internal("Failed to update password", err)
	}
	return nil
}

func (s *UserService) role(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation("Role not found")
		}
		return nil, apperror.Internal("Failed to fetch role", err)
	}
	return &role, nil
}

// checkCategory requires an active category for every non-admin role.
func (s *UserService) checkCategory(ctx context.Context, role *models.Role, categoryID *uint) error {
	if categoryID == nil {
		if role.IsAdmin() {
			return nil
		}
		return apperror.Validation("category_id is required for non-admin users")
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Kategori{}).
		Where("id = ? AND is_active = ?", *categoryID, true).Count(&count).Error
	if err != nil {
		return apperror.Internal("Failed to fetch category", err)
	}
	if count == 0 {
		return apperror.Validation("Category not found")
	}
	return nil
}

func (s *UserService) checkUsername(ctx context.Context, username string, exceptID uint) error {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperror.Internal("Failed to check username", err)
	}
	if count > 0 {
		return apperror.Conflict("Username already exists")
	}
	return nil
}

type uploadedLogo struct {
	key  string
	name string
}

func (s *UserService) uploadLogo(ctx context.Context, f *FileUpload) (*uploadedLogo, error) {
	contentType, err := logoRule.check(f)
	if err != nil {
		return nil, err
	}
	rc, err := f.Open()
	if err != nil {
		return nil, apperror.Validation("Logo file could not be read")
	}
	defer rc.Close()

	key := objectKey("logos/", f.Name)
	if err := s.store.Upload(ctx, s.bucket, key, rc, f.Size, contentType); err != nil {
		log.Printf("Failed to upload logo: %v", err)
		return nil, apperror.Internal("Failed to upload file", err)
	}
	return &uploadedLogo{key: key, name: f.Name}, nil
}

func (s *UserService) dropLogo(ctx context.Context, logo *uploadedLogo) {
	if logo != nil {
		s.removeObject(ctx, logo.key)
	}
}

func (s *UserService) removeObject(ctx context.Context, key string) {
	if err := s.store.Remove(context.WithoutCancel(ctx), s.bucket, key); err != nil {
		log.Printf("Failed to remove logo object: %v", err)
	}
}

func checkPasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return apperror.Validation("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
