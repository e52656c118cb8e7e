package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/query"
	"github.com/sinar-app/sinar-api/internal/services"
	"github.com/sinar-app/sinar-api/internal/testutil"
	"github.com/sinar-app/sinar-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(f *fixture) *services.UserService {
	return services.NewUserService(f.db, f.store, buckets, f.urls)
}

func TestUserCreate(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	ctx := context.Background()
	admin := principal(f.admin)
	userRole := testutil.Role(t, f.db, models.RoleUser)
	adminRole := testutil.Role(t, f.db, models.RoleAdmin)

	u, err := svc.Create(ctx, admin, services.UserInput{
		Username:      strPtr(" kemenlu "),
		Password:      strPtr("rahasia123"),
		RoleID:        &userRole.ID,
		CategoryID:    &f.kemenkes.ID,
		NameMentri:    strPtr("Menteri Luar Negeri"),
		ContactPerson: strPtr("0812"),
		Logo:          services.FileFromBytes("logo.png", png),
	})
	require.NoError(t, err)
	assert.Equal(t, "kemenlu", u.Username)
	assert.Equal(t, models.RoleUser, u.Role.Name)
	require.NotNil(t, u.Category)
	assert.Equal(t, f.kemenkes.ID, u.Category.ID)
	assert.True(t, utils.CheckPassword(u.Password, "rahasia123"))
	require.NotNil(t, u.Filepath)
	assert.True(t, strings.HasPrefix(*u.Filepath, "logos/"))
	assert.True(t, f.store.Has(buckets.Document, *u.Filepath))
	assert.Equal(t, "http://api.test/api/v1/admin/users/"+itoa(u.ID)+"/logo", svc.View(*u).LogoURL)

	tests := []struct {
		name string
		in   services.UserInput
		kind apperror.Kind
	}{
		{"missing username", services.UserInput{Password: strPtr("rahasia123"), RoleID: &adminRole.ID}, apperror.KindValidation},
		{"short password", services.UserInput{Username: strPtr("x"), Password: strPtr("pendek"), RoleID: &adminRole.ID}, apperror.KindValidation},
		{"unknown role", services.UserInput{Username: strPtr("x"), Password: strPtr("rahasia123"), RoleID: uintPtr(999)}, apperror.KindValidation},
		{"user without category", services.UserInput{Username: strPtr("x"), Password: strPtr("rahasia123"), RoleID: &userRole.ID}, apperror.KindValidation},
		{"unknown category", services.UserInput{Username: strPtr("x"), Password: strPtr("rahasia123"), RoleID: &userRole.ID, CategoryID: uintPtr(999)}, apperror.KindValidation},
		{"taken username", services.UserInput{Username: strPtr("kemenlu"), Password: strPtr("rahasia123"), RoleID: &adminRole.ID}, apperror.KindConflict},
		{"bad logo", services.UserInput{Username: strPtr("y"), Password: strPtr("rahasia123"), RoleID: &adminRole.ID, Logo: services.FileFromBytes("logo.png", pdf)}, apperror.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, admin, tt.in)
			require.Error(t, err)
			assert.True(t, apperror.Is(err, tt.kind), err.Error())
		})
	}

	t.Run("admin without category", func(t *testing.T) {
		u, err := svc.Create(ctx, admin, services.UserInput{Username: strPtr("admin2"), Password: strPtr("rahasia123"), RoleID: &adminRole.ID})
		require.NoError(t, err)
		assert.Nil(t, u.CategoryID)
	})
}

func TestUserUpdate(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	ctx := context.Background()
	admin := principal(f.admin)

	u, err := svc.Update(ctx, admin, f.health.ID, services.UserInput{
		NameMentri: strPtr(" Menteri Kesehatan "),
		CategoryID: &f.kemendag.ID,
		Logo:       services.FileFromBytes("a.png", png),
	})
	require.NoError(t, err)
	assert.Equal(t, "Menteri Kesehatan", u.NameMentri)
	assert.Equal(t, f.kemendag.ID, *u.CategoryID)
	firstLogo := *u.Filepath

	u, err = svc.Update(ctx, admin, f.health.ID, services.UserInput{Logo: services.FileFromBytes("b.png", png)})
	require.NoError(t, err)
	assert.False(t, f.store.Has(buckets.Document, firstLogo))
	assert.True(t, f.store.Has(buckets.Document, *u.Filepath))

	_, err = svc.Update(ctx, admin, f.health.ID, services.UserInput{Username: strPtr("kemendag")})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = svc.Update(ctx, admin, f.health.ID, services.UserInput{CategoryID: uintPtr(999)})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = svc.Update(ctx, principal(f.trade), f.admin.ID, services.UserInput{NameMentri: strPtr("x")})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUserPasswords(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	ctx := context.Background()
	p := principal(f.health)

	err := svc.ChangePassword(ctx, p, "salah-sekali", "passwordbaru")
	require.Error(t, err)
	assert.Equal(t, "Old password is incorrect", err.Error())

	assert.True(t, apperror.Is(svc.ChangePassword(ctx, p, testutil.Password, "short"), apperror.KindValidation))
	require.NoError(t, svc.ChangePassword(ctx, p, testutil.Password, "passwordbaru"))

	me, err := svc.Me(ctx, p)
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword(me.Password, "passwordbaru"))

	require.NoError(t, svc.ResetPassword(ctx, principal(f.admin), f.health.ID, "direset123"))
	me, err = svc.Me(ctx, p)
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword(me.Password, "direset123"))
}

func TestUserDelete(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	ctx := context.Background()
	admin := principal(f.admin)

	u, err := svc.Update(ctx, admin, f.trade.ID, services.UserInput{Logo: services.FileFromBytes("a.png", png)})
	require.NoError(t, err)
	logo := *u.Filepath

	assert.True(t, apperror.Is(svc.Delete(ctx, admin, f.admin.ID), apperror.KindValidation))
	require.NoError(t, svc.Delete(ctx, admin, f.trade.ID))
	assert.False(t, f.store.Has(buckets.Document, logo))

	var stored models.User
	require.NoError(t, f.db.First(&stored, f.trade.ID).Error)
	assert.False(t, stored.IsActive)
	assert.Nil(t, stored.Filepath)
	assert.True(t, strings.HasPrefix(stored.Username, "kemendag_deleted_"))

	userRole := testutil.Role(t, f.db, models.RoleUser)
	_, err = svc.Create(ctx, admin, services.UserInput{
		Username: strPtr("kemendag"), Password: strPtr("rahasia123"), RoleID: &userRole.ID, CategoryID: &f.kemendag.ID,
	})
	require.NoError(t, err, "the username is free again")

	_, err = svc.Me(ctx, principal(f.trade))
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUserListScopeAndLogo(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	ctx := context.Background()

	page, err := svc.List(ctx, principal(f.health), query.Params{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "kemenkes", page.Data[0].Username)

	page, err = svc.List(ctx, principal(f.admin), query.Params{OrderBy: "username"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, "admin", page.Data[0].Username)

	_, err = svc.Logo(ctx, principal(f.admin), f.health.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = svc.Update(ctx, principal(f.admin), f.health.ID, services.UserInput{Logo: services.FileFromBytes("Logo Kemenkes.png", png)})
	require.NoError(t, err)
	obj, err := svc.Logo(ctx, principal(f.health), f.health.ID)
	require.NoError(t, err)
	assert.Equal(t, buckets.Document, obj.Bucket)
	assert.Equal(t, "Logo Kemenkes.png", obj.Name)
}
