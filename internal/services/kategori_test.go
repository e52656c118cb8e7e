package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/query"
	"github.com/sinar-app/sinar-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKategoriCreate(t *testing.T) {
	f := newFixture(t)
	svc := services.NewKategoriService(f.db)
	ctx := context.Background()
	admin := principal(f.admin)

	k, err := svc.Create(ctx, admin, "  kementerian   LUAR negeri ")
	require.NoError(t, err)
	assert.Equal(t, "Kementerian Luar Negeri", k.Name)
	assert.True(t, k.IsActive)

	_, err = svc.Create(ctx, admin, "KEMENTERIAN LUAR NEGERI")
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = svc.Create(ctx, admin, "   ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestKategoriUpdate(t *testing.T) {
	f := newFixture(t)
	svc := services.NewKategoriService(f.db)
	ctx := context.Background()
	admin := principal(f.admin)

	k, err := svc.Update(ctx, admin, f.kemenkes.ID, "kementerian kesehatan ri")
	require.NoError(t, err)
	assert.Equal(t, "Kementerian Kesehatan Ri", k.Name)

	_, err = svc.Update(ctx, admin, f.kemenkes.ID, "Kementerian Kesehatan RI")
	require.NoError(t, err, "renaming to its own name is not a clash")

	_, err = svc.Update(ctx, admin, f.kemenkes.ID, "kementerian perdagangan")
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = svc.Update(ctx, admin, 999, "x")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestKategoriDeleteFreesName(t *testing.T) {
	f := newFixture(t)
	svc := services.NewKategoriService(f.db)
	ctx := context.Background()
	admin := principal(f.admin)

	require.NoError(t, svc.Delete(ctx, admin, f.kemendag.ID))

	var stored models.Kategori
	require.NoError(t, f.db.First(&stored, f.kemendag.ID).Error)
	assert.False(t, stored.IsActive)
	assert.True(t, strings.HasPrefix(stored.Name, "Kementerian Perdagangan_deleted_"))

	_, err := svc.Get(ctx, admin, f.kemendag.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	again, err := svc.Create(ctx, admin, "Kementerian Perdagangan")
	require.NoError(t, err)
	assert.NotEqual(t, f.kemendag.ID, again.ID)

	assert.True(t, apperror.Is(svc.Delete(ctx, admin, f.kemendag.ID), apperror.KindNotFound))
}

func TestKategoriScope(t *testing.T) {
	f := newFixture(t)
	svc := services.NewKategoriService(f.db)
	ctx := context.Background()

	page, err := svc.List(ctx, principal(f.health), query.Params{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, f.kemenkes.ID, page.Data[0].ID)

	page, err = svc.List(ctx, principal(f.admin), query.Params{Search: "perdag"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = svc.Get(ctx, principal(f.health), f.kemendag.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
