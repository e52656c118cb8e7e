package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sinar-app/sinar-api/internal/models"
	"github.com/sinar-app/sinar-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecentActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := testutil.CreateDocument(t, f.db, "Surat", f.admin.ID, f.kemenkes)

	require.NoError(t, f.activity.CreateActivity(ctx, f.admin.ID, models.ActivityDocumentUploaded, &doc.ID, nil, map[string]any{"title": "Surat"}))
	require.NoError(t, f.activity.CreateActivity(ctx, f.health.ID, models.ActivityDocumentDownloaded, &doc.ID, nil, nil))

	got, err := f.activity.GetRecentActivities(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.ActivityDocumentDownloaded, got[0].ActivityType)
	require.NotNil(t, got[0].User)
	assert.Equal(t, "kemenkes", got[0].User.Username)
	require.NotNil(t, got[0].Document)
	assert.Equal(t, "Surat", got[0].Document.Title)
	assert.JSONEq(t, `{}`, string(got[0].Metadata))

	var meta map[string]any
	require.NoError(t, json.Unmarshal(got[1].Metadata, &meta))
	assert.Equal(t, "Surat", meta["title"])

	one, err := f.activity.GetRecentActivities(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	all, err := f.activity.GetRecentActivities(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
