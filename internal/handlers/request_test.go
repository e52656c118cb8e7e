package handlers

import (
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sinar-app/sinar-api/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormIDs(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string][]string
		want    []uint
		sent    bool
		wantErr bool
	}{
		{"absent", map[string][]string{}, nil, false, false},
		{"repeated", map[string][]string{"category_ids": {"1", "2"}}, []uint{1, 2}, true, false},
		{"bracketed", map[string][]string{"category_ids[]": {"3"}}, []uint{3}, true, false},
		{"comma joined", map[string][]string{"category_ids": {"4, 5,"}}, []uint{4, 5}, true, false},
		{"json array", map[string][]string{"category_ids": {"[6,7]"}}, []uint{6, 7}, true, false},
		{"empty", map[string][]string{"category_ids": {""}}, []uint{}, true, false},
		{"not a number", map[string][]string{"category_ids": {"abc"}}, nil, true, true},
		{"zero", map[string][]string{"category_ids": {"0"}}, nil, true, true},
		{"bad json", map[string][]string{"category_ids": {"[1,"}}, nil, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, sent, err := formIDs(&multipart.Form{Value: tt.values}, "category_ids")
			assert.Equal(t, tt.sent, sent)
			if tt.wantErr {
				assert.True(t, apperror.Is(err, apperror.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFormString(t *testing.T) {
	form := &multipart.Form{Value: map[string][]string{"title": {"Surat"}, "remark": {""}}}
	require.NotNil(t, formString(form, "title"))
	assert.Equal(t, "Surat", *formString(form, "title"))
	require.NotNil(t, formString(form, "remark"))
	assert.Equal(t, "", *formString(form, "remark"))
	assert.Nil(t, formString(form, "missing"))
}

func TestParamAndQueryIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x?category_id=4&bad=-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "12"}, {Key: "zero", Value: "0"}}

	id, err := paramID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)
	_, err = paramID(c, "zero")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	got, err := queryUint(c, "category_id")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint(4), *got)

	got, err = queryUint(c, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = queryUint(c, "bad")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
