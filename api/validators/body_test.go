package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
)

type createPayload struct {
	Title      string `json:"title" validate:"required"`
	TotalSpots int    `json:"total_spots" validate:"gt=0"`
	VideoURL   string `json:"video_url" validate:"omitempty,url"`
}

func TestDecodeJSONBodyAccepts(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"r","total_spots":5}`))
	var payload createPayload
	require.NoError(t, DecodeJSONBody(req, &payload))
	assert.Equal(t, "r", payload.Title)
	assert.Equal(t, 5, payload.TotalSpots)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"r","total_spots":5,"bogus":true}`))
	var payload createPayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"","total_spots":0,"video_url":"not-a-url"}`))
	var payload createPayload
	err := DecodeJSONBody(req, &payload)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok, "expected per-field details, got %T", typed.Details())
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "total_spots")
	assert.Contains(t, details, "video_url")
}
