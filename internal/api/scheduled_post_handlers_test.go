package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoreach/autoreach/internal/models"
)

func postScheduledPost(t *testing.T, req CreateScheduledPostRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	// A rejected request never reaches the database
	handler := HandleCreateScheduledPost(nil)
	httpReq := withUser(httptest.NewRequest("POST", "/api/scheduled-posts", bytes.NewReader(body)), &models.User{ID: 7})
	rec := httptest.NewRecorder()
	handler(rec, httpReq)
	return rec
}

func TestCreateScheduledPostContentLimitCountsRunes(t *testing.T) {
	// 150 characters of multibyte text is 450 bytes; it must pass the
	// content check. The past scheduled time stops the request at the
	// next validation, so the rejection reason tells the two apart.
	rec := postScheduledPost(t, CreateScheduledPostRequest{
		Content:       strings.Repeat("日", 150),
		ScheduledTime: time.Now().Add(-time.Hour),
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scheduled time must be in the future")
	assert.NotContains(t, rec.Body.String(), "280")
}

func TestCreateScheduledPostRejectsOverlongContent(t *testing.T) {
	rec := postScheduledPost(t, CreateScheduledPostRequest{
		Content:       strings.Repeat("日", 281),
		ScheduledTime: time.Now().Add(time.Hour),
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "1-280 characters")
}

func TestCreateScheduledPostRejectsEmptyContent(t *testing.T) {
	rec := postScheduledPost(t, CreateScheduledPostRequest{
		Content:       "",
		ScheduledTime: time.Now().Add(time.Hour),
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "1-280 characters")
}

func TestTruncateContent(t *testing.T) {
	assert.Equal(t, "short", truncateContent("short", 100))

	long := truncateContent(strings.Repeat("日", 150), 100)
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, strings.Repeat("日", 100)+"...", long)
}
