package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		expectedSet   bool
		expectedValid bool
		expectedValue int
	}{
		{name: "absent", body: `{}`, expectedSet: false, expectedValid: false},
		{name: "null", body: `{"categoryId":null}`, expectedSet: true, expectedValid: false},
		{name: "value", body: `{"categoryId":7}`, expectedSet: true, expectedValid: true, expectedValue: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateTodoRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			assert.Equal(t, tt.expectedSet, req.CategoryID.Set)
			assert.Equal(t, tt.expectedValid, req.CategoryID.Valid)
			assert.Equal(t, tt.expectedValue, req.CategoryID.Value)
			assert.Equal(t, tt.expectedSet && !tt.expectedValid, req.CategoryID.IsNull())
		})
	}

	t.Run("wrong type", func(t *testing.T) {
		var req UpdateTodoRequest
		assert.Error(t, json.Unmarshal([]byte(`{"categoryId":"seven"}`), &req))
	})
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		limit    int
		total    int
		expected Pagination
	}{
		{
			name:     "empty result",
			page:     1,
			limit:    10,
			total:    0,
			expected: Pagination{CurrentPage: 1, TotalPages: 0, TotalItems: 0, ItemsPerPage: 10},
		},
		{
			name:     "first of three pages",
			page:     1,
			limit:    10,
			total:    25,
			expected: Pagination{CurrentPage: 1, TotalPages: 3, TotalItems: 25, ItemsPerPage: 10, HasNextPage: true},
		},
		{
			name:     "last page",
			page:     3,
			limit:    10,
			total:    30,
			expected: Pagination{CurrentPage: 3, TotalPages: 3, TotalItems: 30, ItemsPerPage: 10, HasPreviousPage: true},
		},
		{
			name:     "page past the end",
			page:     5,
			limit:    10,
			total:    12,
			expected: Pagination{CurrentPage: 5, TotalPages: 2, TotalItems: 12, ItemsPerPage: 10, HasPreviousPage: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewPagination(tt.page, tt.limit, tt.total))
		})
	}
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expected    time.Time
		expectError bool
	}{
		{name: "date only", value: "2026-01-31", expected: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339 with offset", value: "2026-01-31T10:00:00+02:00", expected: time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC)},
		{name: "datetime-local", value: "2026-01-31T10:30", expected: time.Date(2026, 1, 31, 10, 30, 0, 0, time.UTC)},
		{name: "garbage", value: "tomorrow", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDueDate(tt.value)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got))
		})
	}
}

func TestUserJSONHidesSecrets(t *testing.T) {
	token := "refresh"
	user := User{ID: 1, Email: "a@example.com", PasswordHash: "hash", Name: "A", Role: RoleUser, RefreshToken: &token}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "hash")
	assert.NotContains(t, string(data), "refresh")
	assert.Contains(t, string(data), `"role":"USER"`)
}
