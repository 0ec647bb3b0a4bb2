package validate_test

import (
	"errors"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/pickabook/pkb/internal/model"
	"github.com/pickabook/pkb/internal/validate"
)

func TestStruct_ValidBookmark(t *testing.T) {
	v := validate.New()
	b := model.NewBookmark(model.NewBookmarkParams{
		Title: "Go",
		URL:   "https://go.dev",
		Tags:  []string{"lang"},
	})
	assert.NilError(t, v.Struct(b))
}

func TestStruct_Failures(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		fields map[string]string
	}{
		{
			name:  "missing title and bad url",
			value: model.Bookmark{URL: "not a url", Tags: []string{}},
			fields: map[string]string{
				"title": "is required",
				"url":   "must be a valid URL",
			},
		},
		{
			name:   "empty tag",
			value:  model.Bookmark{Title: "x", URL: "https://x.dev", Tags: []string{"ok", ""}},
			fields: map[string]string{"tags[1]": "is required"},
		},
		{
			name:   "long tag",
			value:  model.Bookmark{Title: "x", URL: "https://x.dev", Tags: []string{strings.Repeat("a", 51)}},
			fields: map[string]string{"tags[0]": "must not exceed 50 characters"},
		},
		{
			name:  "signup",
			value: model.SignupRequest{Email: "nope", Password: "short", Nickname: "n", CertificationCode: "1"},
			fields: map[string]string{
				"email":    "must be a valid email address",
				"password": "must be at least 8 characters",
			},
		},
	}

	v := validate.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.value)
			assert.Assert(t, errors.Is(err, validate.ErrInvalid), "got %v", err)

			var verr *validate.Error
			assert.Assert(t, errors.As(err, &verr))
			assert.DeepEqual(t, verr.Fields, tt.fields)
		})
	}
}

func TestError_MessageIsSorted(t *testing.T) {
	err := &validate.Error{Fields: map[string]string{"url": "is required", "title": "is required"}}
	assert.Equal(t, err.Error(), "validation failed: title is required; url is required")
}
