package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileDoc = `{
  "username": "wanderer",
  "followers_count": 1200,
  "verified": false,
  "bio": null,
  "posts": [
    {"caption": "sunset", "likes": 10.5},
    {"caption": "coffee"}
  ],
  "meta": {},
  "tags": []
}`

func TestParse_KeepsNumbers(t *testing.T) {
	t.Parallel()

	v, err := Parse([]byte(`{"n": 12345678901234567890}`))
	require.NoError(t, err)

	n, ok := ValueByPath(v, "n")
	require.True(t, ok)
	assert.Equal(t, json.Number("12345678901234567890"), n)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"a":`))
	require.Error(t, err)

	_, err = Parse([]byte(`{} {}`))
	require.ErrorIs(t, err, ErrTrailingData)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got, err := Normalize([]byte(profileDoc))
	require.NoError(t, err)

	want := "bio = null\n" +
		"followers_count = 1200\n" +
		"meta = {}\n" +
		"posts.0.caption = sunset\n" +
		"posts.0.likes = 10.5\n" +
		"posts.1.caption = coffee\n" +
		"tags = []\n" +
		"username = wanderer\n" +
		"verified = false\n"

	assert.Equal(t, want, got)
}

func TestNormalize_Scalar(t *testing.T) {
	t.Parallel()

	got, err := Normalize([]byte(`"hello"`))
	require.NoError(t, err)
	assert.Equal(t, "$ = hello\n", got)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	got, err := Keys([]byte(profileDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"bio",
		"followers_count",
		"meta",
		"posts",
		"posts.0.caption",
		"posts.0.likes",
		"posts.1.caption",
		"tags",
		"username",
		"verified",
	}, got)
}

func TestKeys_NumericObjectKey(t *testing.T) {
	t.Parallel()

	got, err := Keys([]byte(`{"0": {"1": true}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "0.1"}, got)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want any
	}{
		{"username", "wanderer"},
		{"posts.1.caption", "coffee"},
		{"posts.0.likes", json.Number("10.5")},
		{"verified", false},
		{"bio", nil},
	}

	for _, tt := range tests {
		got, err := Lookup([]byte(profileDoc), tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestLookup_Missing(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"nope", "posts.2", "posts.x", "username.first", "posts.-1"} {
		_, err := Lookup([]byte(profileDoc), path)
		require.ErrorIs(t, err, ErrPathNotFound, path)
	}
}

func TestScalar(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "null", Scalar(nil))
	assert.Equal(t, "true", Scalar(true))
	assert.Equal(t, "1.5", Scalar(1.5))
	assert.Equal(t, "7", Scalar(json.Number("7")))
}
