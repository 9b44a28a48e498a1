package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/chameleon/internal/model"
)

// --- Profile Decoding ---.

func TestProfile_CanonicalRow(t *testing.T) {
	t.Parallel()

	data := `{
		"id": "p1", "user_id": "u1", "username": "alice", "bio": "travel and food",
		"posts_count": 2, "followers_count": 120, "following_count": 80,
		"posts": [{"caption": "Sunset", "img_url": "i", "post_url": "u"}],
		"followers_list": ["bob"], "following_list": ["carol", "dave"],
		"created_at": "2024-01-02T03:04:05Z"
	}`

	var p model.InstagramProfile
	require.NoError(t, json.Unmarshal([]byte(data), &p))

	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, 120, p.FollowersCount)
	assert.Equal(t, []model.InstagramPost{{Caption: "Sunset", ImgURL: "i", PostURL: "u"}}, p.Posts)
	assert.Equal(t, []string{"carol", "dave"}, p.FollowingList)
}

func TestProfile_TolerantRow(t *testing.T) {
	t.Parallel()

	data := `{
		"id": 17, "username": null, "bio": null,
		"posts_count": "12", "followers_count": 3.9, "following_count": "n/a",
		"posts": "[{\"caption\": \"encoded\"}, 5]",
		"followers_list": null
	}`

	var p model.InstagramProfile
	require.NoError(t, json.Unmarshal([]byte(data), &p))

	assert.Equal(t, "17", p.ID)
	assert.Empty(t, p.Username)
	assert.Equal(t, 12, p.PostsCount)
	assert.Equal(t, 3, p.FollowersCount)
	assert.Equal(t, 0, p.FollowingCount)
	assert.Equal(t, []model.InstagramPost{{Caption: "encoded"}}, p.Posts)
	assert.Nil(t, p.FollowersList)
}

func TestProfile_RejectsNonObject(t *testing.T) {
	t.Parallel()

	var p model.InstagramProfile

	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &p))
	require.NoError(t, json.Unmarshal([]byte(`null`), &p))
}

// --- Event Decoding ---.

func TestEvent_DecodesDevices(t *testing.T) {
	t.Parallel()

	data := `{
		"id": "e1", "user_id": "u1", "phone_number": "+15550001",
		"event_time": "2024-05-01T10:00:00Z", "presence": "available",
		"rtt": "250", "device_count": 2,
		"devices": [{"jid": "d1@s", "state": "online", "avg": 240, "rtt": 260.0}, null]
	}`

	var e model.WhatsAppEvent
	require.NoError(t, json.Unmarshal([]byte(data), &e))

	assert.Equal(t, 250, e.RTT)
	assert.Equal(t, 2, e.DeviceCount)
	require.Len(t, e.Devices, 1)
	assert.Equal(t, model.DeviceInfo{JID: "d1@s", State: "online", Avg: 240, RTT: 260}, e.Devices[0])

	ts, ok := e.Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), ts)
}

func TestEvent_RoundTripsThroughEncoding(t *testing.T) {
	t.Parallel()

	in := model.WhatsAppEvent{ID: "e", Presence: "composing", RTT: 12, Devices: []model.DeviceInfo{{JID: "j"}}}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out model.WhatsAppEvent
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

// --- Coercion ---.

func TestInt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want int
	}{
		{nil, 0},
		{json.Number("42"), 42},
		{json.Number("1e3"), 1000},
		{json.Number("-7.8"), -7},
		{" 15 ", 15},
		{"abc", 0},
		{true, 1},
		{1e20, 0},
		{[]any{1}, 0},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, model.Int(c.in), "input %#v", c.in)
	}
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"2024-05-01T10:00:00.123456+00:00",
		"2024-05-01 10:00:00.5+00",
		"2024-05-01T10:00:00",
		"2024-05-01",
	} {
		_, ok := model.ParseTime(s)
		assert.True(t, ok, s)
	}

	_, ok := model.ParseTime("yesterday")
	assert.False(t, ok)

	_, ok = model.ParseTime("")
	assert.False(t, ok)
}
