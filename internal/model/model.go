// Package model defines the Instagram profile and WhatsApp presence event
// records and their tolerant JSON decoding.
//
// Rows come from PostgREST, Postgres row_to_json or hand-made dumps, so
// decoding accepts null or missing fields (zero values), numbers sent as
// strings or floats, and nested arrays sent as JSON-encoded strings.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/chameleon/pkg/jsonutil"
)

// InstagramPost is one post of a profile.
type InstagramPost struct {
	Caption string `json:"caption"  yaml:"caption"`
	ImgURL  string `json:"img_url"  yaml:"img_url"`
	PostURL string `json:"post_url" yaml:"post_url"`
}

// InstagramProfile is one scraped Instagram account.
type InstagramProfile struct {
	ID             string          `json:"id"              yaml:"id"`
	UserID         string          `json:"user_id"         yaml:"user_id"`
	Username       string          `json:"username"        yaml:"username"`
	Bio            string          `json:"bio"             yaml:"bio"`
	CreatedAt      string          `json:"created_at"      yaml:"created_at"`
	Posts          []InstagramPost `json:"posts"           yaml:"posts,omitempty"`
	FollowersList  []string        `json:"followers_list"  yaml:"followers_list,omitempty"`
	FollowingList  []string        `json:"following_list"  yaml:"following_list,omitempty"`
	PostsCount     int             `json:"posts_count"     yaml:"posts_count"`
	FollowersCount int             `json:"followers_count" yaml:"followers_count"`
	FollowingCount int             `json:"following_count" yaml:"following_count"`
}

// DeviceInfo is one linked device reported with a presence event.
type DeviceInfo struct {
	JID   string `json:"jid"   yaml:"jid"`
	State string `json:"state" yaml:"state"`
	Avg   int    `json:"avg"   yaml:"avg"`
	RTT   int    `json:"rtt"   yaml:"rtt"`
}

// WhatsAppEvent is one presence observation. RTT is in milliseconds.
type WhatsAppEvent struct {
	ID          string       `json:"id"           yaml:"id"`
	UserID      string       `json:"user_id"      yaml:"user_id"`
	PhoneNumber string       `json:"phone_number" yaml:"phone_number"`
	EventTime   string       `json:"event_time"   yaml:"event_time"`
	Presence    string       `json:"presence"     yaml:"presence"`
	CreatedAt   string       `json:"created_at"   yaml:"created_at"`
	Devices     []DeviceInfo `json:"devices"      yaml:"devices,omitempty"`
	RTT         int          `json:"rtt"          yaml:"rtt"`
	DeviceCount int          `json:"device_count" yaml:"device_count"`
}

// UnmarshalJSON decodes a profile row tolerantly.
func (p *InstagramProfile) UnmarshalJSON(data []byte) error {
	row, err := parseRow(data)
	if err != nil {
		return err
	}

	*p = ProfileFromRow(row)

	return nil
}

// UnmarshalJSON decodes an event row tolerantly.
func (e *WhatsAppEvent) UnmarshalJSON(data []byte) error {
	row, err := parseRow(data)
	if err != nil {
		return err
	}

	*e = EventFromRow(row)

	return nil
}

func parseRow(data []byte) (map[string]any, error) {
	v, err := jsonutil.Parse(data)
	if err != nil {
		return nil, err
	}

	switch row := v.(type) {
	case map[string]any:
		return row, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("model: expected object, got %T", v)
	}
}

// ProfileFromRow builds a profile from a decoded JSON object.
func ProfileFromRow(row map[string]any) InstagramProfile {
	p := InstagramProfile{
		ID:             String(row["id"]),
		UserID:         String(row["user_id"]),
		Username:       String(row["username"]),
		Bio:            String(row["bio"]),
		CreatedAt:      String(row["created_at"]),
		FollowersList:  Strings(row["followers_list"]),
		FollowingList:  Strings(row["following_list"]),
		PostsCount:     Int(row["posts_count"]),
		FollowersCount: Int(row["followers_count"]),
		FollowingCount: Int(row["following_count"]),
	}

	for _, item := range list(row["posts"]) {
		post, ok := item.(map[string]any)
		if !ok {
			continue
		}

		p.Posts = append(p.Posts, InstagramPost{
			Caption: String(post["caption"]),
			ImgURL:  String(post["img_url"]),
			PostURL: String(post["post_url"]),
		})
	}

	return p
}

// EventFromRow builds an event from a decoded JSON object.
func EventFromRow(row map[string]any) WhatsAppEvent {
	e := WhatsAppEvent{
		ID:          String(row["id"]),
		UserID:      String(row["user_id"]),
		PhoneNumber: String(row["phone_number"]),
		EventTime:   String(row["event_time"]),
		Presence:    String(row["presence"]),
		CreatedAt:   String(row["created_at"]),
		RTT:         Int(row["rtt"]),
		DeviceCount: Int(row["device_count"]),
	}

	for _, item := range list(row["devices"]) {
		dev, ok := item.(map[string]any)
		if !ok {
			continue
		}

		e.Devices = append(e.Devices, DeviceInfo{
			JID:   String(dev["jid"]),
			State: String(dev["state"]),
			Avg:   Int(dev["avg"]),
			RTT:   Int(dev["rtt"]),
		})
	}

	return e
}

// String coerces a decoded JSON value to a string. Null is "".
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	default:
		return jsonutil.Scalar(x)
	}
}

// Int coerces a decoded JSON value to an int. Fractions truncate toward
// zero; unparseable, null and out-of-range values are 0.
func Int(v any) int {
	var f float64

	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return clampInt(float64(i))
		}

		parsed, err := x.Float64()
		if err != nil {
			return 0
		}

		f = parsed
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0
		}

		f = parsed
	case bool:
		if x {
			return 1
		}

		return 0
	default:
		return 0
	}

	return clampInt(f)
}

func clampInt(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}

	return int(f)
}

// Strings coerces a JSON array (or a JSON-encoded array string) to strings.
func Strings(v any) []string {
	items := list(v)
	if len(items) == 0 {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, String(item))
	}

	return out
}

// list accepts an array or a string holding a JSON array.
func list(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case string:
		parsed, err := jsonutil.Parse([]byte(x))
		if err != nil {
			return nil
		}

		items, _ := parsed.([]any)

		return items
	default:
		return nil
	}
}
