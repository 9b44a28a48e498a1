package analysis

import (
	"github.com/Sumatoshi-tech/chameleon/internal/model"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/stats"
)

// Overview is the headline summary of a snapshot.
type Overview struct {
	Presence       map[string]int `json:"presence"        yaml:"presence"`
	RTT            stats.Summary  `json:"rtt"             yaml:"rtt"`
	Followers      stats.Summary  `json:"followers"       yaml:"followers"`
	Profiles       int            `json:"profiles"        yaml:"profiles"`
	Posts          int            `json:"posts"           yaml:"posts"`
	Events         int            `json:"events"          yaml:"events"`
	Users          int            `json:"users"           yaml:"users"`
	DeviceClusters int            `json:"device_clusters" yaml:"device_clusters"`
}

// Summarize computes the Overview.
func Summarize(profiles []model.InstagramProfile, events []model.WhatsAppEvent) Overview {
	o := Overview{
		Profiles: len(profiles),
		Events:   len(events),
		Presence: make(map[string]int),
	}

	followers := make([]int, 0, len(profiles))
	for _, p := range profiles {
		followers = append(followers, p.FollowersCount)
		o.Posts += max(p.PostsCount, len(p.Posts))
	}

	users := make(map[string]struct{})
	rtts := make([]int, 0, len(events))

	for _, e := range events {
		users[UserKey(e)] = struct{}{}
		o.Presence[e.Presence]++

		if e.RTT > 0 {
			rtts = append(rtts, e.RTT)
		}
	}

	o.Users = len(users)
	o.RTT = stats.Summarize(rtts)
	o.Followers = stats.Summarize(followers)

	for _, g := range DeviceClusters(events) {
		if len(g) > 1 {
			o.DeviceClusters++
		}
	}

	return o
}
