package analysis

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/chameleon/internal/model"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/cms"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/levenshtein"
	"github.com/Sumatoshi-tech/chameleon/pkg/textindex"
)

const (
	// TopWordsPerProfile is how many caption words Engagement keeps.
	TopWordsPerProfile = 5

	// minWordLen drops short tokens ("a", "of") from word statistics.
	minWordLen = 3

	sketchEpsilon = 0.001
	sketchDelta   = 0.01

	// postWeight scales posts in the engagement ranking score.
	postWeight = 10
)

// Engagement summarizes one profile.
type Engagement struct {
	Username         string     `json:"username"           yaml:"username"`
	TopWords         []cms.Item `json:"top_words"          yaml:"top_words"`
	TotalPosts       int        `json:"total_posts"        yaml:"total_posts"`
	TotalFollowers   int        `json:"total_followers"    yaml:"total_followers"`
	TotalFollowing   int        `json:"total_following"    yaml:"total_following"`
	AvgCaptionLength int        `json:"avg_caption_length" yaml:"avg_caption_length"`
	EngagementRate   float64    `json:"engagement_rate"    yaml:"engagement_rate"`
}

// ProfileEngagement computes Engagement for every profile, in input order.
// TotalPosts is the larger of posts_count and the number of posts present;
// EngagementRate is followers per post, 0 without posts.
func ProfileEngagement(profiles []model.InstagramProfile) []Engagement {
	out := make([]Engagement, 0, len(profiles))

	for _, p := range profiles {
		e := Engagement{
			Username:       p.Username,
			TotalPosts:     max(p.PostsCount, len(p.Posts)),
			TotalFollowers: p.FollowersCount,
			TotalFollowing: p.FollowingCount,
			TopWords:       topWords(p.Posts, TopWordsPerProfile),
		}

		if len(p.Posts) > 0 {
			total := 0
			for _, post := range p.Posts {
				total += len([]rune(post.Caption))
			}

			e.AvgCaptionLength = total / len(p.Posts)
		}

		if e.TotalPosts > 0 {
			e.EngagementRate = float64(e.TotalFollowers) / float64(e.TotalPosts)
		}

		out = append(out, e)
	}

	return out
}

func newTopK(k int) *cms.TopK {
	sketch, err := cms.New(sketchEpsilon, sketchDelta)
	if err != nil {
		panic(err) // constants are valid
	}

	top, err := cms.NewTopK(sketch, k)
	if err != nil {
		panic(err)
	}

	return top
}

func topWords(posts []model.InstagramPost, k int) []cms.Item {
	top := newTopK(k)

	for _, post := range posts {
		observeWords(top, post.Caption)
	}

	return top.Items()
}

func observeWords(top *cms.TopK, text string) {
	for _, tok := range textindex.Tokenize(text) {
		if len([]rune(tok)) >= minWordLen {
			top.Observe(tok)
		}
	}
}

// CaptionWords returns the k most frequent caption words across profiles.
func CaptionWords(profiles []model.InstagramProfile, k int) []cms.Item {
	if k < 1 {
		return []cms.Item{}
	}

	top := newTopK(k)

	for _, p := range profiles {
		for _, post := range p.Posts {
			observeWords(top, post.Caption)
		}
	}

	return top.Items()
}

// RankedProfile is one row of the engagement ranking.
type RankedProfile struct {
	Username string `json:"username" yaml:"username"`
	Rank     int    `json:"rank"     yaml:"rank"`
	Score    int    `json:"score"    yaml:"score"`
}

// RankProfiles orders profiles by followers + following + 10*posts,
// highest first; ties keep input order.
func RankProfiles(profiles []model.InstagramProfile) []RankedProfile {
	out := make([]RankedProfile, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, RankedProfile{
			Username: p.Username,
			Score:    p.FollowersCount + p.FollowingCount + postWeight*p.PostsCount,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	for i := range out {
		out[i].Rank = i + 1
	}

	return out
}

// UsernamePair is two usernames within the edit-distance threshold.
type UsernamePair struct {
	A          string  `json:"a"          yaml:"a"`
	B          string  `json:"b"          yaml:"b"`
	Diff       string  `json:"diff"       yaml:"diff"`
	Distance   int     `json:"distance"   yaml:"distance"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// SimilarUsernames returns every pair of distinct, non-empty usernames with
// Levenshtein distance <= maxDistance, ordered by distance then input order.
// Comparison is case-insensitive.
func SimilarUsernames(profiles []model.InstagramProfile, maxDistance int) []UsernamePair {
	names := make([]string, 0, len(profiles))
	seen := make(map[string]struct{}, len(profiles))

	for _, p := range profiles {
		name := strings.ToLower(strings.TrimSpace(p.Username))
		if name == "" {
			continue
		}

		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}
		names = append(names, name)
	}

	var (
		lev levenshtein.Context
		out = make([]UsernamePair, 0)
	)

	for i := range names {
		for j := i + 1; j < len(names); j++ {
			a, b := names[i], names[j]

			// Length difference is a lower bound on the distance.
			if abs(len([]rune(a))-len([]rune(b))) > maxDistance {
				continue
			}

			d := lev.Distance(a, b)
			if d > maxDistance {
				continue
			}

			out = append(out, UsernamePair{
				A:          a,
				B:          b,
				Distance:   d,
				Similarity: lev.Similarity(a, b),
				Diff:       InlineDiff(a, b),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })

	return out
}

// InlineDiff renders the character edits from a to b as "[-del-]{+ins+}".
func InlineDiff(a, b string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(a, b, false))

	var sb strings.Builder

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		}
	}

	return sb.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
