package analysis

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/chameleon/internal/model"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/bloom"
	"github.com/Sumatoshi-tech/chameleon/pkg/config"
	"github.com/Sumatoshi-tech/chameleon/pkg/textindex"
)

// Directory answers lookups over profiles and events: a Bloom filter over
// profile ids, user ids and usernames in front of an exact map, prefix
// tries for usernames, phone numbers and device jids, and an inverted index
// over bios.
type Directory struct {
	filter    *bloom.Filter
	byKey     map[string]int
	profiles  []model.InstagramProfile
	usernames *textindex.Trie
	phones    *textindex.Trie
	devices   *textindex.Trie
	bios      *textindex.InvertedIndex
	bioOwner  map[textindex.DocID]string
}

// NewDirectory indexes profiles and events. Keys are case-insensitive.
func NewDirectory(
	profiles []model.InstagramProfile, events []model.WhatsAppEvent, cfg config.BloomConfig,
) (*Directory, error) {
	expected := max(cfg.ExpectedItems, uint(3*len(profiles)), 1)

	filter, err := bloom.NewWithEstimates(expected, cfg.FalsePositiveRate)
	if err != nil {
		return nil, fmt.Errorf("profile filter: %w", err)
	}

	d := &Directory{
		filter:    filter,
		byKey:     make(map[string]int, 3*len(profiles)),
		profiles:  profiles,
		usernames: textindex.NewTrie(),
		phones:    textindex.NewTrie(),
		devices:   textindex.NewTrie(),
		bios:      textindex.NewInvertedIndex(),
		bioOwner:  make(map[textindex.DocID]string, len(profiles)),
	}

	for i, p := range profiles {
		for _, key := range []string{p.ID, p.UserID, p.Username} {
			key = normKey(key)
			if key == "" {
				continue
			}

			d.filter.AddString(key)

			if _, taken := d.byKey[key]; !taken {
				d.byKey[key] = i
			}
		}

		if name := normKey(p.Username); name != "" {
			d.usernames.Insert(name, p.ID)
		}

		if p.Bio != "" {
			d.bioOwner[d.bios.Add(p.Bio)] = p.Username
		}
	}

	for _, e := range events {
		if phone := strings.TrimSpace(e.PhoneNumber); phone != "" && !d.phones.Contains(phone) {
			d.phones.Insert(phone, e.UserID)
		}

		for _, dev := range e.Devices {
			if dev.JID != "" && !d.devices.Contains(dev.JID) {
				d.devices.Insert(dev.JID, e.PhoneNumber)
			}
		}
	}

	return d, nil
}

func normKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MightContain reports whether key may name a profile. False is definitive.
func (d *Directory) MightContain(key string) bool {
	return d.filter.TestString(normKey(key))
}

// Lookup finds a profile by id, user id or username.
func (d *Directory) Lookup(key string) (model.InstagramProfile, bool) {
	key = normKey(key)
	if !d.filter.TestString(key) {
		return model.InstagramProfile{}, false
	}

	i, ok := d.byKey[key]
	if !ok {
		return model.InstagramProfile{}, false
	}

	return d.profiles[i], true
}

// FilterFillRatio returns the Bloom filter's fraction of set bits.
func (d *Directory) FilterFillRatio() float64 {
	return d.filter.FillRatio()
}

// Usernames returns usernames starting with prefix, sorted.
func (d *Directory) Usernames(prefix string) []string {
	return d.usernames.PrefixSearch(normKey(prefix))
}

// Phones returns phone numbers starting with prefix, sorted.
func (d *Directory) Phones(prefix string) []string {
	return d.phones.PrefixSearch(strings.TrimSpace(prefix))
}

// Devices returns device jids starting with prefix, sorted.
func (d *Directory) Devices(prefix string) []string {
	return d.devices.PrefixSearch(prefix)
}

// SearchBios returns the usernames whose bio contains every term, in
// profile order.
func (d *Directory) SearchBios(terms ...string) []string {
	ids := d.bios.SearchAnd(terms)

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.bioOwner[id])
	}

	return out
}
