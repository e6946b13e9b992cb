package tenant

import "github.com/eatgreet/eatgreet/pkg/slug"

// Key is the normalized identifier of one tenant, derived deterministically
// from the restaurant's human-readable name. It doubles as the partition
// name suffix, so it must stay stable across releases.
type Key string

func (k Key) String() string { return string(k) }

// NormalizeKey derives the canonical tenant key from a raw restaurant
// identifier: lowercase, with runs of non-alphanumeric characters collapsed
// into a single underscore ("Cestro Kitchen" -> "cestro_kitchen").
//
// Near-identical names ("cestro-kitchen", "Cestro Kitchen") map to the same
// key. That collision is accepted: both spellings address the same
// restaurant partition.
func NormalizeKey(raw string) (Key, error) {
	k := slug.Make(raw, slug.Separator("_"))
	if k == "" {
		return "", ErrInvalidTenantKey
	}
	return Key(k), nil
}
