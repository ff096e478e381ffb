package querycache

import "strings"

// Key names one cached query. Parameterised queries use Child keys such as
// "publication-detail:42"; invalidating the parent also invalidates children.
type Key string

const (
	KeyFavorites         Key = "favorites"
	KeyProducts          Key = "products"
	KeyPublications      Key = "publications"
	KeyMyPublications    Key = "my-publications"
	KeyPublicationDetail Key = "publication-detail"
	KeySellerRatings     Key = "seller-ratings"
)

// Child derives a parameterised key.
func (k Key) Child(id string) Key {
	return Key(string(k) + ":" + id)
}

// Covers reports whether invalidating k must also invalidate other.
func (k Key) Covers(other Key) bool {
	return k == other || strings.HasPrefix(string(other), string(k)+":")
}

// MutationKind identifies a write whose success makes cached reads stale.
type MutationKind string

const (
	MutationPublicationCreate MutationKind = "publication.create"
	MutationPublicationUpdate MutationKind = "publication.update"
	MutationPublicationDelete MutationKind = "publication.delete"
	MutationFavoriteToggle    MutationKind = "favorite.toggle"
	MutationRatingCreate      MutationKind = "rating.create"
)

// InvalidationTable maps each mutation kind to the cache keys it invalidates.
type InvalidationTable map[MutationKind][]Key

// DefaultInvalidations is the table the client runs with.
func DefaultInvalidations() InvalidationTable {
	publicationFeeds := []Key{KeyMyPublications, KeyPublications, KeyProducts, KeyPublicationDetail}
	return InvalidationTable{
		MutationPublicationCreate: publicationFeeds,
		MutationPublicationUpdate: publicationFeeds,
		MutationPublicationDelete: publicationFeeds,
		MutationFavoriteToggle:    {KeyFavorites},
		MutationRatingCreate:      {KeySellerRatings},
	}
}

// KeysFor returns a copy of the keys invalidated by kind.
func (t InvalidationTable) KeysFor(kind MutationKind) []Key {
	return append([]Key(nil), t[kind]...)
}
