package ingestion

import (
	"context"

	"github.com/poiesic/spelite/storage"
)

// UnknownVersion is reported when no data version was recorded.
const UnknownVersion = "unknown"

// Stats summarizes the stored knowledge base.
type Stats struct {
	Triplets    int
	Embeddings  int
	DataVersion string
}

// ReadStats counts stored rows and reads the data version.
func ReadStats(ctx context.Context, triplets storage.TripletRepository, embeddings storage.EmbeddingRepository, meta storage.MetaRepository) (Stats, error) {
	var s Stats
	var err error

	if s.Triplets, err = triplets.CountTriplets(ctx); err != nil {
		return Stats{}, err
	}
	if s.Embeddings, err = embeddings.CountEmbeddings(ctx); err != nil {
		return Stats{}, err
	}

	version, ok, err := meta.GetMeta(ctx, VersionKey)
	if err != nil {
		return Stats{}, err
	}
	s.DataVersion = UnknownVersion
	if ok {
		s.DataVersion = version
	}
	return s, nil
}
