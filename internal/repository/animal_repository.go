package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"shelterstore/internal/metrics"
	"shelterstore/internal/models"
	"shelterstore/internal/query"
	"shelterstore/internal/querycache"
)

// ErrEmptyInput is the one failure Create surfaces as an error: calling it
// with no document at all is caller misuse, not a data problem. Every other
// failure is logged and resolved to a negative result so dashboard callers
// never have to recover from a fault.
var ErrEmptyInput = errors.New("empty document cannot be inserted")

// Default caps for the analytical helpers.
const (
	DefaultTopBreeds = 10
	DefaultNearLimit = 100
)

// BreedCount is one row of the TopBreeds aggregation.
type BreedCount struct {
	Breed string `json:"breed"`
	Count int64  `json:"count"`
}

// AnimalRepository is the guarded access layer over the animals collection.
// Filters and update documents are validated before they reach the store,
// and read results are cached by canonical filter key. One instance is
// shared per process; a nil store means the repository is disconnected and
// every operation fails fast with its defined negative result.
type AnimalRepository struct {
	store   Store
	cache   *querycache.Cache
	log     *logrus.Logger
	metrics *metrics.Metrics
}

// New creates a repository over the given store. The store may be nil when
// connecting to MongoDB failed; the repository then degrades instead of
// crashing. Each repository owns a fresh cache.
func New(store Store, log *logrus.Logger) *AnimalRepository {
	if log == nil {
		log = logrus.New()
	}
	return &AnimalRepository{
		store: store,
		cache: querycache.New(),
		log:   log,
	}
}

// SetMetrics attaches Prometheus metrics. A repository without metrics
// records nothing.
func (r *AnimalRepository) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// Connected reports whether the repository is bound to a store.
func (r *AnimalRepository) Connected() bool {
	return r.store != nil
}

// Create validates, normalizes and inserts one document. It returns true
// when the insert was acknowledged. A nil/empty document returns
// ErrEmptyInput; schema violations, $-prefixed keys and store failures are
// logged and return false with a nil error.
func (r *AnimalRepository) Create(ctx context.Context, data bson.M) (bool, error) {
	if r.store == nil {
		r.log.Error("insert attempted without a database connection")
		r.metrics.RecordOperation("create", metrics.OutcomeError)
		return false, nil
	}
	if len(data) == 0 {
		r.log.Error("empty document passed to create")
		r.metrics.RecordOperation("create", metrics.OutcomeRejected)
		return false, ErrEmptyInput
	}
	for key := range data {
		if strings.HasPrefix(key, "$") {
			r.log.WithField("field", key).Warn("insert rejected: document keys cannot start with '$'")
			r.metrics.RecordOperation("create", metrics.OutcomeRejected)
			return false, nil
		}
	}

	doc, err := models.Normalize(data)
	if err != nil {
		r.log.WithError(err).Warn("insert rejected by schema validation")
		r.metrics.RecordOperation("create", metrics.OutcomeRejected)
		return false, nil
	}

	acknowledged, err := r.store.InsertOne(ctx, doc)
	if err != nil {
		r.log.WithError(err).Error("insert failed")
		r.metrics.RecordOperation("create", metrics.OutcomeError)
		return false, nil
	}
	if acknowledged {
		r.cache.Clear()
	}
	r.metrics.RecordOperation("create", metrics.OutcomeOK)
	return acknowledged, nil
}

// Read returns every document matching the filter. A nil or empty filter
// means "all documents"; any other filter must pass validation, and a
// rejected filter yields an empty result with a logged warning rather than
// an error. Results come from the cache when an equal (key-reordered or
// not) filter was read since the last write.
func (r *AnimalRepository) Read(ctx context.Context, filter bson.M) []bson.M {
	if r.store == nil {
		r.log.Error("read attempted without a database connection")
		r.metrics.RecordOperation("read", metrics.OutcomeError)
		return []bson.M{}
	}
	if filter == nil {
		filter = bson.M{}
	}
	if len(filter) > 0 {
		if err := query.ValidateFilter(filter, false); err != nil {
			r.log.WithError(err).Warn("read rejected: unsafe filter")
			r.metrics.RecordOperation("read", metrics.OutcomeRejected)
			return []bson.M{}
		}
	}

	if cached, ok := r.cache.Get(filter); ok {
		r.log.WithField("key", querycache.Key(filter)).Info("cache hit for query")
		r.metrics.RecordCacheHit()
		r.metrics.RecordOperation("read", metrics.OutcomeOK)
		return cached
	}
	r.metrics.RecordCacheMiss()

	docs, err := r.store.FindMany(ctx, filter, 0)
	if err != nil {
		r.log.WithError(err).Error("query failed")
		r.metrics.RecordOperation("read", metrics.OutcomeError)
		return []bson.M{}
	}
	results := make([]bson.M, len(docs))
	for i, doc := range docs {
		results[i] = cleanID(doc)
	}
	r.cache.Put(filter, results)
	r.metrics.RecordOperation("read", metrics.OutcomeOK)
	return results
}

// Update applies an update document to at most one matching record and
// reports whether a record was actually modified. The filter must be
// non-empty and safe, and the update may use only the allowed operator
// subset; violations return false without contacting the store. Matching
// zero records is a defined false outcome, not an error.
func (r *AnimalRepository) Update(ctx context.Context, filter, update bson.M) bool {
	if r.store == nil {
		r.log.Error("update attempted without a database connection")
		r.metrics.RecordOperation("update", metrics.OutcomeError)
		return false
	}
	if err := query.ValidateFilter(filter, false); err != nil {
		r.log.WithError(err).Warn("update rejected: unsafe filter")
		r.metrics.RecordOperation("update", metrics.OutcomeRejected)
		return false
	}
	if err := query.ValidateUpdate(update); err != nil {
		r.log.WithError(err).Warn("update rejected: unsafe update document")
		r.metrics.RecordOperation("update", metrics.OutcomeRejected)
		return false
	}

	modified, err := r.store.UpdateOne(ctx, filter, update)
	if err != nil {
		r.log.WithError(err).Error("update failed")
		r.metrics.RecordOperation("update", metrics.OutcomeError)
		return false
	}
	r.cache.Clear()
	r.metrics.RecordOperation("update", metrics.OutcomeOK)
	return modified > 0
}

// Delete removes at most one matching record and reports whether a record
// was actually removed. Filter validation matches Update.
func (r *AnimalRepository) Delete(ctx context.Context, filter bson.M) bool {
	if r.store == nil {
		r.log.Error("delete attempted without a database connection")
		r.metrics.RecordOperation("delete", metrics.OutcomeError)
		return false
	}
	if err := query.ValidateFilter(filter, false); err != nil {
		r.log.WithError(err).Warn("delete rejected: unsafe filter")
		r.metrics.RecordOperation("delete", metrics.OutcomeRejected)
		return false
	}

	deleted, err := r.store.DeleteOne(ctx, filter)
	if err != nil {
		r.log.WithError(err).Error("delete failed")
		r.metrics.RecordOperation("delete", metrics.OutcomeError)
		return false
	}
	r.cache.Clear()
	r.metrics.RecordOperation("delete", metrics.OutcomeOK)
	return deleted > 0
}

// TopBreeds returns the k most common breeds under an optional base filter,
// ordered by descending count. Groups with an absent or empty breed are
// excluded. Results are computed server-side and never cached.
func (r *AnimalRepository) TopBreeds(ctx context.Context, baseFilter bson.M, k int) []BreedCount {
	if r.store == nil {
		r.log.Error("aggregation attempted without a database connection")
		r.metrics.RecordOperation("top_breeds", metrics.OutcomeError)
		return []BreedCount{}
	}
	if baseFilter == nil {
		baseFilter = bson.M{}
	}
	if k <= 0 {
		k = DefaultTopBreeds
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: baseFilter}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$breed"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		bson.D{{Key: "$limit", Value: k}},
	}

	rows, err := r.store.Aggregate(ctx, pipeline)
	if err != nil {
		r.log.WithError(err).Error("aggregation failed")
		r.metrics.RecordOperation("top_breeds", metrics.OutcomeError)
		return []BreedCount{}
	}

	out := make([]BreedCount, 0, len(rows))
	for _, row := range rows {
		breed, _ := row["_id"].(string)
		if breed == "" {
			continue
		}
		out = append(out, BreedCount{Breed: breed, Count: asInt64(row["count"])})
	}
	r.metrics.RecordOperation("top_breeds", metrics.OutcomeOK)
	return out
}

// Near returns records whose location lies within maxMeters of the given
// point, ordered by increasing distance (the store's native $near ordering)
// and capped to limit. Requires the 2dsphere index on location. Never
// cached.
func (r *AnimalRepository) Near(ctx context.Context, lon, lat float64, maxMeters, limit int) []bson.M {
	if r.store == nil {
		r.log.Error("geo query attempted without a database connection")
		r.metrics.RecordOperation("near", metrics.OutcomeError)
		return []bson.M{}
	}
	if limit <= 0 {
		limit = DefaultNearLimit
	}

	filter := bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry":    bson.M{"type": "Point", "coordinates": bson.A{lon, lat}},
				"$maxDistance": maxMeters,
			},
		},
	}

	docs, err := r.store.FindMany(ctx, filter, int64(limit))
	if err != nil {
		r.log.WithError(err).Error("geo query failed")
		r.metrics.RecordOperation("near", metrics.OutcomeError)
		return []bson.M{}
	}
	results := make([]bson.M, len(docs))
	for i, doc := range docs {
		results[i] = cleanID(doc)
	}
	r.metrics.RecordOperation("near", metrics.OutcomeOK)
	return results
}

// ClearCache flushes the read cache. Exposed for UI callers that want a
// guaranteed-fresh listing.
func (r *AnimalRepository) ClearCache() {
	r.cache.Clear()
	r.log.Info("query cache cleared")
}

// cleanID rewrites a store-assigned ObjectID into its hex string so UI
// components never choke on a non-JSON type. Other _id types pass through.
func cleanID(doc bson.M) bson.M {
	raw, ok := doc["_id"]
	if !ok {
		return doc
	}
	oid, ok := raw.(primitive.ObjectID)
	if !ok {
		return doc
	}
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	out["_id"] = oid.Hex()
	return out
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
