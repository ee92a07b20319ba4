package measurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDriver stores hit counters as documents {key, data, expire_at}.
type MongoDriver struct {
	Collection *mongo.Collection
	Separator  string
	// ExpireAfter sets a TTL on buckets, measured from the bucket start.
	ExpireAfter time.Duration
	BulkWrite   bool
}

// NewMongoDriver creates a MongoDB driver.
func NewMongoDriver(collection *mongo.Collection) *MongoDriver {
	return &MongoDriver{
		Collection: collection,
		Separator:  "::",
		BulkWrite:  true,
	}
}

// Setup creates the unique key index and, with ExpireAfter, the TTL index.
func (d *MongoDriver) Setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if d.Collection == nil {
		return fmt.Errorf("mongo driver requires Collection")
	}

	indexes := []mongo.IndexModel{{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}}
	if d.ExpireAfter > 0 {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "expire_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		})
	}
	_, err := d.Collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (d *MongoDriver) Description() string {
	return "MongoDriver"
}

// Inc upserts each bucket with $inc on data.<field>.
func (d *MongoDriver) Inc(keys []BucketKey, values map[string]any) error {
	if len(keys) == 0 {
		return nil
	}
	if d.Collection == nil {
		return fmt.Errorf("mongo driver requires Collection")
	}
	packed := Pack(values)
	if len(packed) == 0 {
		return nil
	}

	inc := bson.M{}
	for key, value := range packed {
		delta, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("increment requires numeric value for key %q", key)
		}
		inc["data."+key] = delta
	}

	ctx := context.Background()
	models := make([]mongo.WriteModel, 0, len(keys))
	for _, key := range keys {
		update := bson.M{"$inc": inc}
		if d.ExpireAfter > 0 && key.At != nil {
			update["$set"] = bson.M{"expire_at": key.At.Add(d.ExpireAfter)}
		}
		filter := bson.M{"key": key.Join(d.Separator)}
		if !d.BulkWrite {
			if _, err := d.Collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
				return err
			}
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true))
	}
	if len(models) == 0 {
		return nil
	}
	_, err := d.Collection.BulkWrite(ctx, models)
	return err
}

// Get fetches counters for keys in order.
func (d *MongoDriver) Get(keys []BucketKey) ([]map[string]any, error) {
	if len(keys) == 0 {
		return []map[string]any{}, nil
	}
	if d.Collection == nil {
		return nil, fmt.Errorf("mongo driver requires Collection")
	}

	ctx := context.Background()
	results := make([]map[string]any, 0, len(keys))
	for _, key := range keys {
		var doc bson.M
		err := d.Collection.FindOne(ctx, bson.M{"key": key.Join(d.Separator)}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			results = append(results, map[string]any{})
			continue
		}
		if err != nil {
			return nil, err
		}
		data, ok := normalizeMongoValue(doc["data"]).(map[string]any)
		if !ok {
			data = map[string]any{}
		}
		results = append(results, data)
	}
	return results, nil
}

func normalizeMongoValue(value any) any {
	switch node := value.(type) {
	case bson.M:
		return normalizeMongoValue(map[string]any(node))
	case map[string]any:
		out := make(map[string]any, len(node))
		for key, value := range node {
			out[key] = normalizeMongoValue(value)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(node))
		for _, elem := range node {
			out[elem.Key] = normalizeMongoValue(elem.Value)
		}
		return out
	case bson.A:
		out := make([]any, 0, len(node))
		for _, item := range node {
			out = append(out, normalizeMongoValue(item))
		}
		return out
	default:
		return node
	}
}
