package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoContainer stores documents in one MongoDB collection (Cosmos DB API
// for MongoDB). partitionField names the document field holding the
// partition key; "_id" means the id is its own partition key.
type MongoContainer struct {
	coll           *mongo.Collection
	partitionField string
}

func NewMongoContainer(db *mongo.Database, name, partitionField string) *MongoContainer {
	return &MongoContainer{
		coll:           db.Collection(name),
		partitionField: partitionField,
	}
}

func (c *MongoContainer) Name() string {
	return c.coll.Name()
}

func (c *MongoContainer) key(id, partitionKey string) bson.M {
	f := bson.M{"_id": id}
	f[c.partitionField] = partitionKey
	return f
}

func (c *MongoContainer) Get(ctx context.Context, id, partitionKey string, out any) error {
	err := c.coll.FindOne(ctx, c.key(id, partitionKey)).Decode(out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return storeError(c.Name(), "get", err)
	}
	return nil
}

func (c *MongoContainer) Query(ctx context.Context, filter Filter, out any) error {
	f := bson.M{}
	for k, v := range filter {
		if k == "id" {
			k = "_id"
		}
		f[k] = v
	}

	cursor, err := c.coll.Find(ctx, f)
	if err != nil {
		return storeError(c.Name(), "query", err)
	}

	if err := cursor.All(ctx, out); err != nil {
		return storeError(c.Name(), "query", err)
	}
	return nil
}

func (c *MongoContainer) Create(ctx context.Context, partitionKey string, doc Document) error {
	doc.SetDocumentVersion(1)

	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		doc.SetDocumentVersion(0)
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return storeError(c.Name(), "create", err)
	}
	return nil
}

func (c *MongoContainer) Upsert(ctx context.Context, partitionKey string, doc Document) error {
	prev := doc.DocumentVersion()
	doc.SetDocumentVersion(prev + 1)

	_, err := c.coll.ReplaceOne(ctx, c.key(doc.DocumentID(), partitionKey), doc, options.Replace().SetUpsert(true))
	if err != nil {
		doc.SetDocumentVersion(prev)
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return storeError(c.Name(), "upsert", err)
	}
	return nil
}

func (c *MongoContainer) Replace(ctx context.Context, partitionKey string, doc Document) error {
	expected := doc.DocumentVersion()
	doc.SetDocumentVersion(expected + 1)

	filter := c.key(doc.DocumentID(), partitionKey)
	filter["version"] = expected

	res, err := c.coll.ReplaceOne(ctx, filter, doc)
	if err != nil {
		doc.SetDocumentVersion(expected)
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return storeError(c.Name(), "replace", err)
	}

	if res.MatchedCount > 0 {
		return nil
	}

	doc.SetDocumentVersion(expected)

	n, err := c.coll.CountDocuments(ctx, c.key(doc.DocumentID(), partitionKey))
	if err != nil {
		return storeError(c.Name(), "replace", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrPreconditionFailed
}

func (c *MongoContainer) Delete(ctx context.Context, id, partitionKey string) error {
	res, err := c.coll.DeleteOne(ctx, c.key(id, partitionKey))
	if err != nil {
		return storeError(c.Name(), "delete", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoContainer) Ping(ctx context.Context) error {
	err := c.coll.Database().RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
	if err != nil {
		return storeError(c.Name(), "ping", err)
	}
	return nil
}
