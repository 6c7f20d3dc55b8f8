package database

import (
	"context"
	"errors"
	"fmt"

	"botadmin/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionDocuments = "documents"

// MongoDB keeps each document as one record of the documents collection,
// keyed by the document name with the payload under "data".
type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

type record struct {
	Name string   `bson:"_id"`
	Data bson.Raw `bson:"data"`
}

func NewMongoClient(conf config.Mongo) *MongoDB {
	if !conf.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Host, conf.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.User,
			Password:   conf.Password,
			AuthSource: conf.Database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Database,
	}
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	_ = connection.Disconnect(ctx)
}

func (m *MongoDB) Load(ctx context.Context, name string, v interface{}) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionDocuments)
	var rec record
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: name}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mongodb find %s: %w", name, err)
	}
	if len(rec.Data) == 0 {
		return ErrNotFound
	}
	if err = bson.Unmarshal(rec.Data, v); err != nil {
		return fmt.Errorf("mongodb decode %s: %w", name, err)
	}
	return nil
}

func (m *MongoDB) Save(ctx context.Context, name string, v interface{}) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionDocuments)
	filter := bson.D{{Key: "_id", Value: name}}
	replacement := bson.D{{Key: "_id", Value: name}, {Key: "data", Value: v}}
	opts := options.Replace().SetUpsert(true)
	if _, err = collection.ReplaceOne(ctx, filter, replacement, opts); err != nil {
		return fmt.Errorf("mongodb save %s: %w", name, err)
	}
	return nil
}
