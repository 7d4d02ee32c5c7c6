package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sweetpotato0/docsum/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one document per report keyed by artifact name.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB configuration.
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "docsum",
		Collection: "reports",
	}
}

type mongoSummary struct {
	Index     int    `bson:"chunk_index"`
	Summary   string `bson:"summary"`
	WordCount int    `bson:"word_count"`
}

type mongoReport struct {
	Artifact    string         `bson:"_id"`
	FileName    string         `bson:"file_name"`
	TotalChunks int            `bson:"total_chunks"`
	Summaries   []mongoSummary `bson:"summaries"`
	UpdatedAt   time.Time      `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB.
func NewMongoStore(ctx context.Context, config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}, nil
}

// Save replaces or inserts report and returns its artifact name.
func (s *MongoStore) Save(ctx context.Context, source string, report *document.Report) (string, error) {
	if report == nil {
		return "", errNilReport
	}

	artifact := ArtifactName(source)
	doc := mongoReport{
		Artifact:    artifact,
		FileName:    report.SourceName,
		TotalChunks: report.TotalChunks,
		Summaries:   make([]mongoSummary, len(report.Summaries)),
		UpdatedAt:   time.Now(),
	}
	for i, s := range report.Summaries {
		doc.Summaries[i] = mongoSummary{Index: s.Index, Summary: s.Summary, WordCount: s.WordCount}
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": artifact}, doc, opts); err != nil {
		return "", fmt.Errorf("failed to save report to MongoDB: %w", err)
	}
	return artifact, nil
}

// Load fetches a report by artifact name.
func (s *MongoStore) Load(ctx context.Context, artifact string) (*document.Report, error) {
	var doc mongoReport
	if err := s.collection.FindOne(ctx, bson.M{"_id": artifact}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, artifact)
		}
		return nil, fmt.Errorf("failed to load report from MongoDB: %w", err)
	}

	summaries := make([]document.ChunkSummary, len(doc.Summaries))
	for i, s := range doc.Summaries {
		summaries[i] = document.ChunkSummary{Index: s.Index, Summary: s.Summary, WordCount: s.WordCount}
	}
	return &document.Report{
		SourceName:  doc.FileName,
		TotalChunks: doc.TotalChunks,
		Summaries:   summaries,
	}, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
