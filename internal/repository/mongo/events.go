package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/askpage/askpage/internal/config"
	"github.com/askpage/askpage/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const eventsCollection = "widget_events"

// Client wraps the Mongo client used for analytics storage
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewClient connects to MongoDB and verifies the connection
func NewClient(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Client{client: client, db: client.Database(cfg.Database)}, nil
}

// Close disconnects the Mongo client
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Ping verifies the connection is alive
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// EventRepository implements domain.EventRepository on MongoDB. Analytics
// payloads are schemaless blobs, so they land in a document store rather
// than the relational schema.
type EventRepository struct {
	collection *mongo.Collection
}

// NewEventRepository creates a new analytics event repository
func NewEventRepository(client *Client) *EventRepository {
	return &EventRepository{collection: client.db.Collection(eventsCollection)}
}

// Insert stores one analytics event
func (r *EventRepository) Insert(ctx context.Context, event *domain.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	doc := bson.M{
		"project_id": event.ProjectID.String(),
		"event_type": event.Type,
		"created_at": event.CreatedAt,
	}
	if event.VisitorID != "" {
		doc["visitor_id"] = event.VisitorID
	}
	if event.SessionID != "" {
		doc["session_id"] = event.SessionID
	}
	if event.Label != "" {
		doc["event_label"] = event.Label
	}
	if len(event.Data) > 0 {
		doc["event_data"] = event.Data
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}
