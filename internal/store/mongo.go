package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/ipartes/quote-cli/internal/model"
)

const (
	defaultMongoDatabase   = "ipartes_cotacao"
	defaultMongoCollection = "suppliers"
	defaultMongoTimeout    = 10 * time.Second
)

// MongoStore implements Store on a single MongoDB collection.
//
// The client handle is owned by the store and (re)created lazily: every
// operation first pings the current client and reconnects when the ping
// fails, so idle disconnects on hosted clusters heal on the next request.
// Pings run outside the write lock; only reconnects are serialised.
type MongoStore struct {
	cfg Config

	mu     sync.RWMutex
	client *mongo.Client
	coll   *mongo.Collection

	ping func(ctx context.Context, c *mongo.Client) error
	dial func(ctx context.Context) (*mongo.Client, *mongo.Collection, error)
}

// supplierDoc is the stored document. Email is the pre-list scalar field
// still present on old records. Timestamps are raw because older records
// hold ISO-8601 strings instead of BSON dates.
type supplierDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Manufacturer string        `bson:"manufacturer"`
	Emails       []string      `bson:"emails,omitempty"`
	Email        string        `bson:"email,omitempty"`
	CreatedAt    bson.RawValue `bson:"createdAt,omitempty"`
	UpdatedAt    bson.RawValue `bson:"updatedAt,omitempty"`
}

// NewMongo creates a MongoStore. No connection is made until first use.
func NewMongo(cfg Config) *MongoStore {
	if cfg.Database == "" {
		cfg.Database = defaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultMongoCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultMongoTimeout
	}
	s := &MongoStore{cfg: cfg, ping: pingPrimary}
	s.dial = s.connect
	return s
}

func pingPrimary(ctx context.Context, c *mongo.Client) error {
	return c.Ping(ctx, readpref.Primary())
}

// ensure returns a live collection handle, reconnecting if needed.
func (s *MongoStore) ensure(ctx context.Context) (*mongo.Collection, error) {
	s.mu.RLock()
	client, coll := s.client, s.coll
	s.mu.RUnlock()

	if client != nil {
		err := s.ping(ctx, client)
		if err == nil {
			return coll, nil
		}
		zap.L().Warn("mongo: connection lost, reconnecting", zap.Error(err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		if s.client != client {
			// Reconnected by a concurrent caller.
			return s.coll, nil
		}
		_ = s.client.Disconnect(ctx)
		s.client, s.coll = nil, nil
	}

	client, coll, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	s.client, s.coll = client, coll
	return coll, nil
}

// connect opens a client, verifies it and creates the manufacturer index.
func (s *MongoStore) connect(ctx context.Context) (*mongo.Client, *mongo.Collection, error) {
	opts := options.Client().
		ApplyURI(s.cfg.DatabaseURL).
		SetServerSelectionTimeout(s.cfg.Timeout).
		SetConnectTimeout(s.cfg.Timeout).
		SetMaxConnIdleTime(30 * time.Second).
		SetRetryWrites(true)
	if s.cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(s.cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, nil, eris.Wrap(err, "mongo: connect")
	}
	if err := s.ping(ctx, client); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, eris.Wrap(err, "mongo: ping")
	}

	coll := client.Database(s.cfg.Database).Collection(s.cfg.Collection)
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "manufacturer", Value: 1}},
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, eris.Wrap(err, "mongo: create manufacturer index")
	}

	zap.L().Info("mongo: connected",
		zap.String("database", s.cfg.Database),
		zap.String("collection", s.cfg.Collection),
	)
	return client, coll, nil
}

func (s *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// Migrate connects and creates the manufacturer index.
func (s *MongoStore) Migrate(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.ensure(ctx)
	return err
}

func (s *MongoStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	err := s.client.Disconnect(ctx)
	s.client, s.coll = nil, nil
	return eris.Wrap(err, "mongo: disconnect")
}

func (s *MongoStore) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	coll, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, eris.Wrap(err, "mongo: find suppliers")
	}
	var docs []supplierDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, eris.Wrap(err, "mongo: decode suppliers")
	}

	out := make([]model.Supplier, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *MongoStore) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	coll, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}

	var d supplierDoc
	err = coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "mongo: find supplier %s", id)
	}
	sup := d.toModel()
	return &sup, nil
}

func (s *MongoStore) CreateSupplier(ctx context.Context, sup *model.Supplier) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	coll, err := s.ensure(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	oid := bson.NewObjectID()
	emails := model.NormalizeEmails(sup.Emails, "")
	_, err = coll.InsertOne(ctx, bson.M{
		"_id":          oid,
		"manufacturer": sup.Manufacturer,
		"emails":       emails,
		"createdAt":    now,
		"updatedAt":    now,
	})
	if err != nil {
		return eris.Wrap(err, "mongo: insert supplier")
	}

	sup.ID = oid.Hex()
	sup.Emails = emails
	sup.CreatedAt = now
	sup.UpdatedAt = now
	return nil
}

// UpdateEmails replaces the email list and drops any legacy scalar field.
func (s *MongoStore) UpdateEmails(ctx context.Context, id string, emails []string, updatedAt time.Time) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	coll, err := s.ensure(ctx)
	if err != nil {
		return err
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$set":   bson.M{"emails": model.NormalizeEmails(emails, ""), "updatedAt": updatedAt.UTC()},
			"$unset": bson.M{"email": ""},
		},
	)
	if err != nil {
		return eris.Wrapf(err, "mongo: update supplier %s", id)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteSupplier(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	coll, err := s.ensure(ctx)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return eris.Wrapf(err, "mongo: delete supplier %s", id)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d supplierDoc) toModel() model.Supplier {
	return model.Supplier{
		ID:           d.ID.Hex(),
		Manufacturer: d.Manufacturer,
		Emails:       model.NormalizeEmails(d.Emails, d.Email),
		CreatedAt:    rawTime(d.CreatedAt),
		UpdatedAt:    rawTime(d.UpdatedAt),
	}
}

// rawTime reads a BSON date or an RFC 3339 string. Anything else is zero.
func rawTime(v bson.RawValue) time.Time {
	if len(v.Value) == 0 {
		return time.Time{}
	}
	if ms, ok := v.DateTimeOK(); ok {
		return time.UnixMilli(ms).UTC()
	}
	if s, ok := v.StringValueOK(); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
