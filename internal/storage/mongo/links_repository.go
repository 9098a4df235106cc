package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
)

const (
	indexShortCode   = "uniq_short_code"
	indexCustomAlias = "uniq_custom_alias"
)

type LinksRepository struct {
	coll *mongo.Collection
}

type linkDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ShortCode      string             `bson:"shortCode"`
	OriginalURL    string             `bson:"originalUrl"`
	CustomAlias    *string            `bson:"customAlias,omitempty"`
	OwnerID        *string            `bson:"ownerId,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	ExpiresAt      *time.Time         `bson:"expiresAt,omitempty"`
	LastAccessedAt *time.Time         `bson:"lastAccessedAt,omitempty"`
	AccessCount    int64              `bson:"accessCount"`
}

func NewLinksRepository(m *db.Mongo) (*LinksRepository, error) {
	repo := &LinksRepository{coll: m.Collection("links")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "shortCode", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexShortCode),
		},
		{
			Keys: bson.D{{Key: "customAlias", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(indexCustomAlias).
				SetPartialFilterExpression(bson.M{"customAlias": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "originalUrl", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("originalUrl_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("expiresAt").SetSparse(true),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *LinksRepository) Save(ctx context.Context, link *links.Link) error {
	doc := linkDoc{
		ShortCode:      link.ShortCode,
		OriginalURL:    link.OriginalURL,
		CustomAlias:    link.CustomAlias,
		OwnerID:        link.OwnerID,
		CreatedAt:      link.CreatedAt.UTC(),
		ExpiresAt:      utcPtr(link.ExpiresAt),
		LastAccessedAt: utcPtr(link.LastAccessedAt),
		AccessCount:    link.AccessCount,
	}

	_, err := r.coll.InsertOne(ctx, doc)
	if err == nil {
		return nil
	}

	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), indexCustomAlias) {
			return &links.ConflictError{Field: links.FieldCustomAlias, Value: link.Alias()}
		}
		return &links.ConflictError{Field: links.FieldShortCode, Value: link.ShortCode}
	}

	return links.WrapStorage("save", err)
}

func (r *LinksRepository) FindByCode(ctx context.Context, code string) (*links.Link, error) {
	return r.findOne(ctx, "find by code", bson.M{"shortCode": code}, nil)
}

func (r *LinksRepository) FindByAlias(ctx context.Context, alias string) (*links.Link, error) {
	return r.findOne(ctx, "find by alias", bson.M{"customAlias": alias}, nil)
}

func (r *LinksRepository) FindByOriginalURL(ctx context.Context, url string) (*links.Link, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return r.findOne(ctx, "find by original url", bson.M{"originalUrl": url}, opts)
}

func (r *LinksRepository) IncrementVisit(ctx context.Context, code string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"shortCode": code},
		bson.M{
			"$inc": bson.M{"accessCount": 1},
			"$set": bson.M{"lastAccessedAt": at.UTC()},
		},
	)
	if err != nil {
		return links.WrapStorage("increment visit", err)
	}
	if res.MatchedCount == 0 {
		return links.ErrNotFound
	}
	return nil
}

func (r *LinksRepository) UpdateURL(ctx context.Context, code, newURL string) (*links.Link, error) {
	var doc linkDoc
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"shortCode": code},
		bson.M{"$set": bson.M{"originalUrl": newURL}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return mapLinkDoc(doc), nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, links.ErrNotFound
	}
	return nil, links.WrapStorage("update url", err)
}

func (r *LinksRepository) DeleteByCode(ctx context.Context, code string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"shortCode": code})
	if err != nil {
		return false, links.WrapStorage("delete by code", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *LinksRepository) DeleteByAlias(ctx context.Context, alias string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"customAlias": alias})
	if err != nil {
		return false, links.WrapStorage("delete by alias", err)
	}
	return res.DeletedCount > 0, nil
}

// DeleteExpired removes documents whose expiresAt is strictly before now.
// Documents without an expiry never match a $lt on a date.
func (r *LinksRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": now.UTC()}})
	if err != nil {
		return 0, links.WrapStorage("delete expired", err)
	}
	return res.DeletedCount, nil
}

func (r *LinksRepository) findOne(ctx context.Context, op string, filter bson.M, opts *options.FindOneOptions) (*links.Link, error) {
	var doc linkDoc

	var res *mongo.SingleResult
	if opts != nil {
		res = r.coll.FindOne(ctx, filter, opts)
	} else {
		res = r.coll.FindOne(ctx, filter)
	}

	err := res.Decode(&doc)
	if err == nil {
		return mapLinkDoc(doc), nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, links.ErrNotFound
	}

	return nil, links.WrapStorage(op, err)
}

func mapLinkDoc(doc linkDoc) *links.Link {
	return &links.Link{
		ShortCode:      doc.ShortCode,
		OriginalURL:    doc.OriginalURL,
		CustomAlias:    doc.CustomAlias,
		OwnerID:        doc.OwnerID,
		CreatedAt:      doc.CreatedAt.UTC(),
		ExpiresAt:      utcPtr(doc.ExpiresAt),
		LastAccessedAt: utcPtr(doc.LastAccessedAt),
		AccessCount:    doc.AccessCount,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
