package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/model"
	pkgerrors "github.com/TheLakshitha/LayoutIndex-Assessment/pkg/errors"
)

const locationCollection = "locations"

type locationMongoRepo struct {
	coll *mongo.Collection
}

// NewLocationMongoRepo 创建基于 MongoDB 的 LocationRepository，每个地点一个文档，设备为内嵌子文档
func NewLocationMongoRepo(db *mongo.Database) LocationRepository {
	return &locationMongoRepo{coll: db.Collection(locationCollection)}
}

// EnsureMongoIndexes 创建地点集合索引
//   - devices.serialNumber 唯一（多键索引跨文档生效，partial 过滤掉无设备的文档）
//   - createdAt 倒序，服务列表排序
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(locationCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "devices.serialNumber", Value: 1}},
			Options: options.Index().
				SetName("uniq_devices_serial_number").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"devices.serialNumber": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		},
	})
	return err
}

func (r *locationMongoRepo) List(ctx context.Context) ([]model.Location, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	locations := make([]model.Location, 0)
	if err := cur.All(ctx, &locations); err != nil {
		return nil, err
	}
	for i := range locations {
		normalizeDevices(&locations[i])
	}
	return locations, nil
}

func (r *locationMongoRepo) GetByID(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&loc); err != nil {
		return nil, translateMongoError(err)
	}
	normalizeDevices(&loc)
	return &loc, nil
}

func (r *locationMongoRepo) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *locationMongoRepo) Create(ctx context.Context, loc *model.Location) error {
	now := nowFunc()
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = now
	}
	loc.UpdatedAt = loc.CreatedAt
	loc.Version = 1
	normalizeDevices(loc)

	_, err := r.coll.InsertOne(ctx, loc)
	return translateMongoError(err)
}

func (r *locationMongoRepo) Replace(ctx context.Context, loc *model.Location) error {
	oldVersion := loc.Version
	normalizeDevices(loc)

	next := *loc
	next.Version = oldVersion + 1
	next.UpdatedAt = nowFunc()

	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": loc.LocationID, "version": oldVersion}, &next)
	if err != nil {
		return translateMongoError(err)
	}
	if result.MatchedCount == 0 {
		exists, err := r.Exists(ctx, loc.LocationID)
		if err != nil {
			return err
		}
		if !exists {
			return pkgerrors.ErrNotFound
		}
		return pkgerrors.ErrOptimisticLock
	}

	loc.Version = next.Version
	loc.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *locationMongoRepo) Delete(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&loc); err != nil {
		return nil, translateMongoError(err)
	}
	normalizeDevices(&loc)
	return &loc, nil
}

func (r *locationMongoRepo) FindSerialOwners(ctx context.Context, serials []string) (map[string]string, error) {
	owners := make(map[string]string)
	if len(serials) == 0 {
		return owners, nil
	}

	opts := options.Find().SetProjection(bson.M{"devices.serialNumber": 1})
	cur, err := r.coll.Find(ctx, bson.M{"devices.serialNumber": bson.M{"$in": serials}}, opts)
	if err != nil {
		return nil, err
	}

	var docs []struct {
		ID      string `bson:"_id"`
		Devices []struct {
			SerialNumber string `bson:"serialNumber"`
		} `bson:"devices"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(serials))
	for _, s := range serials {
		wanted[s] = struct{}{}
	}
	for _, doc := range docs {
		for _, d := range doc.Devices {
			if _, ok := wanted[d.SerialNumber]; ok {
				owners[d.SerialNumber] = doc.ID
			}
		}
	}
	return owners, nil
}

// translateMongoError 将驱动错误翻译为存储层哨兵错误
func translateMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return pkgerrors.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return pkgerrors.ErrDuplicateKey
	}
	return err
}
