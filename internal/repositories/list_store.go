package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wellnesshub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ListItem is an element of a capacity-bounded list
type ListItem interface {
	ItemID() primitive.ObjectID
}

// ListPartition names the course fields and overflow collection backing one list kind
type ListPartition struct {
	ListField          string
	CountField         string
	HasMoreField       string
	OverflowCollection string
}

var (
	LessonPartition = ListPartition{
		ListField:          "lessons",
		CountField:         "lessonCount",
		HasMoreField:       "hasMoreLessons",
		OverflowCollection: "lessonOutliers",
	}
	BadgePartition = ListPartition{
		ListField:          "badges",
		CountField:         "badgeCount",
		HasMoreField:       "hasMoreBadges",
		OverflowCollection: "badgeOutliers",
	}
)

const (
	coursesCollection = "courses"
	overflowListField = "items"
	overflowCount     = "count"
)

// ListStore keeps an unbounded list of a course in two partitions: the course document,
// bounded to capacity items, and a lazily created overflow record keyed by course id.
// The count field on the course is the total over both partitions.
type ListStore[T ListItem] struct {
	courses   *mongo.Collection
	overflow  *mongo.Collection
	partition ListPartition
	capacity  int
	logger    *zap.Logger
}

// NewListStore creates a list store for one partition of the courses collection
func NewListStore[T ListItem](db *mongo.Database, partition ListPartition, capacity int, logger *zap.Logger) *ListStore[T] {
	return &ListStore[T]{
		courses:   db.Collection(coursesCollection),
		overflow:  db.Collection(partition.OverflowCollection),
		partition: partition,
		capacity:  capacity,
		logger:    logger,
	}
}

// Append adds item to the course list.
// The item goes to the course document while it holds fewer than capacity items,
// otherwise it is pushed to the overflow record, which is created if absent.
//
// "ctx" is the context for the request.
// "courseID" is the course the list belongs to.
// "item" is the item to append.
//
// If the course does not exist, ErrNotFound is returned.
func (s *ListStore[T]) Append(ctx context.Context, courseID primitive.ObjectID, item T) error {
	p := s.partition
	now := time.Now().UTC()

	filter := bson.M{
		"_id": courseID,
		"$expr": bson.M{
			"$lt": bson.A{
				bson.M{"$size": bson.M{"$ifNull": bson.A{"$" + p.ListField, bson.A{}}}},
				s.capacity,
			},
		},
	}
	update := bson.M{
		"$push": bson.M{p.ListField: item},
		"$inc":  bson.M{p.CountField: 1},
		"$set":  bson.M{"updatedAt": now},
	}

	res, err := s.courses.UpdateOne(ctx, filter, update)
	if err != nil {
		s.logger.Error("failed to append to primary list", zap.String("list", p.ListField), zap.Error(err))
		return fmt.Errorf("failed to append to %s: %w", p.ListField, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Either the primary partition is full or the course is missing
	if _, err := s.hasMore(ctx, courseID); err != nil {
		return err
	}

	_, err = s.overflow.UpdateOne(ctx,
		bson.M{"courseId": courseID},
		bson.M{
			"$push":        bson.M{overflowListField: item},
			"$inc":         bson.M{overflowCount: 1},
			"$setOnInsert": bson.M{"courseId": courseID},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		s.logger.Error("failed to append to overflow list", zap.String("list", p.ListField), zap.Error(err))
		return fmt.Errorf("failed to append to %s overflow: %w", p.ListField, err)
	}

	_, err = s.courses.UpdateOne(ctx,
		bson.M{"_id": courseID},
		bson.M{
			"$inc": bson.M{p.CountField: 1},
			"$set": bson.M{p.HasMoreField: true, "updatedAt": now},
		},
	)
	if err != nil {
		s.logger.Error("failed to update list counters", zap.String("list", p.ListField), zap.Error(err))
		return fmt.Errorf("failed to update %s counters: %w", p.ListField, err)
	}

	return nil
}

// Update sets fields on the item with itemID.
// The primary partition is tried first; the overflow record is tried only when the
// course is flagged as having overflow, re-read after the first attempt.
//
// "ctx" is the context for the request.
// "courseID" is the course the list belongs to.
// "itemID" is the id of the item to update.
// "fields" maps item field names to their new values.
//
// If the item is in neither partition, ErrItemNotFound is returned.
func (s *ListStore[T]) Update(ctx context.Context, courseID, itemID primitive.ObjectID, fields bson.M) error {
	p := s.partition

	res, err := s.courses.UpdateOne(ctx,
		bson.M{"_id": courseID, p.ListField + "._id": itemID},
		bson.M{"$set": positionalSet(p.ListField, fields)},
	)
	if err != nil {
		s.logger.Error("failed to update primary list item", zap.String("list", p.ListField), zap.Error(err))
		return fmt.Errorf("failed to update %s item: %w", p.ListField, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	hasMore, err := s.hasMore(ctx, courseID)
	if err != nil {
		return err
	}
	if !hasMore {
		return ErrItemNotFound
	}

	res, err = s.overflow.UpdateOne(ctx,
		bson.M{"courseId": courseID, overflowListField + "._id": itemID},
		bson.M{"$set": positionalSet(overflowListField, fields)},
	)
	if err != nil {
		s.logger.Error("failed to update overflow list item", zap.String("list", p.ListField), zap.Error(err))
		return fmt.Errorf("failed to update %s overflow item: %w", p.ListField, err)
	}
	if res.MatchedCount == 0 {
		return ErrItemNotFound
	}

	return nil
}

// Delete removes the item with itemID from whichever partition holds it.
// An overflow record whose count drops to zero is deleted and the course's
// overflow flag is cleared.
//
// "ctx" is the context for the request.
// "courseID" is the course the list belongs to.
// "itemID" is the id of the item to delete.
//
// If the item is in neither partition, ErrItemNotFound is returned.
func (s *ListStore[T]) Delete(ctx context.Context, courseID, itemID primitive.ObjectID) error {
	p := s.partition
	now := time.Now().UTC()

	res, err := s.courses.UpdateOne(ctx,
		bson.M{"_id": courseID, p.ListField + "._id": itemID},
		bson.M{
			"$pull": bson.M{p.ListField: bson.M{"_id": itemID}},
			"$inc":  bson.M{p.CountField: -1},
			"$set":  bson.M{"updatedAt": now},
		},
	)
	if err != nil {
		s.logger.Error("failed to delete primary list item", zap.String("list", p.ListField), zap.Error(err))
		return fmt.Errorf("failed to delete %s item: %w", p.ListField, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	hasMore, err := s.hasMore(ctx, courseID)
	if err != nil {
		return err
	}
	if !hasMore {
		return ErrItemNotFound
	}

	var record models.OverflowRecord[T]
	err = s.overflow.FindOneAndUpdate(ctx,
		bson.M{"courseId": courseID, overflowListField + "._id": itemID},
		bson.M{
			"$pull": bson.M{overflowListField: bson.M{"_id": itemID}},
			"$inc":  bson.M{overflowCount: -1},
		},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{overflowCount: 1}),
	).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrItemNotFound
	}
	if err != nil {
		s.logger.Error("failed to delete overflow list item", zap.String("list", p.ListField), zap.Error(err))
		return fmt.Errorf("failed to delete %s overflow item: %w", p.ListField, err)
	}

	courseSet := bson.M{"updatedAt": now}
	cleared := false
	if record.Count <= 0 {
		// A concurrent append may refill the record between the pull and this delete
		res, err := s.overflow.DeleteOne(ctx, bson.M{"_id": record.ID, overflowCount: bson.M{"$lte": 0}})
		if err != nil {
			s.logger.Error("failed to delete empty overflow record", zap.String("list", p.ListField), zap.Error(err))
			return fmt.Errorf("failed to delete %s overflow record: %w", p.ListField, err)
		}
		if res.DeletedCount == 1 {
			courseSet[p.HasMoreField] = false
			cleared = true
		}
	}

	_, err = s.courses.UpdateOne(ctx,
		bson.M{"_id": courseID},
		bson.M{"$inc": bson.M{p.CountField: -1}, "$set": courseSet},
	)
	if err != nil {
		s.logger.Error("failed to update list counters", zap.String("list", p.ListField), zap.Error(err))
		return fmt.Errorf("failed to update %s counters: %w", p.ListField, err)
	}

	if cleared {
		return s.restoreHasMore(ctx, courseID)
	}
	return nil
}

// restoreHasMore sets the overflow flag again when an append created a new overflow
// record after the empty one was removed and before the flag was cleared
func (s *ListStore[T]) restoreHasMore(ctx context.Context, courseID primitive.ObjectID) error {
	p := s.partition

	err := s.overflow.FindOne(ctx,
		bson.M{"courseId": courseID},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		s.logger.Error("failed to recheck overflow record", zap.String("list", p.ListField), zap.Error(err))
		return fmt.Errorf("failed to recheck %s overflow: %w", p.ListField, err)
	}

	_, err = s.courses.UpdateOne(ctx,
		bson.M{"_id": courseID},
		bson.M{"$set": bson.M{p.HasMoreField: true}},
	)
	if err != nil {
		s.logger.Error("failed to restore overflow flag", zap.String("list", p.ListField), zap.Error(err))
		return fmt.Errorf("failed to restore %s overflow flag: %w", p.ListField, err)
	}
	return nil
}

// Read returns the whole list: the primary items followed by the overflow items.
//
// If the course does not exist, ErrNotFound is returned.
func (s *ListStore[T]) Read(ctx context.Context, courseID primitive.ObjectID) ([]T, error) {
	p := s.partition

	var raw bson.Raw
	err := s.courses.FindOne(ctx,
		bson.M{"_id": courseID},
		options.FindOne().SetProjection(bson.M{p.ListField: 1, p.HasMoreField: 1}),
	).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to read primary list", zap.String("list", p.ListField), zap.Error(err))
		return nil, fmt.Errorf("failed to read %s: %w", p.ListField, err)
	}

	var items []T
	if value := raw.Lookup(p.ListField); value.Type != 0 {
		if err := value.Unmarshal(&items); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", p.ListField, err)
		}
	}

	if hasMore, _ := raw.Lookup(p.HasMoreField).BooleanOK(); !hasMore {
		return items, nil
	}

	overflow, err := s.ReadOverflow(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return append(items, overflow...), nil
}

// ReadOverflow returns the items of the overflow record, or nil when there is none
func (s *ListStore[T]) ReadOverflow(ctx context.Context, courseID primitive.ObjectID) ([]T, error) {
	var record models.OverflowRecord[T]
	err := s.overflow.FindOne(ctx, bson.M{"courseId": courseID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to read overflow list", zap.String("list", s.partition.ListField), zap.Error(err))
		return nil, fmt.Errorf("failed to read %s overflow: %w", s.partition.ListField, err)
	}
	return record.Items, nil
}

// hasMore reads the overflow flag of the course fresh from the store
func (s *ListStore[T]) hasMore(ctx context.Context, courseID primitive.ObjectID) (bool, error) {
	var raw bson.Raw
	err := s.courses.FindOne(ctx,
		bson.M{"_id": courseID},
		options.FindOne().SetProjection(bson.M{s.partition.HasMoreField: 1}),
	).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to read overflow flag", zap.String("list", s.partition.ListField), zap.Error(err))
		return false, fmt.Errorf("failed to read course %s: %w", courseID.Hex(), err)
	}

	hasMore, _ := raw.Lookup(s.partition.HasMoreField).BooleanOK()
	return hasMore, nil
}

func positionalSet(listField string, fields bson.M) bson.M {
	set := make(bson.M, len(fields))
	for k, v := range fields {
		set[listField+".$."+k] = v
	}
	return set
}
