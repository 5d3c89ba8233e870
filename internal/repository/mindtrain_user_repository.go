package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/vhvplatform/go-mindtrain-service/internal/domain"
	apperrors "github.com/vhvplatform/go-mindtrain-service/internal/shared/errors"
	"github.com/vhvplatform/go-mindtrain-service/internal/shared/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mindTrainUsersCollection = "mindtrain_users"

// MindTrainUserRepository is the aggregate store: one document per user,
// mutated through atomic field-path updates. Operations that span more
// than one invariant run inside WithTransaction; everything else relies
// on MongoDB's single-document atomicity.
type MindTrainUserRepository struct {
	client   *mongodb.MongoClient
	timeouts TimeoutsConfig
}

// TimeoutsConfig bounds store operations and transactions
type TimeoutsConfig struct {
	Operation   time.Duration
	Transaction time.Duration
}

// NewMindTrainUserRepository creates a new aggregate store
func NewMindTrainUserRepository(client *mongodb.MongoClient, timeouts TimeoutsConfig) *MindTrainUserRepository {
	if timeouts.Operation <= 0 {
		timeouts.Operation = 30 * time.Second
	}
	if timeouts.Transaction <= 0 {
		timeouts.Transaction = 60 * time.Second
	}
	return &MindTrainUserRepository{client: client, timeouts: timeouts}
}

// EnsureIndexes creates indexes backing the sync-window queries
func (r *MindTrainUserRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("user_id_idx").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "notificationLogs.notificationId", Value: 1}},
			Options: options.Index().SetName("notification_id_idx"),
		},
		{
			Keys: bson.D{
				{Key: "alarmProfiles.isActive", Value: 1},
				{Key: "alarmProfiles.nextSyncCheckTime", Value: 1},
			},
			Options: options.Index().SetName("sync_check_idx"),
		},
		{
			Keys: bson.D{
				{Key: "fcmSchedule.isEnabled", Value: 1},
				{Key: "fcmSchedule.morningNotificationTime", Value: 1},
			},
			Options: options.Index().SetName("morning_window_idx"),
		},
		{
			Keys: bson.D{
				{Key: "fcmSchedule.isEnabled", Value: 1},
				{Key: "fcmSchedule.eveningNotificationTime", Value: 1},
			},
			Options: options.Index().SetName("evening_window_idx"),
		},
	}

	return r.client.CreateIndexes(ctx, mindTrainUsersCollection, indexes)
}

func (r *MindTrainUserRepository) collection() *mongo.Collection {
	return r.client.Collection(mindTrainUsersCollection)
}

func (r *MindTrainUserRepository) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeouts.Operation)
}

// wrapError translates driver errors into the service taxonomy. No raw
// mongo error crosses the repository boundary.
func wrapError(err error, op string) error {
	if mongodb.IsWriteConflict(err) {
		return apperrors.NewConcurrencyError(fmt.Sprintf("write conflict during %s", op), err)
	}
	return apperrors.NewDatabaseError(fmt.Sprintf("%s failed", op), err)
}

// Get returns the aggregate for userID
func (r *MindTrainUserRepository) Get(ctx context.Context, userID string) (*domain.MindTrainUser, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	var user domain.MindTrainUser
	err := r.collection().FindOne(opCtx, bson.M{"userId": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if err != nil {
		return nil, wrapError(err, "get user")
	}
	return &user, nil
}

// CreateIfAbsent lazily creates the aggregate with empty sub-collections
// and a default-disabled schedule. Calling it for an existing user is a
// no-op that returns the stored document.
func (r *MindTrainUserRepository) CreateIfAbsent(ctx context.Context, userID string) (*domain.MindTrainUser, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	fresh := domain.NewMindTrainUser(userID, time.Now().UTC())

	filter := bson.M{"userId": userID}
	update := bson.M{"$setOnInsert": fresh}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user domain.MindTrainUser
	if err := r.collection().FindOneAndUpdate(opCtx, filter, update, opts).Decode(&user); err != nil {
		return nil, wrapError(err, "create user")
	}
	return &user, nil
}

// InsertProfile appends a profile, atomically refusing duplicates and
// enforcing the profile cap through the filter predicate. Returns the
// post-insert aggregate.
func (r *MindTrainUserRepository) InsertProfile(ctx context.Context, userID string, profile *domain.AlarmProfile, maxProfiles int) (*domain.MindTrainUser, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	filter := bson.M{
		"userId":           userID,
		"alarmProfiles.id": bson.M{"$ne": profile.ID},
		"$expr":            bson.M{"$lt": bson.A{bson.M{"$size": "$alarmProfiles"}, maxProfiles}},
	}
	update := bson.M{
		"$push": bson.M{"alarmProfiles": profile},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.MindTrainUser
	err := r.collection().FindOneAndUpdate(opCtx, filter, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, r.classifyInsertRejection(opCtx, userID, profile.ID, maxProfiles)
	}
	if err != nil {
		return nil, wrapError(err, "insert profile")
	}
	return &user, nil
}

// classifyInsertRejection turns a non-matching insert filter into the
// right taxonomy error by inspecting the current document.
func (r *MindTrainUserRepository) classifyInsertRejection(ctx context.Context, userID, profileID string, maxProfiles int) error {
	var user domain.MindTrainUser
	err := r.collection().FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return apperrors.NewUserNotFoundError(userID)
	}
	if err != nil {
		return wrapError(err, "insert profile")
	}
	if user.Profile(profileID) != nil {
		return apperrors.NewValidationError(fmt.Sprintf("profile %q already exists", profileID), nil)
	}
	return apperrors.NewValidationError(fmt.Sprintf("profile limit of %d reached", maxProfiles), nil)
}

// UpdateProfileFields applies a partial update to the single array
// element whose id matches, via the positional operator. Returns the
// post-update aggregate.
func (r *MindTrainUserRepository) UpdateProfileFields(ctx context.Context, userID, profileID string, update *domain.ProfileUpdate, now time.Time) (*domain.MindTrainUser, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	set := bson.M{
		"alarmProfiles.$.updatedAt": now,
		"updatedAt":                 now,
	}
	for field, value := range update.Fields() {
		set["alarmProfiles.$."+field] = value
	}

	filter := bson.M{"userId": userID, "alarmProfiles.id": profileID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.MindTrainUser
	err := r.collection().FindOneAndUpdate(opCtx, filter, bson.M{"$set": set}, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		if _, getErr := r.Get(ctx, userID); getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.NewProfileNotFoundError(userID, profileID)
	}
	if err != nil {
		return nil, wrapError(err, "update profile")
	}
	return &user, nil
}

// DeactivateAllProfiles clears isActive on every profile. Runs inside an
// activation transaction.
func (r *MindTrainUserRepository) DeactivateAllProfiles(ctx context.Context, userID string, now time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"alarmProfiles.$[].isActive": false,
			"updatedAt":                  now,
		},
	}
	res, err := r.collection().UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return wrapError(err, "deactivate profiles")
	}
	if res.MatchedCount == 0 {
		return apperrors.NewUserNotFoundError(userID)
	}
	return nil
}

// SetProfileActive flips isActive on the targeted profile. Runs inside
// an activation transaction, after DeactivateAllProfiles.
func (r *MindTrainUserRepository) SetProfileActive(ctx context.Context, userID, profileID string, now time.Time) error {
	filter := bson.M{"userId": userID, "alarmProfiles.id": profileID}
	update := bson.M{
		"$set": bson.M{
			"alarmProfiles.$.isActive":  true,
			"alarmProfiles.$.updatedAt": now,
			"updatedAt":                 now,
		},
	}
	res, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return wrapError(err, "activate profile")
	}
	if res.MatchedCount == 0 {
		return apperrors.NewProfileNotFoundError(userID, profileID)
	}
	return nil
}

// SetScheduleActiveProfile points the schedule's weak reference at
// profileID, or clears it when nil
func (r *MindTrainUserRepository) SetScheduleActiveProfile(ctx context.Context, userID string, profileID *string, now time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"fcmSchedule.activeProfileId": profileID,
			"fcmSchedule.updatedAt":       now,
			"updatedAt":                   now,
		},
	}
	res, err := r.collection().UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return wrapError(err, "point schedule")
	}
	if res.MatchedCount == 0 {
		return apperrors.NewUserNotFoundError(userID)
	}
	return nil
}

// RemoveProfile pulls the profile out of the array and returns the
// post-removal aggregate. Runs inside the delete transaction.
func (r *MindTrainUserRepository) RemoveProfile(ctx context.Context, userID, profileID string) (*domain.MindTrainUser, error) {
	filter := bson.M{"userId": userID, "alarmProfiles.id": profileID}
	update := bson.M{
		"$pull": bson.M{"alarmProfiles": bson.M{"id": profileID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.MindTrainUser
	err := r.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		if _, getErr := r.Get(ctx, userID); getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.NewProfileNotFoundError(userID, profileID)
	}
	if err != nil {
		return nil, wrapError(err, "remove profile")
	}
	return &user, nil
}

// RemoveNotificationLogsByProfile pulls log entries whose payload
// references profileID and returns how many were removed. Runs inside
// the delete transaction.
func (r *MindTrainUserRepository) RemoveNotificationLogsByProfile(ctx context.Context, userID, profileID string) (int, error) {
	var before domain.MindTrainUser
	if err := r.collection().FindOne(ctx, bson.M{"userId": userID}).Decode(&before); err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, apperrors.NewUserNotFoundError(userID)
		}
		return 0, wrapError(err, "remove dependent logs")
	}

	referencing := 0
	for i := range before.NotificationLogs {
		if before.NotificationLogs[i].ProfileID == profileID {
			referencing++
		}
	}
	if referencing == 0 {
		return 0, nil
	}

	update := bson.M{
		"$pull": bson.M{"notificationLogs": bson.M{"profileId": profileID}},
	}
	if _, err := r.collection().UpdateOne(ctx, bson.M{"userId": userID}, update); err != nil {
		return 0, wrapError(err, "remove dependent logs")
	}
	return referencing, nil
}

// UpsertScheduleFields merges partial schedule fields, creating the
// aggregate lazily when absent. A single-document update, so no
// transaction is needed.
func (r *MindTrainUserRepository) UpsertScheduleFields(ctx context.Context, userID string, update *domain.ScheduleUpdate, now time.Time) (*domain.MindTrainUser, error) {
	if _, err := r.CreateIfAbsent(ctx, userID); err != nil {
		return nil, err
	}

	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	set := bson.M{
		"fcmSchedule.updatedAt": now,
		"updatedAt":             now,
	}
	for field, value := range update.Fields() {
		set["fcmSchedule."+field] = value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user domain.MindTrainUser
	err := r.collection().FindOneAndUpdate(opCtx, bson.M{"userId": userID}, bson.M{"$set": set}, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if err != nil {
		return nil, wrapError(err, "upsert schedule")
	}
	return &user, nil
}

// PushNotificationLog appends an entry and rotates the log down to max
// in the same atomic update ($push with $slice keeps the newest max
// entries). Duplicate notification ids are refused by the filter.
func (r *MindTrainUserRepository) PushNotificationLog(ctx context.Context, userID string, entry *domain.NotificationLog, max int) (*domain.MindTrainUser, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	filter := bson.M{
		"userId":                           userID,
		"notificationLogs.notificationId": bson.M{"$ne": entry.NotificationID},
	}
	update := bson.M{
		"$push": bson.M{
			"notificationLogs": bson.M{
				"$each":  bson.A{entry},
				"$slice": -max,
			},
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.MindTrainUser
	err := r.collection().FindOneAndUpdate(opCtx, filter, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		if _, getErr := r.Get(ctx, userID); getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.NewValidationError(fmt.Sprintf("notification %q already logged", entry.NotificationID), nil)
	}
	if err != nil {
		return nil, wrapError(err, "append notification log")
	}
	return &user, nil
}

// PushSyncHealthLog appends a health report with the same push-and-slice
// rotation
func (r *MindTrainUserRepository) PushSyncHealthLog(ctx context.Context, userID string, entry *domain.SyncHealthLog, max int) (*domain.MindTrainUser, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	update := bson.M{
		"$push": bson.M{
			"syncHealthLogs": bson.M{
				"$each":  bson.A{entry},
				"$slice": -max,
			},
		},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.MindTrainUser
	err := r.collection().FindOneAndUpdate(opCtx, bson.M{"userId": userID}, update, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if err != nil {
		return nil, wrapError(err, "append sync health log")
	}
	return &user, nil
}

// UpdateNotificationLogFields locates an entry by notification id across
// all users (the dispatcher does not know which user owns it) and merges
// partial fields into it. A missing entry is not an error: the aggregate
// result is nil.
func (r *MindTrainUserRepository) UpdateNotificationLogFields(ctx context.Context, notificationID string, update *domain.NotificationLogUpdate) (*domain.MindTrainUser, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	set := bson.M{}
	for field, value := range update.Fields() {
		set["notificationLogs.$."+field] = value
	}
	if len(set) == 0 {
		// Nothing to change, but the caller still wants to know the owner
		var user domain.MindTrainUser
		err := r.collection().FindOne(opCtx, bson.M{"notificationLogs.notificationId": notificationID}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if err != nil {
			return nil, wrapError(err, "find notification log")
		}
		return &user, nil
	}

	filter := bson.M{"notificationLogs.notificationId": notificationID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.MindTrainUser
	err := r.collection().FindOneAndUpdate(opCtx, filter, bson.M{"$set": set}, opts).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(err, "update notification log")
	}
	return &user, nil
}

// SetMetadata stores recomputed derived counters
func (r *MindTrainUserRepository) SetMetadata(ctx context.Context, userID string, meta domain.Metadata) error {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	res, err := r.collection().UpdateOne(opCtx, bson.M{"userId": userID}, bson.M{"$set": bson.M{"metadata": meta}})
	if err != nil {
		return wrapError(err, "set metadata")
	}
	if res.MatchedCount == 0 {
		return apperrors.NewUserNotFoundError(userID)
	}
	return nil
}

// WithTransaction runs fn inside a store transaction. The userID is the
// unit of contention; the mongo implementation relies on document-level
// conflict detection, so it only forwards to the session helper.
func (r *MindTrainUserRepository) WithTransaction(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	err := r.client.WithTransaction(ctx, r.timeouts.Transaction, fn)
	if err == nil {
		return nil
	}
	if _, ok := err.(*apperrors.AppError); ok {
		return err
	}
	if mongodb.IsWriteConflict(err) {
		return apperrors.NewConcurrencyError("transaction write conflict", err)
	}
	if mongodb.IsTransientError(err) {
		return apperrors.NewDatabaseError("transaction aborted", err)
	}
	return wrapError(err, "transaction")
}

// FindUsersNeedingSync returns users with an active profile whose next
// sync check is due, capped at limit. Read-only, no locking.
func (r *MindTrainUserRepository) FindUsersNeedingSync(ctx context.Context, now time.Time, limit int) ([]*domain.MindTrainUser, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	filter := bson.M{
		"alarmProfiles": bson.M{
			"$elemMatch": bson.M{
				"isActive":          true,
				"nextSyncCheckTime": bson.M{"$lte": now},
			},
		},
	}
	opts := options.Find().SetLimit(int64(limit))

	cursor, err := r.collection().Find(opCtx, filter, opts)
	if err != nil {
		return nil, wrapError(err, "find users needing sync")
	}
	defer cursor.Close(opCtx)

	var users []*domain.MindTrainUser
	if err = cursor.All(opCtx, &users); err != nil {
		return nil, wrapError(err, "find users needing sync")
	}
	return users, nil
}

// FindUsersInWindow returns users whose enabled schedule has its
// morning/evening time inside the wall-clock window. HH:mm strings are
// zero padded, so lexicographic range filters preserve time order.
func (r *MindTrainUserRepository) FindUsersInWindow(ctx context.Context, kind domain.NotificationKind, window domain.ClockWindow) ([]*domain.MindTrainUser, error) {
	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	field := "fcmSchedule.morningNotificationTime"
	if kind == domain.NotificationKindEvening {
		field = "fcmSchedule.eveningNotificationTime"
	}

	filter := bson.M{
		"fcmSchedule.isEnabled":       true,
		"fcmSchedule.activeProfileId": bson.M{"$ne": nil},
		"alarmProfiles": bson.M{
			"$elemMatch": bson.M{"isActive": true},
		},
	}
	if window.Wraps {
		filter["$or"] = bson.A{
			bson.M{field: bson.M{"$gte": window.From}},
			bson.M{field: bson.M{"$lte": window.To}},
		}
	} else {
		filter[field] = bson.M{"$gte": window.From, "$lte": window.To}
	}

	cursor, err := r.collection().Find(opCtx, filter)
	if err != nil {
		return nil, wrapError(err, "find users in window")
	}
	defer cursor.Close(opCtx)

	var users []*domain.MindTrainUser
	if err = cursor.All(opCtx, &users); err != nil {
		return nil, wrapError(err, "find users in window")
	}
	return users, nil
}
