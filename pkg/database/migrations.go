package database

import (
	"context"
	"fmt"
	"time"

	"agencyportal/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared by repositories and migrations.
const (
	CollectionRequests          = "requests"
	CollectionProjects          = "projects"
	CollectionUsers             = "users"
	CollectionDiscountCodes     = "discountCodes"
	CollectionPaymentReminders  = "paymentReminders"
	CollectionUserSubscriptions = "userSubscriptions"
	CollectionNotifications     = "notifications"

	collectionMigrations = "migrations"
)

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
	Down        func(ctx context.Context, db *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logger     *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
		logger:     log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	if err := m.createMigrationsCollection(ctx); err != nil {
		return err
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.logger.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.logger.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}

		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection(ctx context.Context) error {
	collections, err := m.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collectionMigrations}})
	if err != nil {
		return err
	}
	if len(collections) > 0 {
		return nil
	}

	return m.db.CreateCollection(ctx, collectionMigrations)
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(collectionMigrations).FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(collectionMigrations).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users indexes",
			Up:          indexMigration(CollectionUsers, usersIndexes()),
			Down:        dropIndexes(CollectionUsers),
		},
		{
			Version:     2,
			Description: "Create requests indexes",
			Up:          indexMigration(CollectionRequests, requestsIndexes()),
			Down:        dropIndexes(CollectionRequests),
		},
		{
			Version:     3,
			Description: "Create projects indexes",
			Up:          indexMigration(CollectionProjects, projectsIndexes()),
			Down:        dropIndexes(CollectionProjects),
		},
		{
			Version:     4,
			Description: "Create discount code indexes",
			Up:          indexMigration(CollectionDiscountCodes, discountCodesIndexes()),
			Down:        dropIndexes(CollectionDiscountCodes),
		},
		{
			Version:     5,
			Description: "Create payment reminder indexes",
			Up:          indexMigration(CollectionPaymentReminders, paymentRemindersIndexes()),
			Down:        dropIndexes(CollectionPaymentReminders),
		},
		{
			Version:     6,
			Description: "Create notification and subscription indexes",
			Up: func(ctx context.Context, db *mongo.Database) error {
				if err := indexMigration(CollectionNotifications, notificationsIndexes())(ctx, db); err != nil {
					return err
				}
				return indexMigration(CollectionUserSubscriptions, subscriptionsIndexes())(ctx, db)
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				if err := dropIndexes(CollectionNotifications)(ctx, db); err != nil {
					return err
				}
				return dropIndexes(CollectionUserSubscriptions)(ctx, db)
			},
		},
		{
			Version:     7,
			Description: "Index reminder retries and pending owners",
			Up:          indexMigration(CollectionPaymentReminders, paymentReminderRetryIndexes()),
			Down:        dropIndexes(CollectionPaymentReminders),
		},
	}
}

func indexMigration(collection string, indexes []mongo.IndexModel) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes)
		return err
	}
}

func dropIndexes(collection string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().DropAll(ctx)
		return err
	}
}

func usersIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
}

func requestsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_email", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}
}

func projectsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_email", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
}

func discountCodesIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "expiry_date", Value: 1}}},
	}
}

func paymentRemindersIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "due_date", Value: 1}}},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "payment_type", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "due_date", Value: -1}}},
	}
}

func paymentReminderRetryIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "attempts", Value: 1}, {Key: "due_date", Value: 1}}},
		{Keys: bson.D{{Key: "user_email", Value: 1}, {Key: "user_id", Value: 1}}},
	}
}

func notificationsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}}},
	}
}

func subscriptionsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "channel", Value: 1}, {Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
}
