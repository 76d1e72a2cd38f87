package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"strings"

	"agriportal/cmd/migration/versions"
	"agriportal/portal/schema"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func postgresDsn(uri string) string {
	if uri == "" {
		log.Fatalf("Missing --db_uri arg")
	}
	parts, err := url.Parse(uri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func main() {
	dbUri := flag.String("db_uri", "", "Database URI")
	flag.Parse()

	db, err := gorm.Open(postgres.Open(postgresDsn(*dbUri)), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	migration := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			// Placeholder representing the schema state of the previous backend.
			ID:      "0",
			Migrate: func(*gorm.DB) error { return nil },
		},
		{
			ID:      "1",
			Migrate: versions.Migration_1_notification_receipts,
			// Rollback is not supported since the legacy column is dropped.
		},
	})

	migration.InitSchema(func(txn *gorm.DB) error {
		log.Println("clean database detected, running full schema initialization")

		return txn.AutoMigrate(
			&schema.UserProfile{}, &schema.CropInterest{},
			&schema.Crop{}, &schema.CropInput{}, &schema.Scheme{},
			&schema.Application{},
			&schema.Notification{}, &schema.NotificationReceipt{},
		)
	})

	if err := migration.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("migration completed successfully")
}
