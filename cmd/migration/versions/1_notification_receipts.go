package versions

import (
	"encoding/json"
	"log"

	"agriportal/portal/schema"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The previous backend stored per-farmer read flags as a json column on the
// notifications table. This migration moves them into notification_receipts
// rows and drops the column.
func Migration_1_notification_receipts(txn *gorm.DB) error {
	type Notification struct {
		Id     uuid.UUID `gorm:"type:uuid;primaryKey"`
		IsRead string
	}

	if err := txn.AutoMigrate(&schema.NotificationReceipt{}); err != nil {
		return err
	}

	if !txn.Migrator().HasColumn(&Notification{}, "is_read") {
		log.Println("no legacy is_read column found, nothing to backfill")
		return nil
	}

	var notifications []Notification
	if err := txn.Table("notifications").Find(&notifications).Error; err != nil {
		return err
	}

	for _, n := range notifications {
		if n.IsRead == "" {
			continue
		}

		var readStates map[uuid.UUID]bool
		if err := json.Unmarshal([]byte(n.IsRead), &readStates); err != nil {
			return err
		}

		for userId, isRead := range readStates {
			receipt := schema.NotificationReceipt{
				NotificationId: n.Id,
				UserId:         userId,
				IsRead:         isRead,
			}
			if err := txn.Create(&receipt).Error; err != nil {
				return err
			}
		}
	}

	return txn.Migrator().DropColumn(&Notification{}, "is_read")
}
