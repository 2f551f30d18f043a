package utils

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/tekdi/user-microservice-sub001/config"
	"github.com/tekdi/user-microservice-sub001/database"
	"github.com/tekdi/user-microservice-sub001/models"
	"github.com/tekdi/user-microservice-sub001/syncer"
)

// InitializeResyncScheduler sets up the periodic full-resync sweep. Sync is
// idempotent, so re-running the sweep after a crash is safe.
func InitializeResyncScheduler(orchestrator *syncer.Orchestrator) {
	log.Println("[RESYNC-SCHEDULER] Initializing resync scheduler...")

	c := cron.New()

	spec := config.AppConfig.ResyncCron
	if _, err := c.AddFunc(spec, func() {
		log.Println("[RESYNC-SCHEDULER] Running full resync sweep...")
		ResyncAllUsers(orchestrator)
	}); err != nil {
		log.Printf("[RESYNC-SCHEDULER] Invalid RESYNC_CRON %q: %v. Scheduler disabled.", spec, err)
		return
	}

	c.Start()
	log.Printf("[RESYNC-SCHEDULER] Resync scheduler started with spec %q", spec)
}

// ResyncAllUsers walks active users in pages and performs a full sync for
// each. Per-user failures are logged and the sweep continues.
func ResyncAllUsers(orchestrator *syncer.Orchestrator) {
	db := database.Database.Db
	pageSize := config.AppConfig.ResyncPageSize
	tenantID := config.AppConfig.DefaultTenantID
	orgID := config.AppConfig.DefaultOrganisationID

	offset := 0
	total, failed := 0, 0
	for {
		var users []models.User
		if err := db.
			Where("is_deleted = ? AND status = ?", false, "active").
			Order("id asc").
			Limit(pageSize).
			Offset(offset).
			Find(&users).Error; err != nil {
			log.Printf("[RESYNC-SCHEDULER] Error fetching users page at offset %d: %v", offset, err)
			return
		}
		if len(users) == 0 {
			break
		}

		for _, user := range users {
			if err := orchestrator.SyncUser(context.Background(), user.UserID, tenantID, orgID, syncer.SectionAll); err != nil {
				failed++
				log.Printf("[RESYNC-SCHEDULER] Resync failed for user %s: %v", user.UserID, err)
				continue
			}
			total++
		}
		offset += pageSize
	}

	log.Printf("[RESYNC-SCHEDULER] Sweep finished: %d synced, %d failed", total, failed)
}
