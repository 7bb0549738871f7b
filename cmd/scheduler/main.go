package main

import (
	"log"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/NicoHurtado/prompt2course/internal/platform"
	"github.com/NicoHurtado/prompt2course/models"
)

const defaultRetentionDays = 30

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()

	retentionDays := defaultRetentionDays
	if raw := platform.Getenv("LOG_RETENTION_DAYS", ""); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			log.Printf("Invalid LOG_RETENTION_DAYS %q, using default %d", raw, defaultRetentionDays)
		} else {
			retentionDays = parsed
		}
	}

	// Create a new cron scheduler
	c := cron.New()

	_, err := c.AddFunc("@daily", func() {
		sweepGenerationLogs(db, retentionDays)
	})
	if err != nil {
		log.Fatalf("Error scheduling log retention sweep: %v", err)
	}

	// Run one sweep at startup so a restarted scheduler catches up immediately.
	sweepGenerationLogs(db, retentionDays)

	c.Start()
	defer c.Stop()

	log.Printf("Scheduler started, sweeping generation logs older than %d days daily", retentionDays)
	// Keep the main thread alive
	select {}
}

// sweepGenerationLogs deletes generation log rows past the retention window.
func sweepGenerationLogs(db *gorm.DB, retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := db.Where("created_at < ?", cutoff).Delete(&models.GenerationLog{})
	if result.Error != nil {
		log.Printf("Error sweeping generation logs: %v", result.Error)
		return
	}

	log.Printf("Log retention sweep removed %d rows older than %s", result.RowsAffected, cutoff.Format(time.RFC3339))
}
