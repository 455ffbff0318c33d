package models

import (
	"log"

	"github.com/swisscityerp/erp_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&AccountingSetup{},
		&SyncRecord{},
		&SyncRun{}, &SyncRunError{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
