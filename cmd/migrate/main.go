// migrate runs schema auto-migration against the configured database.
//
// Usage:
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/migrate
package main

import (
	"fmt"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/models"
)

func main() {
	config.ConnectDatabaseWithRetry()
	models.MigrateTable()
	fmt.Println("migration complete")
}
