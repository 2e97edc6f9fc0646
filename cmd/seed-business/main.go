// seed-business creates a development business and prints an API token
// scoped to it.
//
// Usage:
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-business
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/mandi_backend/config"
	"github.com/mmdatafocus/mandi_backend/models"
	"github.com/mmdatafocus/mandi_backend/utils"
)

func main() {
	name := flag.String("name", "Dev Mandi", "business name")
	mandi := flag.String("mandi", "Dev Market Yard", "mandi name")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	business, err := models.CreateBusiness(ctx, &models.NewBusiness{
		Name:      *name,
		MandiName: *mandi,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create business: %v\n", err)
		os.Exit(1)
	}

	token, err := utils.JwtGenerate(1, business.ID.String(), "owner")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("business id: %s\n", business.ID)
	fmt.Printf("token: %s\n", token)
}
