package models

import (
	"log"

	"github.com/mmdatafocus/mandi_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Business{}, &ChargeSetting{},
		&Farmer{}, &Buyer{},
		&Lot{}, &Bid{}, &Transaction{},
		&BankAccount{}, &CashEntry{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
