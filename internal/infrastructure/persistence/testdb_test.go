package persistence

import (
	"testing"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with every table migrated.
// The pool is pinned to one connection so that all queries see the same
// in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.CatalogProductModel{},
		&models.ImportJobModel{},
		&models.ImportedProductModel{},
		&models.CustomerOrderModel{},
		&models.FulfillmentQueueModel{},
	)
	require.NoError(t, err)

	return db
}

func testAddress() valueobject.ShippingAddress {
	return valueobject.ShippingAddress{
		FullName:   "Grace Hopper",
		Phone:      "+1 202 555 0100",
		Line1:      "1 Navy Yard",
		City:       "Arlington",
		State:      "VA",
		PostalCode: "22202",
		Country:    "US",
	}
}

func testPayload() fulfillment.Payload {
	return fulfillment.Payload{
		Items: []fulfillment.LineItem{{
			CatalogProductID: uuid.New(),
			SourceProductID:  "1005001",
			SourceURL:        "https://www.aliexpress.com/item/1005001.html",
			Name:             "Desk lamp",
			Quantity:         2,
		}},
		ShippingAddress: testAddress(),
	}
}
