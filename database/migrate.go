package database

import (
	"github.com/go-faster/errors"
	"github.com/yeremiapane/food-storefront/models"
	"github.com/yeremiapane/food-storefront/utils"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.StoredState{}); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
