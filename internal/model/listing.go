package model

import "time"

type Listing struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	SellerUID   string    `gorm:"column:seller_uid;size:128;index;not null"`
	Title       string    `gorm:"size:120;not null"`
	Description string    `gorm:"type:text"`
	Brand       string    `gorm:"size:64"`
	Model       string    `gorm:"size:64"`
	Year        int       `gorm:"column:year"`
	MileageKM   int       `gorm:"column:mileage_km"`
	Currency    string    `gorm:"size:3;not null;default:CHF"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Listing) TableName() string {
	return "listings"
}
