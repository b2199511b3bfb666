package database

import "time"

// State is the single-row ingestion checkpoint. ProcessedTick is the next
// tick the engine will fetch; every tick below it has been fully committed.
type State struct {
	ID            int       `gorm:"primaryKey" json:"-"`
	ProcessedTick uint64    `json:"processedTick"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Asset struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(8);uniqueIndex:idx_assets_name_issuer" json:"name"`
	Issuer    string    `gorm:"type:varchar(60);uniqueIndex:idx_assets_name_issuer" json:"issuer"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID          string    `gorm:"primaryKey;type:varchar(60)" json:"id"`
	TotalTrades uint64    `json:"totalTrades"`
	TotalVolume uint64    `json:"totalVolume"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Trade struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Maker     string    `gorm:"type:varchar(60);index" json:"maker"`
	Taker     string    `gorm:"type:varchar(60);index" json:"taker"`
	Price     uint64    `json:"price"`
	Amount    uint64    `json:"amount"`
	Tick      uint64    `gorm:"index" json:"tick"`
	AssetID   uint64    `gorm:"index" json:"assetID"`
	Asset     *Asset    `json:"asset,omitempty"`
	TxHash    string    `gorm:"uniqueIndex;type:varchar(64)" json:"txHash"`
	CreatedAt time.Time `json:"createdAt"`
}

type Notification struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(60);index" json:"userID"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
