// Package mysql is the gorm-backed ledger.Store for MySQL deployments.
package mysql

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Open connects with a DSN such as
// user:pass@tcp(host:3306)/ledger?charset=utf8mb4&parseTime=True&loc=UTC
// and migrates the ledger tables.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&productRow{}, &orderRow{}); err != nil {
		return nil, err
	}
	return db, nil
}
