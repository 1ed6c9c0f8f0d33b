package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect はDBに接続して *gorm.DB を返す。
// databaseURL があればPostgres、無ければ組み込みのSQLiteファイルを使う。
func Connect(databaseURL string, sqlitePath string) (*gorm.DB, error) {
	if databaseURL != "" {
		return gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	}

	return gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
}
