package database

import (
	"gorm.io/gorm"

	"github.com/sandeepkv93/campus-portal-backend/internal/domain"
)

type TableStatus struct {
	Table   string `json:"table"`
	Present bool   `json:"present"`
}

func models() []any {
	return []any{
		&domain.User{},
		&domain.LocalCredential{},
		&domain.OAuthAccount{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models()...)
}

// MigrationStatus reports which managed tables exist. AutoMigrate has no
// version table, so presence is the only state there is.
func MigrationStatus(db *gorm.DB) ([]TableStatus, error) {
	out := make([]TableStatus, 0, len(models()))
	for _, m := range models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, err
		}
		out = append(out, TableStatus{
			Table:   stmt.Schema.Table,
			Present: db.Migrator().HasTable(m),
		})
	}
	return out, nil
}
