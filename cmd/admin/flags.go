package main

import (
	"context"
	"os"

	"medchat/backend/internal/config"
	"medchat/backend/internal/storage"

	"github.com/spf13/pflag"
	"gorm.io/gorm"
)

// DBFlags selects the database the admin commands operate on.
type DBFlags struct {
	DSN string
}

func NewDBFlags() *DBFlags {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = config.DefaultDatabaseDSN
	}
	return &DBFlags{DSN: dsn}
}

func (f *DBFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.DSN, "database-dsn", f.DSN, "PostgreSQL connection string (env DATABASE_DSN)")
}

func (f *DBFlags) Open(ctx context.Context) (*gorm.DB, error) {
	return storage.OpenPostgres(ctx, f.DSN, storage.GormLogLevel(logLevel))
}

// TokenFlags configures token signing for the token command.
type TokenFlags struct {
	Secret string
	Issuer string
	ID     string
	Role   string
	TTL    string
}

func NewTokenFlags() *TokenFlags {
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "medchat-service"
	}
	return &TokenFlags{
		Secret: os.Getenv("JWT_SECRET"),
		Issuer: issuer,
		TTL:    "24h",
	}
}

func (f *TokenFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.Secret, "secret", f.Secret, "HMAC signing secret (env JWT_SECRET)")
	fs.StringVar(&f.Issuer, "issuer", f.Issuer, "token issuer (env JWT_ISSUER)")
	fs.StringVar(&f.ID, "id", f.ID, "subject id of the patient or clinician")
	fs.StringVar(&f.Role, "role", f.Role, "subject role (patient, clinician)")
	fs.StringVar(&f.TTL, "ttl", f.TTL, "token lifetime")
}
