package postgres

import "intake/internal/storage"

func init() {
	// registers the postgres store factory
	storage.Register("postgres", New)
}
