package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Collections are plain tables with a jsonb "doc" column. Migrations only add indexes
// to whatever collections exist, they never create or reshape them.
var migrationStatements = []string{
	`DO $$
	DECLARE
		rec record;
	BEGIN
		FOR rec IN
			SELECT c.table_name
			FROM information_schema.columns c
			WHERE c.table_schema = 'public' AND c.column_name = 'doc' AND c.data_type = 'jsonb'
		LOOP
			EXECUTE format(
				'CREATE INDEX IF NOT EXISTS %I ON %I USING GIN (doc jsonb_path_ops)',
				'idx_doc_gin_' || substr(md5(rec.table_name), 1, 12),
				rec.table_name
			);
		END LOOP;
	END
	$$;`,
	`DO $$
	DECLARE
		rec record;
	BEGIN
		FOR rec IN
			SELECT c.table_name
			FROM information_schema.columns c
			WHERE c.table_schema = 'public' AND c.column_name = 'doc' AND c.data_type = 'jsonb'
		LOOP
			EXECUTE format(
				'CREATE INDEX IF NOT EXISTS %I ON %I ((doc->>''date''))',
				'idx_doc_date_' || substr(md5(rec.table_name), 1, 12),
				rec.table_name
			);
		END LOOP;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
