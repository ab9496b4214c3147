package persistence

import "testing"

func TestMigrationFilesEmbeddedAndOrdered(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("expected embedded migration files")
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Fatalf("migrations not in apply order: %v", files)
		}
	}
	if files[0] != "0001_init.sql" {
		t.Fatalf("expected 0001_init.sql first, got %v", files)
	}
}

func TestPendingMigrationsSkipsApplied(t *testing.T) {
	files := []string{"0001_init.sql", "0002_add_column.sql", "0003_index.sql"}

	pending := pendingMigrations(files, map[string]bool{"0001_init.sql": true})
	if len(pending) != 2 || pending[0] != "0002_add_column.sql" || pending[1] != "0003_index.sql" {
		t.Fatalf("unexpected pending set: %v", pending)
	}

	// nothing applied: everything pending, order preserved
	all := pendingMigrations(files, nil)
	if len(all) != 3 || all[0] != "0001_init.sql" {
		t.Fatalf("unexpected pending set: %v", all)
	}

	// everything applied: re-running is a no-op
	done := pendingMigrations(files, map[string]bool{
		"0001_init.sql": true, "0002_add_column.sql": true, "0003_index.sql": true,
	})
	if len(done) != 0 {
		t.Fatalf("expected no pending migrations, got %v", done)
	}
}
