package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/moneydesk/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateTransferRecords()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS transfer_records (
		id TEXT PRIMARY KEY,
		owner TEXT,
		note TEXT,
		bank TEXT,
		customer_info TEXT,
		amount TEXT,
		timestamp TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tickets (
		order_id TEXT PRIMARY KEY,
		phone TEXT,
		customer_name TEXT,
		amount TEXT,
		status TEXT NOT NULL,
		settled_at TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tickets_phone ON tickets(phone);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateTransferRecords backfills columns added after the first release.
// Early deployments stored the completion flag under the legacy "muted" name.
func migrateTransferRecords() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='transfer_records'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("transfer_records table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("transfer_records table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for transfer_records table", "error", err)
		} else {
			stdlog.Printf("Error checking for transfer_records table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(transfer_records)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for transfer_records", "error", err)
		} else {
			stdlog.Printf("Error querying table schema: %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info", "error", err)
			} else {
				stdlog.Printf("Error scanning column info: %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info: %v", err)
		}
		return
	}

	if _, ok := columnExists["owner"]; !ok {
		_, err := DB.Exec("ALTER TABLE transfer_records ADD COLUMN owner TEXT")
		if err != nil {
			logger.L.Error("Error adding owner column to transfer_records", "error", err)
		} else {
			logger.L.Info("Added owner column to transfer_records table")
		}
	}

	if columnExists["muted"] && columnExists["completed"] {
		_, err := DB.Exec("UPDATE transfer_records SET completed = muted WHERE completed IS NULL")
		if err != nil {
			logger.L.Error("Error backfilling completed from legacy muted column", "error", err)
		} else {
			logger.L.Info("Backfilled completed flag from legacy muted column")
		}
	}
}
