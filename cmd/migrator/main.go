package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/fryholic/cctv-coordinator/internal/store"
)

func main() {
	upCmd := flag.Bool("up", false, "Run all up migrations")
	downCmd := flag.Bool("down", false, "Rollback all migrations")
	stepsCmd := flag.Int("steps", 0, "Run +/- steps")
	dbFile := flag.String("db", envOr("DB_FILE", "cctv.db"), "sqlite database file")
	flag.Parse()

	// store.Open already applies every pending up migration, so opening
	// alone covers the no-flags "bring the schema current" case.
	st, err := store.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	start := time.Now()
	switch {
	case *downCmd:
		log.Println("running DOWN migrations...")
		if err := st.Migrate(false, 0); err != nil {
			log.Fatalf("migration DOWN failed: %v", err)
		}
		log.Println("migration DOWN completed.")
	case *stepsCmd != 0:
		log.Printf("running %d steps...\n", *stepsCmd)
		if err := st.Migrate(true, *stepsCmd); err != nil {
			log.Fatalf("migration steps failed: %v", err)
		}
		log.Println("migration steps completed.")
	case *upCmd:
		log.Println("schema already current (store.Open applies pending up migrations).")
	default:
		version, dirty, err := st.MigrationVersion()
		if err != nil {
			log.Println("no version found (empty db?).")
		} else {
			log.Printf("current version: %d, dirty: %v\n", version, dirty)
		}
	}
	log.Printf("duration: %v", time.Since(start))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
