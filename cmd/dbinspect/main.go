package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/gleamverse/readsync/internal/domain"
)

func main() {
	dbPath := os.Getenv("CACHE_PATH")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dbPath = filepath.Join(home, ".readsync", "cache")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Cache Inspection ===")
	fmt.Println()

	owners := map[string]struct{}{}
	historyRecords := 0
	bookmarkEntries := 0
	goalCount := 0

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())

			prefix, ownerID, ok := strings.Cut(key, ":")
			if !ok {
				continue
			}
			owners[ownerID] = struct{}{}

			err := item.Value(func(val []byte) error {
				switch prefix {
				case "history":
					var records []domain.HistoryRecord
					if err := json.Unmarshal(val, &records); err != nil {
						return err
					}
					historyRecords += len(records)
					fmt.Printf("Owner %s: %d history records\n", ownerID, len(records))
					for _, r := range records {
						fmt.Printf("  %s  page %d/%d  last read %s\n",
							r.BookID, r.LastPage, r.TotalPages,
							r.LastReadAt.Format("2006-01-02 15:04:05"))
					}

				case "bookmarks":
					var set domain.BookmarkSet
					if err := json.Unmarshal(val, &set); err != nil {
						return err
					}
					bookmarkEntries += len(set)
					fmt.Printf("Owner %s: %d bookmarks\n", ownerID, len(set))
					for bookID, entry := range set {
						fmt.Printf("  %s  [%s]\n", bookID, entry.Status)
					}

				case "goals":
					var goals []domain.ReadingGoal
					if err := json.Unmarshal(val, &goals); err != nil {
						return err
					}
					goalCount += len(goals)
					fmt.Printf("Owner %s: %d goals\n", ownerID, len(goals))
					for _, g := range goals {
						fmt.Printf("  %s  %q  %d/%d books\n",
							g.ID, g.Title, g.CompletedBooks, g.TargetBooks)
					}
				}
				return nil
			})
			if err != nil {
				log.Printf("Error reading key %s: %v", key, err)
			}
			fmt.Println()
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating cache: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Owners: %d\n", len(owners))
	fmt.Printf("History records: %d\n", historyRecords)
	fmt.Printf("Bookmark entries: %d\n", bookmarkEntries)
	fmt.Printf("Goals: %d\n", goalCount)
}
