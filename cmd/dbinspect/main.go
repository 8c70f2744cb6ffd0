// Package main prints a per-user summary of an archive.
//
// Usage:
//
//	DATA_PATH=~/.tubearchive go run ./cmd/dbinspect
//	STORE_BACKEND=badger DATA_PATH=./data go run ./cmd/dbinspect
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/store/backend"
)

type categoryStats struct {
	live    int
	removed int
}

type userStats struct {
	categories map[domain.ContentType]*categoryStats
	oldest     string
	newest     string
}

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/TubeArchive/data")
	}

	st, err := backend.Open(os.Getenv("STORE_BACKEND"), dataPath, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer st.Close()

	fmt.Println("=== Archive Inspection ===")
	fmt.Println()

	users := make(map[string]*userStats)
	total := 0

	err = st.EachVideo(context.Background(), func(v *domain.Video) error {
		total++

		u, ok := users[v.UserID]
		if !ok {
			u = &userStats{categories: make(map[domain.ContentType]*categoryStats)}
			users[v.UserID] = u
		}
		c, ok := u.categories[v.ContentType]
		if !ok {
			c = &categoryStats{}
			u.categories[v.ContentType] = c
		}
		if v.IsRemoved {
			c.removed++
		} else {
			c.live++
		}

		// Relative grouping dates ("Today", "Monday") do not sort, so only
		// absolute ones bound the range.
		if _, err := time.Parse(domain.DateLayout, v.ParsedDate); err == nil {
			if u.oldest == "" || v.ParsedDate < u.oldest {
				u.oldest = v.ParsedDate
			}
			if v.ParsedDate > u.newest {
				u.newest = v.ParsedDate
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		u := users[id]
		fmt.Printf("User: %s\n", id)
		if u.oldest != "" {
			fmt.Printf("  Dates: %s .. %s\n", u.oldest, u.newest)
		}
		for _, ct := range domain.ContentTypes {
			c, ok := u.categories[ct]
			if !ok {
				continue
			}
			fmt.Printf("  %-12s live %6d  removed %6d\n", ct, c.live, c.removed)
		}
		fmt.Println()
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Users: %d\n", len(users))
	fmt.Printf("Total records: %d\n", total)
}
