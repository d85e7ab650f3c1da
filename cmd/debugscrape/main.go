package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ankigen/ankigen/internal/extract"
	"github.com/ankigen/ankigen/internal/fetch"
)

func main() {
	url := "https://example.com"
	if len(os.Args) > 1 {
		url = os.Args[1]
	}
	filter := extract.Filter{
		IncludeTags:    split(os.Getenv("SCRAPE_INCLUDE")),
		ExcludeTags:    split(os.Getenv("SCRAPE_EXCLUDE_TAGS")),
		ExcludeIDs:     split(os.Getenv("SCRAPE_EXCLUDE_IDS")),
		ExcludeClasses: split(os.Getenv("SCRAPE_EXCLUDE_CLASSES")),
	}
	client := &fetch.Client{UserAgent: "debugscrape/1.0", MaxAttempts: 1, PerRequestTimeout: 20 * time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	body, ct, err := client.Get(ctx, url)
	fmt.Println("fetch err:", err)
	if err != nil {
		return
	}
	fmt.Println("content-type:", ct)
	fragments, err := extract.Fragments(string(body), filter)
	fmt.Println("extract err:", err)
	for i, f := range fragments {
		if len(f) > 100 {
			f = f[:100] + "..."
		}
		fmt.Printf("%d. %s\n", i+1, f)
	}
}

func split(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
