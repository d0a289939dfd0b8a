// cmd/history replays a stored match's event journal for inspection, reading
// straight from MySQL using the same internal/history.MySQLJournal binding
// the server journals through during play.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/qingwen-guan/allied-citadels/internal/config"
	"github.com/qingwen-guan/allied-citadels/internal/history"
	"github.com/qingwen-guan/allied-citadels/internal/store"
)

func main() {
	matchID := flag.String("match", "", "match id to replay")
	flag.Parse()
	if *matchID == "" {
		fmt.Println("usage: history -match <match-id>")
		os.Exit(1)
	}

	cfg := config.Load()
	db, err := store.ConnectMySQL(cfg.DBDSN)
	if err != nil {
		fmt.Printf("cannot connect to db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	journal := history.NewMySQL(db)
	events, err := journal.Load(context.Background(), *matchID)
	if err != nil {
		fmt.Printf("cannot load match %s: %v\n", *matchID, err)
		os.Exit(1)
	}

	for _, e := range events {
		var payload any
		_ = json.Unmarshal(e.Payload, &payload)
		fmt.Printf("[%d] %s %s %v\n", e.ID, e.CreatedAt.Format("15:04:05.000"), e.Type, payload)
	}
}
