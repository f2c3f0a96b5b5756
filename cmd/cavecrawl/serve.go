package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/cavecrawl/go-cavecrawl/server"
	"github.com/cavecrawl/go-cavecrawl/storage"
)

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "Listen address")
	configFile := fs.String("config", "", "YAML config file")
	preset := fs.String("preset", "", "Constant preset: default or classic")
	dbFile := fs.String("db", "", "SQLite file for session logging (optional)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cavecrawl serve [options]

Start the WebSocket play server. Clients join with a map and skill, then
request one decision at a time over /ws; /health reports server state.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configFile, *preset)
	if err != nil {
		return err
	}

	srv := server.New(cfg)
	if *dbFile != "" {
		store, err := storage.New(*dbFile)
		if err != nil {
			return err
		}
		defer store.Close()
		srv.SetStore(store)
	}

	log.Printf("cavecrawl server listening on %s", *addr)
	return http.ListenAndServe(*addr, srv)
}
