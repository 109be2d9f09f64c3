// stubapi runs the development forum API so the frontend can be exercised
// without the real backend.
package main

import (
	"log"
	"net/http"
	"os"

	"forumfront/internal/stub"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "stub.db"
	}
	db, err := stub.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("stub forum api listening on :%s (db %s)", port, dbPath)
	if err := http.ListenAndServe(":"+port, stub.NewServer(db)); err != nil {
		log.Fatal(err)
	}
}
