package main

import (
	"log"
	"net/http"
	"os"

	"forumfront/internal/api"
	"forumfront/internal/web"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}
	apiURL := os.Getenv("FORUM_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	srv, err := web.New(api.New(apiURL))
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("frontend listening on :%s, forum api at %s", port, apiURL)
	if err := http.ListenAndServe(":"+port, srv); err != nil {
		log.Fatal(err)
	}
}
