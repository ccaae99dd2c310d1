// Command oauth-init performs the one-time OAuth consent flow for the
// Google Sheets ledger and saves the refresh token where the worker
// expects it (GOOGLE_OAUTH_TOKEN_FILE, default token.json).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"

	"credipart/internal/config"
)

func main() {
	_ = godotenv.Load()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.Load()

	oauthCfg, err := clientConfig(cfg)
	if err != nil {
		return err
	}

	// The local callback server receives the authorization code. The OAuth
	// client must list this redirect URI among its authorized ones.
	port := os.Getenv("OAUTH_REDIRECT_PORT")
	if port == "" {
		port = "8085"
	}
	oauthCfg.RedirectURL = "http://localhost:" + port + "/callback"

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + port, Handler: mux}
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorized. You may close this window and return to the terminal.")
		codeCh <- r.URL.Query().Get("code")
		go func() { time.Sleep(500 * time.Millisecond); _ = srv.Close() }()
	})
	go func() { _ = srv.ListenAndServe() }()

	fmt.Printf("Open this URL to authorize:\n%s\n",
		oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)

	select {
	case code := <-codeCh:
		token, err := oauthCfg.Exchange(context.Background(), code)
		if err != nil {
			return fmt.Errorf("token exchange: %w", err)
		}
		return saveToken(cfg, token)
	case <-time.After(5 * time.Minute):
		return errors.New("authorization timed out")
	case <-interrupted:
		return errors.New("interrupted")
	}
}

func clientConfig(cfg *config.Config) (*oauth2.Config, error) {
	var raw []byte
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		raw = []byte(cfg.GoogleOAuthClientJSON)
	case cfg.GoogleOAuthClientFile != "":
		b, err := os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read client file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
	return google.ConfigFromJSON(raw, gsheet.SpreadsheetsScope)
}

func saveToken(cfg *config.Config, token *oauth2.Token) error {
	path := cfg.GoogleOAuthTokenFile
	if path == "" {
		path = "token.json"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	fmt.Printf("Saved token to %s\n", path)
	return nil
}
