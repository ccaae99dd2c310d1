package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"credipart/internal/config"
)

// GoogleLedger appends payment rows to a Google Sheets ledger tab. Auth is
// OAuth user credentials: a client config plus a refresh token obtained
// once with the oauth-init command.
type GoogleLedger struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
}

var _ LedgerAppender = (*GoogleLedger)(nil)

// NewGoogleLedger builds the Sheets client from configuration. It returns
// an error when the spreadsheet ID is unset; callers fall back to the
// memory adapter in that case.
func NewGoogleLedger(ctx context.Context, cfg *config.Config) (*GoogleLedger, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	clientJSON, err := loadJSON(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("load oauth client: %w", err)
	}
	tokenJSON, err := loadJSON(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("load oauth token: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(oauthCfg.Client(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets ledger configured",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleLedgerSheet)

	return &GoogleLedger{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		ledgerSheet:   cfg.GoogleLedgerSheet,
	}, nil
}

// Append adds one ledger row:
// date, credit id, installment id, participant, due month, amount.
func (g *GoogleLedger) Append(ctx context.Context, entry LedgerEntry) (string, error) {
	if g.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := []any{
		entry.PaidAt.Format("2006-01-02"),
		entry.CreditID,
		entry.InstallmentID,
		entry.Participant,
		entry.DueMonth.String(),
		entry.Amount.Units(),
	}
	rng := fmt.Sprintf("%s!A:F", g.ledgerSheet)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", g.ledgerSheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// loadJSON prefers inline JSON over a file path.
func loadJSON(inline, file string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	if strings.TrimSpace(file) != "" {
		return os.ReadFile(file)
	}
	return nil, errors.New("neither inline JSON nor file path set")
}
