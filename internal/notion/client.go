// Package notion mirrors saved applications into a Notion database.
//
// The target database needs these properties:
//
//	Company           Title
//	Role              Text
//	Date Applied      Date
//	Status            Select
//	Visa Sponsorship  Checkbox
//	Notes             Text
//	Resume            URL
package notion

import (
	"context"
	"errors"
	"fmt"
	"time"

	gnt "github.com/dstotijn/go-notion"

	"github.com/JonMunkholm/jobtracker/internal/core"
)

// Client writes application pages into one Notion database.
type Client struct {
	api        *gnt.Client
	databaseID string
}

// New creates a client for databaseID using an integration token.
func New(token, databaseID string) *Client {
	return &Client{
		api:        gnt.NewClient(token),
		databaseID: databaseID,
	}
}

// Ping runs a one-row query to confirm the database is shared with the
// integration.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.QueryDatabase(ctx, c.databaseID, &gnt.DatabaseQuery{
		PageSize: 1,
	})
	if err != nil {
		return fmt.Errorf("notion: query database: %w", err)
	}
	return nil
}

// MirrorApplications creates one page per record. Every record is
// attempted; the returned error joins all failures.
func (c *Client) MirrorApplications(ctx context.Context, records []core.DataRecord) error {
	var errs []error
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		props := buildProperties(r)
		_, err := c.api.CreatePage(ctx, gnt.CreatePageParams{
			ParentType:             gnt.ParentTypeDatabase,
			ParentID:               c.databaseID,
			DatabasePageProperties: &props,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("notion: create page for %s: %w", r.ID, err))
		}
	}
	return errors.Join(errs...)
}

func richText(s string) []gnt.RichText {
	if s == "" {
		return nil
	}
	return []gnt.RichText{
		{Text: &gnt.Text{Content: s}},
	}
}

func buildProperties(r core.DataRecord) gnt.DatabasePageProperties {
	sponsor := r.VisaSponsorship
	props := gnt.DatabasePageProperties{
		"Company": gnt.DatabasePageProperty{
			Title: richText(r.Company),
		},
		"Role": gnt.DatabasePageProperty{
			RichText: richText(r.Role),
		},
		"Status": gnt.DatabasePageProperty{
			Select: &gnt.SelectOptions{Name: string(r.Status)},
		},
		"Visa Sponsorship": gnt.DatabasePageProperty{
			Checkbox: &sponsor,
		},
	}

	if t, err := time.Parse(time.DateOnly, r.DateApplied); err == nil {
		props["Date Applied"] = gnt.DatabasePageProperty{
			Date: &gnt.Date{Start: gnt.NewDateTime(t, false)},
		}
	}
	if r.Notes != "" {
		props["Notes"] = gnt.DatabasePageProperty{
			RichText: richText(r.Notes),
		}
	}
	if r.ResumeURL != "" {
		url := r.ResumeURL
		props["Resume"] = gnt.DatabasePageProperty{
			URL: &url,
		}
	}
	return props
}
