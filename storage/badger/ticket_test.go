package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/crestdesk/crestdesk/core"
	"github.com/crestdesk/crestdesk/storage"
)

func TestTicketBasics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ticket, err := store.Tickets.CreateTicket(ctx, &core.Ticket{
		TenantID:    "acme",
		Title:       "Cannot log in",
		Description: "Password reset email never arrives.",
		RequesterID: "cust-1",
	})
	if err != nil {
		t.Fatalf("Failed to create ticket: %v", err)
	}
	if ticket.ID == "" {
		t.Fatal("Expected a generated ID")
	}
	if ticket.Status != core.TicketOpen {
		t.Fatalf("Expected default status OPEN, got %q", ticket.Status)
	}
	if ticket.Priority != core.PriorityMedium {
		t.Fatalf("Expected default priority MEDIUM, got %q", ticket.Priority)
	}

	retrieved, err := store.Tickets.GetTicket(ctx, "acme", ticket.ID)
	if err != nil {
		t.Fatalf("Failed to get ticket: %v", err)
	}
	if retrieved.Title != "Cannot log in" {
		t.Fatalf("Expected title preserved, got %q", retrieved.Title)
	}

	if _, err := store.Tickets.GetTicket(ctx, "globex", ticket.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for another tenant, got %v", err)
	}
}

func TestCreateTicket_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Tickets.CreateTicket(ctx, &core.Ticket{Title: "no tenant"}); !errors.Is(err, core.ErrEmptyTenant) {
		t.Fatalf("Expected ErrEmptyTenant, got %v", err)
	}

	ticket := &core.Ticket{ID: "tkt-1", TenantID: "acme", Title: "first"}
	if _, err := store.Tickets.CreateTicket(ctx, ticket); err != nil {
		t.Fatalf("Failed to create ticket: %v", err)
	}
	dup := &core.Ticket{ID: "tkt-1", TenantID: "acme", Title: "second"}
	if _, err := store.Tickets.CreateTicket(ctx, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestComments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ticket, err := store.Tickets.CreateTicket(ctx, &core.Ticket{
		TenantID: "acme",
		Title:    "Cannot log in",
	})
	if err != nil {
		t.Fatalf("Failed to create ticket: %v", err)
	}

	// Insert out of chronological order; listing must sort by time.
	now := time.Now().UTC().Truncate(time.Microsecond)
	for i, offset := range []time.Duration{-1 * time.Hour, -3 * time.Hour, -2 * time.Hour} {
		_, err := store.Tickets.AddComment(ctx, &core.Comment{
			TenantID:  "acme",
			TicketID:  ticket.ID,
			AuthorID:  "cust-1",
			Body:      fmt.Sprintf("comment %d", i),
			CreatedAt: now.Add(offset),
		})
		if err != nil {
			t.Fatalf("Failed to add comment: %v", err)
		}
	}

	comments, err := store.Tickets.ListComments(ctx, "acme", ticket.ID)
	if err != nil {
		t.Fatalf("Failed to list comments: %v", err)
	}
	if len(comments) != 3 {
		t.Fatalf("Expected 3 comments, got %d", len(comments))
	}
	for i := 1; i < len(comments); i++ {
		if comments[i].CreatedAt.Before(comments[i-1].CreatedAt) {
			t.Fatal("Expected comments in chronological order")
		}
	}

	_, err = store.Tickets.AddComment(ctx, &core.Comment{
		TenantID: "acme",
		TicketID: "missing",
		AuthorID: "cust-1",
		Body:     "orphan",
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing ticket, got %v", err)
	}
}
