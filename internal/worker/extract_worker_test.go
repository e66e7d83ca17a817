package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"marketlens/internal/amqp"
	"marketlens/internal/core"
	"marketlens/internal/memory"
)

type failingStore struct {
	err error
}

func (f *failingStore) CreateReceipt(context.Context, core.Receipt) (core.Receipt, error) {
	return core.Receipt{}, f.err
}

func extractedMessage() *amqp.ReceiptExtractedMessage {
	return &amqp.ReceiptExtractedMessage{
		SupermarketName: "Carrefour",
		Date:            "2024-01-15",
		Items: []amqp.ExtractedItem{
			{ProductName: "Leite Integral Italac", Category: "LATICINIOS", SubCategory: "LEITE", Quantity: 2, Unit: "UN", UnitPrice: "4,59"},
			{ProductName: "Feijao Carioca", Category: "MERCEARIA", SubCategory: "FEIJAO", Quantity: 1, Unit: "KG", UnitPrice: "8.99"},
		},
		Timestamp: time.Now(),
	}
}

func TestHandleExtractedMessageStoresReceipt(t *testing.T) {
	store := memory.New()
	w := NewExtractWorker(store)

	if err := w.HandleExtractedMessage(context.Background(), extractedMessage()); err != nil {
		t.Fatal(err)
	}

	receipts, err := store.ListReceipts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(receipts))
	}
	r := receipts[0]
	if r.Items[0].UnitPrice.Cents != 459 {
		t.Fatalf("comma decimal not parsed: %+v", r.Items[0])
	}
	if r.Items[0].TotalPrice.Cents != 918 {
		t.Fatalf("line total not recomputed: %+v", r.Items[0])
	}
	if r.TotalAmount.Cents != 918+899 {
		t.Fatalf("receipt total not recomputed: %+v", r)
	}
	if r.Date.Format("2006-01-02") != "2024-01-15" {
		t.Fatalf("date mangled: %v", r.Date)
	}
}

func TestReceiptFromMessageBadPrice(t *testing.T) {
	msg := extractedMessage()
	msg.Items[0].UnitPrice = "quatro reais"
	if _, err := ReceiptFromMessage(msg); err == nil || !strings.Contains(err.Error(), "unit price") {
		t.Fatalf("expected unit price error, got %v", err)
	}
}

func TestReceiptFromMessageBadDate(t *testing.T) {
	msg := extractedMessage()
	msg.Date = "15/01/2024"
	if _, err := ReceiptFromMessage(msg); err == nil {
		t.Fatal("expected date parse error")
	}
}

func TestHandleExtractedMessageRejectsInvalidReceipt(t *testing.T) {
	msg := extractedMessage()
	msg.SupermarketName = "  "
	w := NewExtractWorker(memory.New())
	err := w.HandleExtractedMessage(context.Background(), msg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, amqp.ErrBadPayload) {
		t.Fatalf("validation failure must be permanent, got %v", err)
	}
}

// A message that fails conversion fails it on every redelivery, so the
// error must be marked permanent or the queue loops on it forever.
func TestHandleExtractedMessagePermanentVsTransient(t *testing.T) {
	ctx := context.Background()

	badDate := extractedMessage()
	badDate.Date = "15/01/2024"
	badPrice := extractedMessage()
	badPrice.Items[0].UnitPrice = "quatro reais"

	w := NewExtractWorker(memory.New())
	for name, msg := range map[string]*amqp.ReceiptExtractedMessage{
		"bad date":  badDate,
		"bad price": badPrice,
	} {
		err := w.HandleExtractedMessage(ctx, msg)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !errors.Is(err, amqp.ErrBadPayload) {
			t.Fatalf("%s: conversion failure must be permanent, got %v", name, err)
		}
	}

	down := NewExtractWorker(&failingStore{err: errors.New("database locked")})
	err := down.HandleExtractedMessage(ctx, extractedMessage())
	if err == nil {
		t.Fatal("expected store error")
	}
	if errors.Is(err, amqp.ErrBadPayload) {
		t.Fatalf("store failure must stay transient (requeued), got %v", err)
	}
}
