package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrBadPayload marks a message that can never be processed successfully,
// no matter how often it is redelivered. Handlers wrap their permanent
// failures with it; the consumer drops such deliveries instead of
// requeueing them.
var ErrBadPayload = errors.New("bad payload")

// ReceiptScanMessage asks the external extraction service to process an
// uploaded receipt image. The image itself stays on shared storage; only
// the reference travels on the queue.
type ReceiptScanMessage struct {
	ImagePath  string    `json:"image_path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func NewReceiptScanMessage(imagePath string) *ReceiptScanMessage {
	return &ReceiptScanMessage{
		ImagePath:  imagePath,
		UploadedAt: time.Now(),
	}
}

func (m *ReceiptScanMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptScanMessageFromJSON(data []byte) (*ReceiptScanMessage, error) {
	var msg ReceiptScanMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ExtractedItem is one line the extraction service read off a receipt.
// Prices are decimal strings exactly as printed ("4,59"); the worker parses
// and recomputes totals, it never trusts them.
type ExtractedItem struct {
	ProductName string  `json:"productName"`
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   string  `json:"unitPrice"`
}

// ReceiptExtractedMessage is the result the extraction service publishes
// once a scan finished.
type ReceiptExtractedMessage struct {
	SupermarketName string          `json:"supermarketName"`
	Date            string          `json:"date"` // YYYY-MM-DD
	Items           []ExtractedItem `json:"items"`
	Timestamp       time.Time       `json:"timestamp"`
}

func (m *ReceiptExtractedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptExtractedMessageFromJSON(data []byte) (*ReceiptExtractedMessage, error) {
	var msg ReceiptExtractedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
