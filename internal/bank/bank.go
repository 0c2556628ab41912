package bank

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrGeneration is returned when the bank file could not be produced.
// The batch stays in draft and the call can be retried.
var ErrGeneration = errors.New("the bank file could not be generated, the batch remains in draft and the call can be retried")

// PaymentRow is one payment line handed to the file generator. The
// binary layout of the bank file itself is owned by the generator.
type PaymentRow struct {
	PaymentID uuid.UUID       `json:"paymentId"`
	Payee     string          `json:"payee"`
	IBAN      string          `json:"iban"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// Snapshot is the immutable view of a payment batch handed to the
// generator. It is assembled once, before the generator is called, so
// later batch mutations cannot change a file that is being written.
type Snapshot struct {
	BatchID  uuid.UUID    `json:"batchId"`
	BankName string       `json:"bankName"`
	Payments []PaymentRow `json:"payments"`
}

// File is the handle for a generated bank file.
type File struct {
	Path string `json:"path"`
}

// Generator produces a bank file from a batch snapshot. Generation can
// be slow (file composition at the bank gateway), callers must not
// hold any budget lock while waiting. There is no partial output: the
// generator either returns a file handle or an error.
type Generator interface {
	Generate(ctx context.Context, snapshot Snapshot) (File, error)
}

// Default is the generator used by the controllers, wired at startup.
var Default Generator = NewSpoolGenerator("data/bank-spool")
