package entity

import (
	"encoding/json"
	"fmt"
	"strings"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/id"
)

// DocumentKind identifies the document type a movement or ledger entry points at.
type DocumentKind string

const (
	KindSalesInvoice         DocumentKind = "SALES_INVOICE"
	KindRentalContract       DocumentKind = "RENTAL_CONTRACT"
	KindRentalContractReturn DocumentKind = "RENTAL_CONTRACT_RETURN"
	KindRentalBill           DocumentKind = "RENTAL_BILL"
	KindAdjustment           DocumentKind = "ADJUSTMENT"
	KindTransfer             DocumentKind = "TRANSFER"
	KindWriteOff             DocumentKind = "WRITE_OFF"
	KindPurchaseBill         DocumentKind = "PURCHASE_BILL"
)

var documentKinds = []DocumentKind{
	KindSalesInvoice,
	KindRentalContract,
	KindRentalContractReturn,
	KindRentalBill,
	KindAdjustment,
	KindTransfer,
	KindWriteOff,
	KindPurchaseBill,
}

// DocumentKinds returns every known kind.
func DocumentKinds() []DocumentKind {
	out := make([]DocumentKind, len(documentKinds))
	copy(out, documentKinds)
	return out
}

// Valid reports whether k is a known kind.
func (k DocumentKind) Valid() bool {
	for _, known := range documentKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Reference is a typed pointer from a movement or ledger entry to the document
// that caused it. The zero value means "no document".
type Reference struct {
	Kind DocumentKind `json:"kind"`
	ID   id.ID        `json:"id"`
}

// NewReference builds a reference to a document.
func NewReference(kind DocumentKind, docID id.ID) Reference {
	return Reference{Kind: kind, ID: docID}
}

// ParseReference builds a reference from its wire form. Both parts empty yields the zero value.
func ParseReference(kind, rawID string) (Reference, error) {
	kind = strings.TrimSpace(kind)
	rawID = strings.TrimSpace(rawID)
	if kind == "" && rawID == "" {
		return Reference{}, nil
	}
	k := DocumentKind(strings.ToUpper(kind))
	if !k.Valid() {
		return Reference{}, apperror.NewValidation("unknown reference type").
			WithDetail("field", "referenceType").
			WithDetail("value", kind)
	}
	docID, err := id.Parse(rawID)
	if err != nil {
		return Reference{}, apperror.NewValidation("invalid reference id").
			WithDetail("field", "referenceId").
			WithCause(err)
	}
	return NewReference(k, docID), nil
}

// IsZero reports whether the reference points nowhere.
func (r Reference) IsZero() bool {
	return r.Kind == "" && id.IsNil(r.ID)
}

// Validate checks that a non-zero reference is complete and of a known kind.
func (r Reference) Validate() error {
	if r.IsZero() {
		return nil
	}
	if !r.Kind.Valid() {
		return apperror.NewValidation("unknown reference type").
			WithDetail("value", string(r.Kind))
	}
	if id.IsNil(r.ID) {
		return apperror.NewValidation("reference id is required").
			WithDetail("referenceType", string(r.Kind))
	}
	return nil
}

func (r Reference) String() string {
	if r.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// Columns returns the nullable (reference_type, reference_id) pair used in storage.
func (r Reference) Columns() (*string, *id.ID) {
	if r.IsZero() {
		return nil, nil
	}
	kind := string(r.Kind)
	docID := r.ID
	return &kind, &docID
}

// ReferenceFromColumns is the inverse of Columns.
func ReferenceFromColumns(kind *string, docID *id.ID) Reference {
	if kind == nil || docID == nil {
		return Reference{}
	}
	return NewReference(DocumentKind(*kind), *docID)
}

// MarshalJSON renders the zero reference as null.
func (r Reference) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	type plain Reference
	return json.Marshal(plain(r))
}

// UnmarshalJSON accepts null or {"kind": ..., "id": ...}.
func (r *Reference) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reference{}
		return nil
	}
	type plain Reference
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Reference(p)
	return nil
}
