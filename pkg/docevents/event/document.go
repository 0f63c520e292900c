package event

import "github.com/google/uuid"

// DocumentID identifies one open document instance for the lifetime of the
// process. The zero value is the absent identity.
type DocumentID struct {
	token uuid.UUID
}

// NewDocumentID mints a fresh document identity.
func NewDocumentID() DocumentID {
	return DocumentID{token: uuid.New()}
}

// ParseDocumentID parses the string form produced by DocumentID.String.
func ParseDocumentID(s string) (DocumentID, error) {
	token, err := uuid.Parse(s)
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID{token: token}, nil
}

// IsZero reports whether the identity is absent.
func (id DocumentID) IsZero() bool {
	return id.token == uuid.Nil
}

// String returns the canonical string form, or "" for the absent identity.
func (id DocumentID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.token.String()
}
