package enums

import "fmt"

// DocumentStatus tracks a generated instrument through assembly and upload.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusGenerated  DocumentStatus = "generated"
	DocumentStatusSuperseded DocumentStatus = "superseded"
	DocumentStatusFailed     DocumentStatus = "failed"
)

var validDocumentStatuses = []DocumentStatus{
	DocumentStatusPending,
	DocumentStatusGenerated,
	DocumentStatusSuperseded,
	DocumentStatusFailed,
}

func (s DocumentStatus) String() string {
	return string(s)
}

func (s DocumentStatus) IsValid() bool {
	for _, candidate := range validDocumentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseDocumentStatus(value string) (DocumentStatus, error) {
	for _, candidate := range validDocumentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document status %q", value)
}
