package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ImportUserType identifies which kind of profile a bulk import creates.
type ImportUserType string

const (
	ImportUserTypeStudent      ImportUserType = "student"
	ImportUserTypeTeacher      ImportUserType = "teacher"
	ImportUserTypeAdminStaff   ImportUserType = "admin-staff"
	ImportUserTypeSupportStaff ImportUserType = "support-staff"
)

// ImportStatus summarises a completed import run.
type ImportStatus string

const (
	ImportStatusSuccess ImportStatus = "success"
	ImportStatusPartial ImportStatus = "partial"
	ImportStatusFailed  ImportStatus = "failed"
)

// ImportRowError records a single failed row of an import file. Row numbers
// are 1-indexed and include the header row offset.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportRowErrors is the JSONB-persisted error list of an import run.
type ImportRowErrors []ImportRowError

// Value implements driver.Valuer.
func (e ImportRowErrors) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal import errors: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (e *ImportRowErrors) Scan(src interface{}) error {
	if src == nil {
		*e = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported import errors type %T", src)
	}
	return json.Unmarshal(raw, e)
}

// ImportResult aggregates the per-row outcome of a single import run.
// Invariant: SuccessCount + ErrorCount == TotalRecords.
type ImportResult struct {
	TotalRecords int             `json:"total_records"`
	SuccessCount int             `json:"success_count"`
	ErrorCount   int             `json:"error_count"`
	Errors       ImportRowErrors `json:"errors"`
}

// Status derives the import status from the aggregate counts.
func (r ImportResult) Status() ImportStatus {
	switch {
	case r.ErrorCount == 0:
		return ImportStatusSuccess
	case r.SuccessCount == 0:
		return ImportStatusFailed
	default:
		return ImportStatusPartial
	}
}

// ImportHistory is the immutable audit record persisted once per import run.
type ImportHistory struct {
	ID               string          `db:"id" json:"id"`
	UserType         ImportUserType  `db:"user_type" json:"user_type"`
	Filename         string          `db:"filename" json:"filename"`
	OriginalFilename string          `db:"original_filename" json:"original_filename"`
	UploadedBy       string          `db:"uploaded_by" json:"uploaded_by"`
	Status           ImportStatus    `db:"status" json:"status"`
	TotalRecords     int             `db:"total_records" json:"total_records"`
	SuccessCount     int             `db:"success_count" json:"success_count"`
	ErrorCount       int             `db:"error_count" json:"error_count"`
	Errors           ImportRowErrors `db:"errors" json:"errors"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// ImportHistoryFilter captures filtering options for listing import runs.
type ImportHistoryFilter struct {
	UserType ImportUserType
	Page     int
	PageSize int
}
