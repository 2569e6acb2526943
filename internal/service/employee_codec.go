package service

import (
	"fmt"
	"time"

	"github.com/corpdesk/employee-portal/internal/docstore"
	"github.com/corpdesk/employee-portal/internal/domain"
)

// Employee document field names.
const (
	fieldUID       = "uid"
	fieldName      = "name"
	fieldEmail     = "email"
	fieldEmpID     = "empID"
	fieldCreatedAt = "createdAt"
)

func employeeToDocument(e *domain.Employee) docstore.Document {
	return docstore.Document{
		fieldUID:       e.UID,
		fieldName:      e.Name,
		fieldEmail:     e.Email,
		fieldEmpID:     e.EmpID,
		fieldCreatedAt: e.CreatedAt.UTC(),
	}
}

func employeeFromDocument(key string, doc docstore.Document) (*domain.Employee, error) {
	e := &domain.Employee{
		UID:   stringField(doc, fieldUID),
		Name:  stringField(doc, fieldName),
		Email: stringField(doc, fieldEmail),
		EmpID: stringField(doc, fieldEmpID),
	}
	if e.UID == "" {
		e.UID = key
	}
	if e.UID == "" {
		return nil, fmt.Errorf("employee document without uid")
	}

	switch v := doc[fieldCreatedAt].(type) {
	case time.Time:
		e.CreatedAt = v.UTC()
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("employee %s: createdAt: %w", e.UID, err)
		}
		e.CreatedAt = parsed.UTC()
	case nil:
	default:
		return nil, fmt.Errorf("employee %s: createdAt has type %T", e.UID, v)
	}
	return e, nil
}

func stringField(doc docstore.Document, field string) string {
	if v, ok := doc[field].(string); ok {
		return v
	}
	return ""
}
