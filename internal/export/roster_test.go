package export

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpdesk/employee-portal/internal/domain"
)

var sampleEmployees = []domain.Employee{
	{UID: "u2", Name: "Bea, Jr.", Email: "bea@x.com", EmpID: "E200", CreatedAt: time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)},
	{UID: "u1", Name: "Ana", Email: "ana@x.com", EmpID: "E100"},
}

func TestWriteRosterCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRosterCSV(&buf, sampleEmployees))

	want := "EMP_ID,NAME,EMAIL,UID,CREATED_AT\r\n" +
		"E100,Ana,ana@x.com,u1,\r\n" +
		"E200,\"Bea, Jr.\",bea@x.com,u2,2024-05-02T08:00:00Z\r\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, "E200", sampleEmployees[0].EmpID, "input order must not change")
}

func TestWriteRosterCompressed(t *testing.T) {
	var plain, compressed bytes.Buffer
	require.NoError(t, WriteRoster(&plain, sampleEmployees, Options{}))
	require.NoError(t, WriteRoster(&compressed, sampleEmployees, Options{Compress: true}))

	decoded, err := io.ReadAll(brotli.NewReader(&compressed))
	require.NoError(t, err)
	assert.Equal(t, plain.String(), string(decoded))
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, "employee-roster-20240502-083000.csv", FileName(at, Options{}))
	assert.Equal(t, "employee-roster-20240502-083000.csv.br", FileName(at, Options{Compress: true}))
}
