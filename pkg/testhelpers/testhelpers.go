// Package testhelpers contains assertions and fixtures shared by the tests of this module.
package testhelpers

import (
	"testing"

	"github.com/neurelo-connect/neurelo-connect-mcp/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestSetup holds a test database and the function that releases it.
type TestSetup struct {
	DB      *gorm.DB
	Cleanup func()
}

// CreateTestDB opens a migrated in-memory journal database.
func CreateTestDB() (*gorm.DB, error) {
	return db.Open(":memory:")
}

// SetupTestDB creates a test database, failing the test if that is not possible.
func SetupTestDB(t *testing.T) *TestSetup {
	t.Helper()
	conn, err := CreateTestDB()
	require.NoError(t, err, "failed to create test database")
	return &TestSetup{
		DB: conn,
		Cleanup: func() {
			if sqlDB, err := conn.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}
}

// AssertNoError fails the test immediately if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	assert.Error(t, err)
}

// AssertEqual fails the test if expected and actual are not equal.
func AssertEqual(t *testing.T, expected, actual any) {
	t.Helper()
	assert.Equal(t, expected, actual)
}

// AssertNotNil fails the test if v is nil.
func AssertNotNil(t *testing.T, v any) {
	t.Helper()
	assert.NotNil(t, v)
}

// AssertTrue fails the test if cond is false.
func AssertTrue(t *testing.T, cond bool, msg string) {
	t.Helper()
	assert.True(t, cond, msg)
}

// CommandAnnotationTest is one expected annotation of a cobra command.
type CommandAnnotationTest struct {
	Key      string
	Expected string
}

// TestCommandAnnotations checks that a command carries the expected annotations.
func TestCommandAnnotations(t *testing.T, annotations map[string]string, tests []CommandAnnotationTest) {
	t.Helper()
	for _, tt := range tests {
		got, ok := annotations[tt.Key]
		if !ok {
			t.Errorf("missing annotation %q", tt.Key)
			continue
		}
		if got != tt.Expected {
			t.Errorf("annotation %q = %q, want %q", tt.Key, got, tt.Expected)
		}
	}
}
