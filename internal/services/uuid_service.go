package services

import (
	"fmt"

	"hostkit/internal/testutils"
)

// UUIDService generates identifiers in the braced host form.
type UUIDService struct {
	testMode bool
}

// NewUUIDService creates the uuid-generator component. In test mode the
// identifiers are deterministic.
func NewUUIDService(testMode bool) *UUIDService {
	return &UUIDService{testMode: testMode}
}

// Name returns the service name "uuid-generator" for registration.
func (u *UUIDService) Name() string {
	return "uuid-generator"
}

// Initialize is a no-op.
func (u *UUIDService) Initialize() error {
	return nil
}

// GenerateUUID returns a new identifier such as "{0a1b...}".
func (u *UUIDService) GenerateUUID() (string, error) {
	return fmt.Sprintf("{%s}", testutils.GenerateUUID(u.testMode)), nil
}
