package service

import (
	"strings"

	"github.com/google/uuid"
)

// Reference returns prefix followed by eight uppercase hex digits, e.g.
// TKT-3F2A9C1B.
func Reference(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
