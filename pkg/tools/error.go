package tools

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ErrorWithPrintContext runs a close function and logs the failure instead of
// returning it. Meant for deferred session/stream cleanup.
func ErrorWithPrintContext(closeFunc func() error, format string, args ...interface{}) {
	if err := closeFunc(); err != nil {
		context := fmt.Sprintf(format, args...)
		log.Printf("Error closing resource: %s, error: %v", context, err)
	}
}
