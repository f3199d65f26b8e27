package cypher

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxStatementLength is the maximum statement size the client will send (64KB).
	// Generated bulk statements are small; data travels in parameters, so a
	// statement anywhere near this limit indicates a builder bug or an attempt
	// to inline data into query text.
	MaxStatementLength = 65536
)

// ValidateStatement checks a statement before it is handed to a transport.
// It rejects empty or oversized statements and statements containing a null
// byte, which some servers accept and then truncate silently.
func ValidateStatement(statement string) error {
	if strings.TrimSpace(statement) == "" {
		return errors.New("statement cannot be empty")
	}
	if len(statement) > MaxStatementLength {
		return fmt.Errorf("statement too long: maximum %d characters allowed, got %d", MaxStatementLength, len(statement))
	}
	if strings.ContainsRune(statement, '\x00') {
		return errors.New("statement contains null byte")
	}
	return nil
}
