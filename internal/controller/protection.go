package controller

import (
	"fmt"
	"path/filepath"
)

// isNamespaceExcluded checks if a namespace name matches any of the exclusion patterns
func isNamespaceExcluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		// Malformed patterns are rejected at startup by ValidateExcludePatterns.
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

// ValidateExcludePatterns validates that exclusion patterns are valid glob patterns
func ValidateExcludePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if pattern == "" {
			return fmt.Errorf("exclusion pattern cannot be empty")
		}

		if _, err := filepath.Match(pattern, "kube-system"); err != nil {
			return fmt.Errorf("invalid exclusion pattern '%s': %w", pattern, err)
		}
	}
	return nil
}

// resolveConflict decides whether the desired project may be written over
// the project the namespace currently carries.
func resolveConflict(namespace, current, desired string, mode ConflictMode) ConflictResult {
	if current == "" || current == desired {
		return ConflictResult{Apply: true}
	}

	msg := fmt.Sprintf("Namespace '%s' is assigned to project '%s' but its name maps to project '%s'",
		namespace, current, desired)

	switch mode {
	case ConflictModeWarn, ConflictModeSkip:
		return ConflictResult{Conflict: true, Message: msg}
	default: // ConflictModeOverwrite
		return ConflictResult{Apply: true, Conflict: true, Message: msg}
	}
}
