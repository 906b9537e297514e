package controller

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"

	"github.com/sbahar619/namespace-project-operator/internal/projects"
)

// ParseConflictMode validates a conflict mode given on the command line.
func ParseConflictMode(s string) (ConflictMode, error) {
	switch mode := ConflictMode(s); mode {
	case ConflictModeOverwrite, ConflictModeWarn, ConflictModeSkip:
		return mode, nil
	case "":
		return ConflictModeOverwrite, nil
	default:
		return "", fmt.Errorf("invalid conflict mode '%s': must be one of 'overwrite', 'warn', or 'skip'", s)
	}
}

// currentProject returns the project the namespace is labelled with, if any.
func currentProject(ns *corev1.Namespace) string {
	if ns.Labels == nil {
		return ""
	}
	return ns.Labels[projects.ProjectIDKey]
}
