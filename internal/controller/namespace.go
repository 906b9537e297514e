package controller

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/sbahar619/namespace-project-operator/internal/projects"
)

// applyProjectToNamespace writes the mutated metadata onto the namespace and
// patches it. It reports whether anything had to change.
func (r *NamespaceProjectReconciler) applyProjectToNamespace(ctx context.Context, ns *corev1.Namespace, result projects.MutationResult) (bool, error) {
	base := ns.DeepCopy()
	if !result.ApplyTo(ns) {
		return false, nil
	}

	if err := r.Patch(ctx, ns, client.MergeFrom(base)); err != nil {
		return false, fmt.Errorf("failed to patch namespace %s: %w", ns.Name, err)
	}
	return true, nil
}

// event records an event on the namespace when a recorder is configured.
func (r *NamespaceProjectReconciler) event(ns *corev1.Namespace, eventType, reason, msg string) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.Event(ns, eventType, reason, msg)
}
