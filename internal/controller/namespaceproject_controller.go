/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package controller

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/sbahar619/namespace-project-operator/internal/monitoring"
	"github.com/sbahar619/namespace-project-operator/internal/projects"
)

// RBAC: read and patch Namespaces, emit events.
// +kubebuilder:rbac:groups="",resources=namespaces,verbs=get;list;watch;patch
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch

// NamespaceProjectReconciler assigns existing namespaces to projects using
// the same rules as the admission webhook.
type NamespaceProjectReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
	Policy   *projects.Policy

	// ExcludedNamespaces are glob patterns of namespaces that are never touched.
	ExcludedNamespaces []string
	ConflictMode       ConflictMode
}

func (r *NamespaceProjectReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	ctx, span := monitoring.StartReconcileSpan(ctx, req.Name)
	outcome, err := r.reconcile(ctx, req)
	monitoring.EndSpan(span, outcome, err)
	if outcome != "" {
		monitoring.RecordBackfill(outcome)
	}
	return ctrl.Result{}, err
}

// reconcile returns the backfill outcome, or "" when the namespace is gone.
func (r *NamespaceProjectReconciler) reconcile(ctx context.Context, req ctrl.Request) (string, error) {
	l := log.FromContext(ctx)

	var ns corev1.Namespace
	if err := r.Get(ctx, req.NamespacedName, &ns); err != nil {
		if client.IgnoreNotFound(err) != nil {
			return monitoring.OutcomeError, err
		}
		return "", nil
	}

	// Nothing to assign on a namespace that is going away.
	if ns.DeletionTimestamp != nil {
		return monitoring.OutcomeSkipped, nil
	}

	if isNamespaceExcluded(ns.Name, r.ExcludedNamespaces) {
		l.V(1).Info("namespace is excluded from project backfill")
		return monitoring.OutcomeSkipped, nil
	}

	result := r.Policy.Evaluate(l, projects.ViewOf(&ns))
	if !result.Mutated {
		return monitoring.OutcomeUnchanged, nil
	}

	current := currentProject(&ns)
	conflict := resolveConflict(ns.Name, current, result.Project, r.ConflictMode)
	if !conflict.Apply {
		l.Info("namespace belongs to another project, leaving it unchanged",
			"currentProject", current, "desiredProject", result.Project, "mode", r.ConflictMode)
		if r.ConflictMode == ConflictModeWarn {
			r.event(&ns, corev1.EventTypeWarning, ReasonProjectConflict, conflict.Message)
		}
		return monitoring.OutcomeConflict, nil
	}

	changed, err := r.applyProjectToNamespace(ctx, &ns, result)
	if err != nil {
		return monitoring.OutcomeError, err
	}
	if !changed {
		return monitoring.OutcomeUnchanged, nil
	}

	if conflict.Conflict {
		r.event(&ns, corev1.EventTypeNormal, ReasonProjectReassigned, conflict.Message)
	} else {
		r.event(&ns, corev1.EventTypeNormal, ReasonProjectAssigned,
			fmt.Sprintf("Namespace assigned to project '%s'", result.Project))
	}
	l.Info("namespace assigned to project", "project", result.Project, "rule", result.RuleIndex, "previousProject", current)
	return monitoring.OutcomeMutated, nil
}

func (r *NamespaceProjectReconciler) SetupWithManager(mgr ctrl.Manager) error {
	if r.Policy == nil {
		return fmt.Errorf("project policy is required")
	}
	if err := ValidateExcludePatterns(r.ExcludedNamespaces); err != nil {
		return err
	}
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1.Namespace{}).
		Named("namespaceproject").
		Complete(r)
}
