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

package v1

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	ctrl "sigs.k8s.io/controller-runtime"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"github.com/sbahar619/namespace-project-operator/internal/monitoring"
	"github.com/sbahar619/namespace-project-operator/internal/projects"
)

// log is for logging in this package.
var namespaceprojectlog = logf.Log.WithName("namespace-project-webhook")

// MutatePath is the path the mutating webhook is served on.
const MutatePath = "/mutate--v1-namespace"

var errNoPolicy = errors.New("project policy is not configured")

// SetupNamespaceProjectWebhookWithManager registers the namespace mutating webhook in the manager.
func SetupNamespaceProjectWebhookWithManager(mgr ctrl.Manager, policy *projects.Policy) error {
	if policy == nil {
		return errNoPolicy
	}
	mgr.GetWebhookServer().Register(MutatePath, &webhook.Admission{
		Handler: &NamespaceProjectMutator{Policy: policy},
	})
	namespaceprojectlog.Info("registered namespace project webhook", "path", MutatePath, "rules", policy.Len())
	return nil
}

// The webhook never denies, so failurePolicy=ignore keeps namespace creation
// available while the operator is down.
// +kubebuilder:webhook:path=/mutate--v1-namespace,mutating=true,failurePolicy=ignore,sideEffects=None,groups="",resources=namespaces,verbs=create;update,versions=v1,name=mnamespace-project.kb.io,admissionReviewVersions=v1

// NamespaceProjectMutator injects the project id annotation and label into
// namespaces whose name matches a project rule. It only ever allows requests,
// either unchanged or with a patch.
type NamespaceProjectMutator struct {
	Policy *projects.Policy
}

var _ admission.Handler = &NamespaceProjectMutator{}

// Handle implements admission.Handler.
func (m *NamespaceProjectMutator) Handle(ctx context.Context, req admission.Request) admission.Response {
	start := time.Now()
	operation := string(req.Operation)
	l := logf.FromContext(ctx).WithValues("uid", req.UID, "name", req.Name, "operation", operation)
	_, span := monitoring.StartAdmissionSpan(ctx, operation, req.Name)

	resp, outcome := m.mutate(l, req)
	monitoring.EndSpan(span, outcome, nil)
	monitoring.RecordAdmission(operation, outcome, time.Since(start))
	return resp
}

func (m *NamespaceProjectMutator) mutate(l logr.Logger, req admission.Request) (admission.Response, string) {
	if m.Policy == nil {
		l.Error(errNoPolicy, "accepting namespace unchanged")
		return admission.Allowed(""), monitoring.OutcomeError
	}

	obj, ns, err := decodeNamespace(req.Object.Raw)
	if err != nil {
		// Anything we cannot read as a Namespace is let through untouched.
		l.V(1).Info("accepting object that is not a namespace", "reason", err.Error())
		return admission.Allowed(""), monitoring.OutcomeSkipped
	}

	result := m.Policy.Evaluate(l, projects.ViewOf(ns))
	if !result.Mutated {
		return admission.Allowed(""), monitoring.OutcomeUnchanged
	}

	result.ApplyTo(obj)
	mutated, err := obj.MarshalJSON()
	if err != nil {
		l.Error(err, "failed to encode mutated namespace, accepting unchanged")
		return admission.Allowed(""), monitoring.OutcomeError
	}

	resp := admission.PatchResponseFromRaw(req.Object.Raw, mutated)
	if !resp.Allowed {
		patchErr := errors.New("patch computation failed")
		if resp.Result != nil {
			patchErr = errors.New(resp.Result.Message)
		}
		l.Error(patchErr, "failed to compute namespace patch, accepting unchanged")
		return admission.Allowed(""), monitoring.OutcomeError
	}
	if len(resp.Patches) == 0 {
		return resp, monitoring.OutcomeUnchanged
	}

	l.Info("assigning namespace to project", "namespace", ns.Name, "project", result.Project, "rule", result.RuleIndex)
	return resp, monitoring.OutcomeMutated
}
