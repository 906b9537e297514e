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

package projects

import (
	"fmt"

	"github.com/go-logr/logr"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ProjectIDKey is the annotation and label key that links a namespace to a project.
const ProjectIDKey = "field.cattle.io/projectId"

// Rule maps namespaces whose name matches Pattern to Project.
type Rule struct {
	Kind    MatchKind
	Pattern string
	Project string
}

// PolicyConfig is an ordered rule list for one cluster. The first matching rule wins.
type PolicyConfig struct {
	ClusterName string
	Rules       []Rule
}

// NamespaceView is the part of a namespace the engine looks at.
type NamespaceView struct {
	Name        string
	Annotations map[string]string
	Labels      map[string]string
}

// ViewOf projects obj into a NamespaceView. Works for typed and unstructured objects.
func ViewOf(obj metav1.Object) NamespaceView {
	return NamespaceView{
		Name:        obj.GetName(),
		Annotations: obj.GetAnnotations(),
		Labels:      obj.GetLabels(),
	}
}

// MutationResult is the outcome of an evaluation. The zero value means unchanged.
type MutationResult struct {
	Mutated     bool
	Annotations map[string]string
	Labels      map[string]string
	// RuleIndex and Project identify the rule that matched.
	RuleIndex int
	Project   string
}

// ApplyTo replaces the annotations and labels of obj with the mutated
// snapshots and reports whether the project id changed.
func (r MutationResult) ApplyTo(obj metav1.Object) bool {
	if !r.Mutated {
		return false
	}
	changed := obj.GetAnnotations()[ProjectIDKey] != r.Annotations[ProjectIDKey] ||
		obj.GetLabels()[ProjectIDKey] != r.Labels[ProjectIDKey]
	obj.SetAnnotations(copyMap(r.Annotations))
	obj.SetLabels(copyMap(r.Labels))
	return changed
}

// AnnotationValue formats the project id annotation value.
func AnnotationValue(clusterName, project string) string {
	return fmt.Sprintf("%s:%s", clusterName, project)
}

type compiledRule struct {
	Rule
	matcher matcher
}

// Policy is a compiled PolicyConfig. It is immutable and safe for concurrent use.
type Policy struct {
	clusterName string
	rules       []compiledRule
}

// Compile prepares every rule of cfg. The first regex pattern that fails to
// compile is reported as an *InvalidPatternError and no Policy is returned.
func Compile(cfg PolicyConfig) (*Policy, error) {
	p := &Policy{
		clusterName: cfg.ClusterName,
		rules:       make([]compiledRule, 0, len(cfg.Rules)),
	}
	for i, rule := range cfg.Rules {
		m, err := newMatcher(rule.Kind, rule.Pattern)
		if err != nil {
			return nil, &InvalidPatternError{Index: i, Pattern: rule.Pattern, Err: err}
		}
		p.rules = append(p.rules, compiledRule{Rule: rule, matcher: m})
	}
	return p, nil
}

// ClusterName returns the cluster name used in the annotation value.
func (p *Policy) ClusterName() string {
	return p.clusterName
}

// Len returns the number of rules.
func (p *Policy) Len() int {
	return len(p.rules)
}

// Evaluate runs the rules in order against ns.Name and stops at the first match.
func (p *Policy) Evaluate(log logr.Logger, ns NamespaceView) MutationResult {
	annotations := copyMap(ns.Annotations)
	labels := copyMap(ns.Labels)

	for i, rule := range p.rules {
		ruleLog := log.WithValues("rule", i, "kind", string(rule.Kind))
		if !rule.matcher.matches(ruleLog, ns.Name) {
			continue
		}

		annotations[ProjectIDKey] = AnnotationValue(p.clusterName, rule.Project)
		labels[ProjectIDKey] = rule.Project

		log.V(1).Info("namespace matched project rule", "namespace", ns.Name, "rule", i, "project", rule.Project)
		return MutationResult{
			Mutated:     true,
			Annotations: annotations,
			Labels:      labels,
			RuleIndex:   i,
			Project:     rule.Project,
		}
	}

	log.V(1).Info("no project rule matched", "namespace", ns.Name, "rules", len(p.rules))
	return MutationResult{}
}

// Evaluate compiles cfg and evaluates it against ns in one step.
func Evaluate(log logr.Logger, cfg PolicyConfig, ns NamespaceView) (MutationResult, error) {
	p, err := Compile(cfg)
	if err != nil {
		return MutationResult{}, err
	}
	return p.Evaluate(log, ns), nil
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
