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

// Package settings loads the project assignment settings document and turns
// it into a rule list for the projects engine.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"sigs.k8s.io/yaml"

	"github.com/sbahar619/namespace-project-operator/internal/projects"
)

// Project is one entry of the projects list. Field names follow the
// settings format used by existing deployments.
type Project struct {
	MatchType      string `json:"match_type"`
	ProjectName    string `json:"project_name"`
	NamespaceMatch string `json:"namespace_match"`
}

// Settings is the settings document.
type Settings struct {
	ClusterName string    `json:"cluster_name"`
	Projects    []Project `json:"projects"`
}

// Parse decodes a YAML or JSON settings document.
func Parse(data []byte) (*Settings, error) {
	s := &Settings{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// Load reads and decodes the settings file at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings file %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("settings file %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the settings. Unknown match types are accepted here and
// reported by UnknownMatchTypes instead.
func (s *Settings) Validate() error {
	var allErrs field.ErrorList

	if s.ClusterName == "" {
		allErrs = append(allErrs, field.Required(field.NewPath("cluster_name"), "cluster name is used in the project id annotation"))
	}

	projectsPath := field.NewPath("projects")
	for i, p := range s.Projects {
		namePath := projectsPath.Index(i).Child("project_name")
		if p.ProjectName == "" {
			allErrs = append(allErrs, field.Required(namePath, ""))
			continue
		}
		if errs := validation.IsValidLabelValue(p.ProjectName); len(errs) > 0 {
			allErrs = append(allErrs, field.Invalid(namePath, p.ProjectName, strings.Join(errs, ", ")))
		}
	}

	if _, err := projects.Compile(s.PolicyConfig()); err != nil {
		var patternErr *projects.InvalidPatternError
		if errors.As(err, &patternErr) {
			allErrs = append(allErrs, field.Invalid(
				projectsPath.Index(patternErr.Index).Child("namespace_match"),
				patternErr.Pattern,
				patternErr.Err.Error(),
			))
		} else {
			allErrs = append(allErrs, field.InternalError(projectsPath, err))
		}
	}

	return allErrs.ToAggregate()
}

// UnknownMatchTypes lists the match types that no rule kind understands.
// Such rules never match.
func (s *Settings) UnknownMatchTypes() []string {
	var unknown []string
	for _, p := range s.Projects {
		if !projects.MatchKind(p.MatchType).Known() {
			unknown = append(unknown, p.MatchType)
		}
	}
	return unknown
}

// PolicyConfig converts the settings into an ordered rule list.
func (s *Settings) PolicyConfig() projects.PolicyConfig {
	cfg := projects.PolicyConfig{
		ClusterName: s.ClusterName,
		Rules:       make([]projects.Rule, 0, len(s.Projects)),
	}
	for _, p := range s.Projects {
		cfg.Rules = append(cfg.Rules, projects.Rule{
			Kind:    projects.MatchKind(p.MatchType),
			Pattern: p.NamespaceMatch,
			Project: p.ProjectName,
		})
	}
	return cfg
}
