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

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/sbahar619/namespace-project-operator/internal/projects"
	"github.com/sbahar619/namespace-project-operator/internal/settings"
)

// SampleSettingsPath is the settings file the e2e deployment is started with.
const SampleSettingsPath = "config/samples/settings.yaml"

// GetProjectDir will return the directory where the project is
func GetProjectDir() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return wd, err
	}
	wd = strings.Replace(wd, "/test/e2e", "", -1)
	return wd, nil
}

// LoadSamplePolicy compiles the sample settings so tests can compute the
// project a namespace name is expected to land in.
func LoadSamplePolicy() (*projects.Policy, error) {
	dir, err := GetProjectDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get project dir: %v", err)
	}

	s, err := settings.Load(filepath.Join(dir, SampleSettingsPath))
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("sample settings are invalid: %v", err)
	}
	return projects.Compile(s.PolicyConfig())
}

// GetK8sClient returns a controller-runtime client configured for the current kubeconfig
func GetK8sClient() (client.Client, error) {
	s := runtime.NewScheme()
	if err := scheme.AddToScheme(s); err != nil {
		return nil, fmt.Errorf("failed to add core types to scheme: %v", err)
	}

	// Get the kubeconfig
	config, err := getKubeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get kubeconfig: %v", err)
	}

	// Create the client
	k8sClient, err := client.New(config, client.Options{Scheme: s})
	if err != nil {
		return nil, fmt.Errorf("failed to create k8s client: %v", err)
	}

	return k8sClient, nil
}

// getKubeConfig returns the kubeconfig for the current environment
func getKubeConfig() (*rest.Config, error) {
	// Try in-cluster config first
	config, err := rest.InClusterConfig()
	if err == nil {
		return config, nil
	}

	// Fall back to kubeconfig file
	kubeconfigPath := os.Getenv("KUBECONFIG")
	if kubeconfigPath == "" {
		kubeconfigPath = clientcmd.RecommendedHomeFile
	}

	config, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build kubeconfig: %v", err)
	}

	return config, nil
}
