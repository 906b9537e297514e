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

package main

import (
	"crypto/tls"
	"flag"
	"os"
	"strings"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	"sigs.k8s.io/controller-runtime/pkg/webhook"

	"github.com/sbahar619/namespace-project-operator/internal/controller"
	"github.com/sbahar619/namespace-project-operator/internal/projects"
	"github.com/sbahar619/namespace-project-operator/internal/settings"
	webhookv1 "github.com/sbahar619/namespace-project-operator/internal/webhook/v1"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	// +kubebuilder:scaffold:scheme
}

func main() {
	var metricsAddr string
	var enableLeaderElection bool
	var probeAddr string
	var secureMetrics bool
	var enableHTTP2 bool
	var tlsOpts []func(*tls.Config)

	// Webhook flags
	var webhookEnabled bool
	var webhookCertDir string
	var webhookPort int

	// Project policy flags
	var settingsFile string
	var clusterName string

	// Backfill flags
	var enableBackfill bool
	var backfillConflictMode string
	var backfillExclude string

	flag.StringVar(&metricsAddr, "metrics-bind-address", "0", "The address the metrics endpoint binds to. Use 0 to disable it.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", false,
		"Enable leader election for controller manager. Only the backfill controller depends on it.")
	flag.BoolVar(&secureMetrics, "metrics-secure", true, "If set, the metrics endpoint is served securely via HTTPS.")
	flag.BoolVar(&enableHTTP2, "enable-http2", false, "If set, HTTP/2 will be enabled for the metrics and webhook servers")

	flag.BoolVar(&webhookEnabled, "webhook-enable", true, "Enable the namespace mutating webhook")
	flag.StringVar(&webhookCertDir, "webhook-cert-dir", "/tmp/k8s-webhook-server/serving-certs", "Directory holding tls.crt and tls.key for the webhook server")
	flag.IntVar(&webhookPort, "webhook-port", 9443, "Port the webhook server listens on")

	flag.StringVar(&settingsFile, "settings-file", "/etc/namespace-project-operator/settings.yaml", "Path to the project settings document")
	flag.StringVar(&clusterName, "cluster-name", os.Getenv("CLUSTER_NAME"), "Overrides cluster_name from the settings file")

	flag.BoolVar(&enableBackfill, "enable-backfill", false, "Assign namespaces that already exist to their projects")
	flag.StringVar(&backfillConflictMode, "backfill-conflict-mode", string(controller.ConflictModeOverwrite),
		"What the backfill does with namespaces already assigned to another project: overwrite, warn or skip")
	flag.StringVar(&backfillExclude, "backfill-exclude", strings.Join(controller.DefaultExcludedNamespaces, ","),
		"Comma separated glob patterns of namespaces the backfill never touches")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	policy, err := loadPolicy(settingsFile, clusterName)
	if err != nil {
		setupLog.Error(err, "unable to load project settings", "file", settingsFile)
		os.Exit(1)
	}

	disableHTTP2 := func(c *tls.Config) {
		setupLog.Info("disabling http/2")
		c.NextProtos = []string{"http/1.1"}
	}
	if !enableHTTP2 {
		tlsOpts = append(tlsOpts, disableHTTP2)
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress:   metricsAddr,
			SecureServing: secureMetrics,
			TLSOpts:       tlsOpts,
		},
		WebhookServer: webhook.NewServer(webhook.Options{
			Port:    webhookPort,
			CertDir: webhookCertDir,
			TLSOpts: tlsOpts,
		}),
		HealthProbeBindAddress: probeAddr,
		LeaderElection:         enableLeaderElection,
		LeaderElectionID:       "namespace-project-operator.sbahar619.io",
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	if enableBackfill {
		mode, err := controller.ParseConflictMode(backfillConflictMode)
		if err != nil {
			setupLog.Error(err, "invalid backfill configuration")
			os.Exit(1)
		}
		if err = (&controller.NamespaceProjectReconciler{
			Client:             mgr.GetClient(),
			Scheme:             mgr.GetScheme(),
			Recorder:           mgr.GetEventRecorderFor("namespace-project-operator"),
			Policy:             policy,
			ExcludedNamespaces: splitPatterns(backfillExclude),
			ConflictMode:       mode,
		}).SetupWithManager(mgr); err != nil {
			setupLog.Error(err, "unable to create controller", "controller", "NamespaceProject")
			os.Exit(1)
		}
	}

	if webhookEnabled {
		if err = webhookv1.SetupNamespaceProjectWebhookWithManager(mgr, policy); err != nil {
			setupLog.Error(err, "unable to create webhook", "webhook", "Namespace")
			os.Exit(1)
		}
	}
	// +kubebuilder:scaffold:builder

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	readyCheck := healthz.Ping
	if webhookEnabled {
		readyCheck = mgr.GetWebhookServer().StartedChecker()
	}
	if err := mgr.AddReadyzCheck("readyz", readyCheck); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager", "rules", policy.Len(), "clusterName", policy.ClusterName(),
		"webhook", webhookEnabled, "backfill", enableBackfill)
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}

// loadPolicy reads, validates and compiles the project settings.
func loadPolicy(path, clusterName string) (*projects.Policy, error) {
	s, err := settings.Load(path)
	if err != nil {
		return nil, err
	}
	if clusterName != "" {
		s.ClusterName = clusterName
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if unknown := s.UnknownMatchTypes(); len(unknown) > 0 {
		setupLog.Info("settings contain match types this release does not know, those rules never match", "matchTypes", unknown)
	}

	policy, err := projects.Compile(s.PolicyConfig())
	if err != nil {
		return nil, err
	}
	if policy.Len() == 0 {
		setupLog.Info("no project rules configured, namespaces will be admitted unchanged")
	}
	return policy, nil
}

func splitPatterns(s string) []string {
	var patterns []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	return patterns
}
