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

package e2e

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/sbahar619/namespace-project-operator/internal/projects"
	"github.com/sbahar619/namespace-project-operator/test/utils"
)

var _ = Describe("Namespace Project E2E Tests", func() {
	var (
		k8sClient client.Client
		policy    *projects.Policy
		ctx       context.Context
		created   []string
	)

	BeforeEach(func() {
		ctx = context.Background()
		created = nil

		By("Setting up Kubernetes client")
		var err error
		k8sClient, err = utils.GetK8sClient()
		Expect(err).NotTo(HaveOccurred())

		By("Loading the sample project settings")
		policy, err = utils.LoadSamplePolicy()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		By("Cleaning up test namespaces")
		for _, name := range created {
			ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
			err := k8sClient.Delete(ctx, ns)
			if err != nil && !errors.IsNotFound(err) {
				Expect(err).NotTo(HaveOccurred())
			}
		}

		// Wait for namespaces to be fully deleted
		for _, name := range created {
			Eventually(func() bool {
				checkNS := &corev1.Namespace{}
				err := k8sClient.Get(ctx, types.NamespacedName{Name: name}, checkNS)
				return errors.IsNotFound(err)
			}, time.Minute, time.Second).Should(BeTrue())
		}
	})

	// uniqueName avoids collisions between runs.
	uniqueName := func(prefix string) string {
		return fmt.Sprintf("%s%d-%d", prefix, time.Now().UnixNano()%1000000, rand.Int31n(1000))
	}

	createNamespace := func(name string, labels map[string]string) {
		ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name, Labels: labels}}
		Expect(k8sClient.Create(ctx, ns)).To(Succeed())
		created = append(created, name)
	}

	getNamespace := func(name string) *corev1.Namespace {
		ns := &corev1.Namespace{}
		Expect(k8sClient.Get(ctx, types.NamespacedName{Name: name}, ns)).To(Succeed())
		return ns
	}

	Context("Namespace Creation", func() {
		It("should assign a namespace matching a prefix rule to its project", func() {
			name := uniqueName("e2e-team-a-")
			expected := policy.Evaluate(GinkgoLogr, projects.NamespaceView{Name: name})
			Expect(expected.Mutated).To(BeTrue())

			By("Creating the namespace")
			createNamespace(name, map[string]string{"env": "e2e"})

			By("Verifying the project id was injected at admission")
			ns := getNamespace(name)
			Expect(ns.Labels).To(HaveKeyWithValue(projects.ProjectIDKey, expected.Project))
			Expect(ns.Labels).To(HaveKeyWithValue("env", "e2e"))
			Expect(ns.Annotations).To(HaveKeyWithValue(projects.ProjectIDKey,
				projects.AnnotationValue(policy.ClusterName(), expected.Project)))
		})

		It("should assign a namespace matching a regex rule to its project", func() {
			name := fmt.Sprintf("e2e-ci-%d", rand.Int31n(1000000))
			expected := policy.Evaluate(GinkgoLogr, projects.NamespaceView{Name: name})
			Expect(expected.Mutated).To(BeTrue())

			createNamespace(name, nil)

			ns := getNamespace(name)
			Expect(ns.Labels).To(HaveKeyWithValue(projects.ProjectIDKey, expected.Project))
		})

		It("should admit namespaces matching no rule unchanged", func() {
			name := uniqueName("e2e-other-")
			Expect(policy.Evaluate(GinkgoLogr, projects.NamespaceView{Name: name}).Mutated).To(BeFalse())

			createNamespace(name, map[string]string{"env": "e2e"})

			ns := getNamespace(name)
			Expect(ns.Labels).NotTo(HaveKey(projects.ProjectIDKey))
			Expect(ns.Annotations).NotTo(HaveKey(projects.ProjectIDKey))
			Expect(ns.Labels).To(HaveKeyWithValue("env", "e2e"))
		})
	})

	Context("Namespace Update", func() {
		It("should restore an overwritten project id", func() {
			name := uniqueName("e2e-team-a-")
			expected := policy.Evaluate(GinkgoLogr, projects.NamespaceView{Name: name})
			createNamespace(name, nil)

			By("Overwriting the project label")
			Eventually(func() error {
				ns := getNamespace(name)
				ns.Labels[projects.ProjectIDKey] = "p-somewhere-else"
				return k8sClient.Update(ctx, ns)
			}, time.Minute, time.Second).Should(Succeed())

			By("Verifying the webhook put the project back")
			ns := getNamespace(name)
			Expect(ns.Labels).To(HaveKeyWithValue(projects.ProjectIDKey, expected.Project))
		})
	})
})
