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
	"errors"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

var _ = Describe("Mutation Engine", func() {
	var log logr.Logger

	BeforeEach(func() {
		log = GinkgoLogr
	})

	evaluate := func(cluster string, rules []Rule, ns NamespaceView) MutationResult {
		result, err := Evaluate(log, PolicyConfig{ClusterName: cluster, Rules: rules}, ns)
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	Context("Concrete scenarios", func() {
		It("mutates on a prefix match", func() {
			result := evaluate("c1", []Rule{{Kind: MatchPrefix, Pattern: "foo", Project: "P1"}},
				NamespaceView{Name: "foobar"})

			Expect(result.Mutated).To(BeTrue())
			Expect(result.Annotations).To(HaveKeyWithValue(ProjectIDKey, "c1:P1"))
			Expect(result.Labels).To(HaveKeyWithValue(ProjectIDKey, "P1"))
			Expect(result.RuleIndex).To(Equal(0))
			Expect(result.Project).To(Equal("P1"))
		})

		It("mutates on the regex wildcard without a compile error", func() {
			result := evaluate("c1", []Rule{{Kind: MatchRegex, Pattern: "*", Project: "P1"}},
				NamespaceView{Name: "anything"})
			Expect(result.Mutated).To(BeTrue())
		})

		It("mutates on a regex anchored only at the start", func() {
			result := evaluate("c1", []Rule{{Kind: MatchRegex, Pattern: "^f[o]+", Project: "P1"}},
				NamespaceView{Name: "foobar"})
			Expect(result.Mutated).To(BeTrue())
		})

		It("leaves the namespace unchanged when nothing matches", func() {
			result := evaluate("c1", []Rule{{Kind: MatchExact, Pattern: "feeber", Project: "P1"}},
				NamespaceView{Name: "foobar"})
			Expect(result.Mutated).To(BeFalse())
			Expect(result).To(Equal(MutationResult{}))
		})

		It("leaves the namespace unchanged with an empty rule list", func() {
			for _, name := range []string{"", "foobar", "kube-system"} {
				result := evaluate("c1", nil, NamespaceView{Name: name})
				Expect(result.Mutated).To(BeFalse())
			}
		})

		It("fails with InvalidPatternError before any matching", func() {
			_, err := Evaluate(log, PolicyConfig{
				ClusterName: "c1",
				Rules: []Rule{
					{Kind: MatchAll, Project: "P0"},
					{Kind: MatchRegex, Pattern: "(", Project: "P1"},
				},
			}, NamespaceView{Name: "foobar"})

			var patternErr *InvalidPatternError
			Expect(errors.As(err, &patternErr)).To(BeTrue())
			Expect(patternErr.Index).To(Equal(1))
			Expect(patternErr.Pattern).To(Equal("("))
			Expect(err.Error()).To(ContainSubstring("rule 1"))
		})
	})

	Context("Rule ordering", func() {
		It("applies the first matching rule only", func() {
			rules := []Rule{
				{Kind: MatchExact, Pattern: "bar", Project: "R1"},
				{Kind: MatchPrefix, Pattern: "fo", Project: "R2"},
				{Kind: MatchExact, Pattern: "foo", Project: "R3"},
			}
			result := evaluate("c1", rules, NamespaceView{Name: "foo"})

			Expect(result.Mutated).To(BeTrue())
			Expect(result.RuleIndex).To(Equal(1))
			Expect(result.Labels).To(HaveKeyWithValue(ProjectIDKey, "R2"))
			Expect(result.Annotations).To(HaveKeyWithValue(ProjectIDKey, "c1:R2"))
		})

		It("keeps evaluating after a non-matching first rule", func() {
			rules := []Rule{
				{Kind: MatchExact, Pattern: "nope", Project: "R1"},
				{Kind: MatchExact, Pattern: "nope-either", Project: "R2"},
				{Kind: MatchAll, Project: "R3"},
			}
			result := evaluate("c1", rules, NamespaceView{Name: "foo"})
			Expect(result.Project).To(Equal("R3"))
		})

		It("skips unknown kinds and continues", func() {
			rules := []Rule{
				{Kind: MatchKind("glob"), Pattern: "*", Project: "R1"},
				{Kind: MatchPrefix, Pattern: "foo", Project: "R2"},
			}
			result := evaluate("c1", rules, NamespaceView{Name: "foo"})
			Expect(result.Project).To(Equal("R2"))
		})
	})

	Context("Empty names", func() {
		It("matches the empty string against all and empty prefix rules", func() {
			Expect(evaluate("c1", []Rule{{Kind: MatchAll, Project: "P"}}, NamespaceView{}).Mutated).To(BeTrue())
			Expect(evaluate("c1", []Rule{{Kind: MatchPrefix, Pattern: "", Project: "P"}}, NamespaceView{}).Mutated).To(BeTrue())
			Expect(evaluate("c1", []Rule{{Kind: MatchPrefix, Pattern: "a", Project: "P"}}, NamespaceView{}).Mutated).To(BeFalse())
		})
	})

	Context("Metadata snapshots", func() {
		It("keeps existing keys and never touches the input maps", func() {
			annotations := map[string]string{"owner": "team-a"}
			labels := map[string]string{"env": "dev", ProjectIDKey: "old"}
			ns := NamespaceView{Name: "foobar", Annotations: annotations, Labels: labels}

			result := evaluate("c1", []Rule{{Kind: MatchAll, Project: "P1"}}, ns)

			Expect(result.Annotations).To(Equal(map[string]string{"owner": "team-a", ProjectIDKey: "c1:P1"}))
			Expect(result.Labels).To(Equal(map[string]string{"env": "dev", ProjectIDKey: "P1"}))
			Expect(annotations).To(Equal(map[string]string{"owner": "team-a"}))
			Expect(labels).To(Equal(map[string]string{"env": "dev", ProjectIDKey: "old"}))
		})

		It("is idempotent when re-applied to its own output", func() {
			cfg := PolicyConfig{ClusterName: "c1", Rules: []Rule{{Kind: MatchPrefix, Pattern: "foo", Project: "P1"}}}
			first, err := Evaluate(log, cfg, NamespaceView{Name: "foobar", Labels: map[string]string{"a": "b"}})
			Expect(err).NotTo(HaveOccurred())

			second, err := Evaluate(log, cfg, NamespaceView{
				Name:        "foobar",
				Annotations: first.Annotations,
				Labels:      first.Labels,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(second.Annotations).To(Equal(first.Annotations))
			Expect(second.Labels).To(Equal(first.Labels))
			Expect(second.Labels).To(HaveLen(2))
		})
	})

	Context("Compiled policies", func() {
		It("exposes its cluster name and rule count", func() {
			p, err := Compile(PolicyConfig{ClusterName: "c1", Rules: []Rule{{Kind: MatchAll, Project: "P"}}})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.ClusterName()).To(Equal("c1"))
			Expect(p.Len()).To(Equal(1))
		})

		It("can be evaluated repeatedly", func() {
			p, err := Compile(PolicyConfig{ClusterName: "c1", Rules: []Rule{{Kind: MatchRegex, Pattern: "^team-(a|b)-", Project: "P"}}})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Evaluate(log, NamespaceView{Name: "team-a-dev"}).Mutated).To(BeTrue())
			Expect(p.Evaluate(log, NamespaceView{Name: "team-c-dev"}).Mutated).To(BeFalse())
			Expect(p.Evaluate(log, NamespaceView{Name: "team-b-prod"}).Mutated).To(BeTrue())
		})
	})

	Context("Applying results to objects", func() {
		It("writes the snapshots onto a namespace", func() {
			ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{
				Name:   "foobar",
				Labels: map[string]string{"env": "dev"},
			}}
			result := evaluate("c1", []Rule{{Kind: MatchAll, Project: "P1"}}, ViewOf(ns))

			Expect(result.ApplyTo(ns)).To(BeTrue())
			Expect(ns.Labels).To(Equal(map[string]string{"env": "dev", ProjectIDKey: "P1"}))
			Expect(ns.Annotations).To(HaveKeyWithValue(ProjectIDKey, "c1:P1"))

			again := evaluate("c1", []Rule{{Kind: MatchAll, Project: "P1"}}, ViewOf(ns))
			Expect(again.ApplyTo(ns)).To(BeFalse())
		})

		It("does nothing for an unchanged result", func() {
			ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "foobar"}}
			Expect(MutationResult{}.ApplyTo(ns)).To(BeFalse())
			Expect(ns.Labels).To(BeNil())
			Expect(ns.Annotations).To(BeNil())
		})
	})
})
