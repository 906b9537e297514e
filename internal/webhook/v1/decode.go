package v1

import (
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

var namespaceGVK = corev1.SchemeGroupVersion.WithKind("Namespace")

var errEmptyObject = errors.New("request carries no object")

// decodeNamespace reads raw as a v1 Namespace. The unstructured form is kept
// so that a patch computed from it only touches the fields we change.
func decodeNamespace(raw []byte) (*unstructured.Unstructured, *corev1.Namespace, error) {
	if len(raw) == 0 {
		return nil, nil, errEmptyObject
	}

	obj := &unstructured.Unstructured{}
	if err := obj.UnmarshalJSON(raw); err != nil {
		return nil, nil, fmt.Errorf("decode object: %w", err)
	}
	if gvk := obj.GroupVersionKind(); gvk != namespaceGVK {
		return nil, nil, fmt.Errorf("unexpected kind %s", gvk)
	}

	ns := &corev1.Namespace{}
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, ns); err != nil {
		return nil, nil, fmt.Errorf("convert namespace: %w", err)
	}
	return obj, ns, nil
}
