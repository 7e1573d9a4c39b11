package manifest

import (
	"bytes"
	"fmt"
	"io"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/apimachinery/pkg/util/yaml"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/imamik/k8zdb/internal/util/labels"
	"github.com/imamik/k8zdb/internal/util/naming"
	"github.com/imamik/k8zdb/internal/workload"
)

// Secret keys shared by every kind.
const (
	SecretKeyDatabase = "database"
	SecretKeyUsername = "username"
	SecretKeyPassword = "password"
)

// Document is one rendered resource.
type Document struct {
	Kind   string
	Name   string
	Object map[string]interface{}
}

// Render builds the secret, service and statefulset of a workload.
func Render(id workload.Identity, spec workload.Spec) ([]Document, error) {
	info, err := workload.Lookup(spec.Kind)
	if err != nil {
		return nil, err
	}
	names := id.Names(info)
	tmpl := templates[info.Kind]

	objLabels := labels.NewLabelBuilder(names.Base).
		WithKind(string(info.Kind)).
		WithIdentity(string(id)).
		Build()

	objects := []runtime.Object{
		secret(names, spec, objLabels),
		service(names, spec.Namespace, info, objLabels),
		statefulSet(names, spec, info, tmpl, objLabels),
	}

	docs := make([]Document, 0, len(objects))
	for _, obj := range objects {
		u, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %T: %w", obj, err)
		}
		prune(u)
		delete(u, "status")
		meta := u["metadata"].(map[string]interface{})
		docs = append(docs, Document{
			Kind:   u["kind"].(string),
			Name:   meta["name"].(string),
			Object: u,
		})
	}
	return docs, nil
}

// RenderYAML renders the workload as a multi-document YAML stream.
func RenderYAML(id workload.Identity, spec workload.Spec) ([]byte, error) {
	docs, err := Render(id, spec)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for i, doc := range docs {
		out, err := sigsyaml.Marshal(doc.Object)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s %s: %w", doc.Kind, doc.Name, err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}

// Parse decodes a multi-document YAML stream back into documents.
func Parse(data []byte) ([]Document, error) {
	decoder := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 4096)

	var docs []Document
	for {
		var raw unstructured.Unstructured
		if err := decoder.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode YAML document: %w", err)
		}
		if len(raw.Object) == 0 {
			continue
		}
		docs = append(docs, Document{Kind: raw.GetKind(), Name: raw.GetName(), Object: raw.Object})
	}
	return docs, nil
}

// prune drops null fields and status stanzas, which the converter emits for
// zero-valued timestamps and embedded claim templates.
func prune(obj map[string]interface{}) {
	for k, v := range obj {
		switch val := v.(type) {
		case nil:
			delete(obj, k)
		case map[string]interface{}:
			if k == "status" {
				delete(obj, k)
				continue
			}
			prune(val)
		case []interface{}:
			for _, item := range val {
				if m, ok := item.(map[string]interface{}); ok {
					prune(m)
				}
			}
		}
	}
}

func objectMeta(name, namespace string, l map[string]string) metav1.ObjectMeta {
	return metav1.ObjectMeta{Name: name, Namespace: namespace, Labels: l}
}

func secret(names workload.Names, spec workload.Spec, l map[string]string) *corev1.Secret {
	return &corev1.Secret{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: objectMeta(names.Secret, spec.Namespace, l),
		Type:       corev1.SecretTypeOpaque,
		StringData: map[string]string{
			SecretKeyDatabase: spec.Database,
			SecretKeyUsername: spec.User,
			SecretKeyPassword: spec.Password,
		},
	}
}

func service(names workload.Names, namespace string, info workload.KindInfo, l map[string]string) *corev1.Service {
	return &corev1.Service{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "Service"},
		ObjectMeta: objectMeta(names.Service, namespace, l),
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeLoadBalancer,
			Selector: labels.Selector(names.Base),
			Ports: []corev1.ServicePort{{
				Name:       string(info.Kind),
				Port:       info.Port,
				TargetPort: intstr.FromInt32(info.Port),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

func statefulSet(names workload.Names, spec workload.Spec, info workload.KindInfo, tmpl kindTemplate, l map[string]string) *appsv1.StatefulSet {
	replicas := int32(1)

	storage := resource.MustParse(fmt.Sprintf("%dGi", spec.Capacity()))
	claim := corev1.PersistentVolumeClaim{
		TypeMeta:   metav1.TypeMeta{APIVersion: "v1", Kind: "PersistentVolumeClaim"},
		ObjectMeta: metav1.ObjectMeta{Name: naming.ClaimTemplate, Labels: l},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{corev1.ResourceStorage: storage},
			},
		},
	}
	if spec.StorageClass != "" {
		sc := spec.StorageClass
		claim.Spec.StorageClassName = &sc
	}

	container := corev1.Container{
		Name:  string(info.Kind),
		Image: info.Image,
		Ports: []corev1.ContainerPort{{
			Name:          string(info.Kind),
			ContainerPort: info.Port,
			Protocol:      corev1.ProtocolTCP,
		}},
		Env: tmpl.env(names.Secret),
		VolumeMounts: []corev1.VolumeMount{{
			Name:      naming.ClaimTemplate,
			MountPath: tmpl.dataPath,
		}},
		ReadinessProbe: tmpl.probe(spec, info),
	}

	return &appsv1.StatefulSet{
		TypeMeta:   metav1.TypeMeta{APIVersion: "apps/v1", Kind: "StatefulSet"},
		ObjectMeta: objectMeta(names.StatefulSet, spec.Namespace, l),
		Spec: appsv1.StatefulSetSpec{
			Replicas:    &replicas,
			ServiceName: names.Service,
			Selector:    &metav1.LabelSelector{MatchLabels: labels.Selector(names.Base)},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: l},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{container},
				},
			},
			VolumeClaimTemplates: []corev1.PersistentVolumeClaim{claim},
		},
	}
}
