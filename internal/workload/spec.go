package workload

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// Spec is the caller-supplied description of a workload.
type Spec struct {
	Kind      Kind   `json:"kind" yaml:"kind"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Database  string `json:"database" yaml:"database"`
	User      string `json:"user" yaml:"user"`
	// Password is never persisted by record stores nor logged.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// CapacityGi is the volume size in GiB. Zero selects the kind default.
	CapacityGi   int    `json:"capacityGi,omitempty" yaml:"capacityGi,omitempty"`
	StorageClass string `json:"storageClass,omitempty" yaml:"storageClass,omitempty"`
	// DataFile is an optional import source: a local path or s3://bucket/key.
	DataFile string `json:"dataFile,omitempty" yaml:"dataFile,omitempty"`
}

// Validate checks the spec before any remote effect. Every returned error is
// a *ValidationError.
func (s *Spec) Validate() error {
	info, err := Lookup(s.Kind)
	if err != nil {
		return err
	}

	if s.Namespace == "" {
		return Invalid("namespace", "is required")
	}
	if errs := validation.IsDNS1123Label(s.Namespace); len(errs) > 0 {
		return Invalid("namespace", "%q is not a valid namespace: %s", s.Namespace, strings.Join(errs, "; "))
	}
	if s.Database == "" {
		return Invalid("database", "is required")
	}
	if s.User == "" {
		return Invalid("user", "is required")
	}
	if s.Kind == KindMySQL && s.User == "root" {
		return Invalid("user", "mysql reserves %q for the superuser; choose another user name", s.User)
	}
	if s.Password == "" {
		return Invalid("password", "is required")
	}
	if s.CapacityGi < 0 {
		return Invalid("capacityGi", "must not be negative, got %d", s.CapacityGi)
	}
	if s.StorageClass != "" {
		if errs := validation.IsDNS1123Subdomain(s.StorageClass); len(errs) > 0 {
			return Invalid("storageClass", "%q is not a valid storage class name", s.StorageClass)
		}
	}
	if s.DataFile != "" && !info.SupportsImport() {
		return Invalid("dataFile", "%s does not support data import", s.Kind)
	}
	return nil
}

// Capacity returns the effective capacity in GiB.
func (s *Spec) Capacity() int {
	if s.CapacityGi > 0 {
		return s.CapacityGi
	}
	return MustLookup(s.Kind).DefaultCapacityGi
}

// Redacted returns a copy without the password, suitable for logs and storage.
func (s Spec) Redacted() Spec {
	s.Password = ""
	return s
}
