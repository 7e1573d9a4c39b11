package workload

import (
	"fmt"
	"sort"
)

// Kind identifies a supported workload type.
type Kind string

// Supported workload kinds.
const (
	KindPostgreSQL Kind = "postgresql"
	KindMySQL      Kind = "mysql"
	KindMongoDB    Kind = "mongodb"
)

// Family groups kinds by data model.
type Family string

// Workload families.
const (
	FamilyRelational Family = "relational"
	FamilyDocument   Family = "document"
)

// KindInfo holds the fixed, per-kind parameters.
type KindInfo struct {
	Kind   Kind
	Family Family
	// Prefix starts every resource name, e.g. "pg" in "pg-1a2b3c4d-svc".
	Prefix string
	Port   int32
	Image  string
	// DefaultCapacityGi is used when a spec leaves the capacity at zero.
	DefaultCapacityGi int
	// ImportClient is the in-container program that reads an SQL dump from
	// stdin. Empty when the kind has no import support.
	ImportClient string
}

// SupportsImport reports whether data files can be imported into the kind.
func (k KindInfo) SupportsImport() bool {
	return k.ImportClient != ""
}

var kinds = map[Kind]KindInfo{
	KindPostgreSQL: {
		Kind:              KindPostgreSQL,
		Family:            FamilyRelational,
		Prefix:            "pg",
		Port:              5432,
		Image:             "postgres:16",
		DefaultCapacityGi: 1,
		ImportClient:      "psql",
	},
	KindMySQL: {
		Kind:              KindMySQL,
		Family:            FamilyRelational,
		Prefix:            "mysql",
		Port:              3306,
		Image:             "mysql:8.0",
		DefaultCapacityGi: 1,
		ImportClient:      "mysql",
	},
	KindMongoDB: {
		Kind:              KindMongoDB,
		Family:            FamilyDocument,
		Prefix:            "mongo",
		Port:              27017,
		Image:             "mongo:7",
		DefaultCapacityGi: 2,
	},
}

// Lookup returns the parameters of a kind.
func Lookup(k Kind) (KindInfo, error) {
	info, ok := kinds[k]
	if !ok {
		return KindInfo{}, &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown workload kind %q", k)}
	}
	return info, nil
}

// MustLookup is Lookup for kinds known to be valid, such as those read back
// from a persisted record.
func MustLookup(k Kind) KindInfo {
	info, err := Lookup(k)
	if err != nil {
		panic(err)
	}
	return info
}

// Kinds returns all supported kinds in a stable order.
func Kinds() []KindInfo {
	out := make([]KindInfo, 0, len(kinds))
	for _, info := range kinds {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
