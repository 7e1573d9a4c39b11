package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelBuilder(t *testing.T) {
	t.Parallel()
	got := NewLabelBuilder("pg-1a2b3c4d").
		WithKind("postgresql").
		WithIdentity("1a2b3c4d").
		Merge(map[string]string{"team": "data"}).
		Build()

	assert.Equal(t, map[string]string{
		KeyInstance:  "pg-1a2b3c4d",
		KeyManagedBy: ManagedByK8zdb,
		KeyName:      "postgresql",
		KeyIdentity:  "1a2b3c4d",
		"team":       "data",
	}, got)
}

func TestLabelBuilder_BuildReturnsCopy(t *testing.T) {
	t.Parallel()
	lb := NewLabelBuilder("pg-x")
	first := lb.Build()
	first["mutated"] = "yes"

	assert.NotContains(t, lb.Build(), "mutated")
}

func TestSelector(t *testing.T) {
	t.Parallel()
	sel := Selector("mysql-abcd")

	assert.Equal(t, map[string]string{KeyInstance: "mysql-abcd"}, sel)
	assert.Equal(t, "app.kubernetes.io/instance=mysql-abcd", SelectorString(sel))
}

func TestSelectorString_SortsKeys(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a=1,b=2,c=3", SelectorString(map[string]string{"c": "3", "a": "1", "b": "2"}))
}
