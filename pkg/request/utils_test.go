package request_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-request-sender/pkg/merge"
	. "github.com/keboola/go-request-sender/pkg/request"
)

type EmbeddedFields struct {
	Embedded string `json:"embedded"`
}

type structFields struct {
	EmbeddedFields
	Name      string `json:"name"`
	Alias     string `json:"alias" writeas:"otherName"`
	ReadOnly  string `json:"readOnly" readonly:"true"`
	Optional  string `json:"optional" writeoptional:"true"`
	OmitEmpty int    `json:"omitEmpty,omitempty"`
	Ignored   string `json:"-"`
	NoTag     bool
	private   string
}

func TestToFormBody(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"string":    "test",
		"number":    100,
		"slice":     []string{"a", "b", "c"},
		"map":       map[string]string{"k0": "v0", "k1": "v1"},
		"record":    merge.Record{"k2": 2},
		"undefined": merge.Undefined,
	}

	expected := map[string]string{
		"string":     "test",
		"number":     "100",
		"slice[0]":   "a",
		"slice[1]":   "b",
		"slice[2]":   "c",
		"map[k0]":    "v0",
		"map[k1]":    "v1",
		"record[k2]": "2",
	}
	actual := ToFormBody(data)

	assert.Equal(t, expected, actual)
}

func TestStructToMap(t *testing.T) {
	t.Parallel()

	in := structFields{
		EmbeddedFields: EmbeddedFields{Embedded: "e"},
		Name:           "name",
		Alias:          "alias",
		ReadOnly:       "read only",
		Ignored:        "ignored",
		NoTag:          true,
		private:        "private",
	}

	out := StructToMap(in, nil)
	assert.Equal(t, []string{"embedded", "name", "otherName", "NoTag"}, out.Keys())

	in.Optional = "optional"
	in.OmitEmpty = 1
	out = StructToMap(&in, nil)
	assert.Equal(t, []string{"embedded", "name", "otherName", "optional", "omitEmpty", "NoTag"}, out.Keys())

	out = StructToMap(&in, []string{"name", "optional"})
	assert.Equal(t, []string{"name", "optional"}, out.Keys())
	value, _ := out.Get("optional")
	assert.Equal(t, "optional", value)
}
