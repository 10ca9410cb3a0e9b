package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageEntryJSON(t *testing.T) {
	in := []ImageEntry{
		{Source: Persisted{ID: "11", RemotePath: "/media/a.jpg"}, Alt: "front"},
		{Source: Pending{Handle: "abc.png"}},
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"kind":"persisted","id":"11","url":"/media/a.jpg","alt":"front"},
		{"kind":"pending","handle":"abc.png","alt":""}
	]`, string(b))

	var out []ImageEntry
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	id, ok := out[0].PersistedID()
	assert.True(t, ok)
	assert.Equal(t, "11", id)
	_, ok = out[1].PersistedID()
	assert.False(t, ok)
}

func TestImageEntryRejectsUnknownKind(t *testing.T) {
	var e ImageEntry
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"remote"}`), &e))

	_, err := json.Marshal(ImageEntry{})
	assert.Error(t, err)
}

func TestBackendLooseTypes(t *testing.T) {
	var got struct {
		Vendor   RefID  `json:"vendor"`
		Category RefID  `json:"category"`
		Missing  RefID  `json:"missing"`
		Price    Amount `json:"price"`
		Compare  Amount `json:"compare"`
		Blank    Amount `json:"blank"`
	}
	raw := `{"vendor": 3, "category": "7", "missing": null, "price": "299.99", "compare": 12.5, "blank": ""}`
	require.NoError(t, json.Unmarshal([]byte(raw), &got))

	assert.Equal(t, RefID("3"), got.Vendor)
	assert.Equal(t, "7", got.Category.String())
	assert.Equal(t, RefID(""), got.Missing)
	assert.Equal(t, Amount(299.99), got.Price)
	assert.Equal(t, Amount(12.5), got.Compare)
	assert.Equal(t, Amount(0), got.Blank)

	var bad Amount
	assert.Error(t, json.Unmarshal([]byte(`"cheap"`), &bad))
}
