package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	data, err := MarshalCanonical(IRObject{
		"zebra": IRInt(1),
		"apple": IRString("a"),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"apple":"a","zebra":1}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	data, err := MarshalCanonical(IRString(`<b>&"`))
	require.NoError(t, err)
	assert.Equal(t, `"<b>&\""`, string(data))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute normalizes to a single code point
	data, err := MarshalCanonical(IRString("Cafe\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"Caf\u00e9\"", string(data))
}

func TestMarshalCanonical_RejectsFloat(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)
}

func TestMarshalCanonical_NullAndArrays(t *testing.T) {
	data, err := MarshalCanonical(IRObject{
		"d": IRNull{},
		"l": IRArray{IRString("4/4"), IRInt(3), IRBool(true)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"d":null,"l":["4/4",3,true]}`, string(data))
}

func TestIRObjectSortedKeysUTF16(t *testing.T) {
	obj := IRObject{"a": IRInt(1), "A": IRInt(2), "aa": IRInt(3), "AA": IRInt(4)}
	assert.Equal(t, []string{"A", "AA", "a", "aa"}, obj.SortedKeys())
}
