package util

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/nspcc-dev/mptdb/pkg/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHex = "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"

func TestUint256DecodeString(t *testing.T) {
	val, err := Uint256DecodeStringBE(testHex)
	require.NoError(t, err)
	assert.Equal(t, testHex, val.String())

	val2, err := Uint256DecodeStringBE("0x" + testHex)
	require.NoError(t, err)
	assert.Equal(t, val, val2)

	_, err = Uint256DecodeStringBE(testHex[1:])
	assert.Error(t, err)

	_, err = Uint256DecodeStringBE("zz" + testHex[2:])
	assert.Error(t, err)
}

func TestUint256DecodeBytes(t *testing.T) {
	b, err := hex.DecodeString(testHex)
	require.NoError(t, err)

	val, err := Uint256DecodeBytesBE(b)
	require.NoError(t, err)
	assert.Equal(t, b, val.BytesBE())

	_, err = Uint256DecodeBytesBE(b[1:])
	assert.Error(t, err)
}

func TestUint256Compare(t *testing.T) {
	a, err := Uint256DecodeStringBE(testHex)
	require.NoError(t, err)
	b := a
	b[0]++

	assert.True(t, a.Equals(a))
	assert.False(t, a.Equals(b))
	assert.Equal(t, 0, a.CompareTo(a))
	assert.Equal(t, -1, a.CompareTo(b))
	assert.Equal(t, 1, b.CompareTo(a))
}

func TestUint256_JSON(t *testing.T) {
	expected, err := Uint256DecodeStringBE(testHex)
	require.NoError(t, err)

	data, err := json.Marshal(expected)
	require.NoError(t, err)
	require.Equal(t, `"0x`+testHex+`"`, string(data))

	var actual Uint256
	require.NoError(t, json.Unmarshal(data, &actual))
	require.Equal(t, expected, actual)

	require.Error(t, json.Unmarshal([]byte(`123`), &actual))
	require.Error(t, json.Unmarshal([]byte(`"0x12"`), &actual))
}

func TestUint256_Serializable(t *testing.T) {
	expected, err := Uint256DecodeStringBE(testHex)
	require.NoError(t, err)

	w := io.NewBufBinWriter()
	expected.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	var actual Uint256
	r := io.NewBinReaderFromBuf(w.Bytes())
	actual.DecodeBinary(r)
	require.NoError(t, r.Err)
	require.Equal(t, expected, actual)
}
