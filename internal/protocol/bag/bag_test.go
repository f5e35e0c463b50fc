package bag

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/proxywire/internal/testutil/testlog"
)

func sampleBag() *Bag {
	b := New()
	b.SetString("Name", "default")
	b.SetStringPtr("Uuid", nil)
	b.SetString("Empty", "")
	b.SetInt("RequestId", 42)
	b.SetInt("Negative", -7)
	b.SetBool("Flag", true)
	b.SetBool("Off", false)
	b.SetBytes("Result", []byte{0x00, 0xff, 0x10})
	b.SetBytes("NullBlob", nil)
	b.SetBytes("EmptyBlob", []byte{})
	return b
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := sampleBag()

	raw, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(raw)
	require.NoError(t, err)

	assert.True(t, in.Equal(out), "round trip changed the bag")
	assert.Nil(t, out.GetStringPtr("Uuid"))
	assert.Nil(t, out.GetBytes("NullBlob"))
	assert.NotNil(t, out.GetBytes("EmptyBlob"))
	assert.Len(t, out.GetBytes("EmptyBlob"), 0)
	assert.Equal(t, int64(-7), out.GetInt("Negative"))
}

func TestEncodeDecodeEmptyBag(t *testing.T) {
	testlog.Start(t)
	raw, err := Encode(New())
	require.NoError(t, err)
	assert.Empty(t, raw)

	out, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.True(t, New().Equal(out))
}

func TestEncodeIsDeterministic(t *testing.T) {
	testlog.Start(t)
	a := New()
	a.SetString("b", "2")
	a.SetString("a", "1")
	a.SetInt("c", 3)

	b := New()
	b.SetInt("c", 3)
	b.SetString("a", "1")
	b.SetString("b", "2")

	ra, err := Encode(a)
	require.NoError(t, err)
	rb, err := Encode(b)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)

	rc, err := Encode(a.Clone())
	require.NoError(t, err)
	assert.Equal(t, ra, rc)
}

func TestAbsentPropertiesReadZeroValues(t *testing.T) {
	testlog.Start(t)
	b := New()
	assert.Equal(t, "", b.GetString("missing"))
	assert.Nil(t, b.GetStringPtr("missing"))
	assert.Equal(t, int64(0), b.GetInt("missing"))
	assert.False(t, b.GetBool("missing"))
	assert.Nil(t, b.GetBytes("missing"))

	var nilBag *Bag
	assert.Equal(t, "", nilBag.GetString("missing"))
	assert.Equal(t, 0, nilBag.Len())
}

func TestKindMismatchReadsZeroValue(t *testing.T) {
	testlog.Start(t)
	b := New()
	b.SetInt("Version", 3)
	assert.Equal(t, "", b.GetString("Version"))
	assert.False(t, b.GetBool("Version"))
}

func TestSetDropsFieldsForeignToKind(t *testing.T) {
	testlog.Start(t)
	b := New()
	b.Set("NullName", Value{Kind: KindString, Null: true, Str: "x"})
	b.Set("Name", Value{Kind: KindString, Str: "y", Bytes: []byte{1}, Int: 4})
	b.Set("Count", Value{Kind: KindInt, Null: true, Int: 3, Str: "z"})
	b.Set("Flag", Value{Kind: KindBool, Null: true, Bool: true})
	b.Set("Blob", Value{Kind: KindBytes, Null: true, Bytes: []byte{2}})

	raw, err := Encode(b)
	require.NoError(t, err)
	out, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, b.Equal(out), "stored values must match what was encoded")

	v, _ := b.Get("NullName")
	assert.Equal(t, Value{Kind: KindString, Null: true}, v)
	v, _ = b.Get("Name")
	assert.Equal(t, Value{Kind: KindString, Str: "y"}, v)
	assert.Equal(t, int64(3), b.GetInt("Count"))
	assert.True(t, b.GetBool("Flag"))
	assert.Nil(t, b.GetBytes("Blob"))
}

func TestCloneIsIndependent(t *testing.T) {
	testlog.Start(t)
	src := []byte{1, 2, 3}
	b := New()
	b.SetBytes("Result", src)
	src[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, b.GetBytes("Result"), "SetBytes must copy")

	c := b.Clone()
	v, _ := c.Get("Result")
	v.Bytes[0] = 7
	c.SetString("Name", "changed")

	assert.Equal(t, []byte{1, 2, 3}, b.GetBytes("Result"))
	assert.False(t, b.Has("Name"))
}

func TestJSONProperty(t *testing.T) {
	testlog.Start(t)
	type descriptor struct {
		String string `json:"String"`
		Type   string `json:"Type"`
	}
	b := New()
	require.NoError(t, b.SetJSON("Error", descriptor{String: "boom", Type: "custom"}))

	var got descriptor
	ok, err := b.GetJSON("Error", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "boom", got.String)

	var none *descriptor
	require.NoError(t, b.SetJSON("Error", none))
	ok, err = b.GetJSON("Error", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	b.SetString("Bad", "{")
	_, err = b.GetJSON("Bad", &got)
	assert.Error(t, err)
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	testlog.Start(t)
	valid, err := Encode(sampleBag())
	require.NoError(t, err)

	cases := map[string]struct {
		payload []byte
		want    error
	}{
		"short header":   {payload: []byte{byte(KindInt), 0}, want: ErrShortHeader},
		"short name":     {payload: []byte{byte(KindInt), 0, 5, 'a'}, want: ErrShortHeader},
		"short int":      {payload: []byte{byte(KindInt), 0, 1, 'a', 0, 0}, want: ErrShortValue},
		"unknown kind":   {payload: []byte{0x7f, 0, 1, 'a'}, want: ErrUnknownKind},
		"invalid bool":   {payload: []byte{byte(KindBool), 0, 1, 'a', 2}, want: ErrInvalidBool},
		"negative len":   {payload: []byte{byte(KindString), 0, 1, 'a', 0xff, 0xff, 0xff, 0xfe}, want: ErrInvalidLength},
		"short string":   {payload: []byte{byte(KindString), 0, 1, 'a', 0, 0, 0, 4, 'x'}, want: ErrShortValue},
		"truncated tail": {payload: valid[:len(valid)-1], want: ErrShortValue},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(tc.payload)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v want %v", err, tc.want)
		})
	}
}

func TestDecodeRejectsDuplicateNames(t *testing.T) {
	testlog.Start(t)
	one := New()
	one.SetBool("a", true)
	raw, err := Encode(one)
	require.NoError(t, err)

	_, err = Decode(append(bytes.Clone(raw), raw...))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestDecodeReturnsPartialBagOnError(t *testing.T) {
	testlog.Start(t)
	b := New()
	b.SetInt("A", 1)
	raw, err := Encode(b)
	require.NoError(t, err)
	raw = append(raw, 0x7f)

	partial, err := Decode(raw)
	require.Error(t, err)
	assert.Equal(t, int64(1), partial.GetInt("A"))
}
