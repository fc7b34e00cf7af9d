package district

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/parcel-risk/internal/model"
)

func requireInvalidAddress(t *testing.T, err error) *model.InvalidAddressError {
	t.Helper()
	require.Error(t, err)
	var invalid *model.InvalidAddressError
	require.True(t, errors.As(err, &invalid), "expected InvalidAddressError, got %v", err)
	return invalid
}

func TestResolve_LongestMatch(t *testing.T) {
	codec := NewCodec(sampleTable())

	got, err := codec.Resolve("서울특별시 강남구 역삼동 777-12")
	require.NoError(t, err)
	assert.Equal(t, model.ResolvedAddress{
		LegalCode:     "1168010100",
		CanonicalName: "서울특별시 강남구 역삼동",
		LotMain:       "0777",
		LotSub:        "0012",
	}, got)
}

func TestResolve_ShorterAlternativeDoesNotChangeResult(t *testing.T) {
	withoutShort := NewCodec(NewTable([]model.LegalDistrictRecord{
		{Code: "1168010100", Name: "서울특별시 강남구 역삼동"},
	}))
	withShort := NewCodec(NewTable([]model.LegalDistrictRecord{
		{Code: "1168000000", Name: "서울특별시 강남구"},
		{Code: "1168010100", Name: "서울특별시 강남구 역삼동"},
		{Code: "1100000000", Name: "서울특별시"},
	}))

	a, err := withoutShort.Resolve("서울특별시 강남구 역삼동 1")
	require.NoError(t, err)
	b, err := withShort.Resolve("서울특별시 강남구 역삼동 1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestResolve_Blank(t *testing.T) {
	codec := NewCodec(sampleTable())
	for _, addr := range []string{"", "   ", "\t\n"} {
		_, err := codec.Resolve(addr)
		inv := requireInvalidAddress(t, err)
		assert.Equal(t, "address is blank", inv.Reason)
	}
}

func TestResolve_NoLotNumber(t *testing.T) {
	_, err := NewCodec(sampleTable()).Resolve("서울특별시 강남구 역삼동")
	inv := requireInvalidAddress(t, err)
	assert.Equal(t, "no lot number", inv.Reason)
}

func TestResolve_LotOnly(t *testing.T) {
	_, err := NewCodec(sampleTable()).Resolve("777-1")
	requireInvalidAddress(t, err)
}

func TestResolve_NoDistrictMatch(t *testing.T) {
	_, err := NewCodec(sampleTable()).Resolve("부산광역시 해운대구 우동 1408")
	inv := requireInvalidAddress(t, err)
	assert.Equal(t, "no legal district matches", inv.Reason)
}

func TestResolve_MunicipalOnlyMatchRejected(t *testing.T) {
	codec := NewCodec(sampleTable())

	// 세곡동 is not in the table; only the enclosing 강남구 row matches.
	_, err := codec.Resolve("서울특별시 강남구 세곡동 1")
	inv := requireInvalidAddress(t, err)
	assert.Contains(t, inv.Reason, "서울특별시 강남구")

	_, err = codec.Resolve("서울특별시 1")
	requireInvalidAddress(t, err)
}

func TestResolve_MissingSubLotDefaultsToZero(t *testing.T) {
	got, err := NewCodec(sampleTable()).Resolve("  서울특별시 강남구 역삼동 777  ")
	require.NoError(t, err)
	assert.Equal(t, "0777", got.LotMain)
	assert.Equal(t, "0000", got.LotSub)
}

func TestResolve_LotWithoutSpace(t *testing.T) {
	got, err := NewCodec(sampleTable()).Resolve("서울특별시 강남구 역삼동823-1")
	require.NoError(t, err)
	assert.Equal(t, "1168010100", got.LegalCode)
	assert.Equal(t, "0823", got.LotMain)
	assert.Equal(t, "0001", got.LotSub)
}

func TestResolve_ProvinceAlias(t *testing.T) {
	codec := NewCodec(sampleTable())

	got, err := codec.Resolve("서울시 강남구 역삼동 777-0")
	require.NoError(t, err)
	assert.Equal(t, "1168010100", got.LegalCode)
	assert.Equal(t, "서울특별시 강남구 역삼동", got.CanonicalName)
	assert.Equal(t, "0777", got.LotMain)
	assert.Equal(t, "0000", got.LotSub)

	got, err = codec.Resolve("서울  강남구   역삼동 5")
	require.NoError(t, err)
	assert.Equal(t, "1168010100", got.LegalCode)
}

func TestResolve_LongLotKept(t *testing.T) {
	got, err := NewCodec(sampleTable()).Resolve("서울특별시 강남구 역삼동 12345-6")
	require.NoError(t, err)
	assert.Equal(t, "12345", got.LotMain)
	assert.Equal(t, "0006", got.LotSub)
}

func TestResolve_TableLoadError(t *testing.T) {
	codec := NewCodec(NewLoader(func() (*Table, error) {
		return nil, errors.New("boom")
	}))
	_, err := codec.Resolve("서울특별시 강남구 역삼동 1")
	require.Error(t, err)

	var invalid *model.InvalidAddressError
	assert.False(t, errors.As(err, &invalid))
	assert.Contains(t, err.Error(), "load reference table")
}

func TestResolve_EmbeddedSnapshot(t *testing.T) {
	codec := NewCodec(NewLoader(SampleSource()))

	got, err := codec.Resolve("경기 성남시 분당구 정자동 178-1")
	require.NoError(t, err)
	assert.Equal(t, "4113510300", got.LegalCode)
	assert.Equal(t, "0178", got.LotMain)
	assert.Equal(t, "0001", got.LotSub)
}
