package datagokr

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeader_ServiceResult(t *testing.T) {
	var h Header
	require.NoError(t, xml.Unmarshal([]byte(`<response><header><resultCode>03</resultCode><resultMsg>NODATA_ERROR</resultMsg></header></response>`), &h))

	code, msg := h.Result()
	assert.Equal(t, "03", code)
	assert.Equal(t, "NODATA_ERROR", msg)
}

func TestHeader_GatewayRejection(t *testing.T) {
	var h Header
	require.NoError(t, xml.Unmarshal([]byte(`<OpenAPI_ServiceResponse><cmmMsgHeader>
		<errMsg>SERVICE ERROR</errMsg>
		<returnAuthMsg>SERVICE_KEY_IS_NOT_REGISTERED_ERROR</returnAuthMsg>
		<returnReasonCode>30</returnReasonCode>
	</cmmMsgHeader></OpenAPI_ServiceResponse>`), &h))

	code, msg := h.Result()
	assert.Equal(t, "30", code)
	assert.Equal(t, "SERVICE_KEY_IS_NOT_REGISTERED_ERROR", msg)
}

func TestQuery_DecodesEncodedKey(t *testing.T) {
	q := Query("abc%2Bdef%3D%3D")
	assert.Equal(t, "abc+def==", q.Get("serviceKey"))
	assert.Equal(t, "serviceKey=abc%2Bdef%3D%3D", q.Encode())
}

func TestQuery_RawKey(t *testing.T) {
	assert.Equal(t, "abc+def==", Query("abc+def==").Get("serviceKey"))
}
