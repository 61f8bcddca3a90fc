package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDeviceRequestValidate(t *testing.T) {
	req := RegisterDeviceRequest{Token: "  abc ", Platform: " IOS "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "abc", req.Token)
	assert.Equal(t, "ios", req.Platform)

	req = RegisterDeviceRequest{Token: "abc"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "android", req.Platform)

	req = RegisterDeviceRequest{Token: "abc", Platform: "pager"}
	assert.Error(t, req.Validate())

	req = RegisterDeviceRequest{Token: " "}
	assert.Error(t, req.Validate())
}
