package notification

import (
	"fmt"
	"strings"
)

var Platforms = []string{"ios", "android", "web"}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (r *RegisterDeviceRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	r.Platform = strings.ToLower(strings.TrimSpace(r.Platform))
	if r.Token == "" {
		return fmt.Errorf("token is required")
	}
	if r.Platform == "" {
		r.Platform = "android"
	}
	for _, p := range Platforms {
		if r.Platform == p {
			return nil
		}
	}
	return fmt.Errorf("platform must be one of %s", strings.Join(Platforms, ", "))
}
