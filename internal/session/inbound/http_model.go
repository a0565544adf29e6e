package inbound

import (
	"encoding/json"
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpsession/internal/session/entity"
)

type ObtainSessionRequest struct {
	User struct {
		Email string `json:"email"`
	} `json:"user"`
	Device struct {
		Type       string `json:"type"`
		VendorUUID string `json:"vendor_uuid"`
	} `json:"device"`
}

type ConfirmSessionRequest struct {
	OTPCode otpCode `json:"otp_code"`
}

// otpCode accepts any JSON value. Anything other than a string decodes to
// the empty code, which is rejected as a wrong code.
type otpCode string

func (c *otpCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*c = ""
		return nil
	}
	*c = otpCode(s)
	return nil
}

type UserResponse struct {
	UUID  string `json:"uuid"`
	Email string `json:"email"`
}

type DeviceResponse struct {
	UUID string `json:"uuid"`
	Type string `json:"type"`
	// VendorUUID is only rendered for mobile devices.
	VendorUUID string `json:"vendor_uuid,omitempty"`
}

type SessionResponse struct {
	UUID        string         `json:"uuid"`
	Token       string         `json:"token"`
	Status      string         `json:"status"`
	IsNewUser   bool           `json:"is_new_user"`
	IsNewDevice bool           `json:"is_new_device"`
	User        UserResponse   `json:"user"`
	Device      DeviceResponse `json:"device"`

	code int
}

func (r SessionResponse) StatusCode() int {
	return lo.Ternary(r.code == 0, http.StatusOK, r.code)
}

func newSessionResponse(ss entity.Session, code int) SessionResponse {
	device := DeviceResponse{
		UUID: ss.Device.PrefixedID(),
		Type: ss.Device.Kind.String(),
	}
	if ss.Device.Kind == entity.DeviceKindMobile && ss.Device.VendorID != nil {
		device.VendorUUID = lo.FromPtr(ss.Device.VendorID).String()
	}

	return SessionResponse{
		UUID:        ss.PrefixedID(),
		Token:       ss.Token,
		Status:      ss.Status.String(),
		IsNewUser:   ss.IsNewUser,
		IsNewDevice: ss.IsNewDevice,
		User: UserResponse{
			UUID:  ss.User.PrefixedID(),
			Email: ss.User.Email,
		},
		Device: device,
		code:   code,
	}
}
