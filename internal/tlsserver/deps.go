package tlsserver

import (
	"github.com/rs/zerolog"

	"github.com/fryholic/cctv-coordinator/internal/auditlog"
	"github.com/fryholic/cctv-coordinator/internal/authtoken"
	"github.com/fryholic/cctv-coordinator/internal/bbox"
	"github.com/fryholic/cctv-coordinator/internal/cameraclient"
	"github.com/fryholic/cctv-coordinator/internal/config"
	"github.com/fryholic/cctv-coordinator/internal/lockout"
	"github.com/fryholic/cctv-coordinator/internal/metadata"
	"github.com/fryholic/cctv-coordinator/internal/otp"
	"github.com/fryholic/cctv-coordinator/internal/risk"
	"github.com/fryholic/cctv-coordinator/internal/store"
)

// Deps bundles every collaborator a request handler may need. One Deps is
// shared by every connection; per-connection mutable state lives on
// *session instead.
type Deps struct {
	Store         *store.Store
	Camera        *cameraclient.Client
	CameraType    string // "CCTV" selects the camera-mapping path for request 2
	Scale         config.Scale
	OTP           *otp.Manager
	Challenges    *authtoken.Manager
	Lockout       *lockout.Manager // nil disables lockout enforcement
	Risk          *risk.Tracker
	Audit         *auditlog.Publisher
	Buffer        *bbox.Buffer
	Parser        *metadata.Parser
	BufferDelayMs int
	SendInterval  int
	Log           zerolog.Logger
}
