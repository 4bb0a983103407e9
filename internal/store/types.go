package store

import "time"

// Detection is a stored alert snapshot: an opaque JPEG image plus capture
// timestamp. Detections are write-once; they are never updated, only
// selected and bulk-deleted (spec.md §3).
type Detection struct {
	ID        int64
	Image     []byte
	Timestamp time.Time
}

// LineMode is the crossing direction a CrossLine triggers on.
type LineMode string

const (
	LineModeRight         LineMode = "Right"
	LineModeLeft          LineMode = "Left"
	LineModeBothDirection LineMode = "BothDirections"
)

// CrossLine is an operator-defined virtual line on the camera image.
type CrossLine struct {
	Index int64
	X1    int64
	Y1    int64
	X2    int64
	Y2    int64
	Name  string
	Mode  LineMode
}

// BaseLine anchors two display-board matrix identifiers to a segment.
type BaseLine struct {
	Index      int64
	MatrixNum1 int64
	X1         int64
	Y1         int64
	MatrixNum2 int64
	X2         int64
	Y2         int64
}

// VerticalLineEquation is y = a*x + b, used by the out-of-scope risk
// analysis that the trajectory heuristic (internal/risk) feeds.
type VerticalLineEquation struct {
	Index int64
	A     float64
	B     float64
}

// Account is an operator credential: an Argon2id password hash plus
// optional TOTP enrolment.
type Account struct {
	ID           string
	PasswordHash string
	OTPSecret    string
	UseOTP       bool
}
