package segment

import "fmt"

// QualityFlag is the verdict of the quality filter on a segment.
// The zero value is QualityUnknown: not yet checked.
type QualityFlag int

const (
	QualityUnknown QualityFlag = iota
	QualityValid
	QualityInsufficientPoints
	QualityStationary
	QualityGPSJump
	QualityExcessiveSpeed
)

var QualityFlags = []QualityFlag{
	QualityUnknown,
	QualityValid,
	QualityInsufficientPoints,
	QualityStationary,
	QualityGPSJump,
	QualityExcessiveSpeed,
}

func (q QualityFlag) String() string {
	switch q {
	case QualityUnknown:
		return "unknown"
	case QualityValid:
		return "valid"
	case QualityInsufficientPoints:
		return "insufficient_points"
	case QualityStationary:
		return "stationary"
	case QualityGPSJump:
		return "gps_jump"
	case QualityExcessiveSpeed:
		return "excessive_speed"
	}
	return fmt.Sprintf("QualityFlag(%d)", int(q))
}

func (q QualityFlag) IsValid() bool {
	return q == QualityValid
}

func (q QualityFlag) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

func (q *QualityFlag) UnmarshalText(text []byte) error {
	v, err := ParseQualityFlag(string(text))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

func ParseQualityFlag(s string) (QualityFlag, error) {
	for _, q := range QualityFlags {
		if q.String() == s {
			return q, nil
		}
	}
	return QualityUnknown, fmt.Errorf("unknown quality flag %q", s)
}
