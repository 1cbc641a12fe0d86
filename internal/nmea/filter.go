package nmea

// RMC: Recommended Minimum Specific GNSS Data
// Field positions (NMEA 0183 v2.3):
//
//	0: talker+type
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
const (
	FieldHeader = iota
	FieldTime
	FieldStatus
	FieldLatitude
	FieldNS
	FieldLongitude
	FieldEW
	FieldSpeed
	FieldCourse
	FieldDate
)

const (
	StatusValid   = 'A'
	StatusInvalid = 'V'
)

// IsRMC reports whether the header field of line names an RMC sentence.
// Only positions 3..5 are compared, so any talker ($GP, $GN, $GL, ...) is
// accepted. The header ends at the first comma or NUL.
func IsRMC(line []byte) bool {
	end := 0
	for end < len(line) && line[end] != ',' && line[end] != 0 {
		end++
	}
	if end < 6 {
		return false
	}
	return line[3] == 'R' && line[4] == 'M' && line[5] == 'C'
}

// FixValid reports whether a tokenized RMC line carries status A.
func FixValid(t *Tokens) bool {
	status := t.Field(FieldStatus)
	return len(status) > 0 && status[0] == StatusValid
}
