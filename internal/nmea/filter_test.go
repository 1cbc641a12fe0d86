package nmea

import "testing"

func TestIsRMC(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"$GPRMC,023936.000,A", true},
		{"$GNRMC,023936.000,A", true},
		{"$GLRMC", true},
		{"$GPGGA,123519,4807.038,N", false},
		{"$GPRM", false},
		{"", false},
		{"ab,RMC,1", false},
		{"$GPrmc,1", false},
	}
	for _, tc := range cases {
		if got := IsRMC([]byte(tc.line)); got != tc.want {
			t.Fatalf("IsRMC(%q)=%v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestIsRMC_AfterTokenize(t *testing.T) {
	line := []byte("$GNRMC,1,A")
	var tok Tokens
	Tokenize(line, &tok)
	if !IsRMC(line) {
		t.Fatalf("tokenized RMC line not recognized")
	}

	short := []byte("$GP,RMC")
	Tokenize(short, &tok)
	if IsRMC(short) {
		t.Fatalf("header cut short by a comma must not match")
	}
}

func TestFixValid(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"$GPRMC,1,A,2", true},
		{"$GPRMC,1,V,2", false},
		{"$GPRMC,1", false},  // no status slot
		{"$GPRMC,1,", false}, // empty status slot
	}
	for _, tc := range cases {
		var tok Tokens
		Tokenize([]byte(tc.line), &tok)
		if got := FixValid(&tok); got != tc.want {
			t.Fatalf("FixValid(%q)=%v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestFixValid_SurvivesRetokenize(t *testing.T) {
	line := []byte("$GPRMC,023936.000,A,1111.1234,N,12345.4321,W,0.54,243.41,180419,,,A*74")
	var tok Tokens
	Tokenize(line, &tok)
	Tokenize(line, &tok)
	if !FixValid(&tok) {
		t.Fatalf("status lost after second tokenize: %q", tok.Field(FieldStatus))
	}
	if got := string(tok.Field(FieldDate)); got != "180419" {
		t.Fatalf("date slot=%q after second tokenize", got)
	}
}
