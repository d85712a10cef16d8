package service

import (
	"strings"
	"testing"
	"time"
)

func TestCompanyEmail(t *testing.T) {
	tests := []struct {
		first, last string
		suffix      int
		want        string
	}{
		{"Jane", "Doe", 0, "jane.doe@lizza.com"},
		{"  Jane ", "DOE", 0, "jane.doe@lizza.com"},
		{"Jane", "Doe", 42, "jane.doe42@lizza.com"},
	}
	for _, tt := range tests {
		if got := companyEmail(tt.first, tt.last, tt.suffix); got != tt.want {
			t.Errorf("companyEmail(%q, %q, %d) = %q, want %q", tt.first, tt.last, tt.suffix, got, tt.want)
		}
	}
}

func TestTempPasswordFromDOB(t *testing.T) {
	got, err := tempPasswordFromDOB("1994-03-07")
	if err != nil {
		t.Fatal(err)
	}
	if got != "07031994" {
		t.Errorf("password = %q, want 07031994", got)
	}

	for _, bad := range []string{"", "07/03/1994", "1994-13-01", "yesterday"} {
		if _, err := tempPasswordFromDOB(bad); err == nil {
			t.Errorf("tempPasswordFromDOB(%q) accepted", bad)
		}
	}
}

func TestEmployeeCode(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	code := employeeCode("jane.doe@lizza.com", now)
	if !strings.HasPrefix(code, "LIZZA-") {
		t.Fatalf("code = %q, missing prefix", code)
	}
	suffix := strings.TrimPrefix(code, "LIZZA-")
	if len(suffix) != 10 {
		t.Errorf("suffix length = %d, want 10", len(suffix))
	}
	if suffix != strings.ToUpper(suffix) {
		t.Errorf("suffix %q not upper-cased", suffix)
	}
	if code != employeeCode("jane.doe@lizza.com", now) {
		t.Error("code not stable for identical inputs")
	}
	if code == employeeCode("john.roe@lizza.com", now) {
		t.Error("distinct emails collided")
	}
}
