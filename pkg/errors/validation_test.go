package errors

import (
	"strings"
	"testing"
)

func TestValidateOID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"dataset", "IG.AE", false},
		{"value", "IT.LB.LBORRES.GLUC", false},
		{"slash", "STD.CDISC/NCI.SDTM.2023-06-30", false},

		{"empty", "", true},
		{"too long", strings.Repeat("x", 300), true},
		{"space", "IT.AE AETERM", true},
		{"quote", `IG."AE"`, true},
		{"angle", "IG.<AE>", true},
		{"control char", "IG.\x01AE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidOID) {
				t.Errorf("ValidateOID(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		schemes []string
		wantErr bool
	}{
		{"https", "https://example.com/define2-1.xsl", nil, false},
		{"http", "http://example.com/path", nil, false},
		{"mongodb", "mongodb://localhost:27017", []string{"mongodb", "mongodb+srv"}, false},
		{"redis", "redis://localhost:6379/0", []string{"redis", "rediss"}, false},

		{"empty", "", nil, true},
		{"ftp", "ftp://example.com", nil, true},
		{"javascript", "javascript:alert(1)", nil, true},
		{"wrong scheme", "http://localhost", []string{"mongodb"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input, tt.schemes...)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	valid := []string{
		"define.xml",
		"studies/CDISC01/define.xml",
		"v2.1/metadata.xlsx",
		"archive/define..old.xml",
	}
	for _, p := range valid {
		if err := ValidatePath(p); err != nil {
			t.Errorf("ValidatePath(%q) = %v", p, err)
		}
	}

	invalid := map[string]string{
		"empty":       "",
		"too long":    strings.Repeat("a/", 300),
		"absolute":    "/etc/passwd",
		"leading ..":  "../../../etc/passwd",
		"inner ..":    "specs/../other/define.xml",
		"trailing ..": "specs/..",
		"null byte":   "define\x00.xml",
		"newline":     "define\n.xml",
		"backslash":   `specs\define.xml`,
	}
	for name, p := range invalid {
		t.Run(name, func(t *testing.T) {
			if err := ValidatePath(p); !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) = %v, want INVALID_PATH", p, err)
			}
		})
	}
}

func TestEveryInputCodeIsAClientError(t *testing.T) {
	for _, code := range []Code{
		ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidOID,
		ErrCodeInvalidPath, ErrCodeMissingSheet,
	} {
		if s := code.Status(); s < 400 || s >= 500 {
			t.Errorf("%s maps to %d", code, s)
		}
	}
	if s := Code("SOMETHING_NEW").Status(); s != 500 {
		t.Errorf("unknown code maps to %d, want 500", s)
	}
}
