package instagram

import (
	"reflect"
	"testing"
)

func TestCandidateURLs(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{
			name: "canonical host gets siblings",
			in:   "https://v3b.fal.media/files/x/y.jpg?token=1",
			want: []string{
				"https://v3b.fal.media/files/x/y.jpg?token=1",
				"https://v3.fal.media/files/x/y.jpg?token=1",
				"https://fal.media/files/x/y.jpg?token=1",
			},
		},
		{
			name: "alternate host keeps original first",
			in:   "https://fal.media/files/x/y.jpg",
			want: []string{
				"https://fal.media/files/x/y.jpg",
				"https://v3b.fal.media/files/x/y.jpg",
				"https://v3.fal.media/files/x/y.jpg",
			},
		},
		{name: "foreign host alone", in: "http://cdn.example.com/a.png", want: []string{"http://cdn.example.com/a.png"}},
		{name: "relative rejected", in: "/files/a.png", wantErr: true},
		{name: "data URL rejected", in: "data:image/png;base64,AAAA", wantErr: true},
		{name: "ftp rejected", in: "ftp://fal.media/files/a.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CandidateURLs(tt.in, testHosts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CandidateURLs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// These strings are provider error text observed in production. A change
// in provider wording silently disables the retry, so this list is only as
// good as the last time someone checked real responses.
func TestIsURLRejection(t *testing.T) {
	for msg, want := range map[string]bool{
		"The string did not match the expected pattern.": true,
		"Invalid URL provided for image_url":             true,
		"error code INVALID_URL":                         true,
		"Application request limit reached":              false,
		"The caption is too long":                        false,
		"":                                               false,
	} {
		if got := IsURLRejection(msg); got != want {
			t.Errorf("IsURLRejection(%q) = %v, want %v", msg, got, want)
		}
	}
}

func TestIsUsableUserID(t *testing.T) {
	for id, want := range map[string]bool{
		"17841412345678":        true,
		"123456":                true,
		PlaceholderUserID:       false,
		"":                      false,
		"12345":                 false,
		"abc1234567":            false,
		"123456789012345678901": false,
	} {
		if got := IsUsableUserID(id); got != want {
			t.Errorf("IsUsableUserID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestNewRequestTrimsAndTruncates(t *testing.T) {
	long := make([]rune, 3000)
	for i := range long {
		long[i] = 'a'
	}
	req := NewRequest("  https://x.test/a.jpg ", string(long), " 17841412345678 ", " ca_1 ")
	if req.ImageURL != "https://x.test/a.jpg" || req.UserID != "17841412345678" || req.ConnectedAccountID != "ca_1" {
		t.Errorf("inputs not trimmed: %+v", req)
	}
	if len([]rune(req.Caption)) != MaxCaptionLength {
		t.Errorf("caption length = %d", len([]rune(req.Caption)))
	}
}
