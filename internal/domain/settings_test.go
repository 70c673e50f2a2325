package domain

import "testing"

func TestParseAudioSettings(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		want   AudioSettings
		wantOK bool
	}{
		{"empty", "", DefaultAudioSettings(), false},
		{"garbage", "{not json", DefaultAudioSettings(), false},
		{"partial", `{"echoCancellation":false}`, AudioSettings{EchoCancellation: false, NoiseSuppression: true, AutoGainControl: true}, true},
		{"full", `{"echoCancellation":false,"noiseSuppression":false,"autoGainControl":false}`, AudioSettings{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseAudioSettings([]byte(tc.raw))
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("got (%+v, %v), want (%+v, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestNewCaller_Validation(t *testing.T) {
	if _, err := NewCaller(""); err != ErrCallerNameEmpty {
		t.Fatalf("err = %v, want ErrCallerNameEmpty", err)
	}
	long := make([]byte, MaxCallerNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := NewCaller(string(long)); err != ErrCallerNameTooLong {
		t.Fatalf("err = %v, want ErrCallerNameTooLong", err)
	}
	c, err := NewCaller("  Timmy ")
	if err != nil {
		t.Fatalf("NewCaller: %v", err)
	}
	if c.Name != "Timmy" || c.ID == "" {
		t.Fatalf("unexpected caller: %+v", c)
	}
}
