package domain

import "testing"

func TestUserIsComplete(t *testing.T) {
	cases := []struct {
		step int
		want bool
	}{
		{StepNone, false},
		{StepCredentials, false},
		{StepProfile, false},
		{StepDocuments, true},
	}
	for _, tc := range cases {
		u := User{RegistrationStep: tc.step}
		if got := u.IsComplete(); got != tc.want {
			t.Errorf("IsComplete with step %d = %v, want %v", tc.step, got, tc.want)
		}
	}
}
