package pin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		sms  string
		want string
	}{
		{
			name: "plain digits",
			sms:  "Your Google verification number is 4821",
			want: "4821",
		},
		{
			name: "code marker",
			sms:  "code: 123456 expires in 10 minutes",
			want: "123456",
		},
		{
			name: "verification marker",
			sms:  "Verification: 99881 do not share",
			want: "99881",
		},
		{
			name: "pin marker uppercase",
			sms:  "PIN 7777 is your login pin",
			want: "7777",
		},
		{
			name: "marker wins over earlier digits",
			sms:  "ref 12 code: 555444",
			want: "555444",
		},
		{
			name: "no digits",
			sms:  "Welcome aboard!",
			want: "",
		},
		{
			name: "empty message",
			sms:  "",
			want: "",
		},
		{
			name: "too short bare number ignored",
			sms:  "queue position 42",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.sms))
		})
	}
}
