package user

import "testing"

func TestSuggestEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{email: "ann@gmail.com", want: ""},
		{email: "ann@gmial.com", want: "ann@gmail.com"},
		{email: "ann@gamil.com", want: "ann@gmail.com"},
		{email: "ann@gmail.co", want: "ann@gmail.com"},
		{email: "ann@gmail.con", want: "ann@gmail.com"},
		{email: "ann@yaho.com", want: "ann@yahoo.com"},
		{email: "ann@hotmial.com", want: "ann@hotmail.com"},
		{email: "ann@outlook.cmo", want: "ann@outlook.com"},
		{email: "ann@example.con", want: "ann@example.com"},
		{email: " Ann@GMIAL.com ", want: "ann@gmail.com"},
		{email: "ann@yahoo.com.tw", want: ""},
		{email: "ann@yahoo.com.hk", want: ""},
		{email: "ann@yahoo.com.au", want: ""},
		{email: "ann@yahoo.co.jp", want: ""},
		{email: "ann@hotmail.co.jp", want: ""},
		{email: "ann@yahoo.com.br", want: ""},
		{email: "ann@hotmail.co.kr", want: ""},
		{email: "ann@yahho.co.uk", want: "ann@yahoo.co.uk"},
		{email: "ann@yahoo.co.uk", want: ""},
		{email: "ann@mail.com", want: ""},
		{email: "ann@gmx.com", want: ""},
		{email: "ann@acme.com", want: ""},
		{email: "ann@nuva.tw", want: ""},
		{email: "not-an-email", want: ""},
		{email: "ann@", want: ""},
		{email: "@gmail.com", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := SuggestEmail(tt.email); got != tt.want {
				t.Errorf("SuggestEmail(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}
