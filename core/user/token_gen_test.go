package user

import (
	"testing"
	"time"

	"github.com/nuvatw/nuva-club/core"
)

func TestMakeVerifyToken(t *testing.T) {
	tg := tokenGenerator{secret: "secret", timeout: 3 * 24 * time.Hour}

	now := time.Now().UTC()
	usr := User{
		ID:        "8c4e1d5a-5a3e-4a4b-9d6f-0d1f2e3a4b5c",
		Name:      "T",
		Username:  "tee",
		Email:     "t@test.test",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = usr.SetPassword("pwd")

	validToken, err := tg.makeToken(usr)
	if err != nil {
		t.Fatal(err)
	}

	// generate an expired token
	dayLate := tg.timeout + (24 * time.Hour)
	origNowFunc := core.NowFunc
	core.NowFunc = func() time.Time { return time.Now().UTC().Add(-dayLate) }
	expiredToken, err := tg.makeToken(usr)
	core.NowFunc = origNowFunc
	if err != nil {
		t.Fatal(err)
	}

	loggedIn := usr
	loggedIn.LastLogin = now.Add(time.Minute)

	otherSecret := tokenGenerator{secret: "other", timeout: tg.timeout}

	tests := []struct {
		name    string
		tg      tokenGenerator
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", tg: tg, usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", tg: tg, usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", tg: tg, usr: usr, token: "hahaha-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", tg: tg, usr: usr, token: "NRXWY-sigsig-sig", wantErr: errInvalidToken},
		{name: "invalid token", tg: tg, usr: usr, token: "HE4TS-sigsig-sig", wantErr: errInvalidToken},
		{name: "expired token", tg: tg, usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "user logged in since", tg: tg, usr: loggedIn, token: validToken, wantErr: errInvalidToken},
		{name: "other secret", tg: otherSecret, usr: usr, token: validToken, wantErr: errInvalidToken},
		{name: "valid token", tg: tg, usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tg.verifyToken(tt.usr, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	usr := User{ID: "8c4e1d5a-5a3e-4a4b-9d6f-0d1f2e3a4b5c"}
	id, err := decodeUID(EncodeUID(usr))
	if err != nil {
		t.Fatal(err)
	}
	if id != usr.ID {
		t.Errorf("decodeUID() = %v, want %v", id, usr.ID)
	}
}
