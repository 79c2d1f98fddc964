package app

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/sqlvault/internal/infrastructure/logger"
)

const clientSecret = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"shh","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestDriveAuthServer(t *testing.T) {
	Convey("Given a Drive auth server", t, func() {
		dir, err := os.MkdirTemp("", "oauth_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		secretFile := filepath.Join(dir, "client_secret.json")
		So(os.WriteFile(secretFile, []byte(clientSecret), 0600), ShouldBeNil)

		s, err := NewDriveAuthServer(logger.NewNop(), secretFile, ":8085", "xyz")
		So(err, ShouldBeNil)
		handler := s.routes()

		Convey("The start page should redirect to Google with our state", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/drive", nil))

			So(rec.Code, ShouldEqual, http.StatusTemporaryRedirect)
			loc, err := url.Parse(rec.Header().Get("Location"))
			So(err, ShouldBeNil)
			So(loc.Host, ShouldEqual, "accounts.google.com")
			So(loc.Query().Get("state"), ShouldEqual, "xyz")
			So(loc.Query().Get("access_type"), ShouldEqual, "offline")
			So(loc.Query().Get("redirect_uri"), ShouldEqual, "http://localhost:8085/auth/google/callback")
		})

		Convey("The callback should reject a foreign state", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=other&code=abc", nil))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("The callback should require a code", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=xyz", nil))
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})

	Convey("A missing client secret should fail", t, func() {
		_, err := NewDriveAuthServer(logger.NewNop(), "", ":8085", "xyz")
		So(err, ShouldNotBeNil)

		_, err = NewDriveAuthServer(logger.NewNop(), "/does/not/exist.json", ":8085", "xyz")
		So(err, ShouldNotBeNil)
	})
}
