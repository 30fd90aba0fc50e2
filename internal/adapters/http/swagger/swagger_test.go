package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRegister(t *testing.T) {
	convey.Convey("Given a mux with swagger routes registered", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		convey.Convey("When the spec is requested", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

			convey.Convey("Then the embedded document serves", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Header().Get("Content-Type"), convey.ShouldContainSubstring, "yaml")
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, "/predict")
			})
		})

		convey.Convey("When the docs page is requested", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api-docs", nil))

			convey.Convey("Then the ReDoc shell serves", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(strings.Contains(rec.Body.String(), "redoc"), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given error sentinels", t, func() {
		convey.Convey("Then ErrServe should be defined", func() {
			convey.So(ErrServe, convey.ShouldNotBeNil)
			convey.So(ErrServe.Error(), convey.ShouldEqual, "swagger serve failed")
		})
	})
}
