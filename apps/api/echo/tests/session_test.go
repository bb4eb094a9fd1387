package tests

import (
	"net/http"
	"net/url"
	"testing"

	echoapi "github.com/darasapp/darasa/apps/api/echo"
	"github.com/darasapp/darasa/core/user"
	testutil "github.com/darasapp/darasa/tests"
)

func Test_sessionApi_navigate(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", user.RoleStudent, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teacher@test.cd", "", user.RoleTeacher, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", user.RoleAdmin, true)
	// a profile record carrying a role the guard does not know
	foreign := testutil.CreateUser(t, usrRepo, "Misfit", "misfit1", "misfit@test.cd", "", "principal", true)

	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)
	adminToken := getToken(t, admin)
	foreignToken := getToken(t, foreign)

	path := func(p string) string {
		v := make(url.Values)
		v.Add("path", p)
		return "/v1/session/navigate?" + v.Encode()
	}
	allow := marchallObj(t, echoapi.NavigateResponse{Decision: "allow"})
	redirect := func(to string) []byte {
		return marchallObj(t, echoapi.NavigateResponse{Decision: "redirect", RedirectTo: to})
	}
	pending := marchallObj(t, echoapi.NavigateResponse{Decision: "pending"})

	tests := []httpTest{
		{name: "path is required", path: "/v1/session/navigate", wantCode: http.StatusBadRequest},
		// anonymous callers
		{name: "anonymous on public route", path: path("/login")},
		{name: "anonymous on public subpath", path: path("/password-reset/abc/def")},
		{name: "anonymous on root", path: path("/"), wantData: redirect("/login")},
		{name: "anonymous on shared route", path: path("/announcements"), wantData: redirect("/login")},
		{name: "anonymous on scoped route", path: path("/teacher"), wantData: redirect("/login")},
		{name: "anonymous on unknown route", path: path("/whatever")},
		// student session
		{name: "student on own dashboard", path: path("/dashboard"), token: studentToken},
		{name: "student on root", path: path("/"), token: studentToken, wantData: redirect("/dashboard")},
		{name: "student on shared route", path: path("/announcements"), token: studentToken},
		{name: "student on teacher route", path: path("/teacher"), token: studentToken, wantData: redirect("/dashboard")},
		{name: "student on admin route", path: path("/admin"), token: studentToken, wantData: redirect("/dashboard")},
		{name: "student on unknown route", path: path("/whatever"), token: studentToken},
		// teacher session
		{name: "teacher on own portal", path: path("/teacher"), token: teacherToken},
		{name: "teacher on root", path: path("/"), token: teacherToken, wantData: redirect("/teacher")},
		{name: "teacher on admin route", path: path("/admin"), token: teacherToken, wantData: redirect("/teacher")},
		// admin session
		{name: "admin on own portal subpath", path: path("/admin/help"), token: adminToken},
		{name: "admin on shared dashboard", path: path("/dashboard"), token: adminToken},
		{name: "admin on teacher portal", path: path("/teacher"), token: adminToken, wantData: redirect("/admin")},
		// unresolvable role claims
		{name: "foreign role on scoped route", path: path("/teacher"), token: foreignToken, wantData: pending},
		{name: "foreign role on shared route", path: path("/announcements"), token: foreignToken},
		{name: "foreign role on public route", path: path("/login"), token: foreignToken},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		if tt.wantData == nil && tt.wantCode == http.StatusOK {
			tt.wantData = allow
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusBadRequest {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

// Repeated calls with the same session must produce the same decision, and
// following a redirect must land on an allowed route.
func Test_sessionApi_navigateStable(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", user.RoleStudent, true)
	token := getToken(t, student)

	want := marchallObj(t, echoapi.NavigateResponse{Decision: "redirect", RedirectTo: "/dashboard"})
	for i := 0; i < 3; i++ {
		tt := httpTest{name: "redirect", wantCode: http.StatusOK, wantData: want}
		req, rec := newAuthRequest(http.MethodGet, "/v1/session/navigate?path=/teacher", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	}

	tt := httpTest{name: "target allowed", wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.NavigateResponse{Decision: "allow"})}
	req, rec := newAuthRequest(http.MethodGet, "/v1/session/navigate?path=/dashboard", token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}
