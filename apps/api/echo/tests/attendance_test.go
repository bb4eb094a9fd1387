package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/darasapp/darasa/core/attendance"
	"github.com/darasapp/darasa/core/user"
	testutil "github.com/darasapp/darasa/tests"
)

func Test_attendanceApi_record(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", user.RoleStudent, true)

	date := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	newRecord := func(studentID string) []byte {
		return marchallObj(t, attendance.NewRecord{StudentID: studentID, ClassName: "Algebra", Date: date, Present: true})
	}

	tests := []httpTest{
		{name: "Auth required", body: newRecord(student.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff required", body: newRecord(student.ID), token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "invalid student id", body: newRecord("lol"), token: getToken(t, teacher),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"student_id": "student_id must be a valid version 4 UUID"}),
		},
		{name: "recorded", body: newRecord(student.ID), token: getToken(t, teacher), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/attendance"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData attendance.Record
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.StudentID != student.ID {
					t.Errorf("failed! student_id = %s; want %s", respData.StudentID, student.ID)
				}
				// date lands truncated to the day
				if want := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC); !respData.Date.Equal(want) {
					t.Errorf("failed! date = %v; want %v", respData.Date, want)
				}
				if !respData.Present {
					t.Error("failed! record should be present")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_queryAndSummary(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", user.RoleStudent, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other1", "other@test.cd", "", user.RoleStudent, true)

	ctx := context.Background()
	svc := attendance.NewService(attRepo)
	mark := func(studentID, class string, day int, present bool) attendance.Record {
		rec, err := svc.Record(ctx, attendance.NewRecord{
			StudentID: studentID,
			ClassName: class,
			Date:      time.Date(2026, time.March, day, 8, 0, 0, 0, time.UTC),
			Present:   present,
		})
		if err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
		return rec
	}

	alg1 := mark(student.ID, "Algebra", 10, true)
	alg2 := mark(student.ID, "Algebra", 11, false)
	bio1 := mark(student.ID, "Biology", 10, true)
	alg3 := mark(other.ID, "Algebra", 10, false)

	teacherToken := getToken(t, teacher)

	path := func(base, studentID, class string) string {
		v := make(url.Values)
		if studentID != "" {
			v.Add("student_id", studentID)
		}
		if class != "" {
			v.Add("class_name", class)
		}
		if len(v) == 0 {
			return base
		}
		return base + "?" + v.Encode()
	}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/attendance", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff required", path: "/v1/attendance", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "query all", path: "/v1/attendance", token: teacherToken,
			wantData: marchallList(t, alg1, alg2, bio1, alg3),
		},
		{
			name: "query by class", path: path("/v1/attendance", "", "Algebra"), token: teacherToken,
			wantData: marchallList(t, alg1, alg2, alg3),
		},
		{
			name: "query by student", path: path("/v1/attendance", student.ID, "Biology"), token: teacherToken,
			wantData: marchallList(t, bio1),
		},
		{
			name: "summary all", path: "/v1/attendance/summary", token: teacherToken,
			wantData: marchallList(t,
				attendance.Summary{StudentID: student.ID, Present: 2, Total: 3, Percentage: 66.67},
				attendance.Summary{StudentID: other.ID, Present: 0, Total: 1, Percentage: 0},
			),
		},
		{
			name: "summary by class", path: path("/v1/attendance/summary", "", "Biology"), token: teacherToken,
			wantData: marchallList(t, attendance.Summary{StudentID: student.ID, Present: 1, Total: 1, Percentage: 100}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_mySummary(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", user.RoleStudent, true)
	fresher := testutil.CreateUser(t, usrRepo, "Fresh", "fresh1", "fresh@test.cd", "", user.RoleStudent, true)

	ctx := context.Background()
	svc := attendance.NewService(attRepo)
	for day, present := range map[int]bool{10: true, 11: true, 12: false, 13: true} {
		if _, err := svc.Record(ctx, attendance.NewRecord{
			StudentID: student.ID,
			ClassName: "Algebra",
			Date:      time.Date(2026, time.March, day, 8, 0, 0, 0, time.UTC),
			Present:   present,
		}); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "own summary", token: getToken(t, student), wantCode: http.StatusOK,
			wantData: marchallObj(t, attendance.Summary{StudentID: student.ID, Present: 3, Total: 4, Percentage: 75}),
		},
		{
			name: "no records yet", token: getToken(t, fresher), wantCode: http.StatusOK,
			wantData: marchallObj(t, attendance.Summary{StudentID: fresher.ID}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/attendance/me"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_destroyMultiple(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", user.RoleAdmin, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teacher@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", user.RoleStudent, true)

	ctx := context.Background()
	svc := attendance.NewService(attRepo)
	rec1, err := svc.Record(ctx, attendance.NewRecord{
		StudentID: student.ID, ClassName: "Algebra",
		Date: time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC), Present: true,
	})
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/attendance?id=" + rec1.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/attendance?id=" + rec1.ID, token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "no ids", path: "/v1/attendance", token: getToken(t, admin), wantCode: http.StatusNoContent},
		{name: "deleted", path: "/v1/attendance?id=" + rec1.ID, token: getToken(t, admin), wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusNoContent {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				if tt.name == "deleted" {
					if _, err := attRepo.GetRecord(context.Background(), rec1.ID); err != attendance.ErrNotFound {
						t.Errorf("GetRecord() err = %v; want %v", err, attendance.ErrNotFound)
					}
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
