package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/julienschmidt/httprouter"
	apiContext "spaces/internal/api/context"
	"spaces/internal/platform/auth"
	"spaces/internal/platform/repositories"
)

func orgRequest(userID, org string) *http.Request {
	req, _ := http.NewRequest("GET", "/", nil)
	ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{UserID: userID})
	ctx = context.WithValue(ctx, apiContext.Params, httprouter.Params{{Key: OrgParam, Value: org}})
	return req.WithContext(ctx)
}

func TestOrgMiddleware(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	middleware := NewOrgMiddleware(repositories.NewOrganizationRepository(db), repositories.NewOrgMemberRepository(db))
	orgCols := []string{"id", "shortcode", "name", "plan_tier", "created_at"}
	memberCols := []string{"id", "org_id", "user_id", "user_profile_id", "role", "status", "added_at", "removed_at"}

	t.Run("Active member", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE shortcode = ?").
			WithArgs("acme").
			WillReturnRows(sqlmock.NewRows(orgCols).AddRow("org_1", "acme", "Acme", "pro", 1700000000))
		mock.ExpectQuery("SELECT (.+) FROM org_members").
			WithArgs("org_1", "usr_1").
			WillReturnRows(sqlmock.NewRows(memberCols).AddRow("mem_1", "org_1", "usr_1", nil, "member", "active", 1700000000, nil))

		rr := httptest.NewRecorder()
		called := false
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			called = true
			org, ok := apiContext.OrgFrom(r.Context())
			if !ok {
				t.Fatal("Expected org context")
			}
			if org.OrgID != "org_1" || org.MemberID != "mem_1" || org.PlanTier != "pro" || org.Role != "member" {
				t.Errorf("Unexpected org context %+v", org)
			}
			w.WriteHeader(http.StatusOK)
		})

		handler.ServeHTTP(rr, orgRequest("usr_1", "acme"))

		if !called || rr.Code != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("Unknown organization", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE shortcode = ?").
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})
		handler.ServeHTTP(rr, orgRequest("usr_1", "nope"))

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("Not a member", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE shortcode = ?").
			WithArgs("acme").
			WillReturnRows(sqlmock.NewRows(orgCols).AddRow("org_1", "acme", "Acme", "pro", 1700000000))
		mock.ExpectQuery("SELECT (.+) FROM org_members").
			WithArgs("org_1", "usr_2").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})
		handler.ServeHTTP(rr, orgRequest("usr_2", "acme"))

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("Missing claims", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()
		middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		}).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRequireOrgRole(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{"owner", http.StatusOK},
		{"admin", http.StatusOK},
		{"member", http.StatusForbidden},
	}

	for _, tt := range tests {
		req, _ := http.NewRequest("GET", "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), apiContext.Org, &apiContext.OrgContext{Role: tt.role}))
		rr := httptest.NewRecorder()

		RequireOrgRole("owner", "admin")(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}).ServeHTTP(rr, req)

		if rr.Code != tt.want {
			t.Errorf("role %s: expected %d, got %d", tt.role, tt.want, rr.Code)
		}
	}
}
