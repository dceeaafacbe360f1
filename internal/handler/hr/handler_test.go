package hr_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/backoffice-api/internal/email"
	"github.com/jwalitptl/backoffice-api/internal/handler/handlertest"
	hrHandler "github.com/jwalitptl/backoffice-api/internal/handler/hr"
	"github.com/jwalitptl/backoffice-api/internal/model"
	"github.com/jwalitptl/backoffice-api/internal/repository"
	"github.com/jwalitptl/backoffice-api/internal/service/audit"
	"github.com/jwalitptl/backoffice-api/internal/service/hr"
	"github.com/jwalitptl/backoffice-api/pkg/messaging"
)

type fixture struct {
	*handlertest.Env
	mail   *email.Recorder
	events *messaging.Recorder
}

func setup(t *testing.T) fixture {
	env := handlertest.New(t)
	f := fixture{Env: env, mail: &email.Recorder{}, events: &messaging.Recorder{}}
	svc := hr.NewService(env.Store, f.mail, f.events, audit.NewLogger(audit.NewService(env.Store)))
	hrHandler.NewHandler(svc, env.Responder).RegisterRoutes(env.API)
	return f
}

func newHire(first, last, mail string) map[string]interface{} {
	return map[string]interface{}{
		"firstName":  first,
		"lastName":   last,
		"email":      mail,
		"department": "engineering",
		"position":   "developer",
	}
}

func TestCreateEmployee(t *testing.T) {
	f := setup(t)

	var first, second model.Employee
	res := f.Do(t, http.MethodPost, "/api/v1/hr/employees", newHire("Ada", "Lovelace", "Ada@Example.com"))
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&first)
	assert.Equal(t, "EMP0001", first.EmployeeID)
	assert.Equal(t, "ada@example.com", first.Email)
	assert.Equal(t, hr.StatusActive, first.Status)
	assert.False(t, first.HireDate.IsZero())

	f.Do(t, http.MethodPost, "/api/v1/hr/employees", newHire("Alan", "Turing", "alan@example.com")).StatusOK().Decode(&second)
	assert.Equal(t, "EMP0002", second.EmployeeID)

	res = f.Do(t, http.MethodPost, "/api/v1/hr/employees", newHire("Ada", "King", "ADA@example.com"))
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, hr.CodeEmployeeExists, res.Envelope.Error)
	assert.Equal(t, 2, f.DB.Len(repository.CollEmployees))

	res = f.Do(t, http.MethodPost, "/api/v1/hr/employees", map[string]string{"firstName": "No", "email": "no@example.com"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "MISSING_REQUIRED_FIELDS", res.Envelope.Error)

	assert.Equal(t, []email.Sent{
		{To: "ada@example.com", Subject: "welcome:Ada Lovelace"},
		{To: "alan@example.com", Subject: "welcome:Alan Turing"},
	}, f.mail.Sent())
	assert.Equal(t, []string{messaging.EventEmployeeCreated, messaging.EventEmployeeCreated}, f.events.Types())
}

func TestEmployeeIDsAreNeverReused(t *testing.T) {
	f := setup(t)

	var a, b, c model.Employee
	f.Do(t, http.MethodPost, "/api/v1/hr/employees", newHire("Ada", "Lovelace", "ada@example.com")).StatusOK().Decode(&a)
	f.Do(t, http.MethodPost, "/api/v1/hr/employees", newHire("Alan", "Turing", "alan@example.com")).StatusOK().Decode(&b)
	f.Do(t, http.MethodDelete, "/api/v1/hr/employees/"+a.ID.Hex(), nil).StatusOK()

	res := f.Do(t, http.MethodPost, "/api/v1/hr/employees", newHire("Grace", "Hopper", "grace@example.com"))
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&c)
	assert.Equal(t, "EMP0003", c.EmployeeID)

	var list []model.Employee
	f.Do(t, http.MethodGet, "/api/v1/hr/employees", nil).StatusOK().Decode(&list)
	require.Len(t, list, 2)
	assert.NotEqual(t, list[0].EmployeeID, list[1].EmployeeID)
}

func TestEmployeeIDSkipsIDsAlreadyHeld(t *testing.T) {
	f := setup(t)
	handlertest.Seed(t, f.Store.Employees,
		model.Employee{EmployeeID: "EMP0001", FirstName: "Grace", Email: "grace@example.com"},
		model.Employee{EmployeeID: "EMP0002", FirstName: "Joan", Email: "joan@example.com"},
	)

	var e model.Employee
	res := f.Do(t, http.MethodPost, "/api/v1/hr/employees", newHire("Ada", "Lovelace", "ada@example.com"))
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&e)
	assert.Equal(t, "EMP0003", e.EmployeeID)
	assert.Equal(t, 3, f.DB.Len(repository.CollEmployees))

	res = f.Do(t, http.MethodPost, "/api/v1/hr/employees", newHire("Joan", "Clarke", "joan@example.com"))
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, hr.CodeEmployeeExists, res.Envelope.Error)
}

func TestEmployeeCRUD(t *testing.T) {
	f := setup(t)
	seeded := handlertest.Seed(t, f.Store.Employees,
		model.Employee{EmployeeID: "EMP0001", FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Department: "engineering", Status: "active"},
		model.Employee{EmployeeID: "EMP0002", FirstName: "Joan", LastName: "Clarke", Email: "joan@example.com", Department: "research", Status: "on_leave"},
	)
	id := seeded[0].ID.Hex()

	var list []model.Employee
	res := f.Do(t, http.MethodGet, "/api/v1/hr/employees?search=emp0002", nil).StatusOK()
	res.Decode(&list)
	require.Len(t, list, 1)
	assert.Equal(t, "Joan", list[0].FirstName)
	assert.Equal(t, 50, res.Envelope.Pagination.Limit)

	f.Do(t, http.MethodGet, "/api/v1/hr/employees?department=engineering", nil).StatusOK().Decode(&list)
	assert.Len(t, list, 1)

	var e model.Employee
	f.Do(t, http.MethodPut, "/api/v1/hr/employees/"+id, map[string]interface{}{"position": "admiral", "salary": 90000}).StatusOK().Decode(&e)
	assert.Equal(t, "admiral", e.Position)
	assert.Equal(t, 90000.0, e.Salary)
	assert.Equal(t, "Grace", e.FirstName)

	f.Do(t, http.MethodPut, "/api/v1/hr/employees/"+id, map[string]interface{}{"salary": 0}).StatusOK().Decode(&e)
	assert.Zero(t, e.Salary)
	assert.Equal(t, "admiral", e.Position)

	res = f.Do(t, http.MethodPut, "/api/v1/hr/employees/"+id, map[string]string{"status": "retired"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	f.Do(t, http.MethodDelete, "/api/v1/hr/employees/"+id, nil).StatusOK()
	res = f.Do(t, http.MethodGet, "/api/v1/hr/employees/"+id, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, hr.CodeEmployeeNotFound, res.Envelope.Error)
}

func TestEmployeeIDClashesSurfaceAsConflict(t *testing.T) {
	f := setup(t)
	for i, id := range []string{"EMP0001", "EMP0002", "EMP0003", "EMP0004", "EMP0005"} {
		handlertest.Seed(t, f.Store.Employees, model.Employee{EmployeeID: id, FirstName: "Seed", Email: fmt.Sprintf("seed%d@example.com", i)})
	}

	res := f.Do(t, http.MethodPost, "/api/v1/hr/employees", newHire("Ada", "Lovelace", "ada@example.com"))
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "DUPLICATE_KEY", res.Envelope.Error)
	assert.Equal(t, 5, f.DB.Len(repository.CollEmployees))

	var e model.Employee
	f.Do(t, http.MethodPost, "/api/v1/hr/employees", newHire("Ada", "Lovelace", "ada@example.com")).StatusOK().Decode(&e)
	assert.Equal(t, "EMP0006", e.EmployeeID)
}

func TestPayrollAndRecruitment(t *testing.T) {
	f := setup(t)

	var p model.PayrollRecord
	res := f.Do(t, http.MethodPost, "/api/v1/hr/payroll", map[string]interface{}{
		"employeeId": "EMP0001", "period": "2024-05", "grossPay": 5000, "deductions": 1200,
	})
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&p)
	assert.Equal(t, 3800.0, p.NetPay)
	assert.Equal(t, hr.StatusPending, p.Status)

	var records []model.PayrollRecord
	f.Do(t, http.MethodGet, "/api/v1/hr/payroll?employeeId=EMP0001&period=2024-05", nil).StatusOK().Decode(&records)
	assert.Len(t, records, 1)

	var posting model.JobPosting
	res = f.Do(t, http.MethodPost, "/api/v1/hr/recruitment", map[string]interface{}{
		"title": "SRE", "department": "engineering", "employmentType": "full_time",
	})
	require.Equal(t, http.StatusCreated, res.Code)
	res.Decode(&posting)
	assert.Equal(t, hr.PostingOpen, posting.Status)
	assert.Equal(t, 1, posting.Openings)

	res = f.Do(t, http.MethodPost, "/api/v1/hr/recruitment", map[string]interface{}{
		"title": "SRE", "department": "engineering", "employmentType": "gig",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestStats(t *testing.T) {
	f := setup(t)
	handlertest.Seed(t, f.Store.Employees,
		model.Employee{FirstName: "A", Department: "engineering", Status: "active"},
		model.Employee{FirstName: "B", Department: "engineering", Status: "active"},
		model.Employee{FirstName: "C", Department: "sales", Status: "terminated"},
	)
	handlertest.Seed(t, f.Store.JobPostings,
		model.JobPosting{Title: "SRE", Status: hr.PostingOpen},
		model.JobPosting{Title: "PM", Status: "closed"},
	)
	handlertest.Seed(t, f.Store.JobApplications,
		model.JobApplication{Name: "Kim", Status: hr.StatusPending},
		model.JobApplication{Name: "Lee", Status: "rejected"},
	)

	var stats model.HRStats
	f.Do(t, http.MethodGet, "/api/v1/hr/stats", nil).StatusOK().Decode(&stats)
	assert.Equal(t, int64(3), stats.TotalEmployees)
	assert.Equal(t, int64(2), stats.ActiveEmployees)
	assert.Equal(t, []model.Count{{Key: "engineering", Count: 2}, {Key: "sales", Count: 1}}, stats.ByDepartment)
	assert.Equal(t, int64(1), stats.OpenPositions)
	assert.Equal(t, int64(1), stats.PendingApplications)
}

func TestApplications(t *testing.T) {
	f := setup(t)
	handlertest.Seed(t, f.Store.JobApplications,
		model.JobApplication{Name: "Kim", Email: "kim@example.com", Position: "SRE", Department: "engineering", Status: "pending"},
		model.JobApplication{Name: "Lee", Email: "lee@example.com", Position: "SRE", Department: "engineering", Status: "interview"},
		model.JobApplication{Name: "Max", Email: "max@example.com", Position: "AE", Department: "sales", Status: "pending"},
	)

	var list []model.JobApplication
	res := f.Do(t, http.MethodGet, "/api/v1/hr/applications", nil).StatusOK()
	res.Decode(&list)
	assert.Len(t, list, 3)
	assert.Equal(t, 20, res.Envelope.Pagination.Limit)

	f.Do(t, http.MethodGet, "/api/v1/hr/applications?status=pending&department=engineering", nil).StatusOK().Decode(&list)
	require.Len(t, list, 1)
	assert.Equal(t, "Kim", list[0].Name)

	f.Do(t, http.MethodGet, "/api/v1/hr/applications?position=AE", nil).StatusOK().Decode(&list)
	require.Len(t, list, 1)
	assert.Equal(t, "Max", list[0].Name)
}

func TestAnalytics(t *testing.T) {
	f := setup(t)
	now := time.Now().UTC()
	handlertest.Seed(t, f.Store.Employees,
		model.Employee{FirstName: "A", Department: "engineering", Status: "active", HireDate: now.Add(-48 * time.Hour)},
		model.Employee{FirstName: "B", Department: "engineering", Status: "active", HireDate: now.AddDate(-2, 0, 0)},
		model.Employee{FirstName: "C", Department: "sales", Status: "terminated", HireDate: now.AddDate(-1, 0, 0)},
	)
	handlertest.Seed(t, f.Store.Payroll,
		model.PayrollRecord{EmployeeID: "EMP0001", Period: now.Format("2006-01"), GrossPay: 5000, NetPay: 3800},
		model.PayrollRecord{EmployeeID: "EMP0002", Period: now.Format("2006-01"), GrossPay: 4000, NetPay: 3000},
		model.PayrollRecord{EmployeeID: "EMP0001", Period: "2001-01", GrossPay: 9999, NetPay: 9999},
	)
	handlertest.Seed(t, f.Store.JobApplications,
		model.JobApplication{Name: "Kim", Status: "pending"},
		model.JobApplication{Name: "Lee", Status: "pending"},
		model.JobApplication{Name: "Max", Status: "hired"},
	)

	var out model.HRAnalytics
	f.Do(t, http.MethodGet, "/api/v1/hr/analytics?period=7d", nil).StatusOK().Decode(&out)
	assert.Equal(t, "7d", out.Period)
	assert.Equal(t, int64(3), out.TotalEmployees)
	assert.Equal(t, int64(2), out.ActiveEmployees)
	assert.Equal(t, int64(1), out.NewHires)
	assert.Equal(t, []model.Count{{Key: "engineering", Count: 2}, {Key: "sales", Count: 1}}, out.ByDepartment)
	assert.Equal(t, model.PayrollSummary{Period: now.Format("2006-01"), Records: 2, TotalGross: 9000, TotalNet: 6800}, out.Payroll)
	assert.Equal(t, []model.Count{{Key: "pending", Count: 2}, {Key: "hired", Count: 1}}, out.ApplicationsByStatus)
	assert.False(t, out.GeneratedAt.IsZero())

	f.Do(t, http.MethodGet, "/api/v1/hr/analytics?period=400d", nil).StatusOK().Decode(&out)
	assert.Equal(t, int64(2), out.NewHires)

	res := f.Do(t, http.MethodGet, "/api/v1/hr/analytics?period=soon", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}
