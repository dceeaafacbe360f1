package model

import "time"

type Employee struct {
	Base       `bson:",inline"`
	EmployeeID string    `json:"employeeId" bson:"employeeId"`
	FirstName  string    `json:"firstName" bson:"firstName"`
	LastName   string    `json:"lastName" bson:"lastName"`
	Email      string    `json:"email" bson:"email"`
	Phone      string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Department string    `json:"department" bson:"department"`
	Position   string    `json:"position" bson:"position"`
	Status     string    `json:"status" bson:"status"`
	Salary     float64   `json:"salary,omitempty" bson:"salary,omitempty"`
	ManagerID  string    `json:"managerId,omitempty" bson:"managerId,omitempty"`
	HireDate   time.Time `json:"hireDate" bson:"hireDate"`
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type PayrollRecord struct {
	Base       `bson:",inline"`
	EmployeeID string     `json:"employeeId" bson:"employeeId"`
	Period     string     `json:"period" bson:"period"`
	GrossPay   float64    `json:"grossPay" bson:"grossPay"`
	Deductions float64    `json:"deductions" bson:"deductions"`
	NetPay     float64    `json:"netPay" bson:"netPay"`
	Status     string     `json:"status" bson:"status"`
	PaidAt     *time.Time `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

type JobPosting struct {
	Base           `bson:",inline"`
	Title          string `json:"title" bson:"title"`
	Department     string `json:"department" bson:"department"`
	Location       string `json:"location,omitempty" bson:"location,omitempty"`
	EmploymentType string `json:"employmentType" bson:"employmentType"`
	Description    string `json:"description,omitempty" bson:"description,omitempty"`
	Openings       int    `json:"openings" bson:"openings"`
	Status         string `json:"status" bson:"status"`
}

type HRStats struct {
	TotalEmployees      int64   `json:"totalEmployees"`
	ActiveEmployees     int64   `json:"activeEmployees"`
	ByDepartment        []Count `json:"byDepartment"`
	ByStatus            []Count `json:"byStatus"`
	OpenPositions       int64   `json:"openPositions"`
	PendingApplications int64   `json:"pendingApplications"`
}

type JobApplication struct {
	Base       `bson:",inline"`
	JobID      string `json:"jobId" bson:"jobId"`
	Name       string `json:"name" bson:"name"`
	Email      string `json:"email" bson:"email"`
	Phone      string `json:"phone,omitempty" bson:"phone,omitempty"`
	Position   string `json:"position" bson:"position"`
	Department string `json:"department" bson:"department"`
	Status     string `json:"status" bson:"status"`
	ResumeURL  string `json:"resumeUrl,omitempty" bson:"resumeUrl,omitempty"`
}

// PayrollSummary totals the pay runs recorded for one YYYY-MM period.
type PayrollSummary struct {
	Period     string  `json:"period"`
	Records    int64   `json:"records"`
	TotalGross float64 `json:"totalGross"`
	TotalNet   float64 `json:"totalNet"`
}

type HRAnalytics struct {
	Period               string         `json:"period"`
	TotalEmployees       int64          `json:"totalEmployees"`
	ActiveEmployees      int64          `json:"activeEmployees"`
	NewHires             int64          `json:"newHires"`
	ByDepartment         []Count        `json:"byDepartment"`
	Payroll              PayrollSummary `json:"payroll"`
	ApplicationsByStatus []Count        `json:"applicationsByStatus"`
	GeneratedAt          time.Time      `json:"generatedAt"`
}
