package feature

import (
	"math"
	"testing"

	"github.com/gyaneshwarpardhi/bankpredict/internal/form"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func sampleChurn() form.ChurnRequest {
	return form.ChurnRequest{
		Gender: "Female", Geography: "France", MaritalStatus: "Single",
		Age: 35, Tenure: 5, Balance: 50000, NumOfProducts: 2,
		EstimatedSalary: 60000, CreditScore: 650, HasCrCard: 1, IsActiveMember: 1,
	}
}

func TestEngineerChurn(t *testing.T) {
	c := EngineerChurn(sampleChurn(), DefaultChurnDefaults())

	if !approx(c.EMIAmount, 50000.0/12) {
		t.Errorf("EMIAmount = %v, want %v", c.EMIAmount, 50000.0/12)
	}
	if math.Abs(c.EMIAmount-4166.67) > 0.005 {
		t.Errorf("EMIAmount = %.4f, want about 4166.67", c.EMIAmount)
	}
	if c.MonthlyIncome != 60000 {
		t.Errorf("MonthlyIncome = %v, want 60000", c.MonthlyIncome)
	}
	if c.SentimentScore != 0.5 {
		t.Errorf("SentimentScore = %v, want 0.5", c.SentimentScore)
	}
	want := "Female France Chennai Single Savings Yes 101 Happy"
	if c.Categories != want {
		t.Errorf("Categories = %q, want %q", c.Categories, want)
	}

	num := c.Numeric()
	if num.Len() != len(ChurnScaledColumns) {
		t.Fatalf("numeric len = %d", num.Len())
	}
	if v, _ := num.Get(ColEMIAmount); !approx(v, 50000.0/12) {
		t.Errorf("EMI_Amount column = %v", v)
	}
	if v, _ := c.Flags().Get(ColIsActiveMember); v != 1 {
		t.Errorf("IsActiveMember column = %v", v)
	}
}

func TestEngineerChurnNonPositiveBalance(t *testing.T) {
	for _, balance := range []float64{0, -100} {
		req := sampleChurn()
		req.Balance = balance
		if got := EngineerChurn(req, DefaultChurnDefaults()).EMIAmount; got != 0 {
			t.Errorf("balance %v: EMIAmount = %v, want 0", balance, got)
		}
	}
}

func sampleLoan() form.LoanRequest {
	return form.LoanRequest{
		Gender: "Male", Married: "Yes", Dependents: 3, Education: "Graduate",
		SelfEmployed: "No", ApplicantIncome: 5000, CoapplicantIncome: 1500,
		LoanAmount: 120, LoanAmountTerm: 360, CreditHistory: 1, PropertyArea: "Urban",
	}
}

func TestEngineerLoanFormulas(t *testing.T) {
	l := EngineerLoan(sampleLoan())

	total := 6500.0
	emi := 120.0 / 360
	lti := 120 / (total + 1)
	checks := []struct {
		name      string
		got, want float64
	}{
		{"Total_Income", l.TotalIncome, total},
		{"Income_per_Member", l.IncomePerMember, total / 4},
		{"Loan_Amount_to_Income", l.LoanAmountToIncome, lti},
		{"EMI", l.EMI, emi},
		{"Balance_Income", l.BalanceIncome, total - emi*1000},
		{"EMI_ratio", l.EMIRatio, emi / (total + 1)},
		{"Loan_Income_log", l.LoanIncomeLog, math.Log1p(lti)},
		{"Credit_History_Effect", l.CreditHistoryEffect, lti},
		{"LoanAmount_Education", l.LoanAmountEducation, 120},
		{"Has_Coapplicant", l.HasCoapplicant, 1},
		{"Income_Term_Ratio", l.IncomeTermRatio, total / 361},
	}
	for _, c := range checks {
		if !approx(c.got, c.want) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	num := l.Numeric()
	if num.Len() != len(LoanNumericColumns) {
		t.Fatalf("numeric len = %d, want %d", num.Len(), len(LoanNumericColumns))
	}
	if got := len(l.Categorical()); got != len(LoanCategoricalColumns) {
		t.Fatalf("categorical len = %d", got)
	}
}

func TestEngineerLoanZeroTermGuard(t *testing.T) {
	req := sampleLoan()
	req.LoanAmountTerm = 0
	l := EngineerLoan(req)
	if l.EMI != 0 {
		t.Fatalf("EMI = %v, want 0 for a zero term", l.EMI)
	}
	if l.EMIRatio != 0 {
		t.Fatalf("EMI_ratio = %v, want 0", l.EMIRatio)
	}
	for _, v := range l.Numeric().Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite feature in %v", l.Numeric().Map())
		}
	}
}

func TestEngineerLoanAllZeroIncome(t *testing.T) {
	req := sampleLoan()
	req.ApplicantIncome, req.CoapplicantIncome, req.LoanAmount = 0, 0, 0
	req.Education = "Not Graduate"
	l := EngineerLoan(req)
	if l.HasCoapplicant != 0 || l.LoanAmountEducation != 0 || l.LoanIncomeLog != 0 {
		t.Fatalf("unexpected derived values %+v", l)
	}
}
