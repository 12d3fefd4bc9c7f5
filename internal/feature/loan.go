package feature

import (
	"math"

	"github.com/gyaneshwarpardhi/bankpredict/internal/form"
)

// Loan categorical columns, in training order.
var LoanCategoricalColumns = []string{
	"Gender", "Married", "Education", "Self_Employed", "Property_Area",
}

// LoanNumericColumns are the raw and derived numeric loan columns, in training order.
var LoanNumericColumns = []string{
	"Dependents", "ApplicantIncome", "CoapplicantIncome", "LoanAmount",
	"Loan_Amount_Term", "Credit_History",
	"Total_Income", "Income_per_Member", "Loan_Amount_to_Income", "EMI",
	"Balance_Income", "EMI_ratio", "Loan_Income_log", "Credit_History_Effect",
	"LoanAmount_Education", "Has_Coapplicant", "Income_Term_Ratio",
}

// Loan is the engineered loan record. Formulas match the training script exactly.
type Loan struct {
	Request form.LoanRequest

	TotalIncome         float64
	IncomePerMember     float64
	LoanAmountToIncome  float64
	EMI                 float64
	BalanceIncome       float64
	EMIRatio            float64
	LoanIncomeLog       float64
	CreditHistoryEffect float64
	LoanAmountEducation float64
	HasCoapplicant      float64
	IncomeTermRatio     float64
}

// EngineerLoan derives the loan features from a validated request.
func EngineerLoan(req form.LoanRequest) Loan {
	total := req.ApplicantIncome + req.CoapplicantIncome
	emi := 0.0
	if req.LoanAmountTerm > 0 {
		emi = req.LoanAmount / req.LoanAmountTerm
	}
	loanToIncome := req.LoanAmount / (total + 1)
	graduate := 0.0
	if req.Education == "Graduate" {
		graduate = 1
	}
	coapplicant := 0.0
	if req.CoapplicantIncome > 0 {
		coapplicant = 1
	}
	return Loan{
		Request:             req,
		TotalIncome:         total,
		IncomePerMember:     total / float64(req.Dependents+1),
		LoanAmountToIncome:  loanToIncome,
		EMI:                 emi,
		BalanceIncome:       total - emi*1000,
		EMIRatio:            emi / (total + 1),
		LoanIncomeLog:       math.Log1p(req.LoanAmount / (total + 1)),
		CreditHistoryEffect: req.CreditHistory * loanToIncome,
		LoanAmountEducation: req.LoanAmount * graduate,
		HasCoapplicant:      coapplicant,
		IncomeTermRatio:     total / (req.LoanAmountTerm + 1),
	}
}

// Categorical returns the categorical columns keyed by training column name.
func (l Loan) Categorical() map[string]string {
	r := l.Request
	return map[string]string{
		"Gender":        r.Gender,
		"Married":       r.Married,
		"Education":     r.Education,
		"Self_Employed": r.SelfEmployed,
		"Property_Area": r.PropertyArea,
	}
}

// Numeric returns the numeric columns in LoanNumericColumns order.
func (l Loan) Numeric() Vector {
	r := l.Request
	v, _ := NewVector(LoanNumericColumns, []float64{
		float64(r.Dependents), r.ApplicantIncome, r.CoapplicantIncome, r.LoanAmount,
		r.LoanAmountTerm, r.CreditHistory,
		l.TotalIncome, l.IncomePerMember, l.LoanAmountToIncome, l.EMI,
		l.BalanceIncome, l.EMIRatio, l.LoanIncomeLog, l.CreditHistoryEffect,
		l.LoanAmountEducation, l.HasCoapplicant, l.IncomeTermRatio,
	})
	return v
}
