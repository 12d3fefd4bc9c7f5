package form

import "net/url"

// ChurnRequest is the typed churn form (POST /predict_by_input).
type ChurnRequest struct {
	Gender          string
	Geography       string
	MaritalStatus   string
	Age             float64
	Tenure          float64
	Balance         float64
	NumOfProducts   float64
	EstimatedSalary float64
	CreditScore     float64
	HasCrCard       int
	IsActiveMember  int
}

// ParseChurn validates values and returns a ChurnRequest or a *ValidationError.
func ParseChurn(values url.Values) (ChurnRequest, error) {
	f := &fields{src: values}
	req := ChurnRequest{
		Gender:          f.str("gender"),
		Geography:       f.str("geography"),
		MaritalStatus:   f.str("marital_status"),
		Age:             f.number("age"),
		Tenure:          f.number("tenure"),
		Balance:         f.number("balance"),
		NumOfProducts:   f.number("num_of_products"),
		EstimatedSalary: f.number("estimated_salary"),
		CreditScore:     f.number("credit_score"),
		HasCrCard:       f.flag("has_cr_card"),
		IsActiveMember:  f.flag("is_active_member"),
	}
	f.nonNegative("age", req.Age)
	f.nonNegative("tenure", req.Tenure)
	f.nonNegative("num_of_products", req.NumOfProducts)

	if err := newValidationError("churn", f.err); err != nil {
		return ChurnRequest{}, err
	}
	return req, nil
}

// LoanRequest is the typed loan form (POST /predict_loan).
type LoanRequest struct {
	Gender            string
	Married           string
	Dependents        int
	Education         string
	SelfEmployed      string
	ApplicantIncome   float64
	CoapplicantIncome float64
	LoanAmount        float64
	LoanAmountTerm    float64
	CreditHistory     float64
	PropertyArea      string
}

// ParseLoan validates values and returns a LoanRequest or a *ValidationError.
// coapplicant_income and loan_amount are optional and default to 0.
func ParseLoan(values url.Values) (LoanRequest, error) {
	f := &fields{src: values}
	req := LoanRequest{
		Gender:            f.str("gender"),
		Married:           f.str("married"),
		Education:         f.str("education"),
		SelfEmployed:      f.str("self_employed"),
		ApplicantIncome:   f.number("applicant_income"),
		CoapplicantIncome: f.optionalNumber("coapplicant_income"),
		LoanAmount:        f.optionalNumber("loan_amount"),
		LoanAmountTerm:    f.number("loan_amount_term"),
		CreditHistory:     f.number("credit_history"),
		PropertyArea:      f.str("property_area"),
	}
	if raw := f.str("dependents"); raw != "" {
		n, err := ParseDependents(raw)
		if err != nil {
			f.fail("dependents", "%s", err)
		}
		req.Dependents = n
	}
	// Incomes and the term feed (x+1) denominators; keeping them non-negative keeps those
	// denominators at least 1.
	f.nonNegative("applicant_income", req.ApplicantIncome)
	f.nonNegative("coapplicant_income", req.CoapplicantIncome)
	f.nonNegative("loan_amount", req.LoanAmount)
	f.nonNegative("loan_amount_term", req.LoanAmountTerm)

	if err := newValidationError("loan", f.err); err != nil {
		return LoanRequest{}, err
	}
	return req, nil
}
