package feature

import (
	"strings"

	"github.com/gyaneshwarpardhi/bankpredict/internal/form"
)

// Churn column names as recorded at training time.
const (
	ColAge             = "Age"
	ColTenure          = "Tenure"
	ColBalance         = "Balance"
	ColNumOfProducts   = "NumOfProducts"
	ColEstimatedSalary = "EstimatedSalary"
	ColMonthlyIncome   = "Monthly_Income"
	ColCreditScore     = "CreditScore"
	ColEMIAmount       = "EMI_Amount"
	ColSentimentScore  = "Sentiment_Score"
	ColHasCrCard       = "HasCrCard"
	ColIsActiveMember  = "IsActiveMember"
)

// ChurnScaledColumns are the churn columns passed through the numeric scaler, in order.
var ChurnScaledColumns = []string{
	ColAge, ColTenure, ColBalance, ColNumOfProducts, ColEstimatedSalary,
	ColMonthlyIncome, ColCreditScore, ColEMIAmount, ColSentimentScore,
}

// ChurnFlagColumns are the 0/1 churn columns that skip the scaler.
var ChurnFlagColumns = []string{ColHasCrCard, ColIsActiveMember}

// ChurnDefaults supplies the training-time fields the churn form does not collect.
type ChurnDefaults struct {
	SentimentScore  float64
	NativePlace     string
	AccountType     string
	LoanStatus      string
	BranchCode      string
	ReviewSentiment string
}

// DefaultChurnDefaults returns the placeholder values the deployed churn model was served with.
func DefaultChurnDefaults() ChurnDefaults {
	return ChurnDefaults{
		SentimentScore:  0.5,
		NativePlace:     "Chennai",
		AccountType:     "Savings",
		LoanStatus:      "Yes",
		BranchCode:      "101",
		ReviewSentiment: "Happy",
	}
}

// Churn is the engineered churn record.
type Churn struct {
	Request        form.ChurnRequest
	MonthlyIncome  float64
	EMIAmount      float64
	SentimentScore float64
	// Categories is the space-joined categorical string fed to the text vectorizer.
	Categories string
}

// EngineerChurn derives the churn features from a validated request.
func EngineerChurn(req form.ChurnRequest, d ChurnDefaults) Churn {
	emi := 0.0
	if req.Balance > 0 {
		emi = req.Balance / 12
	}
	// Training joined: Gender Geography Native_Place Marital_Status Account_Type
	// Loan_Status Branch_Code Review_Sentiment.
	cats := strings.Join([]string{
		req.Gender, req.Geography, d.NativePlace, req.MaritalStatus,
		d.AccountType, d.LoanStatus, d.BranchCode, d.ReviewSentiment,
	}, " ")
	return Churn{
		Request:        req,
		MonthlyIncome:  req.EstimatedSalary,
		EMIAmount:      emi,
		SentimentScore: d.SentimentScore,
		Categories:     cats,
	}
}

// Numeric returns the scaler input columns in ChurnScaledColumns order.
func (c Churn) Numeric() Vector {
	r := c.Request
	v, _ := NewVector(ChurnScaledColumns, []float64{
		r.Age, r.Tenure, r.Balance, r.NumOfProducts, r.EstimatedSalary,
		c.MonthlyIncome, r.CreditScore, c.EMIAmount, c.SentimentScore,
	})
	return v
}

// Flags returns the unscaled 0/1 columns.
func (c Churn) Flags() Vector {
	v, _ := NewVector(ChurnFlagColumns, []float64{
		float64(c.Request.HasCrCard), float64(c.Request.IsActiveMember),
	})
	return v
}
