package formula

import "testing"

func TestSmartTag(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Revenue", "@Revenue"},
		{"payment date", "@PaymentDate"},
		{"Beginning Balance", "@BeginBalance"},
		{"Ending Balance", "@EndBalance"},
		{"Total Sales", "@TotalSales"},
		{"Sum of Claims", "@TotalOfClaims"},
		{"Amount (USD)", "@AmountUsd"},
		{"REVENUE", "@Revenue"},
	}
	for _, tc := range cases {
		if got := SmartTag(tc.header); got != tc.want {
			t.Errorf("SmartTag(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
