package classify

import "testing"

func TestIsBankSender(t *testing.T) {
	c := New(nil, nil)

	tests := []struct {
		sender string
		want   bool
	}{
		{"VM-HDFC", true},
		{"vm-hdfc", true},
		{"AD-HDFCBK", true},
		{"VM-ICICI", true},
		{"VM-PAYTM", true},
		{"PHONEPE", true},
		{"PROMO-XYZ", false},
		{"+919876543210", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := c.IsBankSender(tt.sender); got != tt.want {
			t.Errorf("IsBankSender(%q) = %v, want %v", tt.sender, got, tt.want)
		}
	}
}

func TestIsBankSenderCustomList(t *testing.T) {
	c := New([]string{"MYBANK"}, nil)

	if !c.IsBankSender("VM-MYBANK") {
		t.Error("custom identifier should match as substring")
	}
	if c.IsBankSender("VM-HDFC") {
		t.Error("default identifiers should not apply with a custom list")
	}
}

func TestIsTransactionMessage(t *testing.T) {
	c := New(nil, nil)

	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "debit with balance",
			body: "Rs 450.00 debited from A/c XX1234 on 09-Jan-26 to Swiggy via UPI. Avl Bal: Rs 5,234.50",
			want: true,
		},
		{
			name: "credit",
			body: "Rs 1,250.50 credited to A/c XX5678 on 09-Jan-26 via UPI from John Doe. Avl Bal: Rs 8,432.10",
			want: true,
		},
		{
			name: "card spend with INR marker",
			body: "INR 385 spent at Dominos Pizza via card XX9876 on 09-Jan-26. Available limit: Rs 45,000",
			want: true,
		},
		{
			name: "upi payment with dotted marker",
			body: "You paid Rs.299.00 to Amazon Pay via UPI on 09-Jan-26 at 6:30 PM",
			want: true,
		},
		{
			name: "rupee sign",
			body: "₹1,200 received via UPI",
			want: true,
		},
		{
			name: "promo without amount",
			body: "50% off on your next order!",
			want: false,
		},
		{
			name: "keywords but no amount pattern",
			body: "Your account balance statement is ready",
			want: false,
		},
		{
			name: "otp mentioning a price",
			body: "Use OTP 123456 for your order of 500 items",
			want: false,
		},
		{
			name: "empty",
			body: "",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsTransactionMessage(tt.body); got != tt.want {
				t.Errorf("IsTransactionMessage(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		body string
		want string
		ok   bool
	}{
		{"Rs 450.00 debited from A/c XX1234", "450", true},
		{"Avl Bal: Rs 5,234.50", "5234.5", true},
		{"INR 385 spent at Dominos", "385", true},
		{"You paid Rs.299.00 to Amazon Pay", "299", true},
		{"₹1,200 received", "1200", true},
		{"no money here", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		amt, ok := ExtractAmount(tt.body)
		if ok != tt.ok {
			t.Errorf("ExtractAmount(%q) ok = %v, want %v", tt.body, ok, tt.ok)
			continue
		}
		if ok && amt.String() != tt.want {
			t.Errorf("ExtractAmount(%q) = %s, want %s", tt.body, amt.String(), tt.want)
		}
	}
}
